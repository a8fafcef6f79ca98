package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrProviderUnconfigured is returned by an IdentityProvider that has no credentials.
// Callers treat it as "use the local account list".
var ErrProviderUnconfigured = errors.New("identity provider is not configured")

// RemoteError is a failure reported by the identity provider itself.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("identity provider responded %d: %s", e.Status, e.Message)
}

type RemoteAccount struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (RemoteAccount, error)
	SignUp(ctx context.Context, email, password string) (RemoteAccount, error)
	UpdateDisplayName(ctx context.Context, idToken, name string) error
}

// IdentityClient talks to the Identity Toolkit REST API (accounts:* methods).
type IdentityClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewIdentityClient(endpoint, apiKey string, httpClient *http.Client) *IdentityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &IdentityClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (RemoteAccount, error) {
	var resp accountResponse
	if err := c.call(ctx, "signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return RemoteAccount{}, err
	}
	return resp.account(), nil
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (RemoteAccount, error) {
	var resp accountResponse
	if err := c.call(ctx, "signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return RemoteAccount{}, err
	}
	return resp.account(), nil
}

func (c *IdentityClient) UpdateDisplayName(ctx context.Context, idToken, name string) error {
	var resp accountResponse
	return c.call(ctx, "update", updateRequest{IDToken: idToken, DisplayName: name}, &resp)
}

func (c *IdentityClient) call(ctx context.Context, method string, body any, out any) error {
	if c.apiKey == "" {
		return ErrProviderUnconfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", c.endpoint, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return &RemoteError{Status: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return &RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

func (r accountResponse) account() RemoteAccount {
	name := r.DisplayName
	if name == "" {
		name = nameFromIDToken(r.IDToken)
	}
	return RemoteAccount{
		UID:         r.LocalID,
		Email:       r.Email,
		DisplayName: name,
		IDToken:     r.IDToken,
	}
}

type idTokenClaims struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// nameFromIDToken reads the display name claim. The token came straight from the
// provider over TLS, so its signature is not checked here.
func nameFromIDToken(idToken string) string {
	if idToken == "" {
		return ""
	}
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	return claims.Name
}

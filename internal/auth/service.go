package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/fatali-fataliyev/expense_manager/internal/metrics"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/google/uuid"
)

const (
	providerRemote = "remote"
	providerLocal  = "local"
)

type Service struct {
	store    *kv.Store
	identity IdentityProvider
}

// NewService builds the auth service. identity may be nil, in which case only the
// local account list is used.
func NewService(store *kv.Store, identity IdentityProvider) *Service {
	return &Service{store: store, identity: identity}
}

func (s *Service) Login(ctx context.Context, creds Credentials) (SessionRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)
	creds.Email = strings.TrimSpace(creds.Email)

	if err := creds.Validate(); err != nil {
		return SessionRecord{}, err
	}

	if s.identity != nil {
		account, err := s.identity.SignIn(ctx, creds.Email, creds.PasswordPlain)
		if err == nil {
			name := account.DisplayName
			if name == "" {
				name = nameFromEmail(creds.Email)
			}
			email := account.Email
			if email == "" {
				email = creds.Email
			}
			session := SessionRecord{ID: account.UID, Name: name, Email: email}
			if err := s.cacheSession(ctx, session); err != nil {
				return SessionRecord{}, err
			}
			metrics.AuthAttempts.WithLabelValues("login", providerRemote, "success").Inc()
			logging.Logger.Infof("[TraceID=%s] | user %s signed in via identity provider", traceID, session.ID)
			return session, nil
		}
		if !errors.Is(err, ErrProviderUnconfigured) {
			metrics.AuthAttempts.WithLabelValues("login", providerRemote, "failure").Inc()
			return SessionRecord{}, remoteFailure(traceID, "Auth.Login", err)
		}
	}

	var users []LocalUser
	s.store.Get(ctx, kv.KeyUsers, &users)

	for _, user := range users {
		if user.Email == creds.Email && ComparePasswords(user.PasswordHashed, creds.PasswordPlain) {
			session := user.session()
			if err := s.cacheSession(ctx, session); err != nil {
				return SessionRecord{}, err
			}
			metrics.AuthAttempts.WithLabelValues("login", providerLocal, "success").Inc()
			return session, nil
		}
	}

	metrics.AuthAttempts.WithLabelValues("login", providerLocal, "failure").Inc()
	return SessionRecord{}, appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: MsgInvalidCredentials,
	}
}

func (s *Service) Register(ctx context.Context, newUser NewUser) (SessionRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)
	newUser.Name = strings.TrimSpace(newUser.Name)
	newUser.Email = strings.TrimSpace(newUser.Email)

	if err := newUser.ValidateUserFields(); err != nil {
		return SessionRecord{}, err
	}

	if s.identity != nil {
		session, err := s.registerRemote(ctx, newUser)
		if err == nil {
			metrics.AuthAttempts.WithLabelValues("register", providerRemote, "success").Inc()
			return session, nil
		}
		if !errors.Is(err, ErrProviderUnconfigured) {
			metrics.AuthAttempts.WithLabelValues("register", providerRemote, "failure").Inc()
			return SessionRecord{}, remoteFailure(traceID, "Auth.Register", err)
		}
	}

	user, err := s.CreateLocalAccount(ctx, newUser)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", providerLocal, "failure").Inc()
		return SessionRecord{}, err
	}

	session := user.session()
	if err := s.cacheSession(ctx, session); err != nil {
		return SessionRecord{}, err
	}
	metrics.AuthAttempts.WithLabelValues("register", providerLocal, "success").Inc()
	return session, nil
}

func (s *Service) registerRemote(ctx context.Context, newUser NewUser) (SessionRecord, error) {
	account, err := s.identity.SignUp(ctx, newUser.Email, newUser.PasswordPlain)
	if err != nil {
		return SessionRecord{}, err
	}
	if err := s.identity.UpdateDisplayName(ctx, account.IDToken, newUser.Name); err != nil {
		return SessionRecord{}, err
	}

	email := account.Email
	if email == "" {
		email = newUser.Email
	}
	session := SessionRecord{ID: account.UID, Name: newUser.Name, Email: email}
	if err := s.cacheSession(ctx, session); err != nil {
		return SessionRecord{}, err
	}
	return session, nil
}

// CreateLocalAccount appends a user to the local account list without starting a
// session. Emails are unique within the list.
func (s *Service) CreateLocalAccount(ctx context.Context, newUser NewUser) (LocalUser, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	if err := newUser.ValidateUserFields(); err != nil {
		return LocalUser{}, err
	}

	hashed, err := HashPassword(newUser.PasswordPlain)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to hash password in Auth.CreateLocalAccount() | Error: %v", traceID, err)
		return LocalUser{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Registration failed, try again later.",
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return LocalUser{}, fmt.Errorf("failed to generate user id: %w", err)
	}
	user := LocalUser{
		ID:             "user_" + id.String(),
		Name:           newUser.Name,
		Email:          newUser.Email,
		PasswordHashed: hashed,
	}

	err = s.store.Atomic(func() error {
		var users []LocalUser
		s.store.Get(ctx, kv.KeyUsers, &users)

		for _, existing := range users {
			if existing.Email == newUser.Email {
				return appErrors.ErrorResponse{
					Code:    appErrors.ErrConflict,
					Message: MsgEmailRegistered,
				}
			}
		}

		users = append(users, user)
		return s.store.Set(ctx, kv.KeyUsers, users)
	})
	if err != nil {
		if appErrors.CodeOf(err) == appErrors.ErrConflict {
			return LocalUser{}, err
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save user in Auth.CreateLocalAccount() | Error: %v", traceID, err)
		return LocalUser{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Registration failed, try again later.",
		}
	}
	return user, nil
}

// Logout drops the cached session. Identity provider tokens are not retained, so
// there is nothing to revoke remotely.
func (s *Service) Logout(ctx context.Context) error {
	traceID := contextutil.TraceIDFromContext(ctx)
	if err := s.store.Remove(ctx, kv.KeyCurrentUser); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to clear session in Auth.Logout() | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to logout, try again later.",
		}
	}
	return nil
}

// Current returns the cached session, if any.
func (s *Service) Current(ctx context.Context) (SessionRecord, bool) {
	var session SessionRecord
	if !s.store.Get(ctx, kv.KeyCurrentUser, &session) || session.ID == "" {
		return SessionRecord{}, false
	}
	return session, true
}

func (s *Service) cacheSession(ctx context.Context, session SessionRecord) error {
	if err := s.store.Set(ctx, kv.KeyCurrentUser, session); err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | failed to cache session | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to start session, try again later.",
		}
	}
	return nil
}

// remoteFailure surfaces provider messages verbatim and hides transport errors.
func remoteFailure(traceID, op string, err error) error {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: remoteErr.Message,
		}
	}
	logging.Logger.Errorf("[TraceID=%s] | identity provider unreachable in %s() | Error: %v", traceID, op, err)
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: "Authentication service is unavailable, try again later.",
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/expense"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/fatali-fataliyev/expense_manager/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, authRate float64, authBurst int) (http.Handler, *kv.Store) {
	t.Helper()
	store := kv.New(kv.NewMemoryBackend())
	authService := auth.NewService(store, nil)
	manager := expense.NewManager(expense.NewLocalRepository(store), authService)
	api := NewApi(authService, manager, settings.New(store), authRate, authBurst)
	api.now = func() time.Time { return time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC) }
	return api.Routes(), store
}

func do(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:4321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func register(t *testing.T, handler http.Handler) {
	t.Helper()
	rec := do(t, handler, http.MethodPost, "/api/register", RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret1"})
	require.Equal(t, 201, rec.Code, rec.Body.String())
}

func TestPrivateRoutesRejectAnonymousCallers(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/expenses"},
		{http.MethodPost, "/api/expenses"},
		{http.MethodDelete, "/api/expenses/abc"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/history"},
		{http.MethodGet, "/api/history/export"},
		{http.MethodGet, "/api/budget"},
		{http.MethodPut, "/api/budget"},
		{http.MethodGet, "/api/cards"},
		{http.MethodPost, "/api/logout"},
		{http.MethodGet, "/api/session"},
	}

	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, handler, tt.method, tt.path, nil)
			assert.Equal(t, 401, rec.Code)

			resp := decode[GuardResponse](t, rec)
			assert.Equal(t, auth.RouteLogin, resp.Redirect)
			assert.NotEmpty(t, rec.Header().Get(TraceHeader))
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)

	register(t, handler)

	rec := do(t, handler, http.MethodGet, "/api/session", nil)
	require.Equal(t, 200, rec.Code)
	session := decode[SessionResponse](t, rec)
	assert.Equal(t, "jane@example.com", session.User.Email)
	assert.Equal(t, "Jane", session.User.Name)

	// Login page is for anonymous callers only.
	rec = do(t, handler, http.MethodPost, "/api/login", LoginRequest{Email: "jane@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/dashboard", rec.Header().Get("Location"))

	rec = do(t, handler, http.MethodPost, "/api/logout", nil)
	require.Equal(t, 200, rec.Code)

	rec = do(t, handler, http.MethodGet, "/api/session", nil)
	assert.Equal(t, 401, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/login", LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, auth.MsgInvalidCredentials, decode[appErrors.ErrorResponse](t, rec).Message)

	rec = do(t, handler, http.MethodPost, "/api/login", LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "Jane", decode[SessionResponse](t, rec).User.Name)
}

func TestRegisterErrors(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)

	rec := do(t, handler, http.MethodPost, "/api/register", "{not json")
	assert.Equal(t, 400, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/register", RegisterRequest{Name: "", Email: "bad", Password: "1"})
	assert.Equal(t, 400, rec.Code)
	resp := decode[appErrors.ErrorResponse](t, rec)
	assert.Equal(t, appErrors.ErrInvalidInput, resp.Code)
	assert.Contains(t, resp.Fields, "email")

	register(t, handler)
	do(t, handler, http.MethodPost, "/api/logout", nil)

	rec = do(t, handler, http.MethodPost, "/api/register", RegisterRequest{Name: "Other", Email: "jane@example.com", Password: "another1"})
	assert.Equal(t, 409, rec.Code)
	assert.Equal(t, auth.MsgEmailRegistered, decode[appErrors.ErrorResponse](t, rec).Message)
}

func TestExpenseEndpoints(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)

	rec := do(t, handler, http.MethodPost, "/api/expenses", `{"title":"Coffee","price":"120.50","category":"Food","date":"2024-03-15"}`)
	require.Equal(t, 201, rec.Code, rec.Body.String())
	coffee := decode[ExpenseItem](t, rec)
	assert.Equal(t, "₹120.50", coffee.PriceFormatted)
	assert.Equal(t, "15 Mar 2024", coffee.DateFormatted)
	assert.Equal(t, "🍔", coffee.Icon)

	rec = do(t, handler, http.MethodPost, "/api/expenses", `{"title":"Rent","price":15000,"category":"Rent","date":"2024-02-01"}`)
	require.Equal(t, 201, rec.Code, rec.Body.String())

	rec = do(t, handler, http.MethodPost, "/api/expenses", `{"title":"Broken","price":"ten","category":"Food","date":"2024-03-15"}`)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, decode[appErrors.ErrorResponse](t, rec).Fields, "price")

	rec = do(t, handler, http.MethodGet, "/api/expenses", nil)
	require.Equal(t, 200, rec.Code)
	list := decode[ListExpensesResponse](t, rec)
	require.Len(t, list.Expenses, 2)
	assert.Equal(t, "Coffee", list.Expenses[0].Title)
	assert.Equal(t, "15120.5", list.Total.String())

	rec = do(t, handler, http.MethodDelete, "/api/expenses/"+coffee.ID, nil)
	require.Equal(t, 200, rec.Code)

	list = decode[ListExpensesResponse](t, do(t, handler, http.MethodGet, "/api/expenses", nil))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, "Rent", list.Expenses[0].Title)
}

func TestHistoryEndpoint(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)

	for _, body := range []string{
		`{"title":"March food","price":"10","category":"Food","date":"2024-03-15"}`,
		`{"title":"March rent","price":"100","category":"Rent","date":"2024-03-01"}`,
		`{"title":"April food","price":"5","category":"Food","date":"2024-04-01"}`,
	} {
		require.Equal(t, 201, do(t, handler, http.MethodPost, "/api/expenses", body).Code)
	}

	tests := []struct {
		name  string
		query string
		want  []string
		sort  string
	}{
		{"defaults to current month", "", []string{"March food", "March rent"}, expense.SortDateDesc},
		{"all months newest first", "?month=all", []string{"April food", "March food", "March rent"}, expense.SortDateDesc},
		{"month and amount desc", "?month=2024-03&sort=amount-desc", []string{"March rent", "March food"}, expense.SortAmountDesc},
		{"category oldest first", "?month=ALL&category=Food&sort=date-asc", []string{"March food", "April food"}, expense.SortDateAsc},
		{"other month", "?month=2024-04", []string{"April food"}, expense.SortDateDesc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodGet, "/api/history"+tt.query, nil)
			require.Equal(t, 200, rec.Code, rec.Body.String())

			resp := decode[HistoryResponse](t, rec)
			var titles []string
			for _, e := range resp.Expenses {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, tt.sort, resp.Sort)
		})
	}

	rec := do(t, handler, http.MethodGet, "/api/history", nil)
	resp := decode[HistoryResponse](t, rec)
	assert.Equal(t, "2024-03", resp.Month)
	assert.Equal(t, "March 2024", resp.MonthLabel)

	rec = do(t, handler, http.MethodGet, "/api/history?month=all", nil)
	resp = decode[HistoryResponse](t, rec)
	assert.Equal(t, expense.AllMonths, resp.Month)
	assert.Equal(t, "All Time", resp.MonthLabel)

	rec = do(t, handler, http.MethodGet, "/api/history?sort=sideways", nil)
	assert.Equal(t, 400, rec.Code)

	rec = do(t, handler, http.MethodGet, "/api/history?month=March", nil)
	assert.Equal(t, 400, rec.Code)
}

func TestExportHistory(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)
	require.Equal(t, 201, do(t, handler, http.MethodPost, "/api/expenses", `{"title":"Tea","price":"20","category":"Food","date":"2024-03-01"}`).Code)

	rec := do(t, handler, http.MethodGet, "/api/history/export?month=2024-03", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Expense_Report_2024-03.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(t, handler, http.MethodGet, "/api/history/export", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Expense_Report_2024-03.pdf")

	rec = do(t, handler, http.MethodGet, "/api/history/export?month=all", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Expense_Report_All.pdf")

	rec = do(t, handler, http.MethodGet, "/api/history/export?sort=bogus", nil)
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBudgetEndpoints(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)

	rec := do(t, handler, http.MethodGet, "/api/budget", nil)
	require.Equal(t, 200, rec.Code)
	assert.True(t, decode[BudgetResponse](t, rec).Amount.IsZero())

	tests := []struct {
		name string
		body string
		code int
	}{
		{"string amount", `{"amount":"5000"}`, 200},
		{"number amount", `{"amount":25000.75}`, 200},
		{"not a number", `{"amount":"lots"}`, 400},
		{"missing", `{}`, 400},
		{"negative", `{"amount":-1}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, do(t, handler, http.MethodPut, "/api/budget", tt.body).Code)
		})
	}

	rec = do(t, handler, http.MethodGet, "/api/budget", nil)
	resp := decode[BudgetResponse](t, rec)
	assert.Equal(t, "25000.75", resp.Amount.String())
	assert.True(t, strings.HasPrefix(resp.AmountFormatted, "₹"))
}

func TestDashboardEndpoint(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)

	require.Equal(t, 200, do(t, handler, http.MethodPut, "/api/budget", `{"amount":"1000"}`).Code)
	require.Equal(t, 201, do(t, handler, http.MethodPost, "/api/expenses", `{"title":"Dinner","price":"250","category":"Dining","date":"2024-03-10"}`).Code)

	rec := do(t, handler, http.MethodGet, "/api/dashboard?month=2024-03&category=Dining", nil)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	resp := decode[DashboardResponse](t, rec)
	assert.Equal(t, "March 2024", resp.MonthLabel)
	assert.Equal(t, "Jane", resp.User.Name)
	assert.Equal(t, int64(25), resp.Budget.Percentage)
	assert.Equal(t, "₹750.00", resp.Budget.RemainingFormatted)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, "Dining", resp.Categories[0].Category)
	require.Len(t, resp.Drilldown, 1)
	assert.Len(t, resp.Trend, 4)

	rec = do(t, handler, http.MethodGet, "/api/dashboard?month=03-2024", nil)
	assert.Equal(t, 400, rec.Code)
}

func TestCardEndpoints(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)
	register(t, handler)

	rec := do(t, handler, http.MethodPost, "/api/cards", CreateCardRequest{Holder: "Jane", Number: "4111 1111 1111 1234", Expiry: "12/27", Brand: "Visa"})
	require.Equal(t, 201, rec.Code)
	assert.Equal(t, "4111 **** **** 1234", decode[CardItem](t, rec).MaskedNumber)

	rec = do(t, handler, http.MethodGet, "/api/cards", nil)
	require.Equal(t, 200, rec.Code)
	cards := decode[ListCardsResponse](t, rec)
	require.Len(t, cards.Cards, 1)
	assert.NotContains(t, rec.Body.String(), "4111 1111 1111 1234")
}

func TestOpenEndpoints(t *testing.T) {
	handler, _ := newTestApi(t, 100, 100)

	rec := do(t, handler, http.MethodGet, "/api/categories", nil)
	require.Equal(t, 200, rec.Code)
	assert.Len(t, decode[ListCategoriesResponse](t, rec).Categories, len(expense.Categories))

	rec = do(t, handler, http.MethodGet, "/api/theme", nil)
	assert.Equal(t, "light", decode[ThemeResponse](t, rec).Theme)

	rec = do(t, handler, http.MethodPut, "/api/theme", ThemeRequest{Theme: "dark"})
	require.Equal(t, 200, rec.Code)
	rec = do(t, handler, http.MethodGet, "/api/theme", nil)
	assert.Equal(t, "dark", decode[ThemeResponse](t, rec).Theme)

	rec = do(t, handler, http.MethodPut, "/api/theme", ThemeRequest{Theme: "neon"})
	assert.Equal(t, 400, rec.Code)

	rec = do(t, handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "expense_manager_http_requests_total")
}

func TestLoginIsRateLimited(t *testing.T) {
	handler, _ := newTestApi(t, 0.001, 2)

	creds := LoginRequest{Email: "nobody@example.com", Password: "whatever"}
	assert.Equal(t, 401, do(t, handler, http.MethodPost, "/api/login", creds).Code)
	assert.Equal(t, 401, do(t, handler, http.MethodPost, "/api/login", creds).Code)

	rec := do(t, handler, http.MethodPost, "/api/login", creds)
	assert.Equal(t, 429, rec.Code)
	assert.Equal(t, appErrors.ErrTooMany, decode[appErrors.ErrorResponse](t, rec).Code)

	// Other routes are not limited.
	assert.Equal(t, 200, do(t, handler, http.MethodGet, "/api/categories", nil).Code)
}

func TestClientLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(0.001, 1)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))

	now = now.Add(limiterIdleTTL + 2*time.Minute)
	assert.True(t, limiter.Allow("c"))
	assert.Len(t, limiter.clients, 1)
	assert.True(t, limiter.Allow("a"))
}

func TestHttpStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{appErrors.New(appErrors.ErrNotFound, "x"), 404},
		{appErrors.Invalid("x", nil), 400},
		{appErrors.New(appErrors.ErrAuth, "x"), 401},
		{appErrors.New(appErrors.ErrAccessDenied, "x"), 403},
		{appErrors.New(appErrors.ErrConflict, "x"), 409},
		{appErrors.New(appErrors.ErrTooMany, "x"), 429},
		{fmt.Errorf("wrapped: %w", appErrors.New(appErrors.ErrConflict, "x")), 409},
		{errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, httpStatusFromError(tt.err))
		})
	}
}

func TestAmountAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		body string
		want Amount
	}{
		{`{"amount":"12.5"}`, "12.5"},
		{`{"amount":12.5}`, "12.5"},
		{`{"amount":null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req BudgetRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Amount)
		})
	}
}

func TestCORSOnlyAnswersAllowedOrigins(t *testing.T) {
	routes, _ := newTestApi(t, 100, 100)
	register(t, routes)
	require.Equal(t, 201, do(t, routes, http.MethodPost, "/api/expenses", `{"title":"Tea","price":"20","category":"Food","date":"2024-03-01"}`).Code)

	tests := []struct {
		name     string
		origins  []string
		origin   string
		wantACAO string
	}{
		{"listed origin", []string{"http://localhost:8080"}, "http://localhost:8080", "http://localhost:8080"},
		{"foreign origin", []string{"http://localhost:8080"}, "https://evil.example", ""},
		{"empty list allows none", nil, "http://localhost:8080", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.origins).Handler(routes)

			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			req.Header.Set("Origin", tt.origin)
			req.RemoteAddr = "203.0.113.9:5555"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantACAO, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantACAO == "" {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}

	t.Run("foreign preflight", func(t *testing.T) {
		handler := CORS([]string{"http://localhost:8080"}).Handler(routes)

		req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})
}

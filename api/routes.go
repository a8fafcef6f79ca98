package api

import (
	"net/http"

	"github.com/0xcafe-io/iz"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/metrics"
)

func (api *Api) Routes() *http.ServeMux {
	server := http.NewServeMux()

	// USER ENDPOINTS.
	server.Handle("POST /api/login", api.route(auth.RouteLogin, iz.Bind(api.LoginUserHandler)))          // Login User
	server.Handle("POST /api/register", api.route(auth.RouteRegister, iz.Bind(api.RegisterUserHandler))) // Create User
	server.Handle("POST /api/logout", api.route(auth.RouteLogout, iz.Bind(api.LogoutUserHandler)))       // Logout User
	server.Handle("GET /api/session", api.route(auth.RouteSession, iz.Bind(api.SessionHandler)))         // Current User

	// DASHBOARD.
	server.Handle("GET /api/dashboard", api.route(auth.RouteDashboard, iz.Bind(api.DashboardHandler)))

	// EXPENSE ENDPOINTS.
	server.Handle("GET /api/expenses", api.route(auth.RouteExpensesList, iz.Bind(api.ListExpensesHandler)))
	server.Handle("POST /api/expenses", api.route(auth.RouteExpensesAdd, iz.Bind(api.AddExpenseHandler)))
	server.Handle("DELETE /api/expenses/{id}", api.route(auth.RouteExpensesDelete, iz.Bind(api.DeleteExpenseHandler)))

	// HISTORY ENDPOINTS.
	server.Handle("GET /api/history", api.route(auth.RouteHistory, iz.Bind(api.HistoryHandler)))
	server.Handle("GET /api/history/export", api.route(auth.RouteHistoryExport, http.HandlerFunc(api.ExportHistoryHandler))) // PDF download

	// BUDGET ENDPOINTS.
	server.Handle("GET /api/budget", api.route(auth.RouteBudgetGet, iz.Bind(api.GetBudgetHandler)))
	server.Handle("PUT /api/budget", api.route(auth.RouteBudgetSet, iz.Bind(api.SetBudgetHandler)))

	// CARD ENDPOINTS.
	server.Handle("GET /api/cards", api.route(auth.RouteCardsList, iz.Bind(api.ListCardsHandler)))
	server.Handle("POST /api/cards", api.route(auth.RouteCardsAdd, iz.Bind(api.AddCardHandler)))

	// OPEN ENDPOINTS.
	server.Handle("GET /api/categories", api.route(auth.RouteCategories, iz.Bind(api.CategoriesHandler)))
	server.Handle("GET /api/theme", api.route(auth.RouteThemeGet, iz.Bind(api.GetThemeHandler)))
	server.Handle("PUT /api/theme", api.route(auth.RouteThemeSet, iz.Bind(api.SetThemeHandler)))
	server.Handle("GET /metrics", api.route(auth.RouteMetrics, metrics.Handler()))

	return server
}

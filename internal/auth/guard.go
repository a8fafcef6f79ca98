package auth

type Access int

const (
	// AccessOpen routes are served regardless of session state.
	AccessOpen Access = iota
	// AccessPublic routes are for anonymous callers only (login, register).
	AccessPublic
	// AccessPrivate routes need a session.
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessOpen:
		return "open"
	case AccessPublic:
		return "public"
	case AccessPrivate:
		return "private"
	}
	return "unknown"
}

const (
	RouteLogin          = "login"
	RouteRegister       = "register"
	RouteLogout         = "logout"
	RouteSession        = "session"
	RouteDashboard      = "dashboard"
	RouteExpensesList   = "expenses.list"
	RouteExpensesAdd    = "expenses.add"
	RouteExpensesDelete = "expenses.delete"
	RouteHistory        = "history"
	RouteHistoryExport  = "history.export"
	RouteBudgetGet      = "budget.get"
	RouteBudgetSet      = "budget.set"
	RouteCardsList      = "cards.list"
	RouteCardsAdd       = "cards.add"
	RouteCategories     = "categories"
	RouteThemeGet       = "theme.get"
	RouteThemeSet       = "theme.set"
	RouteMetrics        = "metrics"
)

var routeAccess = map[string]Access{
	RouteLogin:          AccessPublic,
	RouteRegister:       AccessPublic,
	RouteLogout:         AccessPrivate,
	RouteSession:        AccessPrivate,
	RouteDashboard:      AccessPrivate,
	RouteExpensesList:   AccessPrivate,
	RouteExpensesAdd:    AccessPrivate,
	RouteExpensesDelete: AccessPrivate,
	RouteHistory:        AccessPrivate,
	RouteHistoryExport:  AccessPrivate,
	RouteBudgetGet:      AccessPrivate,
	RouteBudgetSet:      AccessPrivate,
	RouteCardsList:      AccessPrivate,
	RouteCardsAdd:       AccessPrivate,
	RouteCategories:     AccessOpen,
	RouteThemeGet:       AccessOpen,
	RouteThemeSet:       AccessOpen,
	RouteMetrics:        AccessOpen,
}

// AccessOf returns the access class of a route. Unknown routes are private.
func AccessOf(routeID string) Access {
	if access, ok := routeAccess[routeID]; ok {
		return access
	}
	return AccessPrivate
}

// Decision is the outcome of Guard: either Allow, or the route to send the caller to.
type Decision struct {
	Allow      bool
	RedirectTo string
}

func Guard(routeID string, authenticated bool) Decision {
	switch AccessOf(routeID) {
	case AccessPrivate:
		if !authenticated {
			return Decision{RedirectTo: RouteLogin}
		}
	case AccessPublic:
		if authenticated {
			return Decision{RedirectTo: RouteDashboard}
		}
	}
	return Decision{Allow: true}
}

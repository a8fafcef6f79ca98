package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/internal/expense"
	"github.com/fatali-fataliyev/expense_manager/internal/report"
	"github.com/fatali-fataliyev/expense_manager/internal/settings"
	"github.com/fatali-fataliyev/expense_manager/internal/validation"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/shopspring/decimal"
)

type Api struct {
	Auth     *auth.Service
	Expenses *expense.Manager
	Settings *settings.Settings

	limiter *clientLimiter
	now     func() time.Time
}

func NewApi(authService *auth.Service, manager *expense.Manager, prefs *settings.Settings, authRate float64, authBurst int) *Api {
	return &Api{
		Auth:     authService,
		Expenses: manager,
		Settings: prefs,
		limiter:  newClientLimiter(authRate, authBurst),
		now:      time.Now,
	}
}

func errorResponder(err error) iz.Responder {
	return iz.Respond().Status(httpStatusFromError(err)).JSON(appErrors.Public(err))
}

func badBody() iz.Responder {
	return iz.Respond().Status(400).JSON(appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidInput,
		Message: "invalid request body",
	})
}

func (api *Api) LoginUserHandler(r *iz.Request) iz.Responder {
	var loginRequest LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		return badBody()
	}

	credentials := auth.Credentials{
		Email:         loginRequest.Email,
		PasswordPlain: loginRequest.Password,
	}

	user, err := api.Auth.Login(r.Context(), credentials)
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(SessionResponse{
		Message: "You've logged in successfully!",
		User:    user,
	})
}

func (api *Api) RegisterUserHandler(r *iz.Request) iz.Responder {
	var newUserReq RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&newUserReq); err != nil {
		return badBody()
	}

	newUser := auth.NewUser{
		Name:          newUserReq.Name,
		Email:         newUserReq.Email,
		PasswordPlain: newUserReq.Password,
	}

	user, err := api.Auth.Register(r.Context(), newUser)
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(201).JSON(SessionResponse{
		Message: "Registration Completed",
		User:    user,
	})
}

func (api *Api) LogoutUserHandler(r *iz.Request) iz.Responder {
	if err := api.Auth.Logout(r.Context()); err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "Logout successful."})
}

func (api *Api) SessionHandler(r *iz.Request) iz.Responder {
	user, ok := api.Auth.Current(r.Context())
	if !ok {
		return errorResponder(appErrors.New(appErrors.ErrAuth, "Please login to continue."))
	}
	return iz.Respond().Status(200).JSON(SessionResponse{User: user})
}

func (api *Api) DashboardHandler(r *iz.Request) iz.Responder {
	params := r.URL.Query()

	summary, err := api.Expenses.Dashboard(r.Context(), params.Get("month"), params.Get("category"))
	if err != nil {
		return errorResponder(err)
	}
	user, _ := api.Auth.Current(r.Context())
	return iz.Respond().Status(200).JSON(SummaryToHttp(user, summary))
}

func (api *Api) ListExpensesHandler(r *iz.Request) iz.Responder {
	expenses, err := api.Expenses.GetExpenses(r.Context())
	if err != nil {
		return errorResponder(err)
	}
	total := expense.Total(expenses)
	return iz.Respond().Status(200).JSON(ListExpensesResponse{
		Expenses:       ExpensesToHttp(expenses),
		Total:          total,
		TotalFormatted: expense.FormatCurrency(total),
	})
}

func (api *Api) AddExpenseHandler(r *iz.Request) iz.Responder {
	var newExpenseReq CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&newExpenseReq); err != nil {
		return badBody()
	}

	newExpense := expense.NewExpense{
		Title:       newExpenseReq.Title,
		Price:       string(newExpenseReq.Price),
		Category:    newExpenseReq.Category,
		Date:        newExpenseReq.Date,
		Description: newExpenseReq.Description,
	}

	added, err := api.Expenses.AddExpense(r.Context(), newExpense)
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(201).JSON(ExpenseToHttp(added))
}

func (api *Api) DeleteExpenseHandler(r *iz.Request) iz.Responder {
	id := r.PathValue("id")
	if err := api.Expenses.DeleteExpense(r.Context(), id); err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "Expense deleted."})
}

// historyParams reads the history query. A missing month means the current one and
// month=all lifts the month filter.
func historyParams(params url.Values, now time.Time) (expense.Filter, string) {
	month := strings.TrimSpace(params.Get("month"))
	switch {
	case month == "":
		month = now.Format(expense.MonthLayout)
	case strings.EqualFold(month, expense.AllMonths):
		month = ""
	}
	filter := expense.Filter{
		Month:    month,
		Category: strings.TrimSpace(params.Get("category")),
	}
	return filter, strings.TrimSpace(params.Get("sort"))
}

func (api *Api) HistoryHandler(r *iz.Request) iz.Responder {
	filter, sortMode := historyParams(r.URL.Query(), api.now())

	expenses, err := api.Expenses.History(r.Context(), filter, sortMode)
	if err != nil {
		return errorResponder(err)
	}
	mode, _ := expense.ParseSort(sortMode)
	total := expense.Total(expenses)

	month := filter.Month
	if month == "" {
		month = expense.AllMonths
	}
	return iz.Respond().Status(200).JSON(HistoryResponse{
		Month:          month,
		MonthLabel:     expense.MonthLabel(filter.Month),
		Category:       filter.Category,
		Sort:           mode,
		Expenses:       ExpensesToHttp(expenses),
		Total:          total,
		TotalFormatted: expense.FormatCurrency(total),
	})
}

// ExportHistoryHandler writes the filtered history as a PDF attachment. It is a plain
// handler because the body is binary.
func (api *Api) ExportHistoryHandler(w http.ResponseWriter, r *http.Request) {
	traceID := contextutil.TraceIDFromContext(r.Context())
	filter, sortMode := historyParams(r.URL.Query(), api.now())

	expenses, err := api.Expenses.History(r.Context(), filter, sortMode)
	if err != nil {
		writeJSON(w, httpStatusFromError(err), appErrors.Public(err))
		return
	}

	var buf bytes.Buffer
	rep := report.Report{Month: filter.Month, Expenses: expenses, GeneratedAt: api.now()}
	if err := report.Render(&buf, rep); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to render report in Api.ExportHistoryHandler() | Error: %v", traceID, err)
		writeJSON(w, 500, appErrors.Public(err))
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(filter.Month)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(200)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to send report | Error: %v", traceID, err)
	}
}

func (api *Api) GetBudgetHandler(r *iz.Request) iz.Responder {
	amount, err := api.Expenses.GetBudget(r.Context())
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(BudgetResponse{
		Amount:          amount,
		AmountFormatted: expense.FormatCurrency(amount),
	})
}

func (api *Api) SetBudgetHandler(r *iz.Request) iz.Responder {
	var budgetReq BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&budgetReq); err != nil {
		return badBody()
	}

	raw := strings.TrimSpace(string(budgetReq.Amount))
	errs := validation.Errors{}
	errs.Check(validation.Required(raw), "amount", "Budget is required")
	errs.Check(validation.IsNumber(raw), "amount", "Budget must be a number")
	if err := errs.Err(); err != nil {
		return errorResponder(err)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return errorResponder(appErrors.Invalid("Please correct the highlighted fields.", map[string]string{"amount": "Budget must be a number"}))
	}

	if err := api.Expenses.SetBudget(r.Context(), amount); err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(BudgetResponse{
		Amount:          amount,
		AmountFormatted: expense.FormatCurrency(amount),
	})
}

func (api *Api) ListCardsHandler(r *iz.Request) iz.Responder {
	cards, err := api.Expenses.GetCards(r.Context())
	if err != nil {
		return errorResponder(err)
	}
	resp := ListCardsResponse{Cards: make([]CardItem, 0, len(cards))}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, CardToHttp(c))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) AddCardHandler(r *iz.Request) iz.Responder {
	var newCardReq CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&newCardReq); err != nil {
		return badBody()
	}

	card, err := api.Expenses.AddCard(r.Context(), expense.NewCard{
		Holder: newCardReq.Holder,
		Number: newCardReq.Number,
		Expiry: newCardReq.Expiry,
		Brand:  newCardReq.Brand,
	})
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(201).JSON(CardToHttp(card))
}

func (api *Api) CategoriesHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(ListCategoriesResponse{Categories: expense.Categories})
}

func (api *Api) GetThemeHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(ThemeResponse{Theme: api.Settings.Theme(r.Context())})
}

func (api *Api) SetThemeHandler(r *iz.Request) iz.Responder {
	var themeReq ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&themeReq); err != nil {
		return badBody()
	}

	theme, err := api.Settings.SetTheme(r.Context(), themeReq.Theme)
	if err != nil {
		return errorResponder(err)
	}
	return iz.Respond().Status(200).JSON(ThemeResponse{Theme: theme})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("failed to encode response: %v", err)
	}
}

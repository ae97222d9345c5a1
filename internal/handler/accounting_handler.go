package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/accounting"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/model"
)

// incurredOnLayout は経費発生日の入出力形式。
const incurredOnLayout = "2006-01-02"

// AccountingServiceInterface は会計ハンドラーが必要とするサービスインターフェース。
type AccountingServiceInterface interface {
	// Summary はダッシュボードの集計値を返す。
	Summary(ctx context.Context) (*model.AccountingSummary, error)
	// Receivables は売掛一覧を返す。
	Receivables(ctx context.Context) ([]*model.Receivable, error)
	// Payables は買掛一覧を返す。
	Payables(ctx context.Context) ([]*model.Payable, error)
	// MonthlyReport は月次レポートを返す。
	MonthlyReport(ctx context.Context, months int) ([]*model.MonthlyReportRow, error)
	// ListExpenses は経費一覧を返す。
	ListExpenses(ctx context.Context) ([]*model.Expense, error)
	// CreateExpense は新しい経費を作成する。
	CreateExpense(ctx context.Context, createdBy string, in accounting.ExpenseInput) (*model.Expense, error)
	// UpdateExpense は指定IDの経費を更新する。
	UpdateExpense(ctx context.Context, id string, in accounting.ExpenseInput) (*model.Expense, error)
}

// AccountingHandler は会計モジュールのHTTPハンドラー。
type AccountingHandler struct {
	service AccountingServiceInterface
}

// NewAccountingHandler はAccountingHandlerを生成する。
func NewAccountingHandler(service AccountingServiceInterface) *AccountingHandler {
	return &AccountingHandler{service: service}
}

// summaryResponse はダッシュボード集計のAPIレスポンス。
type summaryResponse struct {
	OpenOrderCount    int   `json:"open_order_count"`
	PaidTotalCents    int64 `json:"paid_total_cents"`
	UnpaidTotalCents  int64 `json:"unpaid_total_cents"`
	ExpenseTotalCents int64 `json:"expense_total_cents"`
}

// receivableResponse は売掛1行のAPIレスポンス。
type receivableResponse struct {
	OrderID    string    `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// payableResponse は買掛1行のAPIレスポンス。
type payableResponse struct {
	ExpenseID   string `json:"expense_id"`
	Payee       string `json:"payee"`
	AmountCents int64  `json:"amount_cents"`
	IncurredOn  string `json:"incurred_on"`
}

// monthlyReportResponse は月次レポート1行のAPIレスポンス。
type monthlyReportResponse struct {
	Month             string `json:"month"`
	SalesTotalCents   int64  `json:"sales_total_cents"`
	ExpenseTotalCents int64  `json:"expense_total_cents"`
	NetCents          int64  `json:"net_cents"`
}

// expenseRequest は経費の作成・更新リクエストのボディ。
type expenseRequest struct {
	Payee       string `json:"payee"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	IncurredOn  string `json:"incurred_on"`
	Note        string `json:"note"`
}

// expenseResponse は経費情報のAPIレスポンス。
type expenseResponse struct {
	ID          string    `json:"id"`
	Payee       string    `json:"payee"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	IncurredOn  string    `json:"incurred_on"`
	Note        string    `json:"note"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetSummary はダッシュボードの集計値を返す。
// GET /api/accounting
func (h *AccountingHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, summaryResponse{
		OpenOrderCount:    summary.OpenOrderCount,
		PaidTotalCents:    summary.PaidTotalCents,
		UnpaidTotalCents:  summary.UnpaidTotalCents,
		ExpenseTotalCents: summary.ExpenseTotalCents,
	})
}

// ListReceivables は売掛（未精算の注文）一覧を返す。
// GET /api/accounting/receivables
func (h *AccountingHandler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Receivables(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]receivableResponse, len(rows))
	for i, row := range rows {
		responses[i] = receivableResponse{
			OrderID:    row.OrderID,
			TotalCents: row.TotalCents,
			Note:       row.Note,
			CreatedAt:  row.CreatedAt,
		}
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// ListPayables は買掛（未払いの経費）一覧を返す。
// GET /api/accounting/payables
func (h *AccountingHandler) ListPayables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Payables(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]payableResponse, len(rows))
	for i, row := range rows {
		responses[i] = payableResponse{
			ExpenseID:   row.ExpenseID,
			Payee:       row.Payee,
			AmountCents: row.AmountCents,
			IncurredOn:  row.IncurredOn.Format(incurredOnLayout),
		}
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// GetMonthlyReport は月次レポートを返す。
// monthsクエリパラメータで対象期間を指定できる（省略時はサービス側のデフォルト）。
// GET /api/accounting/reports?months=6
func (h *AccountingHandler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "monthsには整数を指定してください。",
				Category: "validation",
				Action:   "クエリパラメータを確認してください。",
			})
			return
		}
		months = parsed
	}

	rows, err := h.service.MonthlyReport(r.Context(), months)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]monthlyReportResponse, len(rows))
	for i, row := range rows {
		responses[i] = monthlyReportResponse{
			Month:             row.Month,
			SalesTotalCents:   row.SalesTotalCents,
			ExpenseTotalCents: row.ExpenseTotalCents,
			NetCents:          row.NetCents,
		}
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// ListExpenses は経費一覧を返す。
// GET /api/accounting/expenses
func (h *AccountingHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpenses(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(e)
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// CreateExpense は経費を作成する。
// POST /api/accounting/expenses
func (h *AccountingHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	profile, err := middleware.ProfileFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	in, ok := decodeExpenseRequest(w, r)
	if !ok {
		return
	}

	expense, err := h.service.CreateExpense(r.Context(), profile.ID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusCreated, toExpenseResponse(expense))
}

// UpdateExpense は経費を更新する。
// PUT /api/accounting/expenses/:id
func (h *AccountingHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeExpenseRequest(w, r)
	if !ok {
		return
	}

	expense, err := h.service.UpdateExpense(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toExpenseResponse(expense))
}

// SetupAccountingRoutes は会計モジュール関連のルーティングを設定したchi.Routerを返す。
func SetupAccountingRoutes(service AccountingServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewAccountingHandler(service)

	r.Route("/api/accounting", func(r chi.Router) {
		r.Get("/", h.GetSummary)
		r.Get("/receivables", h.ListReceivables)
		r.Get("/payables", h.ListPayables)
		r.Get("/reports", h.GetMonthlyReport)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Put("/{id}", h.UpdateExpense)
		})
	})

	return r
}

// decodeExpenseRequest は経費リクエストのボディを解析して入力値に変換する。
// 解析に失敗した場合はエラーレスポンスを書き込み、okにfalseを返す。
func decodeExpenseRequest(w http.ResponseWriter, r *http.Request) (accounting.ExpenseInput, bool) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return accounting.ExpenseInput{}, false
	}

	var incurredOn time.Time
	if req.IncurredOn != "" {
		parsed, err := time.Parse(incurredOnLayout, req.IncurredOn)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "incurred_onはYYYY-MM-DD形式で指定してください。",
				Category: "validation",
				Action:   "発生日の形式を確認してください。",
			})
			return accounting.ExpenseInput{}, false
		}
		incurredOn = parsed
	}

	return accounting.ExpenseInput{
		Payee:       req.Payee,
		AmountCents: req.AmountCents,
		Status:      model.ExpenseStatus(req.Status),
		IncurredOn:  incurredOn,
		Note:        req.Note,
	}, true
}

// toExpenseResponse はmodel.ExpenseからAPIレスポンスに変換する。
func toExpenseResponse(expense *model.Expense) expenseResponse {
	return expenseResponse{
		ID:          expense.ID,
		Payee:       expense.Payee,
		AmountCents: expense.AmountCents,
		Status:      string(expense.Status),
		IncurredOn:  expense.IncurredOn.Format(incurredOnLayout),
		Note:        expense.Note,
		CreatedBy:   expense.CreatedBy,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
}

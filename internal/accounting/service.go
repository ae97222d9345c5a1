// Package accounting は会計モジュール（ダッシュボード・売掛・買掛・経費・月次レポート）の
// ドメインロジックを提供する。集計はすべて読み取り専用で、書き込みは経費のみ。
package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
	"github.com/hitoshi/regiman/internal/security"
)

// defaultReportMonths は月数未指定時のレポート対象期間。
const defaultReportMonths = 6

// maxReportMonths は月次レポートの対象期間の上限。
const maxReportMonths = 24

// ExpenseInput は経費の作成・更新の入力値。
type ExpenseInput struct {
	Payee       string
	AmountCents int64
	// Status は作成時に空文字ならunpaidになる。更新時は空文字で現状維持。
	Status model.ExpenseStatus
	// IncurredOn はゼロ値なら現在日時になる。
	IncurredOn time.Time
	Note       string
}

// Service は会計モジュールのサービス層。
type Service struct {
	accounting repository.AccountingRepository
	expenses   repository.ExpenseRepository
	sanitizer  security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	accounting repository.AccountingRepository,
	expenses repository.ExpenseRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		accounting: accounting,
		expenses:   expenses,
		sanitizer:  sanitizer,
	}
}

// Summary はダッシュボードの集計値を返す。
func (s *Service) Summary(ctx context.Context) (*model.AccountingSummary, error) {
	summary, err := s.accounting.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("会計サマリの取得に失敗しました: %w", err)
	}
	return summary, nil
}

// Receivables は売掛（未精算の注文）の一覧を返す。
func (s *Service) Receivables(ctx context.Context) ([]*model.Receivable, error) {
	rows, err := s.accounting.Receivables(ctx)
	if err != nil {
		return nil, fmt.Errorf("売掛一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// Payables は買掛（未払いの経費）の一覧を返す。
func (s *Service) Payables(ctx context.Context) ([]*model.Payable, error) {
	rows, err := s.accounting.Payables(ctx)
	if err != nil {
		return nil, fmt.Errorf("買掛一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// MonthlyReport は直近months月分の月次レポートを返す。
// 0以下はデフォルト期間に、上限超過は上限に丸める。
func (s *Service) MonthlyReport(ctx context.Context, months int) ([]*model.MonthlyReportRow, error) {
	if months <= 0 {
		months = defaultReportMonths
	}
	if months > maxReportMonths {
		months = maxReportMonths
	}

	rows, err := s.accounting.MonthlyReport(ctx, months)
	if err != nil {
		return nil, fmt.Errorf("月次レポートの取得に失敗しました: %w", err)
	}
	return rows, nil
}

// ListExpenses は全経費を発生日の降順で返す。
func (s *Service) ListExpenses(ctx context.Context) ([]*model.Expense, error) {
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("経費一覧の取得に失敗しました: %w", err)
	}
	return expenses, nil
}

// CreateExpense は新しい経費を作成する。
// 支払先はサニタイズ後に空であってはならない。状態は省略時unpaid。
func (s *Service) CreateExpense(ctx context.Context, createdBy string, in ExpenseInput) (*model.Expense, error) {
	payee := s.sanitizer.Sanitize(in.Payee)
	if payee == "" {
		return nil, model.NewInvalidNameError("支払先")
	}
	if in.AmountCents < 0 {
		return nil, model.NewInvalidAmountError()
	}

	status := in.Status
	if status == "" {
		status = model.ExpenseStatusUnpaid
	}
	if !status.Valid() {
		return nil, model.NewInvalidExpenseStatusError(string(in.Status))
	}

	incurredOn := in.IncurredOn
	if incurredOn.IsZero() {
		incurredOn = time.Now()
	}

	now := time.Now()
	expense := &model.Expense{
		ID:          uuid.New().String(),
		Payee:       payee,
		AmountCents: in.AmountCents,
		Status:      status,
		IncurredOn:  incurredOn,
		Note:        s.sanitizer.Sanitize(in.Note),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("経費の作成に失敗しました: %w", err)
	}

	return expense, nil
}

// UpdateExpense は指定IDの経費を更新する。
// 状態が空文字の場合は現在の状態を維持する。
func (s *Service) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (*model.Expense, error) {
	payee := s.sanitizer.Sanitize(in.Payee)
	if payee == "" {
		return nil, model.NewInvalidNameError("支払先")
	}
	if in.AmountCents < 0 {
		return nil, model.NewInvalidAmountError()
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, model.NewInvalidExpenseStatusError(string(in.Status))
	}

	expense, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("経費の取得に失敗しました: %w", err)
	}
	if expense == nil {
		return nil, model.NewExpenseNotFoundError(id)
	}

	expense.Payee = payee
	expense.AmountCents = in.AmountCents
	if in.Status != "" {
		expense.Status = in.Status
	}
	if !in.IncurredOn.IsZero() {
		expense.IncurredOn = in.IncurredOn
	}
	expense.Note = s.sanitizer.Sanitize(in.Note)
	expense.UpdatedAt = time.Now()

	if err := s.expenses.Update(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewExpenseNotFoundError(id)
		}
		return nil, fmt.Errorf("経費の更新に失敗しました: %w", err)
	}

	return expense, nil
}

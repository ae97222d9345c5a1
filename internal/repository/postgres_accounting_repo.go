package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresAccountingRepo はPostgreSQLを使用した会計集計リポジトリ。
// 注文・経費テーブルに対する読み取り専用の集計クエリのみを持つ。
type PostgresAccountingRepo struct {
	db *sql.DB
}

// NewPostgresAccountingRepo はPostgresAccountingRepoを生成する。
func NewPostgresAccountingRepo(db *sql.DB) *PostgresAccountingRepo {
	return &PostgresAccountingRepo{db: db}
}

// Summary はダッシュボードの集計値を返す。
func (r *PostgresAccountingRepo) Summary(ctx context.Context) (*model.AccountingSummary, error) {
	summary := &model.AccountingSummary{}

	err := r.db.QueryRowContext(ctx,
		`SELECT
		    COUNT(*) FILTER (WHERE status = 'open'),
		    COALESCE(SUM(total_cents) FILTER (WHERE status = 'paid'), 0),
		    COALESCE(SUM(total_cents) FILTER (WHERE status = 'open'), 0)
		 FROM orders`,
	).Scan(&summary.OpenOrderCount, &summary.PaidTotalCents, &summary.UnpaidTotalCents)
	if err != nil {
		return nil, fmt.Errorf("会計サマリの取得に失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`,
	).Scan(&summary.ExpenseTotalCents)
	if err != nil {
		return nil, fmt.Errorf("経費合計の取得に失敗しました: %w", err)
	}

	return summary, nil
}

// Receivables は未精算の注文（売掛）を作成日時の昇順で返す。
func (r *PostgresAccountingRepo) Receivables(ctx context.Context) ([]*model.Receivable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, total_cents, note, created_at
		 FROM orders WHERE status = 'open'
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("売掛一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var receivables []*model.Receivable
	for rows.Next() {
		rcv := &model.Receivable{}
		var note sql.NullString

		if err := rows.Scan(&rcv.OrderID, &rcv.TotalCents, &note, &rcv.CreatedAt); err != nil {
			return nil, fmt.Errorf("売掛の読み取りに失敗しました: %w", err)
		}

		rcv.Note = nullStringValue(note)
		receivables = append(receivables, rcv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("売掛一覧の走査に失敗しました: %w", err)
	}

	return receivables, nil
}

// Payables は未払いの経費（買掛）を発生日の昇順で返す。
func (r *PostgresAccountingRepo) Payables(ctx context.Context) ([]*model.Payable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payee, amount_cents, incurred_on
		 FROM expenses WHERE status = 'unpaid'
		 ORDER BY incurred_on ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("買掛一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var payables []*model.Payable
	for rows.Next() {
		p := &model.Payable{}
		if err := rows.Scan(&p.ExpenseID, &p.Payee, &p.AmountCents, &p.IncurredOn); err != nil {
			return nil, fmt.Errorf("買掛の読み取りに失敗しました: %w", err)
		}
		payables = append(payables, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("買掛一覧の走査に失敗しました: %w", err)
	}

	return payables, nil
}

// MonthlyReport は直近months月分の月次売上・経費集計を新しい月から順に返す。
// 売上・経費が無い月も0埋めで含まれる。
func (r *PostgresAccountingRepo) MonthlyReport(ctx context.Context, months int) ([]*model.MonthlyReportRow, error) {
	if months <= 0 {
		months = 12
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT to_char(m.month, 'YYYY-MM'),
		        COALESCE(s.sales, 0),
		        COALESCE(e.expenses, 0)
		 FROM generate_series(
		        date_trunc('month', now()) - ($1 - 1) * interval '1 month',
		        date_trunc('month', now()),
		        interval '1 month') AS m(month)
		 LEFT JOIN (
		    SELECT date_trunc('month', created_at) AS month, SUM(total_cents) AS sales
		    FROM orders WHERE status = 'paid' GROUP BY 1
		 ) s ON s.month = m.month
		 LEFT JOIN (
		    SELECT date_trunc('month', incurred_on::timestamptz) AS month, SUM(amount_cents) AS expenses
		    FROM expenses GROUP BY 1
		 ) e ON e.month = m.month
		 ORDER BY m.month DESC`,
		months,
	)
	if err != nil {
		return nil, fmt.Errorf("月次レポートの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var report []*model.MonthlyReportRow
	for rows.Next() {
		row := &model.MonthlyReportRow{}
		if err := rows.Scan(&row.Month, &row.SalesTotalCents, &row.ExpenseTotalCents); err != nil {
			return nil, fmt.Errorf("月次レポートの読み取りに失敗しました: %w", err)
		}
		row.NetCents = row.SalesTotalCents - row.ExpenseTotalCents
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("月次レポートの走査に失敗しました: %w", err)
	}

	return report, nil
}

// compile-time interface check
var _ AccountingRepository = (*PostgresAccountingRepo)(nil)

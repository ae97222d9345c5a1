package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresExpenseRepo はPostgreSQLを使用した経費リポジトリ。
type PostgresExpenseRepo struct {
	db *sql.DB
}

// NewPostgresExpenseRepo はPostgresExpenseRepoを生成する。
func NewPostgresExpenseRepo(db *sql.DB) *PostgresExpenseRepo {
	return &PostgresExpenseRepo{db: db}
}

// Create は経費を作成する。
func (r *PostgresExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, payee, amount_cents, status, incurred_on, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		expense.ID, expense.Payee, expense.AmountCents, expense.Status,
		expense.IncurredOn, nullString(expense.Note), expense.CreatedBy,
		expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("経費の作成に失敗しました: %w", translateError(err))
	}
	return nil
}

// FindByID は指定IDの経費を取得する。見つからない場合はnilを返す。
func (r *PostgresExpenseRepo) FindByID(ctx context.Context, id string) (*model.Expense, error) {
	expense := &model.Expense{}
	var note sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, payee, amount_cents, status, incurred_on, note, created_by, created_at, updated_at
		 FROM expenses WHERE id = $1`,
		id,
	).Scan(&expense.ID, &expense.Payee, &expense.AmountCents, &expense.Status,
		&expense.IncurredOn, &note, &expense.CreatedBy,
		&expense.CreatedAt, &expense.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("経費の取得に失敗しました: %w", err)
	}

	expense.Note = nullStringValue(note)

	return expense, nil
}

// List は全経費を発生日の降順で返す。
func (r *PostgresExpenseRepo) List(ctx context.Context) ([]*model.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payee, amount_cents, status, incurred_on, note, created_by, created_at, updated_at
		 FROM expenses ORDER BY incurred_on DESC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("経費一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		expense := &model.Expense{}
		var note sql.NullString

		if err := rows.Scan(&expense.ID, &expense.Payee, &expense.AmountCents, &expense.Status,
			&expense.IncurredOn, &note, &expense.CreatedBy,
			&expense.CreatedAt, &expense.UpdatedAt); err != nil {
			return nil, fmt.Errorf("経費の読み取りに失敗しました: %w", err)
		}

		expense.Note = nullStringValue(note)
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("経費一覧の走査に失敗しました: %w", err)
	}

	return expenses, nil
}

// Update は経費を更新する。対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresExpenseRepo) Update(ctx context.Context, expense *model.Expense) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET
		    payee = $2, amount_cents = $3, status = $4, incurred_on = $5, note = $6, updated_at = now()
		 WHERE id = $1`,
		expense.ID, expense.Payee, expense.AmountCents, expense.Status,
		expense.IncurredOn, nullString(expense.Note),
	)
	if err != nil {
		return fmt.Errorf("経費の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)

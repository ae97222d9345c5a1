package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// Create は注文を作成する。
func (r *PostgresOrderRepo) Create(ctx context.Context, order *model.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, category_id, total_cents, status, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, nullString(order.CategoryID), order.TotalCents, order.Status,
		nullString(order.Note), order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("注文の作成に失敗しました: %w", translateError(err))
	}
	return nil
}

// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	order := &model.Order{}
	var categoryID, note sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, category_id, total_cents, status, note, created_by, created_at, updated_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&order.ID, &categoryID, &order.TotalCents, &order.Status,
		&note, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}

	order.CategoryID = nullStringValue(categoryID)
	order.Note = nullStringValue(note)

	return order, nil
}

// List は全注文を作成日時の降順で返す。
func (r *PostgresOrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, total_cents, status, note, created_by, created_at, updated_at
		 FROM orders ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		order := &model.Order{}
		var categoryID, note sql.NullString

		if err := rows.Scan(&order.ID, &categoryID, &order.TotalCents, &order.Status,
			&note, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("注文の読み取りに失敗しました: %w", err)
		}

		order.CategoryID = nullStringValue(categoryID)
		order.Note = nullStringValue(note)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("注文一覧の走査に失敗しました: %w", err)
	}

	return orders, nil
}

// Update は注文を更新する。対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresOrderRepo) Update(ctx context.Context, order *model.Order) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
		    category_id = $2, total_cents = $3, status = $4, note = $5, updated_at = now()
		 WHERE id = $1`,
		order.ID, nullString(order.CategoryID), order.TotalCents, order.Status,
		nullString(order.Note),
	)
	if err != nil {
		return fmt.Errorf("注文の更新に失敗しました: %w", translateError(err))
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

// Delete は指定IDの注文を削除する。対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresOrderRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("注文の削除に失敗しました: %w", err)
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

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)

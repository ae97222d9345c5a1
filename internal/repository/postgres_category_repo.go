package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		category.ID, category.Name, category.Description,
		category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("カテゴリの作成に失敗しました: %w", translateError(err))
	}
	return nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories WHERE id = $1`,
		id,
	).Scan(&category.ID, &category.Name, &category.Description,
		&category.CreatedAt, &category.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}

	return category, nil
}

// List は全カテゴリを名前順で返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		category := &model.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Description,
			&category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("カテゴリの読み取りに失敗しました: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}

	return categories, nil
}

// Update はカテゴリを更新する。対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1`,
		category.ID, category.Name, category.Description,
	)
	if err != nil {
		return fmt.Errorf("カテゴリの更新に失敗しました: %w", translateError(err))
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

// Delete は指定IDのカテゴリを削除する。対象が存在しない場合はErrNotFoundを返す。
// カテゴリを参照する注文のcategory_idはON DELETE SET NULLでクリアされる。
func (r *PostgresCategoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
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
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロファイルリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Create はプロファイルを作成する。
// 同一IDの行が既に存在する場合はErrConflictを返す。
// トリガーが先に作成していた場合のErrConflictは呼び出し側が正常系として扱う。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, role, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.ID, profile.Email, profile.FullName, profile.Role, profile.Active,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", translateError(err))
	}
	return nil
}

// FindByID は指定IDのプロファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, active, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.Role,
		&profile.Active, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	return profile, nil
}

// FindByEmail はメールアドレスでプロファイルを検索する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, active, created_at, updated_at
		 FROM profiles WHERE email = $1`,
		email,
	).Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.Role,
		&profile.Active, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	return profile, nil
}

// UpdateEmail はプロファイルのメールアドレスを更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresProfileRepo) UpdateEmail(ctx context.Context, id, newEmail string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET email = $2, updated_at = now() WHERE id = $1`,
		id, newEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile email: %w", translateError(err))
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

// UpdateFullName はプロファイルの表示名を更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresProfileRepo) UpdateFullName(ctx context.Context, id, fullName string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET full_name = $2, updated_at = now() WHERE id = $1`,
		id, fullName,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile full name: %w", err)
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

// UpdateRole はプロファイルのロールを更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresProfileRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET role = $2, updated_at = now() WHERE id = $1`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile role: %w", err)
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

// SetActive はプロファイルの有効フラグを更新する（ソフトデリート）。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *PostgresProfileRepo) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile active flag: %w", err)
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

// List は全プロファイルを作成日時の昇順で返す。
func (r *PostgresProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, full_name, role, active, created_at, updated_at
		 FROM profiles ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		profile := &model.Profile{}
		if err := rows.Scan(&profile.ID, &profile.Email, &profile.FullName,
			&profile.Role, &profile.Active, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// CountActiveAdmins は有効な管理者プロファイルの数を返す。
func (r *PostgresProfileRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE role = $1 AND active = true`,
		model.RoleAdmin,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active admins: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/regiman/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用したidentityリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// Create はidentityを作成する。メールアドレス重複時はErrConflictを返す。
// identitiesへのINSERTはデータベーストリガーによるプロファイル作成も同時に走らせる。
func (r *PostgresIdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.Email, identity.PasswordHash,
		identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", translateError(err))
	}
	return nil
}

// FindByID は指定IDのidentityを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM identities WHERE id = $1`,
		id,
	).Scan(&identity.ID, &identity.Email, &identity.PasswordHash,
		&identity.CreatedAt, &identity.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by ID: %w", err)
	}

	return identity, nil
}

// FindByEmail はメールアドレスでidentityを検索する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM identities WHERE email = $1`,
		email,
	).Scan(&identity.ID, &identity.Email, &identity.PasswordHash,
		&identity.CreatedAt, &identity.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}

	return identity, nil
}

// UpdateEmail はidentityのメールアドレスを更新する。
// 重複時はErrConflict、対象が存在しない場合はErrNotFoundを返す。
// emailのUPDATEはトリガーによるプロファイル側の追従更新も走らせる。
func (r *PostgresIdentityRepo) UpdateEmail(ctx context.Context, id, newEmail string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE identities SET email = $2, updated_at = now() WHERE id = $1`,
		id, newEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity email: %w", translateError(err))
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

// ListWithoutProfile は対応するプロファイルを持たないidentityを列挙する。
func (r *PostgresIdentityRepo) ListWithoutProfile(ctx context.Context) ([]*model.Identity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.email, i.password_hash, i.created_at, i.updated_at
		 FROM identities i
		 LEFT JOIN profiles p ON p.id = i.id
		 WHERE p.id IS NULL
		 ORDER BY i.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities without profile: %w", err)
	}
	defer rows.Close()

	var identities []*model.Identity
	for rows.Next() {
		identity := &model.Identity{}
		if err := rows.Scan(&identity.ID, &identity.Email, &identity.PasswordHash,
			&identity.CreatedAt, &identity.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identities: %w", err)
	}

	return identities, nil
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)

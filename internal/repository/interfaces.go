// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/regiman/internal/model"
)

// IdentityRepository は認証プロバイダー所有のアカウントの永続化インターフェース。
type IdentityRepository interface {
	// Create はidentityを作成する。メールアドレス重複時はErrConflictを返す。
	Create(ctx context.Context, identity *model.Identity) error

	// FindByID は指定IDのidentityを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Identity, error)

	// FindByEmail はメールアドレスでidentityを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)

	// UpdateEmail はidentityのメールアドレスを更新する。
	// 重複時はErrConflict、対象が存在しない場合はErrNotFoundを返す。
	UpdateEmail(ctx context.Context, id, newEmail string) error

	// ListWithoutProfile は対応するプロファイルを持たないidentityを列挙する。
	// プロファイルテーブルとのアンチ結合でバックフィル対象を求める。
	ListWithoutProfile(ctx context.Context) ([]*model.Identity, error)
}

// ProfileRepository はアプリケーション所有のプロファイルの永続化インターフェース。
type ProfileRepository interface {
	// Create はプロファイルを作成する。
	// 同一IDの行が既に存在する場合はErrConflictを返す（トリガー先行作成の正常系）。
	Create(ctx context.Context, profile *model.Profile) error

	// FindByID は指定IDのプロファイルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindByEmail はメールアドレスでプロファイルを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)

	// UpdateEmail はプロファイルのメールアドレスを更新する。
	// 対象が存在しない場合はErrNotFoundを返す。
	UpdateEmail(ctx context.Context, id, newEmail string) error

	// UpdateFullName はプロファイルの表示名を更新する。
	UpdateFullName(ctx context.Context, id, fullName string) error

	// UpdateRole はプロファイルのロールを更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// SetActive はプロファイルの有効フラグを更新する（ソフトデリート）。
	SetActive(ctx context.Context, id string, active bool) error

	// List は全プロファイルを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.Profile, error)

	// CountActiveAdmins は有効な管理者プロファイルの数を返す。
	CountActiveAdmins(ctx context.Context) (int, error)
}

// CategoryRepository は商品カテゴリの永続化インターフェース。
type CategoryRepository interface {
	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// List は全カテゴリを名前順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// Update はカテゴリを更新する。対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, category *model.Category) error

	// Delete は指定IDのカテゴリを削除する。対象が存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// OrderRepository は注文の永続化インターフェース。
type OrderRepository interface {
	// Create は注文を作成する。
	Create(ctx context.Context, order *model.Order) error

	// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// List は全注文を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Order, error)

	// Update は注文を更新する。対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, order *model.Order) error

	// Delete は指定IDの注文を削除する。対象が存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// ExpenseRepository は経費の永続化インターフェース。
type ExpenseRepository interface {
	// Create は経費を作成する。
	Create(ctx context.Context, expense *model.Expense) error

	// FindByID は指定IDの経費を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Expense, error)

	// List は全経費を発生日の降順で返す。
	List(ctx context.Context) ([]*model.Expense, error)

	// Update は経費を更新する。対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, expense *model.Expense) error
}

// AccountingRepository は会計モジュールの読み取り専用集計インターフェース。
type AccountingRepository interface {
	// Summary はダッシュボードの集計値を返す。
	Summary(ctx context.Context) (*model.AccountingSummary, error)

	// Receivables は未精算の注文（売掛）を作成日時の昇順で返す。
	Receivables(ctx context.Context) ([]*model.Receivable, error)

	// Payables は未払いの経費（買掛）を発生日の昇順で返す。
	Payables(ctx context.Context) ([]*model.Payable, error)

	// MonthlyReport は直近months月分の月次売上・経費集計を新しい月から順に返す。
	MonthlyReport(ctx context.Context, months int) ([]*model.MonthlyReportRow, error)
}

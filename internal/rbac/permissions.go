// Package rbac はロールベースの権限評価を提供する。
// 全ての権限判定はこのパッケージの静的対応表を唯一の根拠とする。
package rbac

import "github.com/hitoshi/regiman/internal/model"

// Permission は名前付きの操作権限を表す。
type Permission string

const (
	// PermViewAccounting は会計ダッシュボードの閲覧権限。
	PermViewAccounting Permission = "VIEW_ACCOUNTING"
	// PermViewAccountsPayable は買掛一覧の閲覧権限。
	PermViewAccountsPayable Permission = "VIEW_ACCOUNTS_PAYABLE"
	// PermViewAccountsReceivable は売掛一覧の閲覧権限。
	PermViewAccountsReceivable Permission = "VIEW_ACCOUNTS_RECEIVABLE"
	// PermManageExpenses は経費の登録・更新権限。
	PermManageExpenses Permission = "MANAGE_EXPENSES"
	// PermViewFinancialReports は月次レポートの閲覧権限。
	PermViewFinancialReports Permission = "VIEW_FINANCIAL_REPORTS"
	// PermManageUsers はプロファイル管理（ロール変更・無効化）権限。
	PermManageUsers Permission = "MANAGE_USERS"
	// PermManageCatalog はカテゴリ・注文の登録・更新権限。
	PermManageCatalog Permission = "MANAGE_CATALOG"
)

// AccountingPermissions は会計モジュールを構成する5権限。
// モジュール入口はこのうちいずれか1つで許可される。
var AccountingPermissions = []Permission{
	PermViewAccounting,
	PermViewAccountsPayable,
	PermViewAccountsReceivable,
	PermManageExpenses,
	PermViewFinancialReports,
}

// rolePermissions はロールから権限への静的対応表。
// ここに無いロール・権限の組み合わせは全て拒否される。
var rolePermissions = map[model.Role]map[Permission]struct{}{
	model.RoleAdmin: {
		PermViewAccounting:         {},
		PermViewAccountsPayable:    {},
		PermViewAccountsReceivable: {},
		PermManageExpenses:         {},
		PermViewFinancialReports:   {},
		PermManageUsers:            {},
		PermManageCatalog:          {},
	},
	model.RoleStaff: {
		PermManageCatalog: {},
	},
}

// RoleHas はロールが単一の権限を持つかどうかを返す。
// 未知のロール・未知の権限は常にfalse（フェイルクローズド）。エラーにはしない。
func RoleHas(role model.Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// Allowed はロールが要求権限セットを満たすかどうかを判定する。
// requireAllがtrueの場合は全権限、falseの場合はいずれか1つで許可。
// 空の要求セットは常に許可される。
func Allowed(role model.Role, required []Permission, requireAll bool) bool {
	if len(required) == 0 {
		return true
	}

	if requireAll {
		for _, p := range required {
			if !RoleHas(role, p) {
				return false
			}
		}
		return true
	}

	for _, p := range required {
		if RoleHas(role, p) {
			return true
		}
	}
	return false
}

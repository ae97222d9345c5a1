package rbac

import "github.com/hitoshi/regiman/internal/model"

// RoleSource は現在のセッションのロールを提供する。
// 未認証またはアクティブなプロファイルが無い場合は空文字を返すこと。
type RoleSource interface {
	Role() model.Role
}

// Evaluator はセッション状態に束縛された権限評価器。
// 評価は純粋な読み取りで状態を変更しないため、
// 複数の描画パスから並行に呼び出しても安全。
type Evaluator struct {
	source RoleSource
}

// NewEvaluator はEvaluatorを生成する。
func NewEvaluator(source RoleSource) *Evaluator {
	return &Evaluator{source: source}
}

// HasPermission は現在のロールが指定権限を持つかどうかを返す。
func (e *Evaluator) HasPermission(perm Permission) bool {
	return RoleHas(e.source.Role(), perm)
}

// HasAnyPermission はいずれか1つの権限を持つかどうかを返す。
func (e *Evaluator) HasAnyPermission(perms ...Permission) bool {
	return Allowed(e.source.Role(), perms, false)
}

// HasAllPermissions は全ての権限を持つかどうかを返す。
func (e *Evaluator) HasAllPermissions(perms ...Permission) bool {
	return Allowed(e.source.Role(), perms, true)
}

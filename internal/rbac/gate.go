package rbac

import "github.com/hitoshi/regiman/internal/model"

// Gate は画面遷移やAPI操作に対する権限ゲートを表す。
// ナビゲーションとHTTPミドルウェアが同一のゲートを共有することで、
// どちらか一方を外しても権限昇格経路が生まれないようにする。
type Gate struct {
	Required   []Permission
	RequireAll bool
}

// NewGate は全権限必須のゲートを生成する（既定の動作）。
func NewGate(required ...Permission) Gate {
	return Gate{Required: required, RequireAll: true}
}

// NewAnyGate はいずれか1つの権限で通過できるゲートを生成する。
func NewAnyGate(required ...Permission) Gate {
	return Gate{Required: required, RequireAll: false}
}

// Admits はロールがゲートを通過できるかどうかを返す。
// 拒否は副作用を持たないただの偽値で、エラーとして扱わない。
func (g Gate) Admits(role model.Role) bool {
	return Allowed(role, g.Required, g.RequireAll)
}

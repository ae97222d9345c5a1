// Package nav は会計モジュールの画面遷移を制御する。
// 画面ごとの必要権限表はHTTP側のゲートと共有され、
// UI側・API側どちらか一方を外しても権限昇格経路が生まれない。
package nav

import (
	"sync"

	"github.com/hitoshi/regiman/internal/rbac"
)

// View は会計モジュール内の画面を表す。
type View string

const (
	// ViewNone は会計モジュール外（未入場）を表す。
	ViewNone View = ""
	// ViewDashboard は会計ダッシュボード。
	ViewDashboard View = "dashboard"
	// ViewAP は買掛一覧。
	ViewAP View = "ap"
	// ViewAR は売掛一覧。
	ViewAR View = "ar"
	// ViewExpenses は経費管理。
	ViewExpenses View = "expenses"
	// ViewReports は月次レポート。
	ViewReports View = "reports"
)

// viewGates は画面ごとの必要権限の対応表。
var viewGates = map[View]rbac.Gate{
	ViewDashboard: rbac.NewGate(rbac.PermViewAccounting),
	ViewAP:        rbac.NewGate(rbac.PermViewAccountsPayable),
	ViewAR:        rbac.NewGate(rbac.PermViewAccountsReceivable),
	ViewExpenses:  rbac.NewGate(rbac.PermManageExpenses),
	ViewReports:   rbac.NewGate(rbac.PermViewFinancialReports),
}

// moduleGate は会計モジュール入口のゲート。5権限のいずれか1つで入場できる。
var moduleGate = rbac.NewAnyGate(rbac.AccountingPermissions...)

// ViewGate は画面に対応する権限ゲートを返す。
// 2番目の戻り値は既知の画面かどうかを示す。
func ViewGate(v View) (rbac.Gate, bool) {
	g, ok := viewGates[v]
	return g, ok
}

// ModuleGate は会計モジュール入口のゲートを返す。
func ModuleGate() rbac.Gate {
	return moduleGate
}

// Controller は現在の画面状態を保持し、遷移のたびに権限を再検査する。
// UI側で操作を非表示にしていても、ハンドラ側で必ず再検証する二重チェック。
type Controller struct {
	mu      sync.Mutex
	source  rbac.RoleSource
	current View
}

// NewController はControllerを生成する。初期状態はViewNone。
func NewController(source rbac.RoleSource) *Controller {
	return &Controller{source: source, current: ViewNone}
}

// Navigate は画面遷移を試みる。
// 未知の画面、または必要権限を持たない場合は状態を変えずにfalseを返す。
// 拒否は無言のno-opであり、エラーでもログ対象でもない。
func (c *Controller) Navigate(v View) bool {
	gate, ok := viewGates[v]
	if !ok {
		return false
	}
	if !gate.Admits(c.source.Role()) {
		return false
	}

	c.mu.Lock()
	c.current = v
	c.mu.Unlock()
	return true
}

// EnterModule は会計モジュールへの入場を試みる。
// 5権限のいずれか1つがあれば入場でき、ダッシュボードに遷移する。
func (c *Controller) EnterModule() bool {
	if !moduleGate.Admits(c.source.Role()) {
		return false
	}

	c.mu.Lock()
	c.current = ViewDashboard
	c.mu.Unlock()
	return true
}

// Reset はセッション終了時に画面状態をViewNoneへ戻す。
func (c *Controller) Reset() {
	c.mu.Lock()
	c.current = ViewNone
	c.mu.Unlock()
}

// Current は現在の画面を返す。
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

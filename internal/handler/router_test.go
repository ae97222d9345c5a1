package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/regiman/internal/accounting"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/pos"
	"github.com/hitoshi/regiman/internal/security"
)

// --- Router統合テスト用モック ---

// mockTokenVerifierForRouter はトークン文字列をそのままidentity IDとして扱う検証器。
type mockTokenVerifierForRouter struct {
	profiles map[string]*model.Profile
}

func (m *mockTokenVerifierForRouter) Verify(tokenString string) (string, string, error) {
	if p, ok := m.profiles[tokenString]; ok {
		return p.ID, p.Email, nil
	}
	return "", "", errors.New("invalid token")
}

// mockProfileFinderForRouter はRouter統合テスト用のProfileFinderモック。
type mockProfileFinderForRouter struct {
	profiles map[string]*model.Profile
}

func (m *mockProfileFinderForRouter) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, nil
}

// createTestRouter はテスト用の完全なルーターを構築するヘルパー。
// トークン文字列 "admin-token" / "staff-token" / "inactive-token" で
// 各ロールのプロファイルとして認証される。
func createTestRouter() http.Handler {
	profiles := map[string]*model.Profile{
		"identity-admin":    {ID: "identity-admin", Email: "admin@example.com", FullName: "管理者", Role: model.RoleAdmin, Active: true},
		"identity-staff":    {ID: "identity-staff", Email: "staff@example.com", FullName: "スタッフ", Role: model.RoleStaff, Active: true},
		"identity-inactive": {ID: "identity-inactive", Email: "gone@example.com", FullName: "退職者", Role: model.RoleStaff, Active: false},
	}
	tokens := map[string]*model.Profile{
		"admin-token":    profiles["identity-admin"],
		"staff-token":    profiles["identity-staff"],
		"inactive-token": profiles["identity-inactive"],
	}

	deps := &RouterDeps{
		TokenVerifier: &mockTokenVerifierForRouter{profiles: tokens},
		ProfileFinder: &mockProfileFinderForRouter{profiles: profiles},
		RateLimiter:   middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		AuthService: &mockAuthService{
			signUpFn: func(ctx context.Context, email, password, fullName string) (string, *model.Profile, error) {
				return "new-token", &model.Profile{ID: "identity-new", Email: email, FullName: fullName, Role: model.RoleStaff, Active: true}, nil
			},
			signInFn: func(ctx context.Context, email, password string) (string, error) {
				return "signed-in-token", nil
			},
		},
		Sanitizer:      security.NewTextSanitizer(),
		ProfileService: &mockProfileService{},
		CategoryService: &mockCategoryService{
			listFn: func(ctx context.Context) ([]*model.Category, error) {
				return []*model.Category{}, nil
			},
			createFn: func(ctx context.Context, name, description string) (*model.Category, error) {
				return &model.Category{ID: "cat-test", Name: name, Description: description}, nil
			},
			getFn: func(ctx context.Context, id string) (*model.Category, error) {
				return &model.Category{ID: id, Name: "ドリンク"}, nil
			},
			updateFn: func(ctx context.Context, id, name, description string) (*model.Category, error) {
				return &model.Category{ID: id, Name: name}, nil
			},
		},
		OrderService: &mockOrderService{
			listFn: func(ctx context.Context) ([]*model.Order, error) {
				return []*model.Order{}, nil
			},
			createFn: func(ctx context.Context, createdBy string, in pos.OrderInput) (*model.Order, error) {
				return &model.Order{ID: "order-test", TotalCents: in.TotalCents, Status: model.OrderStatusOpen, CreatedBy: createdBy}, nil
			},
			getFn: func(ctx context.Context, id string) (*model.Order, error) {
				return &model.Order{ID: id, Status: model.OrderStatusOpen}, nil
			},
			updateFn: func(ctx context.Context, id string, in pos.OrderInput) (*model.Order, error) {
				return &model.Order{ID: id, Status: model.OrderStatusOpen}, nil
			},
		},
		AccountingService: &mockAccountingService{
			summaryFn: func(ctx context.Context) (*model.AccountingSummary, error) {
				return &model.AccountingSummary{}, nil
			},
			receivablesFn: func(ctx context.Context) ([]*model.Receivable, error) {
				return []*model.Receivable{}, nil
			},
			payablesFn: func(ctx context.Context) ([]*model.Payable, error) {
				return []*model.Payable{}, nil
			},
			monthlyReportFn: func(ctx context.Context, months int) ([]*model.MonthlyReportRow, error) {
				return []*model.MonthlyReportRow{}, nil
			},
			listExpensesFn: func(ctx context.Context) ([]*model.Expense, error) {
				return []*model.Expense{}, nil
			},
			createExpenseFn: func(ctx context.Context, createdBy string, in accounting.ExpenseInput) (*model.Expense, error) {
				return &model.Expense{ID: "exp-test", Status: model.ExpenseStatusUnpaid, CreatedBy: createdBy}, nil
			},
			updateExpenseFn: func(ctx context.Context, id string, in accounting.ExpenseInput) (*model.Expense, error) {
				return &model.Expense{ID: id, Status: model.ExpenseStatusPaid}, nil
			},
		},
	}

	return NewRouter(deps)
}

// --- 運用エンドポイント ---

// TestNewRouter_HealthEndpoint_NoAuthRequired は
// ヘルスチェックエンドポイントが認証不要であることを検証する。
func TestNewRouter_HealthEndpoint_NoAuthRequired(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	data := parseDataResponse(t, w)
	if data["status"] != "ok" {
		t.Errorf("status = %v, want %q", data["status"], "ok")
	}
}

// TestNewRouter_MetricsEndpoint_AbsentWhenNil は
// MetricsHandler未設定時に/metricsが公開されないことを検証する。
func TestNewRouter_MetricsEndpoint_AbsentWhenNil(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// TestNewRouter_SecurityHeaders_Applied は
// 全レスポンスにセキュリティヘッダーが付与されることを検証する。
func TestNewRouter_SecurityHeaders_Applied(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := w.Result().Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
}

// --- 認証ルート ---

// TestNewRouter_AuthRoutes_SignUpEndpoint はサインアップが認証不要で到達できることを検証する。
func TestNewRouter_AuthRoutes_SignUpEndpoint(t *testing.T) {
	router := createTestRouter()

	body := `{"email": "new@example.com", "password": "secret-pass-123", "full_name": "新人"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("POST /auth/signup status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

// TestNewRouter_AuthRoutes_MeEndpoint はGET /auth/meがトークン認証でルーティングされることを検証する。
func TestNewRouter_AuthRoutes_MeEndpoint(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /auth/me status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	data := parseDataResponse(t, w)
	if data["email"] != "staff@example.com" {
		t.Errorf("email = %v, want %q", data["email"], "staff@example.com")
	}
}

// --- 認証・権限ゲート ---

// TestNewRouter_ProtectedRoute_NoToken_Returns401 は
// 保護ルートにトークンなしでアクセスすると401が返ることを検証する。
func TestNewRouter_ProtectedRoute_NoToken_Returns401(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/categories (no token) status = %d, want %d",
			w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestNewRouter_ProtectedRoute_InvalidToken_Returns401 は
// 不正なトークンで401が返ることを検証する。
func TestNewRouter_ProtectedRoute_InvalidToken_Returns401(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/categories (invalid token) status = %d, want %d",
			w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestNewRouter_InactiveProfile_Returns403 は
// 無効化済みプロファイルのトークンで403が返ることを検証する。
func TestNewRouter_InactiveProfile_Returns403(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer inactive-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("GET /api/categories (inactive) status = %d, want %d",
			w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestNewRouter_CatalogRoutes_StaffAllowed は
// スタッフがレジ業務ルートにアクセスできることを検証する。
func TestNewRouter_CatalogRoutes_StaffAllowed(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /api/categories (staff) status = %d, want %d",
			w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_ProfileRoutes_StaffForbidden は
// スタッフがプロファイル管理ルートにアクセスできないことを検証する。
func TestNewRouter_ProfileRoutes_StaffForbidden(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("GET /api/profiles (staff) status = %d, want %d",
			w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestNewRouter_ProfileRoutes_AdminAllowed は
// 管理者がプロファイル管理ルートにアクセスできることを検証する。
func TestNewRouter_ProfileRoutes_AdminAllowed(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /api/profiles (admin) status = %d, want %d",
			w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_AccountingModule_StaffForbidden は
// 会計モジュール全ルートがスタッフには403になることを検証する。
func TestNewRouter_AccountingModule_StaffForbidden(t *testing.T) {
	router := createTestRouter()

	paths := []string{
		"/api/accounting",
		"/api/accounting/receivables",
		"/api/accounting/payables",
		"/api/accounting/reports",
		"/api/accounting/expenses",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer staff-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusForbidden {
				t.Errorf("GET %s (staff) status = %d, want %d",
					path, w.Result().StatusCode, http.StatusForbidden)
			}
		})
	}
}

// TestNewRouter_AccountingModule_AdminAllowed は
// 会計モジュール全ルートに管理者がアクセスできることを検証する。
func TestNewRouter_AccountingModule_AdminAllowed(t *testing.T) {
	router := createTestRouter()

	paths := []string{
		"/api/accounting",
		"/api/accounting/receivables",
		"/api/accounting/payables",
		"/api/accounting/reports",
		"/api/accounting/expenses",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer admin-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusOK {
				t.Errorf("GET %s (admin) status = %d, want %d",
					path, w.Result().StatusCode, http.StatusOK)
			}
		})
	}
}

// --- ルート登録の網羅確認 ---

// TestNewRouter_CatalogRoutes_AllEndpoints は
// カテゴリ・注文関連の全エンドポイントが登録されていることを検証する。
func TestNewRouter_CatalogRoutes_AllEndpoints(t *testing.T) {
	router := createTestRouter()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/categories", ""},
		{http.MethodPost, "/api/categories", `{"name": "ドリンク"}`},
		{http.MethodGet, "/api/categories/cat-1", ""},
		{http.MethodPut, "/api/categories/cat-1", `{"name": "フード"}`},
		{http.MethodDelete, "/api/categories/cat-1", ""},
		{http.MethodGet, "/api/orders", ""},
		{http.MethodPost, "/api/orders", `{"total_cents": 100}`},
		{http.MethodGet, "/api/orders/order-1", ""},
		{http.MethodPut, "/api/orders/order-1", `{"total_cents": 200}`},
		{http.MethodDelete, "/api/orders/order-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer staff-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode == http.StatusNotFound {
				t.Errorf("%s %s returned 404, route not found", tt.method, tt.path)
			}
		})
	}
}

// TestNewRouter_ExpenseRoutes_AllEndpoints は
// 経費関連の全エンドポイントが登録されていることを検証する。
func TestNewRouter_ExpenseRoutes_AllEndpoints(t *testing.T) {
	router := createTestRouter()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/accounting/expenses", ""},
		{http.MethodPost, "/api/accounting/expenses", `{"payee": "酒販店", "amount_cents": 100}`},
		{http.MethodPut, "/api/accounting/expenses/exp-1", `{"payee": "酒販店", "amount_cents": 100, "status": "paid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer admin-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode == http.StatusNotFound {
				t.Errorf("%s %s returned 404, route not found", tt.method, tt.path)
			}
		})
	}
}

// TestNewRouter_UnknownRoute_Returns404 は未登録ルートに404が返ることを検証する。
func TestNewRouter_UnknownRoute_Returns404(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("GET /api/unknown status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

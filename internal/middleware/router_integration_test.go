package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/rbac"
)

// TestRouterIntegration_ProtectedRoutes_WithMiddlewareChain は
// 認証 -> 権限のミドルウェアチェーンがchi.Routerで正しく動作することを検証する。
func TestRouterIntegration_ProtectedRoutes_WithMiddlewareChain(t *testing.T) {
	profiles := map[string]*model.Profile{
		"identity-admin": {ID: "identity-admin", Email: "admin@example.com", Role: model.RoleAdmin, Active: true},
		"identity-staff": {ID: "identity-staff", Email: "staff@example.com", Role: model.RoleStaff, Active: true},
		"identity-gone":  {ID: "identity-gone", Email: "gone@example.com", Role: model.RoleStaff, Active: false},
	}

	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (string, string, error) {
			if p, ok := profiles[tokenString]; ok {
				return p.ID, p.Email, nil
			}
			return "", "", context.Canceled
		},
	}
	finder := &mockProfileFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return profiles[id], nil
		},
	}

	r := chi.NewRouter()

	// ヘルスチェックは認証不要
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 認証が必要なルートグループ
	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(verifier, finder))

		r.With(NewPermissionMiddleware(rbac.NewGate(rbac.PermManageCatalog), string(rbac.PermManageCatalog), nil)).
			Get("/api/orders", func(w http.ResponseWriter, r *http.Request) {
				profile, _ := ProfileFromContext(r.Context())
				json.NewEncoder(w).Encode(map[string]string{"profile_id": profile.ID})
			})

		r.With(NewPermissionMiddleware(rbac.NewAnyGate(rbac.AccountingPermissions...), "ACCOUNTING_MODULE", nil)).
			Get("/api/accounting", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
	})

	// テスト1: staffは注文一覧にアクセスできる
	t.Run("GET_orders_as_staff", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer identity-staff")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}

		var body map[string]string
		json.NewDecoder(w.Result().Body).Decode(&body)
		if body["profile_id"] != "identity-staff" {
			t.Errorf("profile_id = %q, want %q", body["profile_id"], "identity-staff")
		}
	})

	// テスト2: staffは経理画面にアクセスできない
	t.Run("GET_accounting_as_staff_forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/accounting", nil)
		req.Header.Set("Authorization", "Bearer identity-staff")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
		}
	})

	// テスト3: adminは経理画面にアクセスできる
	t.Run("GET_accounting_as_admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/accounting", nil)
		req.Header.Set("Authorization", "Bearer identity-admin")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}
	})

	// テスト4: トークンなしは401
	t.Run("GET_orders_no_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
		}
	})

	// テスト5: 無効化されたプロファイルは403
	t.Run("GET_orders_inactive_profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer identity-gone")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
		}
	})

	// テスト6: ヘルスチェックは認証不要
	t.Run("GET_health_no_auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}
	})
}

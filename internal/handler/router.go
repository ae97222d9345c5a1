package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/metrics"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/rbac"
	"github.com/hitoshi/regiman/internal/security"
)

// HealthChecker はヘルスチェックでのDB疎通確認のインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	ProfileFinder     middleware.ProfileFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Recorder          metrics.Recorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	Sanitizer   security.TextSanitizerService

	// プロファイル管理
	ProfileService ProfileServiceInterface

	// カタログ・注文
	CategoryService CategoryServiceInterface
	OrderService    OrderServiceInterface

	// 会計
	AccountingService AccountingServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → [Auth → RateLimit(General) → RequirePermission]
//
// 角括弧内は /api 以下にのみ適用する。/auth のサインアップとサインインには
// 認証前エンドポイント専用のIPベースレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}

	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, recorder))

	authHandler := NewAuthHandler(deps.AuthService, deps.Sanitizer)
	profileHandler := NewProfileHandler(deps.ProfileService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	orderHandler := NewOrderHandler(deps.OrderService)
	accountingHandler := NewAccountingHandler(deps.AccountingService)

	authMiddleware := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.ProfileFinder)

	// requirePermission は単一権限のゲートを権限名ラベル付きで生成する。
	requirePermission := func(perm rbac.Permission) func(http.Handler) http.Handler {
		return middleware.NewPermissionMiddleware(rbac.NewGate(perm), string(perm), recorder)
	}

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.AuthEndpointMiddleware()).Post("/signup", authHandler.SignUp)
		r.With(deps.RateLimiter.AuthEndpointMiddleware()).Post("/signin", authHandler.SignIn)
		r.Post("/signout", authHandler.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/me", authHandler.Me)
			r.Patch("/email", authHandler.ChangeEmail)
		})
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// カタログ管理（レジ業務: admin/staff共通）
		r.Route("/api/categories", func(r chi.Router) {
			r.Use(requirePermission(rbac.PermManageCatalog))

			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", categoryHandler.GetCategory)
				r.Put("/", categoryHandler.UpdateCategory)
				r.Delete("/", categoryHandler.DeleteCategory)
			})
		})

		// 注文管理
		r.Route("/api/orders", func(r chi.Router) {
			r.Use(requirePermission(rbac.PermManageCatalog))

			r.Get("/", orderHandler.ListOrders)
			r.Post("/", orderHandler.CreateOrder)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Put("/", orderHandler.UpdateOrder)
				r.Delete("/", orderHandler.DeleteOrder)
			})
		})

		// プロファイル管理（admin専用）
		r.Route("/api/profiles", func(r chi.Router) {
			r.Use(requirePermission(rbac.PermManageUsers))

			r.Get("/", profileHandler.ListProfiles)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/role", profileHandler.ChangeRole)
				r.Put("/active", profileHandler.SetActive)
			})
		})

		// 会計モジュール
		// サブツリー全体にモジュール入口ゲート（5権限のいずれか）を適用し、
		// 各画面に対応するルートには画面ごとの権限ゲートを重ねる。
		r.Route("/api/accounting", func(r chi.Router) {
			r.Use(middleware.NewPermissionMiddleware(
				rbac.NewAnyGate(rbac.AccountingPermissions...),
				"ACCOUNTING_MODULE",
				recorder,
			))

			r.With(requirePermission(rbac.PermViewAccounting)).Get("/", accountingHandler.GetSummary)
			r.With(requirePermission(rbac.PermViewAccountsReceivable)).Get("/receivables", accountingHandler.ListReceivables)
			r.With(requirePermission(rbac.PermViewAccountsPayable)).Get("/payables", accountingHandler.ListPayables)
			r.With(requirePermission(rbac.PermViewFinancialReports)).Get("/reports", accountingHandler.GetMonthlyReport)

			r.Route("/expenses", func(r chi.Router) {
				r.Use(requirePermission(rbac.PermManageExpenses))

				r.Get("/", accountingHandler.ListExpenses)
				r.Post("/", accountingHandler.CreateExpense)
				r.Put("/{id}", accountingHandler.UpdateExpense)
			})
		})
	})

	return r
}

// newHealthHandler はヘルスチェックエンドポイントのハンドラーを生成する。
// checkerがnilの場合はDB疎通確認を省略して200を返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, "データベースに接続できません。")
				return
			}
		}

		writeDataResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

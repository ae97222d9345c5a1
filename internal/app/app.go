package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/regiman/internal/accounting"
	"github.com/hitoshi/regiman/internal/auth"
	"github.com/hitoshi/regiman/internal/config"
	"github.com/hitoshi/regiman/internal/database"
	"github.com/hitoshi/regiman/internal/handler"
	"github.com/hitoshi/regiman/internal/logger"
	"github.com/hitoshi/regiman/internal/metrics"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/pos"
	"github.com/hitoshi/regiman/internal/profile"
	"github.com/hitoshi/regiman/internal/reconciler"
	"github.com/hitoshi/regiman/internal/repository"
	"github.com/hitoshi/regiman/internal/security"
	"github.com/hitoshi/regiman/internal/session"
	"github.com/hitoshi/regiman/internal/worker/reconcile"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandReconcile:
		return runReconcile(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	identityRepo := repository.NewPostgresIdentityRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	expenseRepo := repository.NewPostgresExpenseRepo(db)
	accountingRepo := repository.NewPostgresAccountingRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 認証サービスの初期化
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	authService := auth.NewService(identityRepo, profileRepo, hasher, tokens)

	// 5. アカウントイベントのリスナー登録
	// プロファイル整合サービスはDBトリガーが落ちた場合のフォールバック経路。
	reconcilerService := reconciler.NewService(profileRepo, identityRepo, collector)
	authService.AddIdentityListener(reconcilerService)

	sessionState := session.NewState(profileRepo, slog.Default())
	authService.AddSessionListener(sessionState)

	// 6. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	profileService := profile.NewService(profileRepo)
	categoryService := pos.NewCategoryService(categoryRepo, sanitizer)
	orderService := pos.NewOrderService(orderRepo, categoryRepo, sanitizer)
	accountingService := accounting.NewService(accountingRepo, expenseRepo, sanitizer)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth)

	deps := &handler.RouterDeps{
		TokenVerifier:     tokens,
		ProfileFinder:     profileRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		Logger:            slog.Default(),
		Recorder:          collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		Sanitizer:   sanitizer,

		ProfileService: profileService,

		CategoryService: categoryService,
		OrderService:    orderService,

		AccountingService: accountingService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、プロファイル整合スケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	identityRepo := repository.NewPostgresIdentityRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)

	// 3. 整合サービスの初期化
	// ワーカーはメトリクスエンドポイントを持たないためNopRecorderを使う。
	reconcilerService := reconciler.NewService(profileRepo, identityRepo, metrics.NopRecorder{})

	// 4. スケジューラの起動
	scheduler := reconcile.NewScheduler(reconcilerService, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	// 整合スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.ReconcileInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runReconcile はプロファイル整合を1回だけ実行して終了する。
// 引数にメールアドレスを指定した場合はそのアカウントのみを対象とし、
// 指定がない場合はプロファイルを持たない全アカウントを補充する。
func runReconcile(cfg *config.Config, args []string) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	identityRepo := repository.NewPostgresIdentityRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	reconcilerService := reconciler.NewService(profileRepo, identityRepo, metrics.NopRecorder{})

	ctx := context.Background()

	if len(args) > 0 {
		email := args[0]
		if err := reconcilerService.ReconcileOne(ctx, email); err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}
		slog.Info("profile reconciled", slog.String("email", email))
		return nil
	}

	created, err := reconcilerService.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	slog.Info("reconcile completed", slog.Int("created", created))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
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

	"github.com/hitoshi/goaltrack/internal/assistant"
	"github.com/hitoshi/goaltrack/internal/books"
	"github.com/hitoshi/goaltrack/internal/config"
	"github.com/hitoshi/goaltrack/internal/database"
	"github.com/hitoshi/goaltrack/internal/fitness"
	"github.com/hitoshi/goaltrack/internal/github"
	"github.com/hitoshi/goaltrack/internal/goal"
	"github.com/hitoshi/goaltrack/internal/handler"
	"github.com/hitoshi/goaltrack/internal/logger"
	"github.com/hitoshi/goaltrack/internal/metrics"
	"github.com/hitoshi/goaltrack/internal/middleware"
	"github.com/hitoshi/goaltrack/internal/programming"
	"github.com/hitoshi/goaltrack/internal/progress"
	"github.com/hitoshi/goaltrack/internal/reading"
	"github.com/hitoshi/goaltrack/internal/record"
	"github.com/hitoshi/goaltrack/internal/repository"
	"github.com/hitoshi/goaltrack/internal/revenue"
	"github.com/hitoshi/goaltrack/internal/security"
	"github.com/hitoshi/goaltrack/internal/worker/cleanup"
	"github.com/hitoshi/goaltrack/internal/worker/reconcile"

	"golang.org/x/time/rate"
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
	goalRepo := repository.NewPostgresGoalRepo(db)
	bookRepo := repository.NewPostgresBookRepo(db)
	trainingRepo := repository.NewPostgresTrainingRepo(db)
	recordRepo := repository.NewPostgresRecordRepo(db)
	githubRepo := repository.NewPostgresGitHubRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	aggregator := progress.NewAggregator(
		goalRepo, bookRepo, trainingRepo, githubRepo,
		slog.Default(), collector,
	)

	goalService := goal.NewService(goalRepo, aggregator, slog.Default())
	readingService := reading.NewService(bookRepo, goalRepo, aggregator, sanitizer, slog.Default())
	fitnessService := fitness.NewService(trainingRepo, goalRepo, aggregator, slog.Default())
	recordService := record.NewService(recordRepo, goalRepo, slog.Default())
	programmingService := programming.NewService(githubRepo, goalRepo, aggregator, slog.Default())
	revenueService := revenue.NewService(projectRepo, goalRepo, slog.Default())

	// 5. 外部プロバイダクライアントの初期化
	booksClient := books.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		ssrfGuard, sanitizer, slog.Default(),
	)
	booksClient.SetCoverFetchLimits(cfg.CoverFetchTimeout, cfg.CoverFetchMaxSize)

	githubClient := github.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		cfg.GitHubToken, slog.Default(),
	)

	assistantClient := assistant.NewClient(
		&http.Client{Timeout: 60 * time.Second},
		cfg.AnthropicAPIKey, slog.Default(),
	)
	assistantClient.SetModel(cfg.AssistantModel)

	// 6. 手動同期用のReconcilerの初期化
	reconciler := reconcile.NewReconciler(
		githubRepo, githubClient, aggregator,
		slog.Default(), cfg.SyncMaxAttempts, cfg.SyncRetryDelay,
	)

	// 7. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		SyncRate:        rate.Limit(float64(cfg.RateLimitSync) / 60.0),
		SyncBurst:       cfg.RateLimitSync,
		CleanupInterval: 5 * time.Minute,
	}

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		GoalService: goalService,

		ReadingService: readingService,
		BookSearcher:   booksClient,

		FitnessService: fitnessService,
		RecordService:  recordService,

		ProgrammingService: programmingService,
		Syncer:             reconciler,
		RevenueService:     revenueService,

		Assistant: assistantClient,

		Gatherer: registry,
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
// DB接続を開き、リポジトリ同期スケジューラを起動する。
// メトリクスはワーカー専用のHTTPサーバーで公開する。
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
	goalRepo := repository.NewPostgresGoalRepo(db)
	bookRepo := repository.NewPostgresBookRepo(db)
	trainingRepo := repository.NewPostgresTrainingRepo(db)
	githubRepo := repository.NewPostgresGitHubRepo(db)

	// 3. メトリクスと進捗集計の初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	aggregator := progress.NewAggregator(
		goalRepo, bookRepo, trainingRepo, githubRepo,
		slog.Default(), collector,
	)

	// 4. リモートプロバイダとReconcilerの初期化
	githubClient := github.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		cfg.GitHubToken, slog.Default(),
	)
	reconciler := reconcile.NewReconciler(
		githubRepo, githubClient, aggregator,
		slog.Default(), cfg.SyncMaxAttempts, cfg.SyncRetryDelay,
	)

	// 5. スケジューラの初期化
	scheduler := reconcile.NewScheduler(
		goalRepo, githubRepo, reconciler,
		slog.Default(), collector, cfg.SyncMaxConcurrent,
	)

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

	// 6. 同期履歴クリーンアップジョブを日次で実行
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 7. メトリクスサーバーをバックグラウンドで起動
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		slog.Info("metrics server starting",
			slog.String("addr", metricsServer.Addr),
		)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker starting",
		slog.Duration("sync_interval", cfg.SyncInterval),
		slog.Int("max_concurrent", cfg.SyncMaxConcurrent),
	)

	// 同期スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.SyncInterval)

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

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
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

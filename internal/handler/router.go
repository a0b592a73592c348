package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/goaltrack/internal/metrics"
	"github.com/hitoshi/goaltrack/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 目標
	GoalService GoalServiceInterface

	// 読書
	ReadingService ReadingServiceInterface
	BookSearcher   BookSearcher

	// フィットネス
	FitnessService FitnessServiceInterface
	RecordService  RecordServiceInterface

	// プログラミング
	ProgrammingService ProgrammingServiceInterface
	Syncer             RepositorySyncer
	RevenueService     RevenueServiceInterface

	// 目標提案
	Assistant AssistantInterface

	// メトリクス公開用。nilの場合は/metricsを公開しない。
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// ヘルスチェックとメトリクスはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	goalHandler := NewGoalHandler(deps.GoalService)
	bookHandler := NewBookHandler(deps.ReadingService, deps.BookSearcher)
	fitnessHandler := NewFitnessHandler(deps.FitnessService)
	recordHandler := NewRecordHandler(deps.RecordService)
	repoHandler := NewRepositoryHandler(deps.ProgrammingService, deps.Syncer)
	projectHandler := NewProjectHandler(deps.RevenueService)
	assistantHandler := NewAssistantHandler(deps.Assistant)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 目標管理
		r.Route("/api/goals", func(r chi.Router) {
			r.Post("/", goalHandler.Create)
			r.Get("/", goalHandler.List)

			// POST /api/goals/suggest - 自由記述からの目標提案
			r.Post("/suggest", assistantHandler.Suggest)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", goalHandler.Get)
				r.Patch("/", goalHandler.Update)
				r.Delete("/", goalHandler.Delete)

				// 読書
				r.Post("/books", bookHandler.AddBook)

				// フィットネス
				r.Post("/training-sessions", fitnessHandler.LogSession)
				r.Get("/fitness", fitnessHandler.Analytics)
				r.Put("/fitness/config", fitnessHandler.UpsertConfig)
				r.Post("/records", recordHandler.Submit)
				r.Get("/records", recordHandler.List)

				// プログラミング
				r.Post("/repositories", repoHandler.Add)
				r.Get("/repositories", repoHandler.List)
				r.Post("/projects", projectHandler.AddProject)

				// POST /api/goals/{id}/sync - 全リポジトリ同期（同期専用レート制限を追加）
				r.With(deps.RateLimiter.SyncTriggerMiddleware()).Post("/sync", repoHandler.SyncGoal)
			})
		})

		// 書籍管理
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/search", bookHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/sessions", bookHandler.LogSession)
				r.Get("/analytics", bookHandler.Analytics)
				r.Get("/cover", bookHandler.Cover)
			})
		})

		// リポジトリ管理
		r.Route("/api/repositories/{id}", func(r chi.Router) {
			r.Delete("/", repoHandler.Remove)
			r.Get("/stats", repoHandler.Stats)

			// POST /api/repositories/{id}/sync - 手動同期（同期専用レート制限を追加）
			r.With(deps.RateLimiter.SyncTriggerMiddleware()).Post("/sync", repoHandler.Sync)
		})

		// プロジェクト管理
		r.Route("/api/projects/{id}", func(r chi.Router) {
			r.Post("/revenue", projectHandler.LogRevenue)
			r.Get("/revenue/summary", projectHandler.Summary)
			r.Post("/metrics", projectHandler.RecordMetrics)
		})
	})

	return r
}

package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/goaltrack/internal/metrics"
	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// RepoSyncer はリポジトリ同期の実行インターフェース。
type RepoSyncer interface {
	// Sync は指定リポジトリをリモートと同期する。
	Sync(ctx context.Context, repoID string, force bool) error
}

// Scheduler は同期対象リポジトリの巡回と並列制御を行う。
// ティッカーで全プログラミング目標のリポジトリを列挙し、
// semaphoreパターンで最大並列数を制御しながら同期を実行する。
type Scheduler struct {
	goalRepo       repository.GoalRepository
	repoRepo       repository.GitHubRepoRepository
	syncer         RepoSyncer
	logger         *slog.Logger
	metrics        metrics.SyncRecorder
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	goalRepo repository.GoalRepository,
	repoRepo repository.GitHubRepoRepository,
	syncer RepoSyncer,
	logger *slog.Logger,
	recorder metrics.SyncRecorder,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		goalRepo:       goalRepo,
		repoRepo:       repoRepo,
		syncer:         syncer,
		logger:         logger,
		metrics:        recorder,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("同期サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同期スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("同期サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は同期が必要なリポジトリを1回列挙し、並列で同期を実行する。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	repos, err := s.listDue(ctx, start)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		s.logger.Debug("同期対象のリポジトリはありません")
		return nil
	}

	s.logger.Info("同期サイクルを開始します",
		slog.Int("repository_count", len(repos)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, repo := range repos {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(r *model.GitHubRepository) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			syncStart := time.Now()
			err := s.syncer.Sync(ctx, r.ID, false)
			s.metrics.RecordSyncLatency(time.Since(syncStart))
			if err == nil {
				s.metrics.RecordSyncSuccess(r.ID)
				return
			}
			// 統計集計中は次回周期で再取得されるため警告にとどめる
			var apiErr *model.APIError
			if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeStatisticsNotReady {
				s.metrics.RecordStatsPending(r.ID)
				s.logger.Warn("コミット統計が未集計のまま同期を終えました",
					slog.String("repository_id", r.ID),
					slog.String("full_name", r.FullName),
				)
				return
			}
			reason := "UNKNOWN"
			if errors.As(err, &apiErr) {
				reason = apiErr.Code
			}
			s.metrics.RecordSyncFailure(r.ID, reason)
			s.logger.Error("リポジトリ同期に失敗しました",
				slog.String("repository_id", r.ID),
				slog.String("full_name", r.FullName),
				slog.String("error", err.Error()),
			)
		}(repo)
	}

	wg.Wait()

	s.logger.Info("同期サイクルが完了しました",
		slog.Int("repository_count", len(repos)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// listDue は全プログラミング目標のリポジトリから同期が必要なものを列挙する。
// アーカイブ済み目標のリポジトリは対象外。
func (s *Scheduler) listDue(ctx context.Context, now time.Time) ([]*model.GitHubRepository, error) {
	goals, err := s.goalRepo.List(ctx, false)
	if err != nil {
		return nil, err
	}

	var due []*model.GitHubRepository
	for _, goal := range goals {
		if goal.GoalType != model.GoalTypeProgramming {
			continue
		}
		repos, err := s.repoRepo.ListByGoalID(ctx, goal.ID)
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			if repo.NeedsSync(now) {
				due = append(due, repo)
			}
		}
	}
	return due, nil
}

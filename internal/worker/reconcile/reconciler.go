// Package reconcile はGitHubリポジトリのバックグラウンド同期を提供する。
// スケジューラ、リコンサイラ、統計集計中の再試行戦略を含む。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/goaltrack/internal/github"
	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// RemoteProvider はリポジトリメタデータと統計の取得インターフェース。
type RemoteProvider interface {
	FetchRepository(ctx context.Context, owner, name string) (*model.RemoteRepository, error)
	FetchCommitActivity(ctx context.Context, owner, name string) ([]model.WeeklyCommits, error)
}

// ProgressRecomputer は目標進捗の再計算インターフェース。
type ProgressRecomputer interface {
	Recompute(ctx context.Context, goalID string) error
}

// Reconciler は個別リポジトリのリモート同期を行う。
// メタデータ更新、スター履歴の追記、週次コミットバケットの全置換を実行し、
// 同一リポジトリの同期は常に1件のみ実行中であることを保証する。
type Reconciler struct {
	repoRepo    repository.GitHubRepoRepository
	provider    RemoteProvider
	recomputer  ProgressRecomputer
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
// maxAttemptsが0以下、retryDelayが0以下の場合はデフォルト値を使用する。
func NewReconciler(
	repoRepo repository.GitHubRepoRepository,
	provider RemoteProvider,
	recomputer ProgressRecomputer,
	logger *slog.Logger,
	maxAttempts int,
	retryDelay time.Duration,
) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Reconciler{
		repoRepo:    repoRepo,
		provider:    provider,
		recomputer:  recomputer,
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		inFlight:    make(map[string]struct{}),
	}
}

// acquire は指定リポジトリの実行中スロットを取得する。
// 既に実行中の場合は偽を返す。
func (r *Reconciler) acquire(repoID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inFlight[repoID]; ok {
		return false
	}
	r.inFlight[repoID] = struct{}{}
	return true
}

// release は実行中スロットを解放する。
func (r *Reconciler) release(repoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, repoID)
}

// Sync は指定リポジトリをリモートと同期する。
// forceが偽の場合、前回同期から1時間未満のリポジトリはスキップする。
// 統計が集計中のまま再試行上限に達した場合はSTATISTICS_NOT_READYを返すが、
// メタデータとスター履歴は適用済みであり、同期全体の失敗ではない。
// この場合last_synced_atは更新せず、次回の周期で統計の取得を再試行させる。
func (r *Reconciler) Sync(ctx context.Context, repoID string, force bool) error {
	if !r.acquire(repoID) {
		return model.NewSyncInFlightError(repoID)
	}
	defer r.release(repoID)

	start := time.Now()

	repo, err := r.repoRepo.FindByID(ctx, repoID)
	if err != nil {
		return fmt.Errorf("リポジトリの取得に失敗: %w", err)
	}
	if repo == nil {
		return model.NewRepositoryNotFoundError(repoID)
	}

	if !force && !repo.NeedsSync(start) {
		r.logger.Debug("前回同期から間もないためスキップします",
			slog.String("repository_id", repoID),
			slog.String("full_name", repo.FullName),
		)
		return nil
	}

	// メタデータ取得と適用
	remote, err := r.provider.FetchRepository(ctx, repo.Owner, repo.Name)
	if err != nil {
		r.logger.Error("リポジトリメタデータの取得に失敗しました",
			slog.String("repository_id", repoID),
			slog.String("full_name", repo.FullName),
			slog.String("error", err.Error()),
		)
		return err
	}

	applyMetadata(repo, remote, start)
	if err := r.repoRepo.UpdateMetadata(ctx, repo); err != nil {
		return fmt.Errorf("メタデータの更新に失敗: %w", err)
	}

	// スター履歴は同期ごとに1件追記する
	if err := r.repoRepo.AppendStarSnapshot(ctx, &model.StarHistory{
		ID:           uuid.New().String(),
		RepositoryID: repoID,
		Date:         start,
		StarCount:    remote.StarCount,
		ForkCount:    remote.ForkCount,
		CreatedAt:    start,
	}); err != nil {
		return fmt.Errorf("スター履歴の追記に失敗: %w", err)
	}

	// コミット統計の取得（集計中は再試行）
	weeks, err := fetchStatsWithRetry(ctx, func(ctx context.Context) ([]model.WeeklyCommits, error) {
		return r.provider.FetchCommitActivity(ctx, repo.Owner, repo.Name)
	}, r.maxAttempts, r.retryDelay)
	if err != nil {
		if isStatsPending(err) {
			r.logger.Warn("コミット統計が集計中のため、統計の更新を見送ります",
				slog.String("repository_id", repoID),
				slog.String("full_name", repo.FullName),
				slog.Int("max_attempts", r.maxAttempts),
			)
			return model.NewStatisticsNotReadyError(repo.FullName)
		}
		r.logger.Error("コミット統計の取得に失敗しました",
			slog.String("repository_id", repoID),
			slog.String("full_name", repo.FullName),
			slog.String("error", err.Error()),
		)
		return err
	}

	buckets := buildCommitBuckets(repoID, weeks, start)

	// 取得中にリポジトリが削除されている可能性があるため、適用前に再確認する
	current, err := r.repoRepo.FindByID(ctx, repoID)
	if err != nil {
		return fmt.Errorf("リポジトリの再確認に失敗: %w", err)
	}
	if current == nil {
		r.logger.Warn("同期中にリポジトリが削除されたため、統計の適用を中止します",
			slog.String("repository_id", repoID),
			slog.String("full_name", repo.FullName),
		)
		return nil
	}

	if err := r.repoRepo.ReplaceCommitActivity(ctx, repoID, buckets); err != nil {
		return fmt.Errorf("コミットバケットの置換に失敗: %w", err)
	}

	// 総コミット数が進捗のソースであるため、置換後に再計算する
	if err := r.recomputer.Recompute(ctx, repo.GoalID); err != nil {
		r.logger.Error("目標進捗の再計算に失敗しました",
			slog.String("goal_id", repo.GoalID),
			slog.String("error", err.Error()),
		)
	}

	if err := r.repoRepo.UpdateLastSyncedAt(ctx, repoID, start); err != nil {
		return fmt.Errorf("最終同期日時の更新に失敗: %w", err)
	}

	r.logger.Info("リポジトリの同期が完了しました",
		slog.String("repository_id", repoID),
		slog.String("full_name", repo.FullName),
		slog.Int("bucket_count", len(buckets)),
		slog.Int("star_count", remote.StarCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// applyMetadata はリモートの応答をリポジトリレコードに反映する。
func applyMetadata(repo *model.GitHubRepository, remote *model.RemoteRepository, now time.Time) {
	repo.FullName = remote.FullName
	repo.Description = remote.Description
	repo.Language = remote.Language
	repo.StarCount = remote.StarCount
	repo.ForkCount = remote.ForkCount
	repo.OpenIssues = remote.OpenIssues
	repo.IsPrivate = remote.IsPrivate
	repo.DefaultBranch = remote.DefaultBranch
	repo.UpdatedAt = now
}

// isStatsPending はエラーが統計集計中を示すかを返す。
func isStatsPending(err error) bool {
	return errors.Is(err, github.ErrStatsPending)
}

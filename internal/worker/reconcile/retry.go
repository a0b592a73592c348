package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/goaltrack/internal/github"
	"github.com/hitoshi/goaltrack/internal/model"
)

const (
	// defaultMaxAttempts は統計取得の最大試行回数。
	defaultMaxAttempts = 3
	// defaultRetryDelay は統計集計中の再試行までの待機時間。
	defaultRetryDelay = 2 * time.Second
)

// statsFetcher は週次コミット統計の取得関数。
type statsFetcher func(ctx context.Context) ([]model.WeeklyCommits, error)

// fetchStatsWithRetry は統計取得を集計中シグナルに対して再試行する。
// 集計中（ErrStatsPending）の場合のみ待機して再試行し、
// 最大試行回数に達したらErrStatsPendingをそのまま返す。
// それ以外のエラーは再試行せず即座に返す。
// 待機中のコンテキストキャンセルは中断として扱う。
func fetchStatsWithRetry(ctx context.Context, fetch statsFetcher, maxAttempts int, delay time.Duration) ([]model.WeeklyCommits, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		weeks, err := fetch(ctx)
		if err == nil {
			return weeks, nil
		}
		if !errors.Is(err, github.ErrStatsPending) {
			return nil, err
		}
		lastErr = err

		// 最終試行後は待機しない
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// buildCommitBuckets はプロバイダの週次統計を永続化用バケットに変換する。
// コミットが0の週は保存しない。同一週開始のエントリは後勝ちで重複排除し、
// 結果はweek_start_date昇順で返す。
func buildCommitBuckets(repoID string, weeks []model.WeeklyCommits, now time.Time) []model.CommitActivity {
	byWeek := make(map[time.Time]model.WeeklyCommits, len(weeks))
	for _, w := range weeks {
		if w.CommitCount == 0 {
			continue
		}
		byWeek[w.WeekStart.UTC()] = w
	}

	buckets := make([]model.CommitActivity, 0, len(byWeek))
	for weekStart, w := range byWeek {
		buckets = append(buckets, model.CommitActivity{
			ID:            uuid.New().String(),
			RepositoryID:  repoID,
			WeekStartDate: weekStart,
			CommitCount:   w.CommitCount,
			Additions:     w.Additions,
			Deletions:     w.Deletions,
			CreatedAt:     now,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStartDate.Before(buckets[j].WeekStartDate)
	})
	return buckets
}

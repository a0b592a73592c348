package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/goaltrack/internal/github"
	"github.com/hitoshi/goaltrack/internal/model"
)

// TestFetchStatsWithRetry_SuccessFirstAttempt は初回成功時に再試行しないことを検証する。
func TestFetchStatsWithRetry_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	fetch := func(ctx context.Context) ([]model.WeeklyCommits, error) {
		attempts++
		return []model.WeeklyCommits{{CommitCount: 5}}, nil
	}

	weeks, err := fetchStatsWithRetry(context.Background(), fetch, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if attempts != 1 {
		t.Errorf("試行回数が一致しない: got=%d, want=1", attempts)
	}
	if len(weeks) != 1 {
		t.Errorf("週数が一致しない: got=%d", len(weeks))
	}
}

// TestFetchStatsWithRetry_PendingThenSuccess は集計中からの回復を検証する。
func TestFetchStatsWithRetry_PendingThenSuccess(t *testing.T) {
	attempts := 0
	fetch := func(ctx context.Context) ([]model.WeeklyCommits, error) {
		attempts++
		if attempts < 3 {
			return nil, github.ErrStatsPending
		}
		return []model.WeeklyCommits{{CommitCount: 2}}, nil
	}

	weeks, err := fetchStatsWithRetry(context.Background(), fetch, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if attempts != 3 {
		t.Errorf("試行回数が一致しない: got=%d, want=3", attempts)
	}
	if len(weeks) != 1 {
		t.Errorf("週数が一致しない: got=%d", len(weeks))
	}
}

// TestFetchStatsWithRetry_ExhaustsAttempts は集計中が続いた場合に
// ちょうど最大試行回数で打ち切ることを検証する。
func TestFetchStatsWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	fetch := func(ctx context.Context) ([]model.WeeklyCommits, error) {
		attempts++
		return nil, github.ErrStatsPending
	}

	_, err := fetchStatsWithRetry(context.Background(), fetch, 3, time.Millisecond)
	if !errors.Is(err, github.ErrStatsPending) {
		t.Errorf("ErrStatsPendingを期待: got=%v", err)
	}
	if attempts != 3 {
		t.Errorf("試行回数が一致しない: got=%d, want=3", attempts)
	}
}

// TestFetchStatsWithRetry_NonPendingError は集計中以外のエラーを再試行しないことを検証する。
func TestFetchStatsWithRetry_NonPendingError(t *testing.T) {
	attempts := 0
	fetch := func(ctx context.Context) ([]model.WeeklyCommits, error) {
		attempts++
		return nil, model.NewRateLimitedError("GitHub")
	}

	_, err := fetchStatsWithRetry(context.Background(), fetch, 3, time.Millisecond)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRateLimited {
		t.Errorf("RATE_LIMITEDエラーを期待: got=%v", err)
	}
	if attempts != 1 {
		t.Errorf("再試行してはならない: attempts=%d", attempts)
	}
}

// TestFetchStatsWithRetry_ContextCancel は待機中のキャンセルで中断することを検証する。
func TestFetchStatsWithRetry_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	fetch := func(ctx context.Context) ([]model.WeeklyCommits, error) {
		attempts++
		cancel() // 1回目の試行後の待機中にキャンセルさせる
		return nil, github.ErrStatsPending
	}

	_, err := fetchStatsWithRetry(ctx, fetch, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("context.Canceledを期待: got=%v", err)
	}
	if attempts != 1 {
		t.Errorf("キャンセル後に再試行してはならない: attempts=%d", attempts)
	}
}

// TestBuildCommitBuckets はバケット変換の規則を検証する。
func TestBuildCommitBuckets(t *testing.T) {
	now := time.Now()
	week1 := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	weeks := []model.WeeklyCommits{
		{WeekStart: week2, CommitCount: 3, Additions: 40, Deletions: 5},
		{WeekStart: week1, CommitCount: 0}, // 0コミット週は保存しない
		{WeekStart: week1, CommitCount: 5, Additions: 120, Deletions: 30},
	}

	buckets := buildCommitBuckets("repo-1", weeks, now)
	if len(buckets) != 2 {
		t.Fatalf("バケット数が一致しない: got=%d, want=2", len(buckets))
	}
	// week_start_date昇順
	if !buckets[0].WeekStartDate.Equal(week1) || !buckets[1].WeekStartDate.Equal(week2) {
		t.Errorf("昇順で返されるべき: %v, %v", buckets[0].WeekStartDate, buckets[1].WeekStartDate)
	}
	if buckets[0].CommitCount != 5 || buckets[0].Additions != 120 {
		t.Errorf("週1のバケットが一致しない: %+v", buckets[0])
	}
	if buckets[0].RepositoryID != "repo-1" {
		t.Errorf("RepositoryIDが一致しない: %s", buckets[0].RepositoryID)
	}
}

// TestBuildCommitBuckets_AssignsIDs は各バケットにUUID主キーが
// 採番されることを検証する。
func TestBuildCommitBuckets_AssignsIDs(t *testing.T) {
	weeks := []model.WeeklyCommits{
		{WeekStart: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), CommitCount: 5},
		{WeekStart: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), CommitCount: 3},
	}

	buckets := buildCommitBuckets("repo-1", weeks, time.Now())
	if len(buckets) != 2 {
		t.Fatalf("バケット数が一致しない: got=%d, want=2", len(buckets))
	}
	for i, b := range buckets {
		if b.ID == "" {
			t.Errorf("buckets[%d].ID が空文字列: UUID主キー列への挿入は失敗する", i)
		}
	}
	if buckets[0].ID == buckets[1].ID {
		t.Errorf("IDは一意であるべき: %s", buckets[0].ID)
	}
}

// TestBuildCommitBuckets_DuplicateWeek は同一週開始の重複排除を検証する。
func TestBuildCommitBuckets_DuplicateWeek(t *testing.T) {
	week := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	weeks := []model.WeeklyCommits{
		{WeekStart: week, CommitCount: 2},
		{WeekStart: week, CommitCount: 7}, // 後勝ち
	}

	buckets := buildCommitBuckets("repo-1", weeks, time.Now())
	if len(buckets) != 1 {
		t.Fatalf("重複週は1件に集約されるべき: got=%d", len(buckets))
	}
	if buckets[0].CommitCount != 7 {
		t.Errorf("後勝ちで重複排除されるべき: got=%d", buckets[0].CommitCount)
	}
}

// TestBuildCommitBuckets_AllZero は全週0コミットの場合に空を返すことを検証する。
func TestBuildCommitBuckets_AllZero(t *testing.T) {
	weeks := []model.WeeklyCommits{
		{WeekStart: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), CommitCount: 0},
	}
	if got := buildCommitBuckets("repo-1", weeks, time.Now()); len(got) != 0 {
		t.Errorf("空のバケットを期待: got=%d", len(got))
	}
}

// Package programming はプログラミング目標の分析機能を提供する。
// コミット集計、スター成長、収益以外のリポジトリ指標をイベントログから導出する。
package programming

import (
	"sort"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// recentCommitWindow は直近コミット集計の窓幅。
const recentCommitWindow = 4 * 7 * 24 * time.Hour

// TotalCommits はリポジトリの総コミット数を返す。
func TotalCommits(buckets []model.CommitActivity) int {
	var total int
	for _, b := range buckets {
		total += b.CommitCount
	}
	return total
}

// TotalAdditions はリポジトリの総追加行数を返す。
func TotalAdditions(buckets []model.CommitActivity) int {
	var total int
	for _, b := range buckets {
		total += b.Additions
	}
	return total
}

// TotalDeletions はリポジトリの総削除行数を返す。
func TotalDeletions(buckets []model.CommitActivity) int {
	var total int
	for _, b := range buckets {
		total += b.Deletions
	}
	return total
}

// RecentCommits は直近4週間のコミット数を返す。
// weekStartDateが now - 4週間 以降のバケットを合算する。
func RecentCommits(buckets []model.CommitActivity, now time.Time) int {
	cutoff := now.Add(-recentCommitWindow)
	var total int
	for _, b := range buckets {
		if !b.WeekStartDate.Before(cutoff) {
			total += b.CommitCount
		}
	}
	return total
}

// sortedByDate はスター履歴をdate昇順に並べたコピーを返す。
func sortedByDate(history []model.StarHistory) []model.StarHistory {
	sorted := make([]model.StarHistory, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// StarGrowthOverWindow は指定期間内のスター増加数を返す。
// 期間内のエントリをdate昇順に並べ、最後と最初のスター数の差を取る。
// 期間内のエントリが1件もない場合は0を返す。
func StarGrowthOverWindow(history []model.StarHistory, window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	var inWindow []model.StarHistory
	for _, h := range history {
		if !h.Date.Before(cutoff) {
			inWindow = append(inWindow, h)
		}
	}
	if len(inWindow) == 0 {
		return 0
	}
	sorted := sortedByDate(inWindow)
	return sorted[len(sorted)-1].StarCount - sorted[0].StarCount
}

// AverageDailyStarGrowth は1日あたりの平均スター増加数を返す。
// 異なる日付のエントリが2件以上必要で、満たさない場合はnilを返す。
func AverageDailyStarGrowth(history []model.StarHistory) *float64 {
	if len(history) < 2 {
		return nil
	}
	sorted := sortedByDate(history)
	first := sorted[0]
	last := sorted[len(sorted)-1]

	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return nil
	}
	growth := float64(last.StarCount-first.StarCount) / days
	return &growth
}

// ProjectedStars は指定日時点の予測スター数を返す。
// 現在のスター数に平均日次増加数×日数を加えた単純な線形外挿であり、
// 統計的にフィットしたトレンドではない。
// 平均増加数が算出できない場合はnilを返す。
func ProjectedStars(history []model.StarHistory, currentStarCount int, now, atDate time.Time) *int {
	growth := AverageDailyStarGrowth(history)
	if growth == nil {
		return nil
	}
	days := atDate.Sub(now).Hours() / 24
	projected := currentStarCount + int(*growth*days)
	return &projected
}

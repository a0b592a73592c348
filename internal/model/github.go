// Package model はドメインモデルを定義する。
package model

import "time"

// GitHubRepository はプログラミング目標に属するGitHubリポジトリを表す。
type GitHubRepository struct {
	ID            string
	GoalID        string
	Owner         string
	Name          string
	FullName      string
	Description   string
	Language      string
	StarCount     int
	ForkCount     int
	OpenIssues    int
	IsPrivate     bool
	DefaultBranch string
	LastSyncedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NeedsSync は同期が必要かを返す。
// 未同期、または前回同期から1時間以上経過している場合に真。
func (r *GitHubRepository) NeedsSync(now time.Time) bool {
	if r.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*r.LastSyncedAt) >= time.Hour
}

// CommitActivity はリポジトリの週次コミット集計バケットを表す。
// weekStartDateが自然キーであり、同一週のバケットは重複してはならない。
// 同期ごとにリポジトリ単位で全置換される（唯一の置換可能ログ）。
type CommitActivity struct {
	ID            string
	RepositoryID  string
	WeekStartDate time.Time
	CommitCount   int
	Additions     int
	Deletions     int
	CreatedAt     time.Time
}

// StarHistory はスター数のスナップショットを表す。
// 同期ごとに1件追加される追記専用ログ。
type StarHistory struct {
	ID           string
	RepositoryID string
	Date         time.Time
	StarCount    int
	ForkCount    int
	CreatedAt    time.Time
}

// RemoteRepository はリポジトリメタデータプロバイダの応答を表す。
type RemoteRepository struct {
	RemoteID      int64
	FullName      string
	Description   string
	Language      string
	StarCount     int
	ForkCount     int
	OpenIssues    int
	IsPrivate     bool
	DefaultBranch string
}

// WeeklyCommits はコミット統計プロバイダが返す週次集計を表す。
type WeeklyCommits struct {
	WeekStart   time.Time
	CommitCount int
	Additions   int
	Deletions   int
}

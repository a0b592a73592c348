// Package model はドメインモデルを定義する。
package model

import "time"

// Book は読書目標に属する書籍を表す。
type Book struct {
	ID          string
	GoalID      string
	Title       string
	Authors     string
	ISBN13      string
	ISBN10      string
	CoverURL    string
	Description string // サニタイズ済みHTML
	TotalPages  *int
	CurrentPage int
	IsCompleted bool
	StartedAt   *time.Time // 読書開始日。最初のセッション記録時に設定される。
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReadingSession は読書セッションのログエントリを表す。
// 作成後は不変（追記専用ログ）。
type ReadingSession struct {
	ID              string
	BookID          string
	PagesRead       int
	DurationMinutes int
	Date            time.Time
	CreatedAt       time.Time
}

// BookSearchResult は書籍メタデータプロバイダの検索結果を表す。
type BookSearchResult struct {
	Title       string
	Authors     []string
	ISBN10      string
	ISBN13      string
	CoverURL    string
	PageCount   *int
	Description string
}

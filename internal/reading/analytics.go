// Package reading は読書目標の分析機能を提供する。
// 進捗率、読書ペース、読了見込み、連続読書日数をイベントログから導出する。
// 分析値はすべて読み取り時に計算され、永続化されない。
package reading

import (
	"math"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// Progress は書籍の読書進捗率を返す。
// totalPagesが未設定または0の場合は0を返す。
func Progress(book *model.Book) float64 {
	if book.TotalPages == nil || *book.TotalPages <= 0 {
		return 0
	}
	return float64(book.CurrentPage) / float64(*book.TotalPages)
}

// AveragePagesPerDay は読書開始からの1日あたり平均ページ数を返す。
// 経過日数は最低1日として扱う。開始日未設定の場合は0を返す。
func AveragePagesPerDay(book *model.Book, now time.Time) float64 {
	if book.StartedAt == nil {
		return 0
	}
	days := int(now.Sub(*book.StartedAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return float64(book.CurrentPage) / float64(days)
}

// EstimatedDaysToComplete は読了までの推定日数を返す。
// ペースが0または総ページ数が不明な場合はnilを返す（エラーではなく定常状態）。
func EstimatedDaysToComplete(book *model.Book, now time.Time) *int {
	if book.TotalPages == nil || *book.TotalPages <= 0 {
		return nil
	}
	pace := AveragePagesPerDay(book, now)
	if pace <= 0 {
		return nil
	}
	remaining := *book.TotalPages - book.CurrentPage
	if remaining < 0 {
		remaining = 0
	}
	days := int(math.Ceil(float64(remaining) / pace))
	return &days
}

// Streak は連続読書日数を返す。
// 「今日」のローカル暦日から遡り、セッションが1件以上ある暦日が
// 連続している限りカウントし、最初の空白日で停止する。
// ローリング24時間窓ではなく、セッションのタイムスタンプが属するローカル暦日で判定する。
func Streak(sessions []model.ReadingSession, now time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	// セッションが存在する暦日の集合を構築する
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.Date.Local().Format("2006-01-02")] = true
	}

	streak := 0
	day := now.Local()
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// PagesPerHour はセッションの時間あたり読書ページ数を返す。
// 所要時間が0の場合は0を返す。
func PagesPerHour(session model.ReadingSession) float64 {
	if session.DurationMinutes <= 0 {
		return 0
	}
	return float64(session.PagesRead) / (float64(session.DurationMinutes) / 60.0)
}

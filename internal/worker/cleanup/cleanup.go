// Package cleanup は同期履歴データの自動削除ジョブを提供する。
// 保持期間（デフォルト365日）を超過したコミット活動とスター履歴を
// 日次バッチで削除する。リポジトリの現在値（合計コミット数など）は
// github_repositories側に保持されるため、履歴の削除は統計の再計算に影響しない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過した同期履歴の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 履歴の保持日数（デフォルト: 365）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は365日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 365,
	}
}

// Run は保持期間を超過したコミット活動とスター履歴を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	var totalDeleted int64
	queries := []struct {
		name  string
		query string
	}{
		{"commit_activities", `DELETE FROM commit_activities WHERE week_start_date < now() - $1::interval`},
		{"star_history", `DELETE FROM star_history WHERE date < now() - $1::interval`},
	}

	for _, q := range queries {
		result, err := j.db.ExecContext(ctx, q.query, interval)
		if err != nil {
			j.logger.Error("同期履歴クリーンアップジョブの実行に失敗しました",
				slog.String("table", q.name),
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("同期履歴クリーンアップの実行に失敗 (%s): %w", q.name, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			j.logger.Error("削除件数の取得に失敗しました",
				slog.String("table", q.name),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("削除件数の取得に失敗 (%s): %w", q.name, err)
		}
		totalDeleted += deleted
	}

	duration := time.Since(start)
	j.logger.Info("同期履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

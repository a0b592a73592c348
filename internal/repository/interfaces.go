// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// GoalRepository は目標データの永続化インターフェース。
type GoalRepository interface {
	// FindByID は指定IDの目標を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Goal, error)

	// List は目標一覧をcreated_at昇順で返す。
	// includeArchivedが偽の場合はアーカイブ済みを除外する。
	List(ctx context.Context, includeArchived bool) ([]*model.Goal, error)

	// Create は目標を作成する。
	Create(ctx context.Context, goal *model.Goal) error

	// Update は目標の基本情報を更新する。
	Update(ctx context.Context, goal *model.Goal) error

	// UpdateProgress はcurrent_valueとupdated_atのみを更新する。
	// 進捗アグリゲータからの再計算結果の書き戻しに使用する。
	UpdateProgress(ctx context.Context, id string, currentValue float64, updatedAt time.Time) error

	// DeleteByID は指定IDの目標を削除する。
	// 所有する書籍・セッション・リポジトリ等はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// FindFitnessConfig は目標のフィットネス設定を取得する。見つからない場合はnilを返す。
	FindFitnessConfig(ctx context.Context, goalID string) (*model.FitnessGoalConfig, error)

	// UpsertFitnessConfig はフィットネス設定を作成または更新する。目標ごとに最大1件。
	UpsertFitnessConfig(ctx context.Context, config *model.FitnessGoalConfig) error
}

// BookRepository は書籍と読書セッションの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// ListByGoalID は目標の書籍一覧をcreated_at昇順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.Book, error)

	// Create は書籍を作成する。
	Create(ctx context.Context, book *model.Book) error

	// Update は書籍を更新する（currentPage、isCompleted等の派生フィールドを含む）。
	Update(ctx context.Context, book *model.Book) error

	// CountCompletedByGoalID は目標内の読了済み書籍数を返す。
	CountCompletedByGoalID(ctx context.Context, goalID string) (int, error)

	// CreateSession は読書セッションを追記する。セッションは作成後不変。
	CreateSession(ctx context.Context, session *model.ReadingSession) error

	// ListSessionsByBookID は書籍の読書セッションをdate降順で返す。
	ListSessionsByBookID(ctx context.Context, bookID string) ([]model.ReadingSession, error)
}

// TrainingRepository はトレーニングセッションの永続化インターフェース。
type TrainingRepository interface {
	// Create はトレーニングセッションを追記する。セッションは作成後不変。
	Create(ctx context.Context, session *model.TrainingSession) error

	// ListByGoalID は目標のセッション一覧をdate降順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]model.TrainingSession, error)

	// ListRecentByType は指定ワークアウト種別のセッションをdate降順で最大limit件返す。
	ListRecentByType(ctx context.Context, goalID string, workoutType model.WorkoutType, limit int) ([]model.TrainingSession, error)

	// CountByGoalID は目標のセッション数を返す。
	CountByGoalID(ctx context.Context, goalID string) (int, error)
}

// GitHubRepoRepository はGitHubリポジトリと統計ログの永続化インターフェース。
type GitHubRepoRepository interface {
	// FindByID は指定IDのリポジトリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.GitHubRepository, error)

	// ListByGoalID は目標のリポジトリ一覧をcreated_at昇順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.GitHubRepository, error)

	// Create はリポジトリを作成する。
	Create(ctx context.Context, repo *model.GitHubRepository) error

	// UpdateMetadata はリモートプロバイダから取得したメタデータを更新する。
	UpdateMetadata(ctx context.Context, repo *model.GitHubRepository) error

	// UpdateLastSyncedAt は最終同期日時を更新する。
	UpdateLastSyncedAt(ctx context.Context, id string, syncedAt time.Time) error

	// DeleteByID は指定IDのリポジトリを削除する。統計ログはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ReplaceCommitActivity はリポジトリの週次コミットバケットを全置換する。
	// 削除と挿入を単一トランザクションで実行し、読み手が空のバケット集合を
	// 観測しないことを保証する。
	ReplaceCommitActivity(ctx context.Context, repoID string, buckets []model.CommitActivity) error

	// ListCommitActivity はリポジトリの週次バケットをweek_start_date昇順で返す。
	ListCommitActivity(ctx context.Context, repoID string) ([]model.CommitActivity, error)

	// SumCommitsByGoalID は目標が所有する全リポジトリの総コミット数を返す。
	SumCommitsByGoalID(ctx context.Context, goalID string) (int, error)

	// AppendStarSnapshot はスター数スナップショットを追記する。
	AppendStarSnapshot(ctx context.Context, snapshot *model.StarHistory) error

	// ListStarHistory はリポジトリのスター履歴をdate昇順で返す。
	ListStarHistory(ctx context.Context, repoID string) ([]model.StarHistory, error)
}

// ProjectRepository はアプリプロジェクトと収益ログの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AppProject, error)

	// ListByGoalID は目標のプロジェクト一覧をcreated_at昇順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.AppProject, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.AppProject) error

	// CreateRevenueEntry は収益エントリを追記する。エントリは作成後不変。
	CreateRevenueEntry(ctx context.Context, entry *model.RevenueEntry) error

	// ListRevenueEntries はプロジェクトの収益エントリをdate昇順で返す。
	ListRevenueEntries(ctx context.Context, projectID string) ([]model.RevenueEntry, error)

	// CreateMetricSnapshot はアプリ指標スナップショットを追記する。
	CreateMetricSnapshot(ctx context.Context, snapshot *model.AppMetricSnapshot) error
}

// RecordRepository は自己ベスト記録の永続化インターフェース。
type RecordRepository interface {
	// FindByExercise は目標・種目・カテゴリで記録を検索する。見つからない場合はnilを返す。
	FindByExercise(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error)

	// ListByGoalID は目標の記録一覧をexercise昇順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.PersonalRecord, error)

	// Create は記録を作成する。
	Create(ctx context.Context, record *model.PersonalRecord) error

	// Update は記録を更新する（より良い記録での置き換え時に使用）。
	Update(ctx context.Context, record *model.PersonalRecord) error
}

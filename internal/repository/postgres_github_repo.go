package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresGitHubRepo はPostgreSQLを使用したGitHubリポジトリ永続化。
type PostgresGitHubRepo struct {
	db *sql.DB
}

// NewPostgresGitHubRepo はPostgresGitHubRepoを生成する。
func NewPostgresGitHubRepo(db *sql.DB) *PostgresGitHubRepo {
	return &PostgresGitHubRepo{db: db}
}

const repoColumns = `id, goal_id, owner, name, full_name, description, language,
		star_count, fork_count, open_issues, is_private, default_branch,
		last_synced_at, created_at, updated_at`

// scanRepo は1行分のリポジトリをスキャンする。
func scanRepo(row interface{ Scan(...any) error }) (*model.GitHubRepository, error) {
	repo := &model.GitHubRepository{}
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&repo.ID, &repo.GoalID, &repo.Owner, &repo.Name, &repo.FullName,
		&repo.Description, &repo.Language,
		&repo.StarCount, &repo.ForkCount, &repo.OpenIssues,
		&repo.IsPrivate, &repo.DefaultBranch,
		&lastSyncedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		repo.LastSyncedAt = &t
	}
	return repo, nil
}

// FindByID は指定IDのリポジトリを取得する。見つからない場合はnilを返す。
func (r *PostgresGitHubRepo) FindByID(ctx context.Context, id string) (*model.GitHubRepository, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+repoColumns+` FROM github_repositories WHERE id = $1`, id)

	repo, err := scanRepo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リポジトリの取得に失敗しました: %w", err)
	}
	return repo, nil
}

// ListByGoalID は目標のリポジトリ一覧をcreated_at昇順で返す。
func (r *PostgresGitHubRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.GitHubRepository, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+repoColumns+` FROM github_repositories
		 WHERE goal_id = $1 ORDER BY created_at ASC`,
		goalID)
	if err != nil {
		return nil, fmt.Errorf("リポジトリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var repos []*model.GitHubRepository
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, fmt.Errorf("リポジトリのスキャンに失敗しました: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リポジトリ一覧の走査に失敗しました: %w", err)
	}
	return repos, nil
}

// Create はリポジトリを作成する。
func (r *PostgresGitHubRepo) Create(ctx context.Context, repo *model.GitHubRepository) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO github_repositories
		    (id, goal_id, owner, name, full_name, description, language,
		     star_count, fork_count, open_issues, is_private, default_branch,
		     last_synced_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		repo.ID, repo.GoalID, repo.Owner, repo.Name, repo.FullName,
		repo.Description, repo.Language,
		repo.StarCount, repo.ForkCount, repo.OpenIssues,
		repo.IsPrivate, repo.DefaultBranch,
		repo.LastSyncedAt, repo.CreatedAt, repo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リポジトリの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateMetadata はリモートプロバイダから取得したメタデータを更新する。
func (r *PostgresGitHubRepo) UpdateMetadata(ctx context.Context, repo *model.GitHubRepository) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE github_repositories SET
		    full_name = $2, description = $3, language = $4,
		    star_count = $5, fork_count = $6, open_issues = $7,
		    is_private = $8, default_branch = $9, updated_at = $10
		 WHERE id = $1`,
		repo.ID, repo.FullName, repo.Description, repo.Language,
		repo.StarCount, repo.ForkCount, repo.OpenIssues,
		repo.IsPrivate, repo.DefaultBranch, repo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リポジトリメタデータの更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateLastSyncedAt は最終同期日時を更新する。
func (r *PostgresGitHubRepo) UpdateLastSyncedAt(ctx context.Context, id string, syncedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE github_repositories SET last_synced_at = $2, updated_at = $2 WHERE id = $1`,
		id, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("最終同期日時の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのリポジトリを削除する。統計ログはCASCADE削除される。
func (r *PostgresGitHubRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM github_repositories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("リポジトリの削除に失敗しました: %w", err)
	}
	return nil
}

// ReplaceCommitActivity はリポジトリの週次コミットバケットを全置換する。
// 削除と挿入を単一トランザクションで実行するため、読み手は置換前か置換後の
// どちらかの完全な集合のみを観測する。
func (r *PostgresGitHubRepo) ReplaceCommitActivity(ctx context.Context, repoID string, buckets []model.CommitActivity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM commit_activities WHERE repository_id = $1`, repoID); err != nil {
		return fmt.Errorf("既存バケットの削除に失敗しました: %w", err)
	}

	for _, b := range buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commit_activities
			    (id, repository_id, week_start_date, commit_count, additions, deletions, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, repoID, b.WeekStartDate, b.CommitCount, b.Additions, b.Deletions, b.CreatedAt,
		); err != nil {
			return fmt.Errorf("バケットの挿入に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// ListCommitActivity はリポジトリの週次バケットをweek_start_date昇順で返す。
func (r *PostgresGitHubRepo) ListCommitActivity(ctx context.Context, repoID string) ([]model.CommitActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, repository_id, week_start_date, commit_count, additions, deletions, created_at
		 FROM commit_activities WHERE repository_id = $1 ORDER BY week_start_date ASC`,
		repoID)
	if err != nil {
		return nil, fmt.Errorf("コミットバケットの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var buckets []model.CommitActivity
	for rows.Next() {
		var b model.CommitActivity
		if err := rows.Scan(&b.ID, &b.RepositoryID, &b.WeekStartDate,
			&b.CommitCount, &b.Additions, &b.Deletions, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("コミットバケットのスキャンに失敗しました: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コミットバケットの走査に失敗しました: %w", err)
	}
	return buckets, nil
}

// SumCommitsByGoalID は目標が所有する全リポジトリの総コミット数を返す。
func (r *PostgresGitHubRepo) SumCommitsByGoalID(ctx context.Context, goalID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ca.commit_count), 0)
		 FROM commit_activities ca
		 JOIN github_repositories gr ON gr.id = ca.repository_id
		 WHERE gr.goal_id = $1`,
		goalID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("総コミット数の取得に失敗しました: %w", err)
	}
	return total, nil
}

// AppendStarSnapshot はスター数スナップショットを追記する。
func (r *PostgresGitHubRepo) AppendStarSnapshot(ctx context.Context, snapshot *model.StarHistory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO star_history (id, repository_id, date, star_count, fork_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snapshot.ID, snapshot.RepositoryID, snapshot.Date,
		snapshot.StarCount, snapshot.ForkCount, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("スター履歴の追記に失敗しました: %w", err)
	}
	return nil
}

// ListStarHistory はリポジトリのスター履歴をdate昇順で返す。
func (r *PostgresGitHubRepo) ListStarHistory(ctx context.Context, repoID string) ([]model.StarHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, repository_id, date, star_count, fork_count, created_at
		 FROM star_history WHERE repository_id = $1 ORDER BY date ASC`,
		repoID)
	if err != nil {
		return nil, fmt.Errorf("スター履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var history []model.StarHistory
	for rows.Next() {
		var h model.StarHistory
		if err := rows.Scan(&h.ID, &h.RepositoryID, &h.Date, &h.StarCount, &h.ForkCount, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("スター履歴のスキャンに失敗しました: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スター履歴の走査に失敗しました: %w", err)
	}
	return history, nil
}

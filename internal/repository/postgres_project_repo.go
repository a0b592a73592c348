package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したアプリプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.AppProject, error) {
	project := &model.AppProject{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, goal_id, name, platform, store_url, created_at, updated_at
		 FROM app_projects WHERE id = $1`,
		id,
	).Scan(&project.ID, &project.GoalID, &project.Name, &project.Platform,
		&project.StoreURL, &project.CreatedAt, &project.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return project, nil
}

// ListByGoalID は目標のプロジェクト一覧をcreated_at昇順で返す。
func (r *PostgresProjectRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.AppProject, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, goal_id, name, platform, store_url, created_at, updated_at
		 FROM app_projects WHERE goal_id = $1 ORDER BY created_at ASC`,
		goalID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.AppProject
	for rows.Next() {
		project := &model.AppProject{}
		if err := rows.Scan(&project.ID, &project.GoalID, &project.Name, &project.Platform,
			&project.StoreURL, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("プロジェクトのスキャンに失敗しました: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.AppProject) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_projects (id, goal_id, name, platform, store_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		project.ID, project.GoalID, project.Name, project.Platform,
		project.StoreURL, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// CreateRevenueEntry は収益エントリを追記する。
func (r *PostgresProjectRepo) CreateRevenueEntry(ctx context.Context, entry *model.RevenueEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revenue_entries
		    (id, project_id, date, period, gross_revenue, net_revenue, downloads, is_net_manual, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ProjectID, entry.Date, entry.Period,
		entry.GrossRevenue, entry.NetRevenue, entry.Downloads, entry.IsNetManual, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("収益エントリの追記に失敗しました: %w", err)
	}
	return nil
}

// ListRevenueEntries はプロジェクトの収益エントリをdate昇順で返す。
func (r *PostgresProjectRepo) ListRevenueEntries(ctx context.Context, projectID string) ([]model.RevenueEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, date, period, gross_revenue, net_revenue, downloads, is_net_manual, created_at
		 FROM revenue_entries WHERE project_id = $1 ORDER BY date ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("収益エントリの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []model.RevenueEntry
	for rows.Next() {
		var e model.RevenueEntry
		var downloads sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &e.Period,
			&e.GrossRevenue, &e.NetRevenue, &downloads, &e.IsNetManual, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("収益エントリのスキャンに失敗しました: %w", err)
		}
		if downloads.Valid {
			v := int(downloads.Int64)
			e.Downloads = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("収益エントリの走査に失敗しました: %w", err)
	}
	return entries, nil
}

// CreateMetricSnapshot はアプリ指標スナップショットを追記する。
func (r *PostgresProjectRepo) CreateMetricSnapshot(ctx context.Context, snapshot *model.AppMetricSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_metric_snapshots
		    (id, project_id, date, active_users, downloads, crash_free_rate, average_rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snapshot.ID, snapshot.ProjectID, snapshot.Date,
		snapshot.ActiveUsers, snapshot.Downloads, snapshot.CrashFreeRate,
		snapshot.AverageRating, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("指標スナップショットの追記に失敗しました: %w", err)
	}
	return nil
}

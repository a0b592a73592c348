package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresGoalRepo はPostgreSQLを使用した目標リポジトリ。
type PostgresGoalRepo struct {
	db *sql.DB
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db *sql.DB) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

const goalColumns = `id, title, goal_type, target_value, current_value,
		start_date, end_date, is_archived, created_at, updated_at`

// scanGoal は1行分の目標をスキャンする。
func scanGoal(row interface{ Scan(...any) error }) (*model.Goal, error) {
	goal := &model.Goal{}
	var endDate sql.NullTime

	err := row.Scan(
		&goal.ID, &goal.Title, &goal.GoalType, &goal.TargetValue, &goal.CurrentValue,
		&goal.StartDate, &endDate, &goal.IsArchived, &goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		t := endDate.Time
		goal.EndDate = &t
	}
	return goal, nil
}

// FindByID は指定IDの目標を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalRepo) FindByID(ctx context.Context, id string) (*model.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1`, id)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗しました: %w", err)
	}
	return goal, nil
}

// List は目標一覧をcreated_at昇順で返す。
func (r *PostgresGoalRepo) List(ctx context.Context, includeArchived bool) ([]*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	if !includeArchived {
		query += ` WHERE is_archived = FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("目標一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var goals []*model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("目標のスキャンに失敗しました: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("目標一覧の走査に失敗しました: %w", err)
	}
	return goals, nil
}

// Create は目標を作成する。
func (r *PostgresGoalRepo) Create(ctx context.Context, goal *model.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, title, goal_type, target_value, current_value,
		                    start_date, end_date, is_archived, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		goal.ID, goal.Title, goal.GoalType, goal.TargetValue, goal.CurrentValue,
		goal.StartDate, goal.EndDate, goal.IsArchived, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("目標の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は目標の基本情報を更新する。
func (r *PostgresGoalRepo) Update(ctx context.Context, goal *model.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET
		    title = $2, target_value = $3, current_value = $4,
		    start_date = $5, end_date = $6, is_archived = $7, updated_at = $8
		 WHERE id = $1`,
		goal.ID, goal.Title, goal.TargetValue, goal.CurrentValue,
		goal.StartDate, goal.EndDate, goal.IsArchived, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("目標の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateProgress はcurrent_valueとupdated_atのみを更新する。
func (r *PostgresGoalRepo) UpdateProgress(ctx context.Context, id string, currentValue float64, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_value = $2, updated_at = $3 WHERE id = $1`,
		id, currentValue, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("進捗の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの目標を削除する。所有エンティティはCASCADE削除される。
func (r *PostgresGoalRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("目標の削除に失敗しました: %w", err)
	}
	return nil
}

// FindFitnessConfig は目標のフィットネス設定を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalRepo) FindFitnessConfig(ctx context.Context, goalID string) (*model.FitnessGoalConfig, error) {
	config := &model.FitnessGoalConfig{}
	var targetPace sql.NullInt64
	var raceType sql.NullString
	var raceDate sql.NullTime
	var customDistance, mileageTarget sql.NullFloat64

	err := r.db.QueryRowContext(ctx,
		`SELECT id, goal_id, subtype, target_pace_sec_per_km, race_type, race_date,
		        custom_race_distance_km, weekly_mileage_target, training_phase,
		        created_at, updated_at
		 FROM fitness_goal_configs WHERE goal_id = $1`,
		goalID,
	).Scan(
		&config.ID, &config.GoalID, &config.Subtype, &targetPace, &raceType, &raceDate,
		&customDistance, &mileageTarget, &config.TrainingPhase,
		&config.CreatedAt, &config.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フィットネス設定の取得に失敗しました: %w", err)
	}

	if targetPace.Valid {
		v := int(targetPace.Int64)
		config.TargetPaceSecPerKm = &v
	}
	if raceType.Valid {
		v := model.RaceType(raceType.String)
		config.RaceType = &v
	}
	if raceDate.Valid {
		t := raceDate.Time
		config.RaceDate = &t
	}
	if customDistance.Valid {
		v := customDistance.Float64
		config.CustomRaceDistanceKm = &v
	}
	if mileageTarget.Valid {
		v := mileageTarget.Float64
		config.WeeklyMileageTarget = &v
	}
	return config, nil
}

// UpsertFitnessConfig はフィットネス設定を作成または更新する。
func (r *PostgresGoalRepo) UpsertFitnessConfig(ctx context.Context, config *model.FitnessGoalConfig) error {
	var raceType *string
	if config.RaceType != nil {
		s := string(*config.RaceType)
		raceType = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fitness_goal_configs
		    (id, goal_id, subtype, target_pace_sec_per_km, race_type, race_date,
		     custom_race_distance_km, weekly_mileage_target, training_phase,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (goal_id) DO UPDATE SET
		    subtype = EXCLUDED.subtype,
		    target_pace_sec_per_km = EXCLUDED.target_pace_sec_per_km,
		    race_type = EXCLUDED.race_type,
		    race_date = EXCLUDED.race_date,
		    custom_race_distance_km = EXCLUDED.custom_race_distance_km,
		    weekly_mileage_target = EXCLUDED.weekly_mileage_target,
		    training_phase = EXCLUDED.training_phase,
		    updated_at = EXCLUDED.updated_at`,
		config.ID, config.GoalID, config.Subtype, config.TargetPaceSecPerKm,
		raceType, config.RaceDate, config.CustomRaceDistanceKm,
		config.WeeklyMileageTarget, config.TrainingPhase,
		config.CreatedAt, config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィットネス設定の保存に失敗しました: %w", err)
	}
	return nil
}

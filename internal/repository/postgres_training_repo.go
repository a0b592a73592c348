package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresTrainingRepo はPostgreSQLを使用したトレーニングセッションリポジトリ。
type PostgresTrainingRepo struct {
	db *sql.DB
}

// NewPostgresTrainingRepo はPostgresTrainingRepoを生成する。
func NewPostgresTrainingRepo(db *sql.DB) *PostgresTrainingRepo {
	return &PostgresTrainingRepo{db: db}
}

const trainingColumns = `id, goal_id, workout_type, date, duration_minutes,
		distance, distance_unit, pace_sec_per_km, workout_intent, notes, created_at`

// scanTrainingSession は1行分のセッションをスキャンする。
func scanTrainingSession(row interface{ Scan(...any) error }) (model.TrainingSession, error) {
	var s model.TrainingSession
	var distance sql.NullFloat64
	var distanceUnit, workoutIntent sql.NullString
	var pace sql.NullInt64

	err := row.Scan(
		&s.ID, &s.GoalID, &s.WorkoutType, &s.Date, &s.DurationMinutes,
		&distance, &distanceUnit, &pace, &workoutIntent, &s.Notes, &s.CreatedAt,
	)
	if err != nil {
		return model.TrainingSession{}, err
	}

	if distance.Valid {
		v := distance.Float64
		s.Distance = &v
	}
	s.DistanceUnit = model.DistanceUnit(nullStringValue(distanceUnit))
	if pace.Valid {
		v := int(pace.Int64)
		s.PaceSecPerKm = &v
	}
	s.WorkoutIntent = model.WorkoutIntent(nullStringValue(workoutIntent))
	return s, nil
}

// Create はトレーニングセッションを追記する。
func (r *PostgresTrainingRepo) Create(ctx context.Context, session *model.TrainingSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO training_sessions
		    (id, goal_id, workout_type, date, duration_minutes,
		     distance, distance_unit, pace_sec_per_km, workout_intent, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		session.ID, session.GoalID, session.WorkoutType, session.Date, session.DurationMinutes,
		session.Distance, nullString(string(session.DistanceUnit)), session.PaceSecPerKm,
		nullString(string(session.WorkoutIntent)), session.Notes, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("トレーニングセッションの追記に失敗しました: %w", err)
	}
	return nil
}

// ListByGoalID は目標のセッション一覧をdate降順で返す。
func (r *PostgresTrainingRepo) ListByGoalID(ctx context.Context, goalID string) ([]model.TrainingSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainingColumns+` FROM training_sessions
		 WHERE goal_id = $1 ORDER BY date DESC`,
		goalID)
	if err != nil {
		return nil, fmt.Errorf("トレーニングセッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrainingSessions(rows)
}

// ListRecentByType は指定ワークアウト種別のセッションをdate降順で最大limit件返す。
func (r *PostgresTrainingRepo) ListRecentByType(ctx context.Context, goalID string, workoutType model.WorkoutType, limit int) ([]model.TrainingSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainingColumns+` FROM training_sessions
		 WHERE goal_id = $1 AND workout_type = $2
		 ORDER BY date DESC LIMIT $3`,
		goalID, workoutType, limit)
	if err != nil {
		return nil, fmt.Errorf("直近トレーニングセッションの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrainingSessions(rows)
}

// CountByGoalID は目標のセッション数を返す。
func (r *PostgresTrainingRepo) CountByGoalID(ctx context.Context, goalID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_sessions WHERE goal_id = $1`,
		goalID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("トレーニングセッション数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// scanTrainingSessions は複数行のセッションをスキャンする。
func scanTrainingSessions(rows *sql.Rows) ([]model.TrainingSession, error) {
	var sessions []model.TrainingSession
	for rows.Next() {
		s, err := scanTrainingSession(rows)
		if err != nil {
			return nil, fmt.Errorf("トレーニングセッションのスキャンに失敗しました: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("トレーニングセッション一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresRecordRepo はPostgreSQLを使用した自己ベスト記録リポジトリ。
type PostgresRecordRepo struct {
	db *sql.DB
}

// NewPostgresRecordRepo はPostgresRecordRepoを生成する。
func NewPostgresRecordRepo(db *sql.DB) *PostgresRecordRepo {
	return &PostgresRecordRepo{db: db}
}

const recordColumns = `id, goal_id, exercise, category, value, unit,
		achieved_date, previous_value, created_at, updated_at`

// scanRecord は1行分の記録をスキャンする。
func scanRecord(row interface{ Scan(...any) error }) (*model.PersonalRecord, error) {
	record := &model.PersonalRecord{}
	var previousValue sql.NullFloat64

	err := row.Scan(
		&record.ID, &record.GoalID, &record.Exercise, &record.Category,
		&record.Value, &record.Unit, &record.AchievedDate, &previousValue,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if previousValue.Valid {
		v := previousValue.Float64
		record.PreviousValue = &v
	}
	return record, nil
}

// FindByExercise は目標・種目・カテゴリで記録を検索する。見つからない場合はnilを返す。
func (r *PostgresRecordRepo) FindByExercise(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM personal_records
		 WHERE goal_id = $1 AND exercise = $2 AND category = $3`,
		goalID, exercise, category)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("自己ベスト記録の取得に失敗しました: %w", err)
	}
	return record, nil
}

// ListByGoalID は目標の記録一覧をexercise昇順で返す。
func (r *PostgresRecordRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.PersonalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM personal_records
		 WHERE goal_id = $1 ORDER BY exercise ASC`,
		goalID)
	if err != nil {
		return nil, fmt.Errorf("自己ベスト記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []*model.PersonalRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("自己ベスト記録のスキャンに失敗しました: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("自己ベスト記録一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// Create は記録を作成する。
func (r *PostgresRecordRepo) Create(ctx context.Context, record *model.PersonalRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO personal_records
		    (id, goal_id, exercise, category, value, unit, achieved_date,
		     previous_value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.GoalID, record.Exercise, record.Category,
		record.Value, record.Unit, record.AchievedDate,
		record.PreviousValue, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("自己ベスト記録の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記録を更新する。
func (r *PostgresRecordRepo) Update(ctx context.Context, record *model.PersonalRecord) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE personal_records SET
		    value = $2, unit = $3, achieved_date = $4, previous_value = $5, updated_at = $6
		 WHERE id = $1`,
		record.ID, record.Value, record.Unit, record.AchievedDate,
		record.PreviousValue, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("自己ベスト記録の更新に失敗しました: %w", err)
	}
	return nil
}

// Package model はドメインモデルを定義する。
package model

import "time"

// TrainingSession はトレーニングセッションのログエントリを表す。
// 作成後は不変（追記専用ログ）。
type TrainingSession struct {
	ID              string
	GoalID          string
	WorkoutType     WorkoutType
	Date            time.Time
	DurationMinutes int
	Distance        *float64 // DistanceUnitとセットで解釈するタグ付き値
	DistanceUnit    DistanceUnit
	PaceSecPerKm    *int // 明示的に記録されたペース。未設定時は距離と時間から算出する。
	WorkoutIntent   WorkoutIntent
	Notes           string
	CreatedAt       time.Time
}

// WorkoutType はワークアウトの種別を表す。
type WorkoutType string

const (
	// WorkoutTypeRun はランニング。
	WorkoutTypeRun WorkoutType = "run"
	// WorkoutTypeStrength は筋力トレーニング。
	WorkoutTypeStrength WorkoutType = "strength"
	// WorkoutTypeCycling はサイクリング。
	WorkoutTypeCycling WorkoutType = "cycling"
	// WorkoutTypeSwim は水泳。
	WorkoutTypeSwim WorkoutType = "swim"
	// WorkoutTypeOther はその他。
	WorkoutTypeOther WorkoutType = "other"
)

// DistanceUnit は距離の単位を表す。
type DistanceUnit string

const (
	// DistanceUnitKm はキロメートル。
	DistanceUnitKm DistanceUnit = "km"
	// DistanceUnitMi はマイル。
	DistanceUnitMi DistanceUnit = "mi"
	// DistanceUnitM はメートル。
	DistanceUnitM DistanceUnit = "m"
	// DistanceUnitYd はヤード。
	DistanceUnitYd DistanceUnit = "yd"
)

// WorkoutIntent はワークアウトの意図（練習メニュー上の位置づけ）を表す。
type WorkoutIntent string

const (
	// WorkoutIntentEasy はイージー走。
	WorkoutIntentEasy WorkoutIntent = "easy"
	// WorkoutIntentTempo はテンポ走。
	WorkoutIntentTempo WorkoutIntent = "tempo"
	// WorkoutIntentInterval はインターバル走。
	WorkoutIntentInterval WorkoutIntent = "interval"
	// WorkoutIntentLongRun はロング走。
	WorkoutIntentLongRun WorkoutIntent = "long_run"
	// WorkoutIntentRace はレース本番。
	WorkoutIntentRace WorkoutIntent = "race"
)

// PersonalRecord は自己ベスト記録を表す。
type PersonalRecord struct {
	ID            string
	GoalID        string
	Exercise      string
	Category      RecordCategory
	Value         float64
	Unit          string
	AchievedDate  time.Time
	PreviousValue *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecordCategory は自己ベストのカテゴリを表す。
// カテゴリにより「より良い」方向が異なる（タイム系は小さいほど良い、筋力系は大きいほど良い）。
type RecordCategory string

const (
	// RecordCategoryTime はタイム系記録（小さいほど良い）。
	RecordCategoryTime RecordCategory = "time"
	// RecordCategoryStrength は筋力系記録（大きいほど良い）。
	RecordCategoryStrength RecordCategory = "strength"
	// RecordCategoryDistance は距離系記録（大きいほど良い）。
	RecordCategoryDistance RecordCategory = "distance"
)

// IsImprovement はnewValueが既存値existingより良い記録かを返す。
func (c RecordCategory) IsImprovement(newValue, existing float64) bool {
	if c == RecordCategoryTime {
		return newValue < existing
	}
	return newValue > existing
}

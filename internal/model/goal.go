// Package model はドメインモデルを定義する。
package model

import "time"

// Goal は個人目標を表す。
// 読書・フィットネス・プログラミングの3種別があり、
// 種別に応じた所有コレクション（書籍、トレーニング、リポジトリ等）を持つ。
type Goal struct {
	ID           string
	Title        string
	GoalType     GoalType
	TargetValue  float64
	CurrentValue float64 // 派生値のキャッシュ。常に所有コレクションから再計算可能。
	StartDate    time.Time
	EndDate      *time.Time
	IsArchived   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GoalType は目標の種別を表す。
type GoalType string

const (
	// GoalTypeReading は読書目標。
	GoalTypeReading GoalType = "reading"
	// GoalTypeFitness はフィットネス目標。
	GoalTypeFitness GoalType = "fitness"
	// GoalTypeProgramming はプログラミング目標。
	GoalTypeProgramming GoalType = "programming"
)

// IsValid はGoalTypeが定義済みの種別かを返す。
func (t GoalType) IsValid() bool {
	switch t {
	case GoalTypeReading, GoalTypeFitness, GoalTypeProgramming:
		return true
	default:
		return false
	}
}

// Progress は達成率を返す。
// targetValue > 0 のとき min(currentValue/targetValue, 1.0)、
// それ以外は0。常に [0, 1] の範囲に収まる。
func (g *Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue / g.TargetValue
	if p < 0 {
		return 0
	}
	if p > 1.0 {
		return 1.0
	}
	return p
}

// FitnessGoalConfig はフィットネス目標の設定を表す。目標ごとに最大1件。
type FitnessGoalConfig struct {
	ID                   string
	GoalID               string
	Subtype              FitnessSubtype
	TargetPaceSecPerKm   *int // レーストレーニング時の目標ペース（秒/km）
	RaceType             *RaceType
	RaceDate             *time.Time
	CustomRaceDistanceKm *float64 // 定義済み距離の上書き
	WeeklyMileageTarget  *float64 // 週間走行距離目標（km）
	TrainingPhase        TrainingPhase
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FitnessSubtype はフィットネス目標のサブタイプを表す。
type FitnessSubtype string

const (
	// FitnessSubtypeRaceTraining はレーストレーニング。
	FitnessSubtypeRaceTraining FitnessSubtype = "race_training"
	// FitnessSubtypeStrength は筋力トレーニング。
	FitnessSubtypeStrength FitnessSubtype = "strength"
	// FitnessSubtypeConsistency は継続性重視。
	FitnessSubtypeConsistency FitnessSubtype = "consistency"
	// FitnessSubtypeCustomMetric はカスタム指標。
	FitnessSubtypeCustomMetric FitnessSubtype = "custom_metric"
)

// TrainingPhase はトレーニング期を表す。
// 表示用ラベルであり、運用者が手動で設定する。自動遷移は行わない。
type TrainingPhase string

const (
	// TrainingPhaseBase は基礎期。
	TrainingPhaseBase TrainingPhase = "base"
	// TrainingPhaseBuild は強化期。
	TrainingPhaseBuild TrainingPhase = "build"
	// TrainingPhasePeak はピーク期。
	TrainingPhasePeak TrainingPhase = "peak"
	// TrainingPhaseTaper はテーパー期。
	TrainingPhaseTaper TrainingPhase = "taper"
	// TrainingPhaseRecovery は回復期。
	TrainingPhaseRecovery TrainingPhase = "recovery"
)

// RaceType はレース種別を表す。
type RaceType string

const (
	// RaceType5K は5Kレース。
	RaceType5K RaceType = "5k"
	// RaceType10K は10Kレース。
	RaceType10K RaceType = "10k"
	// RaceTypeHalfMarathon はハーフマラソン。
	RaceTypeHalfMarathon RaceType = "half_marathon"
	// RaceTypeMarathon はフルマラソン。
	RaceTypeMarathon RaceType = "marathon"
	// RaceTypeTriathlon はトライアスロン（オリンピックディスタンス）。
	RaceTypeTriathlon RaceType = "triathlon"
)

// DistanceKm はレース種別の公式距離（km）を返す。
func (r RaceType) DistanceKm() float64 {
	switch r {
	case RaceType5K:
		return 5.0
	case RaceType10K:
		return 10.0
	case RaceTypeHalfMarathon:
		return 21.0975
	case RaceTypeMarathon:
		return 42.195
	case RaceTypeTriathlon:
		return 51.5
	default:
		return 0
	}
}

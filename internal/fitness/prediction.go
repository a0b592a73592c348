package fitness

import (
	"github.com/hitoshi/goaltrack/internal/model"
)

// RaceDistanceKm はレース距離（km）を解決して返す。
// 明示的なカスタム距離があればそれを優先し、なければレース種別の公式距離表を引く。
// どちらも未設定の場合は0を返す。
func RaceDistanceKm(config *model.FitnessGoalConfig) float64 {
	if config.CustomRaceDistanceKm != nil && *config.CustomRaceDistanceKm > 0 {
		return *config.CustomRaceDistanceKm
	}
	if config.RaceType != nil {
		return config.RaceType.DistanceKm()
	}
	return 0
}

// RacePrediction はレース完走予測の結果を表す。
type RacePrediction struct {
	RaceDistanceKm         float64
	RecentPaceSecPerKm     *int
	PredictedFinishSeconds *int // 直近ペースから線形に算出した予測タイム
	TargetFinishSeconds    *int // 目標ペースから算出した目標タイム
}

// PredictRaceFinish はレース完走タイムの予測を返す。
// 予測タイム = レース距離 × 直近ペース。直近ペースが算出できない場合は
// 予測タイムをnilのままにする（欠損は定常状態でありエラーではない）。
func PredictRaceFinish(config *model.FitnessGoalConfig, recentPace *int) RacePrediction {
	distance := RaceDistanceKm(config)
	prediction := RacePrediction{
		RaceDistanceKm:     distance,
		RecentPaceSecPerKm: recentPace,
	}
	if distance <= 0 {
		return prediction
	}

	if recentPace != nil {
		predicted := int(distance * float64(*recentPace))
		prediction.PredictedFinishSeconds = &predicted
	}
	if config.TargetPaceSecPerKm != nil {
		target := int(distance * float64(*config.TargetPaceSecPerKm))
		prediction.TargetFinishSeconds = &target
	}
	return prediction
}

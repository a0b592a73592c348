// Package fitness はフィットネス目標の分析機能を提供する。
// ペース変換、週間走行距離、レース完走予測をイベントログから導出する。
package fitness

import (
	"github.com/hitoshi/goaltrack/internal/model"
)

// 距離単位からキロメートルへの固定換算係数。
const (
	miToKm = 1.60934
	mToKm  = 0.001
	ydToKm = 0.0009144
)

// recentPaceWindow は直近ペース計算に使用するセッション数。
const recentPaceWindow = 5

// DistanceKm はセッションの距離をキロメートルに正規化して返す。
// 距離未記録の場合は0を返す。
func DistanceKm(session model.TrainingSession) float64 {
	if session.Distance == nil {
		return 0
	}
	d := *session.Distance
	switch session.DistanceUnit {
	case model.DistanceUnitKm:
		return d
	case model.DistanceUnitMi:
		return d * miToKm
	case model.DistanceUnitM:
		return d * mToKm
	case model.DistanceUnitYd:
		return d * ydToKm
	default:
		return 0
	}
}

// CalculatedPace は距離と時間から算出したペース（秒/km）を返す。
// 距離と時間の両方が正の場合のみ算出し、それ以外はnilを返す。
func CalculatedPace(session model.TrainingSession) *int {
	km := DistanceKm(session)
	if km <= 0 || session.DurationMinutes <= 0 {
		return nil
	}
	pace := int(float64(session.DurationMinutes*60) / km)
	return &pace
}

// EffectivePace は有効ペース（秒/km）を返す。
// 明示的に記録されたペースを優先し、なければ距離と時間から算出する。
func EffectivePace(session model.TrainingSession) *int {
	if session.PaceSecPerKm != nil {
		return session.PaceSecPerKm
	}
	return CalculatedPace(session)
}

// RecentPace は直近のランセッション最大5件の有効ペースの平均（秒/km）を返す。
// sessionsはdate降順であること。有効ペースを持つランセッションが
// 1件もない場合はnilを返す。
func RecentPace(sessions []model.TrainingSession) *int {
	var sum, count int
	for _, s := range sessions {
		if s.WorkoutType != model.WorkoutTypeRun {
			continue
		}
		pace := EffectivePace(s)
		if pace == nil {
			continue
		}
		sum += *pace
		count++
		if count == recentPaceWindow {
			break
		}
	}
	if count == 0 {
		return nil
	}
	mean := sum / count
	return &mean
}

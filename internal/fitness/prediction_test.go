package fitness

import (
	"testing"

	"github.com/hitoshi/goaltrack/internal/model"
)

func racePtr(r model.RaceType) *model.RaceType { return &r }

func TestRaceDistanceKm_CanonicalTable(t *testing.T) {
	cases := []struct {
		race model.RaceType
		want float64
	}{
		{model.RaceType5K, 5.0},
		{model.RaceType10K, 10.0},
		{model.RaceTypeHalfMarathon, 21.0975},
		{model.RaceTypeMarathon, 42.195},
		{model.RaceTypeTriathlon, 51.5},
	}
	for _, c := range cases {
		config := &model.FitnessGoalConfig{RaceType: racePtr(c.race)}
		if got := RaceDistanceKm(config); got != c.want {
			t.Errorf("RaceDistanceKm(%s) = %v, want %v", c.race, got, c.want)
		}
	}
}

func TestRaceDistanceKm_CustomOverride(t *testing.T) {
	// カスタム距離は公式距離表より優先される
	config := &model.FitnessGoalConfig{
		RaceType:             racePtr(model.RaceTypeMarathon),
		CustomRaceDistanceKm: floatPtr(50),
	}
	if got := RaceDistanceKm(config); got != 50 {
		t.Errorf("RaceDistanceKm = %v, want 50", got)
	}
}

func TestRaceDistanceKm_NoRaceInfo(t *testing.T) {
	config := &model.FitnessGoalConfig{}
	if got := RaceDistanceKm(config); got != 0 {
		t.Errorf("RaceDistanceKm = %v, want 0", got)
	}
}

func TestPredictRaceFinish_TenK(t *testing.T) {
	// 10K × 300秒/km = 3000秒、目標280秒/km → 2800秒
	config := &model.FitnessGoalConfig{
		RaceType:           racePtr(model.RaceType10K),
		TargetPaceSecPerKm: intPtr(280),
	}
	p := PredictRaceFinish(config, intPtr(300))
	if p.PredictedFinishSeconds == nil || *p.PredictedFinishSeconds != 3000 {
		t.Errorf("PredictedFinishSeconds = %v, want 3000", p.PredictedFinishSeconds)
	}
	if p.TargetFinishSeconds == nil || *p.TargetFinishSeconds != 2800 {
		t.Errorf("TargetFinishSeconds = %v, want 2800", p.TargetFinishSeconds)
	}
}

func TestPredictRaceFinish_NoRecentPace(t *testing.T) {
	// 直近ペースがなければ予測タイムはnilのまま（目標タイムのみ算出）
	config := &model.FitnessGoalConfig{
		RaceType:           racePtr(model.RaceType5K),
		TargetPaceSecPerKm: intPtr(300),
	}
	p := PredictRaceFinish(config, nil)
	if p.PredictedFinishSeconds != nil {
		t.Errorf("PredictedFinishSeconds = %d, want nil", *p.PredictedFinishSeconds)
	}
	if p.TargetFinishSeconds == nil || *p.TargetFinishSeconds != 1500 {
		t.Errorf("TargetFinishSeconds = %v, want 1500", p.TargetFinishSeconds)
	}
}

func TestPredictRaceFinish_NoDistance(t *testing.T) {
	config := &model.FitnessGoalConfig{}
	p := PredictRaceFinish(config, intPtr(300))
	if p.PredictedFinishSeconds != nil || p.TargetFinishSeconds != nil {
		t.Error("レース距離が解決できない場合は予測を返さない")
	}
}

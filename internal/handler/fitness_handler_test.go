package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/goaltrack/internal/fitness"
	"github.com/hitoshi/goaltrack/internal/model"
)

// --- モック定義 ---

// mockFitnessService はFitnessServiceInterfaceのモック実装。
type mockFitnessService struct {
	logSessionFn   func(ctx context.Context, goalID string, input fitness.LogSessionInput) (*model.TrainingSession, error)
	analyticsFn    func(ctx context.Context, goalID string) (*fitness.GoalAnalytics, error)
	upsertConfigFn func(ctx context.Context, goalID string, input fitness.UpdateConfigInput) (*model.FitnessGoalConfig, error)
}

func (m *mockFitnessService) LogSession(ctx context.Context, goalID string, input fitness.LogSessionInput) (*model.TrainingSession, error) {
	if m.logSessionFn != nil {
		return m.logSessionFn(ctx, goalID, input)
	}
	return nil, nil
}

func (m *mockFitnessService) Analytics(ctx context.Context, goalID string) (*fitness.GoalAnalytics, error) {
	if m.analyticsFn != nil {
		return m.analyticsFn(ctx, goalID)
	}
	return nil, nil
}

func (m *mockFitnessService) UpsertConfig(ctx context.Context, goalID string, input fitness.UpdateConfigInput) (*model.FitnessGoalConfig, error) {
	if m.upsertConfigFn != nil {
		return m.upsertConfigFn(ctx, goalID, input)
	}
	return nil, nil
}

// --- POST /api/goals/{id}/training-sessions テスト ---

func TestFitnessHandler_LogSession_Success(t *testing.T) {
	svc := &mockFitnessService{
		logSessionFn: func(ctx context.Context, goalID string, input fitness.LogSessionInput) (*model.TrainingSession, error) {
			if goalID != "goal-id-1" {
				t.Errorf("goalID = %q, want goal-id-1", goalID)
			}
			if input.WorkoutType != model.WorkoutTypeRun {
				t.Errorf("WorkoutType = %q, want run", input.WorkoutType)
			}
			if input.Distance == nil || *input.Distance != 10.5 {
				t.Errorf("Distance = %v, want 10.5", input.Distance)
			}
			if input.DistanceUnit != model.DistanceUnitKm {
				t.Errorf("DistanceUnit = %q, want km", input.DistanceUnit)
			}
			return &model.TrainingSession{
				ID:              "session-id-1",
				GoalID:          goalID,
				WorkoutType:     input.WorkoutType,
				Date:            input.Date,
				DurationMinutes: input.DurationMinutes,
				Distance:        input.Distance,
				DistanceUnit:    input.DistanceUnit,
				WorkoutIntent:   input.WorkoutIntent,
			}, nil
		},
	}
	h := NewFitnessHandler(svc)

	body := `{"workout_type": "run", "duration_minutes": 55, "distance": 10.5, "distance_unit": "km", "workout_intent": "tempo", "date": "2026-03-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/goals/goal-id-1/training-sessions", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.LogSession(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	result := decodeJSONBody(t, w)
	if result["workout_type"] != "run" {
		t.Errorf("workout_type = %v, want run", result["workout_type"])
	}
	if result["distance"] != 10.5 {
		t.Errorf("distance = %v, want 10.5", result["distance"])
	}
}

func TestFitnessHandler_LogSession_WrongGoalType(t *testing.T) {
	svc := &mockFitnessService{
		logSessionFn: func(ctx context.Context, goalID string, input fitness.LogSessionInput) (*model.TrainingSession, error) {
			return nil, model.NewInvalidInputError("トレーニングセッションはフィットネス目標にのみ記録できます")
		},
	}
	h := NewFitnessHandler(svc)

	body := `{"workout_type": "run", "duration_minutes": 30}`
	req := httptest.NewRequest(http.MethodPost, "/api/goals/reading-goal/training-sessions", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "reading-goal")
	w := httptest.NewRecorder()

	h.LogSession(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidInput)
	}
}

// --- GET /api/goals/{id}/fitness テスト ---

func TestFitnessHandler_Analytics_Success(t *testing.T) {
	pace := 330
	predicted := 13860
	svc := &mockFitnessService{
		analyticsFn: func(ctx context.Context, goalID string) (*fitness.GoalAnalytics, error) {
			return &fitness.GoalAnalytics{
				RecentPaceSecPerKm: &pace,
				WeeklyMileage: []fitness.WeekBucket{
					{WeekStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), DistanceKm: 42.5, Sessions: 4},
				},
				AverageWeeklyMileage: 42.5,
				TrainingPhase:        model.TrainingPhaseBuild,
				Prediction: &fitness.RacePrediction{
					RaceDistanceKm:         42.195,
					RecentPaceSecPerKm:     &pace,
					PredictedFinishSeconds: &predicted,
				},
			}, nil
		},
	}
	h := NewFitnessHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/goals/goal-id-1/fitness", nil)
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if result["recent_pace_sec_per_km"] != float64(330) {
		t.Errorf("recent_pace_sec_per_km = %v, want 330", result["recent_pace_sec_per_km"])
	}
	if result["training_phase"] != "build" {
		t.Errorf("training_phase = %v, want build", result["training_phase"])
	}
	prediction, ok := result["prediction"].(map[string]interface{})
	if !ok {
		t.Fatal("predictionが含まれていない")
	}
	if prediction["race_distance_km"] != 42.195 {
		t.Errorf("race_distance_km = %v, want 42.195", prediction["race_distance_km"])
	}
	mileage, ok := result["weekly_mileage"].([]interface{})
	if !ok || len(mileage) != 1 {
		t.Fatalf("weekly_mileage = %v, want 1件", result["weekly_mileage"])
	}
}

func TestFitnessHandler_Analytics_NoPrediction(t *testing.T) {
	svc := &mockFitnessService{
		analyticsFn: func(ctx context.Context, goalID string) (*fitness.GoalAnalytics, error) {
			return &fitness.GoalAnalytics{WeeklyMileage: []fitness.WeekBucket{}}, nil
		},
	}
	h := NewFitnessHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/goals/goal-id-1/fitness", nil)
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if _, exists := result["prediction"]; exists {
		t.Error("レース情報なしの場合はpredictionを含めない")
	}
}

// --- PUT /api/goals/{id}/fitness/config テスト ---

func TestFitnessHandler_UpsertConfig_Success(t *testing.T) {
	svc := &mockFitnessService{
		upsertConfigFn: func(ctx context.Context, goalID string, input fitness.UpdateConfigInput) (*model.FitnessGoalConfig, error) {
			if input.Subtype != model.FitnessSubtypeRaceTraining {
				t.Errorf("Subtype = %q, want race_training", input.Subtype)
			}
			if input.RaceType == nil || *input.RaceType != model.RaceTypeMarathon {
				t.Errorf("RaceType = %v, want marathon", input.RaceType)
			}
			if input.RaceDate == nil || input.RaceDate.Format("2006-01-02") != "2026-11-15" {
				t.Errorf("RaceDate = %v, want 2026-11-15", input.RaceDate)
			}
			raceType := model.RaceTypeMarathon
			raceDate := *input.RaceDate
			return &model.FitnessGoalConfig{
				ID:            "config-id-1",
				GoalID:        goalID,
				Subtype:       input.Subtype,
				RaceType:      &raceType,
				RaceDate:      &raceDate,
				TrainingPhase: input.TrainingPhase,
			}, nil
		},
	}
	h := NewFitnessHandler(svc)

	body := `{"subtype": "race_training", "race_type": "marathon", "race_date": "2026-11-15", "training_phase": "base"}`
	req := httptest.NewRequest(http.MethodPut, "/api/goals/goal-id-1/fitness/config", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.UpsertConfig(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if result["race_type"] != "marathon" {
		t.Errorf("race_type = %v, want marathon", result["race_type"])
	}
	if result["race_date"] != "2026-11-15" {
		t.Errorf("race_date = %v, want 2026-11-15", result["race_date"])
	}
}

func TestFitnessHandler_UpsertConfig_InvalidRaceDate(t *testing.T) {
	h := NewFitnessHandler(&mockFitnessService{})

	body := `{"subtype": "race_training", "race_date": "next sunday"}`
	req := httptest.NewRequest(http.MethodPut, "/api/goals/goal-id-1/fitness/config", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.UpsertConfig(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

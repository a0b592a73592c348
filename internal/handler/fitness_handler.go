package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/goaltrack/internal/fitness"
	"github.com/hitoshi/goaltrack/internal/model"
)

// FitnessServiceInterface はフィットネスハンドラーが必要とするサービスインターフェース。
type FitnessServiceInterface interface {
	LogSession(ctx context.Context, goalID string, input fitness.LogSessionInput) (*model.TrainingSession, error)
	Analytics(ctx context.Context, goalID string) (*fitness.GoalAnalytics, error)
	UpsertConfig(ctx context.Context, goalID string, input fitness.UpdateConfigInput) (*model.FitnessGoalConfig, error)
}

// FitnessHandler はトレーニングセッション・フィットネス分析のHTTPハンドラー。
type FitnessHandler struct {
	service FitnessServiceInterface
}

// NewFitnessHandler はFitnessHandlerを生成する。
func NewFitnessHandler(service FitnessServiceInterface) *FitnessHandler {
	return &FitnessHandler{service: service}
}

// logTrainingSessionRequest はトレーニングセッション記録リクエストのボディ。
type logTrainingSessionRequest struct {
	WorkoutType     string   `json:"workout_type"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Distance        *float64 `json:"distance"`
	DistanceUnit    string   `json:"distance_unit"`
	PaceSecPerKm    *int     `json:"pace_sec_per_km"`
	WorkoutIntent   string   `json:"workout_intent"`
	Notes           string   `json:"notes"`
}

// trainingSessionResponse はトレーニングセッションのAPIレスポンス。
type trainingSessionResponse struct {
	ID              string   `json:"id"`
	GoalID          string   `json:"goal_id"`
	WorkoutType     string   `json:"workout_type"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Distance        *float64 `json:"distance,omitempty"`
	DistanceUnit    string   `json:"distance_unit,omitempty"`
	PaceSecPerKm    *int     `json:"pace_sec_per_km,omitempty"`
	WorkoutIntent   string   `json:"workout_intent,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// weekBucketResponse は週次走行距離バケットのAPIレスポンス。
type weekBucketResponse struct {
	WeekStart  string  `json:"week_start"`
	DistanceKm float64 `json:"distance_km"`
	Sessions   int     `json:"sessions"`
}

// racePredictionResponse はレース完走予測のAPIレスポンス。
type racePredictionResponse struct {
	RaceDistanceKm         float64 `json:"race_distance_km"`
	RecentPaceSecPerKm     *int    `json:"recent_pace_sec_per_km"`
	PredictedFinishSeconds *int    `json:"predicted_finish_seconds"`
	TargetFinishSeconds    *int    `json:"target_finish_seconds"`
}

// fitnessAnalyticsResponse はフィットネス分析のAPIレスポンス。
type fitnessAnalyticsResponse struct {
	RecentPaceSecPerKm   *int                    `json:"recent_pace_sec_per_km"`
	WeeklyMileage        []weekBucketResponse    `json:"weekly_mileage"`
	AverageWeeklyMileage float64                 `json:"average_weekly_mileage"`
	TrainingPhase        string                  `json:"training_phase,omitempty"`
	Prediction           *racePredictionResponse `json:"prediction,omitempty"`
}

// upsertFitnessConfigRequest はフィットネス設定更新リクエストのボディ。
type upsertFitnessConfigRequest struct {
	Subtype              string   `json:"subtype"`
	TargetPaceSecPerKm   *int     `json:"target_pace_sec_per_km"`
	RaceType             *string  `json:"race_type"`
	RaceDate             *string  `json:"race_date"`
	CustomRaceDistanceKm *float64 `json:"custom_race_distance_km"`
	WeeklyMileageTarget  *float64 `json:"weekly_mileage_target"`
	TrainingPhase        string   `json:"training_phase"`
}

// fitnessConfigResponse はフィットネス設定のAPIレスポンス。
type fitnessConfigResponse struct {
	ID                   string   `json:"id"`
	GoalID               string   `json:"goal_id"`
	Subtype              string   `json:"subtype"`
	TargetPaceSecPerKm   *int     `json:"target_pace_sec_per_km,omitempty"`
	RaceType             *string  `json:"race_type,omitempty"`
	RaceDate             *string  `json:"race_date,omitempty"`
	CustomRaceDistanceKm *float64 `json:"custom_race_distance_km,omitempty"`
	WeeklyMileageTarget  *float64 `json:"weekly_mileage_target,omitempty"`
	TrainingPhase        string   `json:"training_phase,omitempty"`
}

// LogSession はトレーニングセッションの記録を処理する。
// POST /api/goals/:id/training-sessions
func (h *FitnessHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req logTrainingSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	date := time.Now()
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("日付の形式が不正です"))
			return
		}
		date = t
	}

	session, err := h.service.LogSession(r.Context(), goalID, fitness.LogSessionInput{
		WorkoutType:     model.WorkoutType(req.WorkoutType),
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Distance:        req.Distance,
		DistanceUnit:    model.DistanceUnit(req.DistanceUnit),
		PaceSecPerKm:    req.PaceSecPerKm,
		WorkoutIntent:   model.WorkoutIntent(req.WorkoutIntent),
		Notes:           req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, trainingSessionResponse{
		ID:              session.ID,
		GoalID:          session.GoalID,
		WorkoutType:     string(session.WorkoutType),
		Date:            session.Date.Format(time.RFC3339),
		DurationMinutes: session.DurationMinutes,
		Distance:        session.Distance,
		DistanceUnit:    string(session.DistanceUnit),
		PaceSecPerKm:    session.PaceSecPerKm,
		WorkoutIntent:   string(session.WorkoutIntent),
		Notes:           session.Notes,
	})
}

// Analytics はフィットネス目標の分析値を取得する。
// GET /api/goals/:id/fitness
func (h *FitnessHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	a, err := h.service.Analytics(r.Context(), goalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := fitnessAnalyticsResponse{
		RecentPaceSecPerKm:   a.RecentPaceSecPerKm,
		WeeklyMileage:        make([]weekBucketResponse, 0, len(a.WeeklyMileage)),
		AverageWeeklyMileage: a.AverageWeeklyMileage,
		TrainingPhase:        string(a.TrainingPhase),
	}
	for _, b := range a.WeeklyMileage {
		resp.WeeklyMileage = append(resp.WeeklyMileage, weekBucketResponse{
			WeekStart:  b.WeekStart.Format("2006-01-02"),
			DistanceKm: b.DistanceKm,
			Sessions:   b.Sessions,
		})
	}
	if a.Prediction != nil {
		resp.Prediction = &racePredictionResponse{
			RaceDistanceKm:         a.Prediction.RaceDistanceKm,
			RecentPaceSecPerKm:     a.Prediction.RecentPaceSecPerKm,
			PredictedFinishSeconds: a.Prediction.PredictedFinishSeconds,
			TargetFinishSeconds:    a.Prediction.TargetFinishSeconds,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpsertConfig はフィットネス設定の作成または更新を処理する。
// PUT /api/goals/:id/fitness/config
func (h *FitnessHandler) UpsertConfig(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req upsertFitnessConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := fitness.UpdateConfigInput{
		Subtype:              model.FitnessSubtype(req.Subtype),
		TargetPaceSecPerKm:   req.TargetPaceSecPerKm,
		CustomRaceDistanceKm: req.CustomRaceDistanceKm,
		WeeklyMileageTarget:  req.WeeklyMileageTarget,
		TrainingPhase:        model.TrainingPhase(req.TrainingPhase),
	}
	if req.RaceType != nil {
		rt := model.RaceType(*req.RaceType)
		input.RaceType = &rt
	}
	if req.RaceDate != nil {
		t, err := parseDate(*req.RaceDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("レース日の形式が不正です"))
			return
		}
		input.RaceDate = &t
	}

	config, err := h.service.UpsertConfig(r.Context(), goalID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := fitnessConfigResponse{
		ID:                   config.ID,
		GoalID:               config.GoalID,
		Subtype:              string(config.Subtype),
		TargetPaceSecPerKm:   config.TargetPaceSecPerKm,
		CustomRaceDistanceKm: config.CustomRaceDistanceKm,
		WeeklyMileageTarget:  config.WeeklyMileageTarget,
		TrainingPhase:        string(config.TrainingPhase),
	}
	if config.RaceType != nil {
		rt := string(*config.RaceType)
		resp.RaceType = &rt
	}
	if config.RaceDate != nil {
		d := config.RaceDate.Format("2006-01-02")
		resp.RaceDate = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

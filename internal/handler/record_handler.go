package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/record"
)

// RecordServiceInterface は自己ベストハンドラーが必要とするサービスインターフェース。
type RecordServiceInterface interface {
	Submit(ctx context.Context, goalID string, input record.SubmitInput) (*record.SubmitResult, error)
	List(ctx context.Context, goalID string) ([]*model.PersonalRecord, error)
}

// RecordHandler は自己ベスト記録のHTTPハンドラー。
type RecordHandler struct {
	service RecordServiceInterface
}

// NewRecordHandler はRecordHandlerを生成する。
func NewRecordHandler(service RecordServiceInterface) *RecordHandler {
	return &RecordHandler{service: service}
}

// submitRecordRequest は記録提出リクエストのボディ。
type submitRecordRequest struct {
	Exercise     string  `json:"exercise"`
	Category     string  `json:"category"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	AchievedDate string  `json:"achieved_date"`
}

// personalRecordResponse は自己ベスト記録のAPIレスポンス。
type personalRecordResponse struct {
	ID            string   `json:"id"`
	GoalID        string   `json:"goal_id"`
	Exercise      string   `json:"exercise"`
	Category      string   `json:"category"`
	Value         float64  `json:"value"`
	Unit          string   `json:"unit"`
	AchievedDate  string   `json:"achieved_date"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
}

// submitRecordResponse は記録提出結果のAPIレスポンス。
type submitRecordResponse struct {
	Record   personalRecordResponse `json:"record"`
	Improved bool                   `json:"improved"`
}

// Submit は自己ベスト記録の提出を処理する。
// POST /api/goals/:id/records
func (h *RecordHandler) Submit(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req submitRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	achievedDate := time.Now()
	if req.AchievedDate != "" {
		t, err := parseDate(req.AchievedDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("達成日の形式が不正です"))
			return
		}
		achievedDate = t
	}

	result, err := h.service.Submit(r.Context(), goalID, record.SubmitInput{
		Exercise:     req.Exercise,
		Category:     model.RecordCategory(req.Category),
		Value:        req.Value,
		Unit:         req.Unit,
		AchievedDate: achievedDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitRecordResponse{
		Record:   toPersonalRecordResponse(result.Record),
		Improved: result.Improved,
	})
}

// List は目標の自己ベスト記録一覧を返す。
// GET /api/goals/:id/records
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	records, err := h.service.List(r.Context(), goalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]personalRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toPersonalRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// toPersonalRecordResponse はmodel.PersonalRecordからAPIレスポンスに変換する。
func toPersonalRecordResponse(rec *model.PersonalRecord) personalRecordResponse {
	return personalRecordResponse{
		ID:            rec.ID,
		GoalID:        rec.GoalID,
		Exercise:      rec.Exercise,
		Category:      string(rec.Category),
		Value:         rec.Value,
		Unit:          rec.Unit,
		AchievedDate:  rec.AchievedDate.Format("2006-01-02"),
		PreviousValue: rec.PreviousValue,
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/goaltrack/internal/goal"
	"github.com/hitoshi/goaltrack/internal/model"
)

// GoalServiceInterface は目標ハンドラーが必要とするサービスインターフェース。
type GoalServiceInterface interface {
	Create(ctx context.Context, input goal.CreateInput) (*model.Goal, error)
	Update(ctx context.Context, goalID string, input goal.UpdateInput) (*model.Goal, error)
	FindByID(ctx context.Context, goalID string) (*model.Goal, error)
	List(ctx context.Context, includeArchived bool) ([]*model.Goal, error)
	Delete(ctx context.Context, goalID string) error
}

// GoalHandler は目標管理のHTTPハンドラー。
type GoalHandler struct {
	service GoalServiceInterface
}

// NewGoalHandler はGoalHandlerを生成する。
func NewGoalHandler(service GoalServiceInterface) *GoalHandler {
	return &GoalHandler{service: service}
}

// createGoalRequest は目標作成リクエストのボディ。
type createGoalRequest struct {
	Title       string  `json:"title"`
	GoalType    string  `json:"goal_type"`
	TargetValue float64 `json:"target_value"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
}

// updateGoalRequest は目標更新リクエストのボディ。nilのフィールドは変更しない。
type updateGoalRequest struct {
	Title       *string  `json:"title"`
	TargetValue *float64 `json:"target_value"`
	EndDate     *string  `json:"end_date"`
	IsArchived  *bool    `json:"is_archived"`
}

// goalResponse は目標情報のAPIレスポンス。
type goalResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	GoalType     string   `json:"goal_type"`
	TargetValue  float64  `json:"target_value"`
	CurrentValue float64  `json:"current_value"`
	Progress     float64  `json:"progress"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date,omitempty"`
	IsArchived   bool     `json:"is_archived"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// Create は目標作成を処理する。
// POST /api/goals
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := goal.CreateInput{
		Title:       req.Title,
		GoalType:    model.GoalType(req.GoalType),
		TargetValue: req.TargetValue,
	}
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("開始日の形式が不正です"))
			return
		}
		input.StartDate = t
	}
	if req.EndDate != "" {
		t, err := parseDate(req.EndDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("終了日の形式が不正です"))
			return
		}
		input.EndDate = &t
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

// List は目標一覧を取得する。
// GET /api/goals?include_archived=true
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	goals, err := h.service.List(r.Context(), includeArchived)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は目標詳細を取得する。
// GET /api/goals/:id
func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	g, err := h.service.FindByID(r.Context(), goalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

// Update は目標の部分更新（編集・アーカイブ）を処理する。
// PATCH /api/goals/:id
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := goal.UpdateInput{
		Title:       req.Title,
		TargetValue: req.TargetValue,
		IsArchived:  req.IsArchived,
	}
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("終了日の形式が不正です"))
			return
		}
		input.EndDate = &t
	}

	updated, err := h.service.Update(r.Context(), goalID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(updated))
}

// Delete は目標と所有コレクションを削除する。
// DELETE /api/goals/:id
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), goalID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toGoalResponse はmodel.GoalからAPIレスポンスに変換する。
func toGoalResponse(g *model.Goal) goalResponse {
	resp := goalResponse{
		ID:           g.ID,
		Title:        g.Title,
		GoalType:     string(g.GoalType),
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Progress:     g.Progress(),
		StartDate:    g.StartDate.Format(time.RFC3339),
		IsArchived:   g.IsArchived,
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    g.UpdatedAt.Format(time.RFC3339),
	}
	if g.EndDate != nil {
		s := g.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	return resp
}

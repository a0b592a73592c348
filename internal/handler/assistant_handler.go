package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/goaltrack/internal/assistant"
	"github.com/hitoshi/goaltrack/internal/model"
)

// AssistantInterface は目標提案ハンドラーが必要とするプロバイダインターフェース。
type AssistantInterface interface {
	Enabled() bool
	SuggestGoal(ctx context.Context, description string) *assistant.Suggestion
}

// AssistantHandler は目標提案のHTTPハンドラー。
type AssistantHandler struct {
	client AssistantInterface
}

// NewAssistantHandler はAssistantHandlerを生成する。
func NewAssistantHandler(client AssistantInterface) *AssistantHandler {
	return &AssistantHandler{client: client}
}

// suggestGoalRequest は目標提案リクエストのボディ。
type suggestGoalRequest struct {
	Description string `json:"description"`
}

// suggestGoalResponse は目標提案のAPIレスポンス。
// 提案が得られなかった場合はsuggestionがnullになる。
type suggestGoalResponse struct {
	Suggestion *goalSuggestionBody `json:"suggestion"`
	Available  bool                `json:"available"`
}

type goalSuggestionBody struct {
	Title       string  `json:"title"`
	GoalType    string  `json:"goal_type"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit"`
	Rationale   string  `json:"rationale"`
}

// Suggest は自由記述からの目標提案を処理する。
// プロバイダが無効、または提案が得られなかった場合もエラーにせず、
// suggestion: null のレスポンスを返す（提案は補助機能）。
// POST /api/goals/suggest
func (h *AssistantHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Description == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("目標の説明文が空です"))
		return
	}

	resp := suggestGoalResponse{Available: h.client.Enabled()}
	if s := h.client.SuggestGoal(r.Context(), req.Description); s != nil {
		resp.Suggestion = &goalSuggestionBody{
			Title:       s.Title,
			GoalType:    s.GoalType,
			TargetValue: s.TargetValue,
			Unit:        s.Unit,
			Rationale:   s.Rationale,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

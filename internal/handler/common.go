// Package handler はREST APIのHTTPハンドラー群を提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はJSONボディの解析失敗レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case model.ErrCodeGoalNotFound, model.ErrCodeBookNotFound,
		model.ErrCodeRepositoryNotFound, model.ErrCodeProjectNotFound,
		model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeSyncInFlight:
		return http.StatusConflict
	case model.ErrCodeUnauthenticated, model.ErrCodeNetworkError, model.ErrCodeParsingFailed:
		return http.StatusBadGateway
	case model.ErrCodeStatisticsNotReady:
		// メタデータは更新済み。統計のみ未集計の部分的成功。
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// parseDate はAPIの日付文字列（RFC 3339または日付のみ）を解析する。
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

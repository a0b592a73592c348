package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeJSONBody はレスポンスボディを汎用マップにパースするヘルパー。
func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

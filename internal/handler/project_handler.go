package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/revenue"
)

// RevenueServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type RevenueServiceInterface interface {
	AddProject(ctx context.Context, goalID, name string, platform model.Platform, storeURL string) (*model.AppProject, error)
	LogRevenue(ctx context.Context, projectID string, input revenue.LogRevenueInput) (*model.RevenueEntry, error)
	RecordMetrics(ctx context.Context, projectID string, snapshot model.AppMetricSnapshot) (*model.AppMetricSnapshot, error)
	Summarize(ctx context.Context, projectID string) (*revenue.Summary, error)
}

// ProjectHandler はアプリプロジェクト・収益記録のHTTPハンドラー。
type ProjectHandler struct {
	service RevenueServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service RevenueServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// addProjectRequest はプロジェクト追加リクエストのボディ。
type addProjectRequest struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	StoreURL string `json:"store_url"`
}

// projectResponse はプロジェクト情報のAPIレスポンス。
type projectResponse struct {
	ID       string `json:"id"`
	GoalID   string `json:"goal_id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	StoreURL string `json:"store_url,omitempty"`
}

// logRevenueRequest は収益記録リクエストのボディ。
// 金額は精度維持のためJSON文字列で受ける。
type logRevenueRequest struct {
	Date         string  `json:"date"`
	Period       string  `json:"period"`
	GrossRevenue string  `json:"gross_revenue"`
	NetRevenue   *string `json:"net_revenue"`
	Downloads    *int    `json:"downloads"`
}

// revenueEntryResponse は収益エントリのAPIレスポンス。
type revenueEntryResponse struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Date         string `json:"date"`
	Period       string `json:"period"`
	GrossRevenue string `json:"gross_revenue"`
	NetRevenue   string `json:"net_revenue"`
	Downloads    *int   `json:"downloads,omitempty"`
	IsNetManual  bool   `json:"is_net_manual"`
}

// recordMetricsRequest はアプリ指標スナップショット記録リクエストのボディ。
type recordMetricsRequest struct {
	Date          string   `json:"date"`
	ActiveUsers   *int     `json:"active_users"`
	Downloads     *int     `json:"downloads"`
	CrashFreeRate *float64 `json:"crash_free_rate"`
	AverageRating *float64 `json:"average_rating"`
}

// metricSnapshotResponse はアプリ指標スナップショットのAPIレスポンス。
type metricSnapshotResponse struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	Date          string   `json:"date"`
	ActiveUsers   *int     `json:"active_users,omitempty"`
	Downloads     *int     `json:"downloads,omitempty"`
	CrashFreeRate *float64 `json:"crash_free_rate,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// revenueSummaryResponse は収益集計のAPIレスポンス。
type revenueSummaryResponse struct {
	TotalGross    string  `json:"total_gross"`
	TotalNet      string  `json:"total_net"`
	ThisMonth     string  `json:"this_month"`
	LastMonth     string  `json:"last_month"`
	GrowthPercent *string `json:"growth_percent"`
}

// AddProject はプログラミング目標へのプロジェクト追加を処理する。
// POST /api/goals/:id/projects
func (h *ProjectHandler) AddProject(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req addProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	project, err := h.service.AddProject(r.Context(), goalID, req.Name, model.Platform(req.Platform), req.StoreURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, projectResponse{
		ID:       project.ID,
		GoalID:   project.GoalID,
		Name:     project.Name,
		Platform: string(project.Platform),
		StoreURL: project.StoreURL,
	})
}

// LogRevenue は収益エントリの記録を処理する。
// POST /api/projects/:id/revenue
func (h *ProjectHandler) LogRevenue(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req logRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	gross, err := decimal.NewFromString(req.GrossRevenue)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("総収益の形式が不正です"))
		return
	}
	input := revenue.LogRevenueInput{
		Period:       model.RevenuePeriod(req.Period),
		GrossRevenue: gross,
		Downloads:    req.Downloads,
	}
	if req.NetRevenue != nil {
		net, err := decimal.NewFromString(*req.NetRevenue)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("純収益の形式が不正です"))
			return
		}
		input.NetRevenue = &net
	}

	input.Date = time.Now()
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("日付の形式が不正です"))
			return
		}
		input.Date = t
	}

	entry, err := h.service.LogRevenue(r.Context(), projectID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, revenueEntryResponse{
		ID:           entry.ID,
		ProjectID:    entry.ProjectID,
		Date:         entry.Date.Format("2006-01-02"),
		Period:       string(entry.Period),
		GrossRevenue: entry.GrossRevenue.String(),
		NetRevenue:   entry.NetRevenue.String(),
		Downloads:    entry.Downloads,
		IsNetManual:  entry.IsNetManual,
	})
}

// RecordMetrics はアプリ指標スナップショットの記録を処理する。
// POST /api/projects/:id/metrics
func (h *ProjectHandler) RecordMetrics(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req recordMetricsRequest
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

	snapshot, err := h.service.RecordMetrics(r.Context(), projectID, model.AppMetricSnapshot{
		Date:          date,
		ActiveUsers:   req.ActiveUsers,
		Downloads:     req.Downloads,
		CrashFreeRate: req.CrashFreeRate,
		AverageRating: req.AverageRating,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, metricSnapshotResponse{
		ID:            snapshot.ID,
		ProjectID:     snapshot.ProjectID,
		Date:          snapshot.Date.Format("2006-01-02"),
		ActiveUsers:   snapshot.ActiveUsers,
		Downloads:     snapshot.Downloads,
		CrashFreeRate: snapshot.CrashFreeRate,
		AverageRating: snapshot.AverageRating,
	})
}

// Summary はプロジェクトの収益集計を取得する。
// GET /api/projects/:id/revenue/summary
func (h *ProjectHandler) Summary(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	summary, err := h.service.Summarize(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := revenueSummaryResponse{
		TotalGross: summary.TotalGross.String(),
		TotalNet:   summary.TotalNet.String(),
		ThisMonth:  summary.ThisMonth.String(),
		LastMonth:  summary.LastMonth.String(),
	}
	if summary.GrowthPercent != nil {
		g := summary.GrowthPercent.String()
		resp.GrowthPercent = &g
	}
	writeJSON(w, http.StatusOK, resp)
}

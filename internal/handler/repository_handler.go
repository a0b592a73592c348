package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/programming"
)

// ProgrammingServiceInterface はリポジトリハンドラーが必要とするサービスインターフェース。
type ProgrammingServiceInterface interface {
	AddRepository(ctx context.Context, goalID, owner, name string) (*model.GitHubRepository, error)
	RemoveRepository(ctx context.Context, repoID string) error
	ListRepositories(ctx context.Context, goalID string) ([]*model.GitHubRepository, error)
	Analytics(ctx context.Context, repoID string) (*programming.RepositoryAnalytics, error)
}

// RepositorySyncer は単一リポジトリの同期を実行するインターフェース。
type RepositorySyncer interface {
	Sync(ctx context.Context, repoID string, force bool) error
}

// RepositoryHandler はGitHubリポジトリの登録・同期・統計のHTTPハンドラー。
type RepositoryHandler struct {
	service ProgrammingServiceInterface
	syncer  RepositorySyncer
}

// NewRepositoryHandler はRepositoryHandlerを生成する。
func NewRepositoryHandler(service ProgrammingServiceInterface, syncer RepositorySyncer) *RepositoryHandler {
	return &RepositoryHandler{
		service: service,
		syncer:  syncer,
	}
}

// addRepositoryRequest はリポジトリ登録リクエストのボディ。
type addRepositoryRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// repositoryResponse はリポジトリ情報のAPIレスポンス。
type repositoryResponse struct {
	ID            string  `json:"id"`
	GoalID        string  `json:"goal_id"`
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Description   string  `json:"description,omitempty"`
	Language      string  `json:"language,omitempty"`
	StarCount     int     `json:"star_count"`
	ForkCount     int     `json:"fork_count"`
	OpenIssues    int     `json:"open_issues"`
	IsPrivate     bool    `json:"is_private"`
	DefaultBranch string  `json:"default_branch,omitempty"`
	LastSyncedAt  *string `json:"last_synced_at,omitempty"`
}

// repositoryAnalyticsResponse はリポジトリ統計のAPIレスポンス。
type repositoryAnalyticsResponse struct {
	TotalCommits           int      `json:"total_commits"`
	TotalAdditions         int      `json:"total_additions"`
	TotalDeletions         int      `json:"total_deletions"`
	RecentCommits          int      `json:"recent_commits"`
	StarGrowth30d          int      `json:"star_growth_30d"`
	AverageDailyStarGrowth *float64 `json:"average_daily_star_growth"`
	ProjectedStars30d      *int     `json:"projected_stars_30d"`
}

// syncResultResponse は同期実行結果のAPIレスポンス。
type syncResultResponse struct {
	RepositoryID string `json:"repository_id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// goalSyncResponse は目標配下の全リポジトリ同期結果のAPIレスポンス。
type goalSyncResponse struct {
	GoalID  string               `json:"goal_id"`
	Results []syncResultResponse `json:"results"`
}

// Add はプログラミング目標へのリポジトリ登録を処理する。
// POST /api/goals/:id/repositories
func (h *RepositoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req addRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	repo, err := h.service.AddRepository(r.Context(), goalID, req.Owner, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRepositoryResponse(repo))
}

// List は目標に登録されたリポジトリ一覧を返す。
// GET /api/goals/:id/repositories
func (h *RepositoryHandler) List(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	repos, err := h.service.ListRepositories(r.Context(), goalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]repositoryResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepositoryResponse(repo))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Remove はリポジトリの削除を処理する。
// DELETE /api/repositories/:id
func (h *RepositoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "id")

	if err := h.service.RemoveRepository(r.Context(), repoID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Sync は単一リポジトリの手動同期を実行する。
// 手動トリガーは1時間の同期間隔を無視して強制実行する。
// POST /api/repositories/:id/sync
func (h *RepositoryHandler) Sync(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "id")

	if err := h.syncer.Sync(r.Context(), repoID, true); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResultResponse{
		RepositoryID: repoID,
		Status:       "synced",
	})
}

// SyncGoal は目標配下の全リポジトリを順に同期する。
// 1件の失敗で中断せず、各リポジトリの結果を集めて返す。
// POST /api/goals/:id/sync
func (h *RepositoryHandler) SyncGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	repos, err := h.service.ListRepositories(r.Context(), goalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := goalSyncResponse{
		GoalID:  goalID,
		Results: make([]syncResultResponse, 0, len(repos)),
	}
	for _, repo := range repos {
		result := syncResultResponse{RepositoryID: repo.ID, Status: "synced"}
		if err := h.syncer.Sync(r.Context(), repo.ID, true); err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeStatisticsNotReady {
				result.Status = "stats_pending"
			} else {
				result.Status = "failed"
			}
			result.Message = err.Error()
		}
		resp.Results = append(resp.Results, result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats はリポジトリの統計値を取得する。
// GET /api/repositories/:id/stats
func (h *RepositoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "id")

	a, err := h.service.Analytics(r.Context(), repoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, repositoryAnalyticsResponse{
		TotalCommits:           a.TotalCommits,
		TotalAdditions:         a.TotalAdditions,
		TotalDeletions:         a.TotalDeletions,
		RecentCommits:          a.RecentCommits,
		StarGrowth30d:          a.StarGrowth30d,
		AverageDailyStarGrowth: a.AverageDailyStarGrowth,
		ProjectedStars30d:      a.ProjectedStars30d,
	})
}

// toRepositoryResponse はmodel.GitHubRepositoryからAPIレスポンスに変換する。
func toRepositoryResponse(repo *model.GitHubRepository) repositoryResponse {
	resp := repositoryResponse{
		ID:            repo.ID,
		GoalID:        repo.GoalID,
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		Language:      repo.Language,
		StarCount:     repo.StarCount,
		ForkCount:     repo.ForkCount,
		OpenIssues:    repo.OpenIssues,
		IsPrivate:     repo.IsPrivate,
		DefaultBranch: repo.DefaultBranch,
	}
	if repo.LastSyncedAt != nil {
		s := repo.LastSyncedAt.Format(time.RFC3339)
		resp.LastSyncedAt = &s
	}
	return resp
}

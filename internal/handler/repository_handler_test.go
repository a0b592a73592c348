package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/programming"
)

// --- モック定義 ---

// mockProgrammingService はProgrammingServiceInterfaceのモック実装。
type mockProgrammingService struct {
	addRepositoryFn    func(ctx context.Context, goalID, owner, name string) (*model.GitHubRepository, error)
	removeRepositoryFn func(ctx context.Context, repoID string) error
	listRepositoriesFn func(ctx context.Context, goalID string) ([]*model.GitHubRepository, error)
	analyticsFn        func(ctx context.Context, repoID string) (*programming.RepositoryAnalytics, error)
}

func (m *mockProgrammingService) AddRepository(ctx context.Context, goalID, owner, name string) (*model.GitHubRepository, error) {
	if m.addRepositoryFn != nil {
		return m.addRepositoryFn(ctx, goalID, owner, name)
	}
	return nil, nil
}

func (m *mockProgrammingService) RemoveRepository(ctx context.Context, repoID string) error {
	if m.removeRepositoryFn != nil {
		return m.removeRepositoryFn(ctx, repoID)
	}
	return nil
}

func (m *mockProgrammingService) ListRepositories(ctx context.Context, goalID string) ([]*model.GitHubRepository, error) {
	if m.listRepositoriesFn != nil {
		return m.listRepositoriesFn(ctx, goalID)
	}
	return nil, nil
}

func (m *mockProgrammingService) Analytics(ctx context.Context, repoID string) (*programming.RepositoryAnalytics, error) {
	if m.analyticsFn != nil {
		return m.analyticsFn(ctx, repoID)
	}
	return nil, nil
}

// mockRepoSyncer はRepositorySyncerのモック実装。
type mockRepoSyncer struct {
	syncFn func(ctx context.Context, repoID string, force bool) error
}

func (m *mockRepoSyncer) Sync(ctx context.Context, repoID string, force bool) error {
	if m.syncFn != nil {
		return m.syncFn(ctx, repoID, force)
	}
	return nil
}

// --- POST /api/goals/{id}/repositories テスト ---

func TestRepositoryHandler_Add_Success(t *testing.T) {
	svc := &mockProgrammingService{
		addRepositoryFn: func(ctx context.Context, goalID, owner, name string) (*model.GitHubRepository, error) {
			if owner != "golang" || name != "go" {
				t.Errorf("owner/name = %q/%q, want golang/go", owner, name)
			}
			return &model.GitHubRepository{
				ID:       "repo-id-1",
				GoalID:   goalID,
				Owner:    owner,
				Name:     name,
				FullName: owner + "/" + name,
			}, nil
		},
	}
	h := NewRepositoryHandler(svc, &mockRepoSyncer{})

	body := `{"owner": "golang", "name": "go"}`
	req := httptest.NewRequest(http.MethodPost, "/api/goals/goal-id-1/repositories", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	result := decodeJSONBody(t, w)
	if result["full_name"] != "golang/go" {
		t.Errorf("full_name = %v, want golang/go", result["full_name"])
	}
}

// --- POST /api/repositories/{id}/sync テスト ---

func TestRepositoryHandler_Sync_ForcesSync(t *testing.T) {
	var gotForce bool
	syncer := &mockRepoSyncer{
		syncFn: func(ctx context.Context, repoID string, force bool) error {
			gotForce = force
			return nil
		},
	}
	h := NewRepositoryHandler(&mockProgrammingService{}, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/repositories/repo-id-1/sync", nil)
	req = withChiURLParam(req, "id", "repo-id-1")
	w := httptest.NewRecorder()

	h.Sync(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// 手動トリガーは同期間隔を無視する
	if !gotForce {
		t.Error("force = false, want true")
	}
	result := decodeJSONBody(t, w)
	if result["status"] != "synced" {
		t.Errorf("status = %v, want synced", result["status"])
	}
}

func TestRepositoryHandler_Sync_InFlight(t *testing.T) {
	syncer := &mockRepoSyncer{
		syncFn: func(ctx context.Context, repoID string, force bool) error {
			return model.NewSyncInFlightError(repoID)
		},
	}
	h := NewRepositoryHandler(&mockProgrammingService{}, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/repositories/repo-id-1/sync", nil)
	req = withChiURLParam(req, "id", "repo-id-1")
	w := httptest.NewRecorder()

	h.Sync(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeSyncInFlight {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeSyncInFlight)
	}
}

func TestRepositoryHandler_Sync_StatsPending(t *testing.T) {
	syncer := &mockRepoSyncer{
		syncFn: func(ctx context.Context, repoID string, force bool) error {
			return model.NewStatisticsNotReadyError("golang/go")
		},
	}
	h := NewRepositoryHandler(&mockProgrammingService{}, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/repositories/repo-id-1/sync", nil)
	req = withChiURLParam(req, "id", "repo-id-1")
	w := httptest.NewRecorder()

	h.Sync(w, req)

	// メタデータは更新済みなので部分的成功として202を返す
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
}

// --- POST /api/goals/{id}/sync テスト ---

func TestRepositoryHandler_SyncGoal_ContinuesOnFailure(t *testing.T) {
	svc := &mockProgrammingService{
		listRepositoriesFn: func(ctx context.Context, goalID string) ([]*model.GitHubRepository, error) {
			return []*model.GitHubRepository{
				{ID: "repo-1", FullName: "a/one"},
				{ID: "repo-2", FullName: "a/two"},
				{ID: "repo-3", FullName: "a/three"},
			}, nil
		},
	}
	syncer := &mockRepoSyncer{
		syncFn: func(ctx context.Context, repoID string, force bool) error {
			switch repoID {
			case "repo-1":
				return nil
			case "repo-2":
				return model.NewStatisticsNotReadyError("a/two")
			default:
				return model.NewNetworkError("connection refused")
			}
		},
	}
	h := NewRepositoryHandler(svc, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/goals/goal-id-1/sync", nil)
	req = withChiURLParam(req, "id", "goal-id-1")
	w := httptest.NewRecorder()

	h.SyncGoal(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	results, ok := result["results"].([]interface{})
	if !ok || len(results) != 3 {
		t.Fatalf("results = %v, want 3件", result["results"])
	}
	wantStatuses := []string{"synced", "stats_pending", "failed"}
	for i, want := range wantStatuses {
		entry := results[i].(map[string]interface{})
		if entry["status"] != want {
			t.Errorf("results[%d].status = %v, want %q", i, entry["status"], want)
		}
	}
}

func TestRepositoryHandler_SyncGoal_GoalNotFound(t *testing.T) {
	svc := &mockProgrammingService{
		listRepositoriesFn: func(ctx context.Context, goalID string) ([]*model.GitHubRepository, error) {
			return nil, model.NewGoalNotFoundError(goalID)
		},
	}
	h := NewRepositoryHandler(svc, &mockRepoSyncer{})

	req := httptest.NewRequest(http.MethodPost, "/api/goals/missing/sync", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.SyncGoal(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/repositories/{id}/stats テスト ---

func TestRepositoryHandler_Stats_Success(t *testing.T) {
	growth := 2.5
	projected := 1275
	svc := &mockProgrammingService{
		analyticsFn: func(ctx context.Context, repoID string) (*programming.RepositoryAnalytics, error) {
			return &programming.RepositoryAnalytics{
				TotalCommits:           420,
				TotalAdditions:         15000,
				TotalDeletions:         8000,
				RecentCommits:          35,
				StarGrowth30d:          75,
				AverageDailyStarGrowth: &growth,
				ProjectedStars30d:      &projected,
			}, nil
		},
	}
	h := NewRepositoryHandler(svc, &mockRepoSyncer{})

	req := httptest.NewRequest(http.MethodGet, "/api/repositories/repo-id-1/stats", nil)
	req = withChiURLParam(req, "id", "repo-id-1")
	w := httptest.NewRecorder()

	h.Stats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if result["total_commits"] != float64(420) {
		t.Errorf("total_commits = %v, want 420", result["total_commits"])
	}
	if result["projected_stars_30d"] != float64(1275) {
		t.Errorf("projected_stars_30d = %v, want 1275", result["projected_stars_30d"])
	}
}

// --- DELETE /api/repositories/{id} テスト ---

func TestRepositoryHandler_Remove_NotFound(t *testing.T) {
	svc := &mockProgrammingService{
		removeRepositoryFn: func(ctx context.Context, repoID string) error {
			return model.NewRepositoryNotFoundError(repoID)
		},
	}
	h := NewRepositoryHandler(svc, &mockRepoSyncer{})

	req := httptest.NewRequest(http.MethodDelete, "/api/repositories/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

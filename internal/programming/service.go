package programming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// ProgressRecomputer は目標進捗の再計算インターフェース。
type ProgressRecomputer interface {
	Recompute(ctx context.Context, goalID string) error
}

// starGrowthWindow はリポジトリ分析でのスター増加の既定窓幅。
const starGrowthWindow = 30 * 24 * time.Hour

// Service はGitHubリポジトリの登録・削除・分析の読み出しを提供する。
// リモートとの同期自体は同期ワーカーが担う。
type Service struct {
	repoRepo   repository.GitHubRepoRepository
	goalRepo   repository.GoalRepository
	recomputer ProgressRecomputer
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repoRepo repository.GitHubRepoRepository,
	goalRepo repository.GoalRepository,
	recomputer ProgressRecomputer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repoRepo:   repoRepo,
		goalRepo:   goalRepo,
		recomputer: recomputer,
		logger:     logger,
	}
}

// AddRepository はプログラミング目標にGitHubリポジトリを登録する。
// メタデータと統計は未取得の状態で作成され、次回の同期で充填される。
func (s *Service) AddRepository(ctx context.Context, goalID, owner, name string) (*model.GitHubRepository, error) {
	owner = strings.TrimSpace(owner)
	name = strings.TrimSpace(name)
	if owner == "" || name == "" {
		return nil, model.NewInvalidInputError("リポジトリのownerとnameは必須です")
	}

	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeProgramming {
		return nil, model.NewInvalidInputError("リポジトリはプログラミング目標にのみ追加できます")
	}

	now := time.Now()
	repo := &model.GitHubRepository{
		ID:        uuid.New().String(),
		GoalID:    goalID,
		Owner:     owner,
		Name:      name,
		FullName:  owner + "/" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repoRepo.Create(ctx, repo); err != nil {
		return nil, err
	}

	s.logger.Info("リポジトリを登録しました",
		slog.String("goal_id", goalID),
		slog.String("repository_id", repo.ID),
		slog.String("full_name", repo.FullName),
	)
	return repo, nil
}

// RemoveRepository はリポジトリを削除し目標進捗を再計算する。
// コミットバケットとスター履歴はCASCADE削除される。
func (s *Service) RemoveRepository(ctx context.Context, repoID string) error {
	repo, err := s.repoRepo.FindByID(ctx, repoID)
	if err != nil {
		return fmt.Errorf("リポジトリの取得に失敗: %w", err)
	}
	if repo == nil {
		return model.NewRepositoryNotFoundError(repoID)
	}

	if err := s.repoRepo.DeleteByID(ctx, repoID); err != nil {
		return err
	}

	// 総コミット数が進捗のソースであるため、削除後に再計算する
	if err := s.recomputer.Recompute(ctx, repo.GoalID); err != nil {
		s.logger.Error("目標進捗の再計算に失敗しました",
			slog.String("goal_id", repo.GoalID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("リポジトリを削除しました",
		slog.String("repository_id", repoID),
		slog.String("full_name", repo.FullName),
	)
	return nil
}

// ListRepositories は目標に登録されたリポジトリ一覧を返す。
func (s *Service) ListRepositories(ctx context.Context, goalID string) ([]*model.GitHubRepository, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	return s.repoRepo.ListByGoalID(ctx, goalID)
}

// RepositoryAnalytics はリポジトリの分析結果を表す。
type RepositoryAnalytics struct {
	TotalCommits           int
	TotalAdditions         int
	TotalDeletions         int
	RecentCommits          int
	StarGrowth30d          int
	AverageDailyStarGrowth *float64
	ProjectedStars30d      *int
}

// Analytics はリポジトリの分析値を統計ログから計算して返す。
// 分析値は永続化されない（オンデマンド計算）。
func (s *Service) Analytics(ctx context.Context, repoID string) (*RepositoryAnalytics, error) {
	repo, err := s.repoRepo.FindByID(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("リポジトリの取得に失敗: %w", err)
	}
	if repo == nil {
		return nil, model.NewRepositoryNotFoundError(repoID)
	}

	buckets, err := s.repoRepo.ListCommitActivity(ctx, repoID)
	if err != nil {
		return nil, err
	}
	history, err := s.repoRepo.ListStarHistory(ctx, repoID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &RepositoryAnalytics{
		TotalCommits:           TotalCommits(buckets),
		TotalAdditions:         TotalAdditions(buckets),
		TotalDeletions:         TotalDeletions(buckets),
		RecentCommits:          RecentCommits(buckets, now),
		StarGrowth30d:          StarGrowthOverWindow(history, starGrowthWindow, now),
		AverageDailyStarGrowth: AverageDailyStarGrowth(history),
		ProjectedStars30d:      ProjectedStars(history, repo.StarCount, now, now.Add(starGrowthWindow)),
	}, nil
}

package revenue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// Service はプロジェクトの登録・収益ログの追記・集計の読み出しを提供する。
type Service struct {
	projectRepo repository.ProjectRepository
	goalRepo    repository.GoalRepository
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	projectRepo repository.ProjectRepository,
	goalRepo repository.GoalRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		projectRepo: projectRepo,
		goalRepo:    goalRepo,
		logger:      logger,
	}
}

// AddProject はプログラミング目標にアプリプロジェクトを登録する。
func (s *Service) AddProject(ctx context.Context, goalID, name string, platform model.Platform, storeURL string) (*model.AppProject, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.NewInvalidInputError("プロジェクト名が空です")
	}
	switch platform {
	case model.PlatformIOS, model.PlatformMacOS, model.PlatformAndroid, model.PlatformWeb, model.PlatformCrossPlatform:
	default:
		return nil, model.NewInvalidInputError(fmt.Sprintf("不明なプラットフォーム: %s", platform))
	}

	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeProgramming {
		return nil, model.NewInvalidInputError("プロジェクトはプログラミング目標にのみ追加できます")
	}

	now := time.Now()
	project := &model.AppProject{
		ID:        uuid.New().String(),
		GoalID:    goalID,
		Name:      name,
		Platform:  platform,
		StoreURL:  storeURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("プロジェクトを登録しました",
		slog.String("goal_id", goalID),
		slog.String("project_id", project.ID),
		slog.String("platform", string(platform)),
	)
	return project, nil
}

// LogRevenueInput は収益記録の入力を表す。
type LogRevenueInput struct {
	Date         time.Time
	Period       model.RevenuePeriod
	GrossRevenue decimal.Decimal
	// NetRevenue が非nilの場合は手入力値として採用し、手数料モデルを適用しない。
	NetRevenue *decimal.Decimal
	Downloads  *int
}

// LogRevenue は収益エントリを追記する。エントリは作成後不変。
// 純収益が未指定の場合はプラットフォームの手数料モデルで自動計算する。
func (s *Service) LogRevenue(ctx context.Context, projectID string, input LogRevenueInput) (*model.RevenueEntry, error) {
	if input.GrossRevenue.IsNegative() {
		return nil, model.NewInvalidInputError("総収益は0以上で指定してください")
	}
	if input.NetRevenue != nil && input.NetRevenue.IsNegative() {
		return nil, model.NewInvalidInputError("純収益は0以上で指定してください")
	}
	switch input.Period {
	case model.RevenuePeriodDaily, model.RevenuePeriodWeekly, model.RevenuePeriodMonthly, model.RevenuePeriodYearly:
	default:
		return nil, model.NewInvalidInputError(fmt.Sprintf("不明な集計期間: %s", input.Period))
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	net := NetFromGross(input.GrossRevenue, project.Platform)
	isManual := false
	if input.NetRevenue != nil {
		net = input.NetRevenue.Round(moneyScale)
		isManual = true
	}

	entry := &model.RevenueEntry{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		Date:         input.Date,
		Period:       input.Period,
		GrossRevenue: input.GrossRevenue.Round(moneyScale),
		NetRevenue:   net,
		Downloads:    input.Downloads,
		IsNetManual:  isManual,
		CreatedAt:    time.Now(),
	}
	if err := s.projectRepo.CreateRevenueEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("収益エントリを記録しました",
		slog.String("project_id", projectID),
		slog.String("gross", entry.GrossRevenue.String()),
		slog.String("net", entry.NetRevenue.String()),
		slog.Bool("is_net_manual", isManual),
	)
	return entry, nil
}

// RecordMetrics はアプリ指標スナップショットを追記する。
func (s *Service) RecordMetrics(ctx context.Context, projectID string, snapshot model.AppMetricSnapshot) (*model.AppMetricSnapshot, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	snapshot.ID = uuid.New().String()
	snapshot.ProjectID = projectID
	snapshot.CreatedAt = time.Now()
	if err := s.projectRepo.CreateMetricSnapshot(ctx, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Summarize はプロジェクトの収益集計を計算して返す。
// 集計値は永続化されない（オンデマンド計算）。
func (s *Service) Summarize(ctx context.Context, projectID string) (*Summary, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	entries, err := s.projectRepo.ListRevenueEntries(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := Summarize(entries, time.Now())
	return &summary, nil
}

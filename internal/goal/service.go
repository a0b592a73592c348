// Package goal は目標のCRUDと概要の読み出しを提供する。
package goal

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

// Service は目標の作成・更新・アーカイブ・削除を提供する。
type Service struct {
	goalRepo   repository.GoalRepository
	recomputer ProgressRecomputer
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(goalRepo repository.GoalRepository, recomputer ProgressRecomputer, logger *slog.Logger) *Service {
	return &Service{
		goalRepo:   goalRepo,
		recomputer: recomputer,
		logger:     logger,
	}
}

// CreateInput は目標作成の入力を表す。
type CreateInput struct {
	Title       string
	GoalType    model.GoalType
	TargetValue float64
	StartDate   time.Time
	EndDate     *time.Time
}

// validate は作成・更新共通の入力検証を行う。
func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return model.NewInvalidInputError("目標タイトルが空です")
	}
	if !in.GoalType.IsValid() {
		return model.NewInvalidInputError(fmt.Sprintf("不明な目標種別: %s", in.GoalType))
	}
	if in.TargetValue <= 0 {
		return model.NewInvalidInputError("目標値は0より大きい値で指定してください")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return model.NewInvalidInputError("終了日は開始日より後で指定してください")
	}
	return nil
}

// Create は目標を作成する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Goal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	goal := &model.Goal{
		ID:          uuid.New().String(),
		Title:       input.Title,
		GoalType:    input.GoalType,
		TargetValue: input.TargetValue,
		StartDate:   startDate,
		EndDate:     input.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}

	s.logger.Info("目標を作成しました",
		slog.String("goal_id", goal.ID),
		slog.String("goal_type", string(goal.GoalType)),
		slog.String("title", goal.Title),
	)
	return goal, nil
}

// UpdateInput は目標更新の入力を表す。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	TargetValue *float64
	EndDate     *time.Time
	IsArchived  *bool
}

// Update は目標の基本情報を更新する。
// 目標値が変わると達成率の解釈が変わるため、更新後に進捗を再計算する。
func (s *Service) Update(ctx context.Context, goalID string, input UpdateInput) (*model.Goal, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, model.NewInvalidInputError("目標タイトルが空です")
		}
		goal.Title = *input.Title
	}
	targetChanged := false
	if input.TargetValue != nil {
		if *input.TargetValue <= 0 {
			return nil, model.NewInvalidInputError("目標値は0より大きい値で指定してください")
		}
		targetChanged = goal.TargetValue != *input.TargetValue
		goal.TargetValue = *input.TargetValue
	}
	if input.EndDate != nil {
		if input.EndDate.Before(goal.StartDate) {
			return nil, model.NewInvalidInputError("終了日は開始日より後で指定してください")
		}
		goal.EndDate = input.EndDate
	}
	if input.IsArchived != nil {
		goal.IsArchived = *input.IsArchived
	}
	goal.UpdatedAt = time.Now()

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}

	if targetChanged {
		if err := s.recomputer.Recompute(ctx, goalID); err != nil {
			s.logger.Error("目標進捗の再計算に失敗しました",
				slog.String("goal_id", goalID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("目標を更新しました",
		slog.String("goal_id", goalID),
		slog.Bool("is_archived", goal.IsArchived),
	)
	return goal, nil
}

// FindByID は指定IDの目標を返す。
func (s *Service) FindByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	return goal, nil
}

// List は目標の一覧を返す。
func (s *Service) List(ctx context.Context, includeArchived bool) ([]*model.Goal, error) {
	return s.goalRepo.List(ctx, includeArchived)
}

// Delete は目標と所有コレクションを削除する。
// 書籍・セッション・リポジトリ・統計ログはデータベースのCASCADEで削除される。
func (s *Service) Delete(ctx context.Context, goalID string) error {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return model.NewGoalNotFoundError(goalID)
	}

	if err := s.goalRepo.DeleteByID(ctx, goalID); err != nil {
		return err
	}

	s.logger.Info("目標を削除しました",
		slog.String("goal_id", goalID),
		slog.String("title", goal.Title),
	)
	return nil
}

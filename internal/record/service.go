// Package record は自己ベスト記録の管理を提供する。
package record

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

// Service は自己ベスト記録の登録と一覧を提供する。
// 目標・種目・カテゴリの組につき記録は最大1件で、より良い記録のみが置き換える。
type Service struct {
	recordRepo repository.RecordRepository
	goalRepo   repository.GoalRepository
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	recordRepo repository.RecordRepository,
	goalRepo repository.GoalRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		recordRepo: recordRepo,
		goalRepo:   goalRepo,
		logger:     logger,
	}
}

// SubmitInput は記録提出の入力を表す。
type SubmitInput struct {
	Exercise     string
	Category     model.RecordCategory
	Value        float64
	Unit         string
	AchievedDate time.Time
}

// SubmitResult は記録提出の結果を表す。
type SubmitResult struct {
	Record *model.PersonalRecord
	// Improved は提出値が既存記録を更新した（または初回記録だった）場合に真。
	Improved bool
}

// Submit は記録を提出する。既存記録が無ければ新規作成し、
// 既存より良い値であれば前回値を保持したうえで置き換える。
// 既存以下の値は無視される（エラーにはしない）。
func (s *Service) Submit(ctx context.Context, goalID string, input SubmitInput) (*SubmitResult, error) {
	exercise := strings.TrimSpace(input.Exercise)
	if exercise == "" {
		return nil, model.NewInvalidInputError("種目名が空です")
	}
	switch input.Category {
	case model.RecordCategoryTime, model.RecordCategoryStrength, model.RecordCategoryDistance:
	default:
		return nil, model.NewInvalidInputError(fmt.Sprintf("不明な記録カテゴリ: %s", input.Category))
	}
	if input.Value <= 0 {
		return nil, model.NewInvalidInputError("記録値は0より大きい値で指定してください")
	}

	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeFitness {
		return nil, model.NewInvalidInputError("自己ベスト記録はフィットネス目標にのみ登録できます")
	}

	existing, err := s.recordRepo.FindByExercise(ctx, goalID, exercise, input.Category)
	if err != nil {
		return nil, fmt.Errorf("既存記録の取得に失敗: %w", err)
	}

	now := time.Now()
	if existing == nil {
		rec := &model.PersonalRecord{
			ID:           uuid.New().String(),
			GoalID:       goalID,
			Exercise:     exercise,
			Category:     input.Category,
			Value:        input.Value,
			Unit:         input.Unit,
			AchievedDate: input.AchievedDate,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.recordRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		s.logger.Info("自己ベストを初回登録しました",
			slog.String("goal_id", goalID),
			slog.String("exercise", exercise),
			slog.Float64("value", input.Value),
		)
		return &SubmitResult{Record: rec, Improved: true}, nil
	}

	if !input.Category.IsImprovement(input.Value, existing.Value) {
		return &SubmitResult{Record: existing, Improved: false}, nil
	}

	previous := existing.Value
	existing.PreviousValue = &previous
	existing.Value = input.Value
	existing.Unit = input.Unit
	existing.AchievedDate = input.AchievedDate
	existing.UpdatedAt = now
	if err := s.recordRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("自己ベストを更新しました",
		slog.String("goal_id", goalID),
		slog.String("exercise", exercise),
		slog.Float64("value", input.Value),
		slog.Float64("previous_value", previous),
	)
	return &SubmitResult{Record: existing, Improved: true}, nil
}

// List は目標の自己ベスト記録を種目昇順で返す。
func (s *Service) List(ctx context.Context, goalID string) ([]*model.PersonalRecord, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	return s.recordRepo.ListByGoalID(ctx, goalID)
}

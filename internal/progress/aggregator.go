// Package progress は目標の進捗集計を提供する。
// 進捗の数値は目標種別ごとの計算機がイベントログから導出し、
// 目標レコードのcurrent_valueに書き戻される。
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/goaltrack/internal/metrics"
	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// calculator は単一の目標種別のcurrent_valueを計算する。
type calculator func(ctx context.Context, goalID string) (float64, error)

// Aggregator は目標種別ごとの進捗計算機を束ね、再計算を冪等に適用する。
// 計算機の集合は閉じており、未知の目標種別はエラーになる。
type Aggregator struct {
	goalRepo    repository.GoalRepository
	calculators map[model.GoalType]calculator
	logger      *slog.Logger
	metrics     metrics.SyncRecorder
}

// NewAggregator はAggregatorの新しいインスタンスを生成する。
func NewAggregator(
	goalRepo repository.GoalRepository,
	bookRepo repository.BookRepository,
	trainingRepo repository.TrainingRepository,
	githubRepo repository.GitHubRepoRepository,
	logger *slog.Logger,
	recorder metrics.SyncRecorder,
) *Aggregator {
	a := &Aggregator{
		goalRepo: goalRepo,
		logger:   logger,
		metrics:  recorder,
	}
	a.calculators = map[model.GoalType]calculator{
		// 読書: 読了済み書籍数
		model.GoalTypeReading: func(ctx context.Context, goalID string) (float64, error) {
			count, err := bookRepo.CountCompletedByGoalID(ctx, goalID)
			return float64(count), err
		},
		// フィットネス: トレーニングセッション数
		model.GoalTypeFitness: func(ctx context.Context, goalID string) (float64, error) {
			count, err := trainingRepo.CountByGoalID(ctx, goalID)
			return float64(count), err
		},
		// プログラミング: 全リポジトリの総コミット数
		model.GoalTypeProgramming: func(ctx context.Context, goalID string) (float64, error) {
			count, err := githubRepo.SumCommitsByGoalID(ctx, goalID)
			return float64(count), err
		},
	}
	return a
}

// Recompute は目標のcurrent_valueをイベントログから再計算して書き戻す。
// 同一のログ状態に対して何度呼んでも結果は変わらない（冪等）。
func (a *Aggregator) Recompute(ctx context.Context, goalID string) error {
	goal, err := a.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return model.NewGoalNotFoundError(goalID)
	}

	calc, ok := a.calculators[goal.GoalType]
	if !ok {
		return fmt.Errorf("未知の目標種別: %s", goal.GoalType)
	}

	value, err := calc(ctx, goalID)
	if err != nil {
		return fmt.Errorf("進捗値の計算に失敗: %w", err)
	}

	if err := a.goalRepo.UpdateProgress(ctx, goalID, value, time.Now()); err != nil {
		return fmt.Errorf("進捗値の書き戻しに失敗: %w", err)
	}

	a.metrics.RecordProgressRecompute(string(goal.GoalType))
	a.logger.Debug("目標進捗を再計算しました",
		slog.String("goal_id", goalID),
		slog.String("goal_type", string(goal.GoalType)),
		slog.Float64("current_value", value),
	)
	return nil
}

// Package fitness はフィットネス目標の分析機能を提供する。
package fitness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/repository"
)

// ProgressRecomputer は目標進捗の再計算インターフェース。
type ProgressRecomputer interface {
	Recompute(ctx context.Context, goalID string) error
}

// Service はトレーニングログの追記とフィットネス分析の読み出しを提供する。
type Service struct {
	trainingRepo repository.TrainingRepository
	goalRepo     repository.GoalRepository
	recomputer   ProgressRecomputer
	logger       *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	trainingRepo repository.TrainingRepository,
	goalRepo repository.GoalRepository,
	recomputer ProgressRecomputer,
	logger *slog.Logger,
) *Service {
	return &Service{
		trainingRepo: trainingRepo,
		goalRepo:     goalRepo,
		recomputer:   recomputer,
		logger:       logger,
	}
}

// LogSessionInput はトレーニングセッション記録の入力を表す。
type LogSessionInput struct {
	WorkoutType     model.WorkoutType
	Date            time.Time
	DurationMinutes int
	Distance        *float64
	DistanceUnit    model.DistanceUnit
	PaceSecPerKm    *int
	WorkoutIntent   model.WorkoutIntent
	Notes           string
}

// LogSession はトレーニングセッションを追記し、目標進捗を再計算する。
// セッションは作成後不変。
func (s *Service) LogSession(ctx context.Context, goalID string, input LogSessionInput) (*model.TrainingSession, error) {
	if input.DurationMinutes <= 0 {
		return nil, model.NewInvalidInputError("トレーニング時間は1分以上で指定してください")
	}
	if input.Distance != nil && *input.Distance <= 0 {
		return nil, model.NewInvalidInputError("距離は正の値で指定してください")
	}
	if input.Distance != nil && input.DistanceUnit == "" {
		return nil, model.NewInvalidInputError("距離を記録する場合は単位を指定してください")
	}

	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeFitness {
		return nil, model.NewInvalidInputError("トレーニングセッションはフィットネス目標にのみ記録できます")
	}

	session := &model.TrainingSession{
		ID:              uuid.New().String(),
		GoalID:          goalID,
		WorkoutType:     input.WorkoutType,
		Date:            input.Date,
		DurationMinutes: input.DurationMinutes,
		Distance:        input.Distance,
		DistanceUnit:    input.DistanceUnit,
		PaceSecPerKm:    input.PaceSecPerKm,
		WorkoutIntent:   input.WorkoutIntent,
		Notes:           input.Notes,
		CreatedAt:       time.Now(),
	}
	if err := s.trainingRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	// セッション数が進捗のソースであるため、追記後に再計算する
	if err := s.recomputer.Recompute(ctx, goalID); err != nil {
		s.logger.Error("目標進捗の再計算に失敗しました",
			slog.String("goal_id", goalID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("トレーニングセッションを記録しました",
		slog.String("goal_id", goalID),
		slog.String("workout_type", string(input.WorkoutType)),
		slog.Int("duration_minutes", input.DurationMinutes),
	)
	return session, nil
}

// GoalAnalytics はフィットネス目標の分析結果を表す。
type GoalAnalytics struct {
	RecentPaceSecPerKm   *int
	WeeklyMileage        []WeekBucket
	AverageWeeklyMileage float64
	TrainingPhase        model.TrainingPhase
	Prediction           *RacePrediction // フィットネス設定がレース情報を持つ場合のみ
}

// Analytics はフィットネス目標の分析値をイベントログから計算して返す。
func (s *Service) Analytics(ctx context.Context, goalID string) (*GoalAnalytics, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}

	sessions, err := s.trainingRepo.ListByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	buckets := WeeklyMileage(sessions, now, defaultMileageWeeks)
	analytics := &GoalAnalytics{
		RecentPaceSecPerKm:   RecentPace(sessions),
		WeeklyMileage:        buckets,
		AverageWeeklyMileage: AverageWeeklyMileage(buckets),
	}

	config, err := s.goalRepo.FindFitnessConfig(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if config != nil {
		analytics.TrainingPhase = config.TrainingPhase
		if config.RaceType != nil || config.CustomRaceDistanceKm != nil {
			prediction := PredictRaceFinish(config, analytics.RecentPaceSecPerKm)
			analytics.Prediction = &prediction
		}
	}

	return analytics, nil
}

// UpdateConfigInput はフィットネス設定更新の入力を表す。
type UpdateConfigInput struct {
	Subtype              model.FitnessSubtype
	TargetPaceSecPerKm   *int
	RaceType             *model.RaceType
	RaceDate             *time.Time
	CustomRaceDistanceKm *float64
	WeeklyMileageTarget  *float64
	TrainingPhase        model.TrainingPhase
}

// UpsertConfig はフィットネス設定を作成または更新する。
// トレーニング期は運用者が手動で設定するラベルであり、自動遷移しない。
func (s *Service) UpsertConfig(ctx context.Context, goalID string, input UpdateConfigInput) (*model.FitnessGoalConfig, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeFitness {
		return nil, model.NewInvalidInputError("フィットネス設定はフィットネス目標にのみ適用できます")
	}
	if input.TargetPaceSecPerKm != nil && *input.TargetPaceSecPerKm <= 0 {
		return nil, model.NewInvalidInputError("目標ペースは正の値で指定してください")
	}

	now := time.Now()
	phase := input.TrainingPhase
	if phase == "" {
		phase = model.TrainingPhaseBase
	}
	config := &model.FitnessGoalConfig{
		ID:                   uuid.New().String(),
		GoalID:               goalID,
		Subtype:              input.Subtype,
		TargetPaceSecPerKm:   input.TargetPaceSecPerKm,
		RaceType:             input.RaceType,
		RaceDate:             input.RaceDate,
		CustomRaceDistanceKm: input.CustomRaceDistanceKm,
		WeeklyMileageTarget:  input.WeeklyMileageTarget,
		TrainingPhase:        phase,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.goalRepo.UpsertFitnessConfig(ctx, config); err != nil {
		return nil, err
	}
	return config, nil
}

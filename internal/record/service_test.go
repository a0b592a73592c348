package record

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// --- モック ---

type mockRecordRepo struct {
	findByExerciseFn func(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error)
	createFn         func(ctx context.Context, record *model.PersonalRecord) error
	updateFn         func(ctx context.Context, record *model.PersonalRecord) error
}

func (m *mockRecordRepo) FindByExercise(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
	return m.findByExerciseFn(ctx, goalID, exercise, category)
}
func (m *mockRecordRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.PersonalRecord, error) {
	return nil, nil
}
func (m *mockRecordRepo) Create(ctx context.Context, record *model.PersonalRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return nil
}
func (m *mockRecordRepo) Update(ctx context.Context, record *model.PersonalRecord) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, record)
	}
	return nil
}

type mockGoalRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Goal, error)
}

func (m *mockGoalRepo) FindByID(ctx context.Context, id string) (*model.Goal, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Goal{ID: id, GoalType: model.GoalTypeFitness}, nil
}
func (m *mockGoalRepo) List(ctx context.Context, includeArchived bool) ([]*model.Goal, error) {
	return nil, nil
}
func (m *mockGoalRepo) Create(ctx context.Context, goal *model.Goal) error { return nil }
func (m *mockGoalRepo) Update(ctx context.Context, goal *model.Goal) error { return nil }
func (m *mockGoalRepo) UpdateProgress(ctx context.Context, id string, currentValue float64, updatedAt time.Time) error {
	return nil
}
func (m *mockGoalRepo) DeleteByID(ctx context.Context, id string) error { return nil }
func (m *mockGoalRepo) FindFitnessConfig(ctx context.Context, goalID string) (*model.FitnessGoalConfig, error) {
	return nil, nil
}
func (m *mockGoalRepo) UpsertFitnessConfig(ctx context.Context, config *model.FitnessGoalConfig) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

// TestService_Submit_FirstRecord は初回記録の新規作成を検証する。
func TestService_Submit_FirstRecord(t *testing.T) {
	var created *model.PersonalRecord
	recordRepo := &mockRecordRepo{
		findByExerciseFn: func(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, record *model.PersonalRecord) error {
			created = record
			return nil
		},
	}
	svc := NewService(recordRepo, &mockGoalRepo{}, testLogger())

	result, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise:     "5K",
		Category:     model.RecordCategoryTime,
		Value:        1500,
		Unit:         "sec",
		AchievedDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !result.Improved {
		t.Error("初回記録はImproved=trueであるべき")
	}
	if created == nil {
		t.Fatal("Createが呼ばれていない")
	}
	if created.PreviousValue != nil {
		t.Error("初回記録のPreviousValueはnilであるべき")
	}
}

// TestService_Submit_TimeImprovement はタイム系記録の更新（小さいほど良い）を検証する。
func TestService_Submit_TimeImprovement(t *testing.T) {
	existing := &model.PersonalRecord{
		ID:       "rec-1",
		GoalID:   "goal-1",
		Exercise: "5K",
		Category: model.RecordCategoryTime,
		Value:    1500,
		Unit:     "sec",
	}
	var updated *model.PersonalRecord
	recordRepo := &mockRecordRepo{
		findByExerciseFn: func(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, record *model.PersonalRecord) error {
			updated = record
			return nil
		},
	}
	svc := NewService(recordRepo, &mockGoalRepo{}, testLogger())

	result, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise: "5K",
		Category: model.RecordCategoryTime,
		Value:    1450,
		Unit:     "sec",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !result.Improved {
		t.Error("短縮タイムはImproved=trueであるべき")
	}
	if updated == nil {
		t.Fatal("Updateが呼ばれていない")
	}
	if updated.Value != 1450 {
		t.Errorf("更新後の値が一致しない: got=%f, want=1450", updated.Value)
	}
	if updated.PreviousValue == nil || *updated.PreviousValue != 1500 {
		t.Errorf("前回値が保持されていない: got=%v, want=1500", updated.PreviousValue)
	}
}

// TestService_Submit_TimeWorse はタイム系で遅い記録が無視されることを検証する。
func TestService_Submit_TimeWorse(t *testing.T) {
	existing := &model.PersonalRecord{
		ID:       "rec-1",
		Category: model.RecordCategoryTime,
		Value:    1500,
	}
	recordRepo := &mockRecordRepo{
		findByExerciseFn: func(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, record *model.PersonalRecord) error {
			t.Error("悪い記録でUpdateが呼ばれてはならない")
			return nil
		},
	}
	svc := NewService(recordRepo, &mockGoalRepo{}, testLogger())

	result, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise: "5K",
		Category: model.RecordCategoryTime,
		Value:    1600,
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if result.Improved {
		t.Error("遅いタイムはImproved=falseであるべき")
	}
	if result.Record.Value != 1500 {
		t.Errorf("既存記録が維持されるべき: got=%f", result.Record.Value)
	}
}

// TestService_Submit_StrengthImprovement は筋力系記録の更新（大きいほど良い）を検証する。
func TestService_Submit_StrengthImprovement(t *testing.T) {
	existing := &model.PersonalRecord{
		ID:       "rec-1",
		Category: model.RecordCategoryStrength,
		Value:    80,
	}
	var updated *model.PersonalRecord
	recordRepo := &mockRecordRepo{
		findByExerciseFn: func(ctx context.Context, goalID, exercise string, category model.RecordCategory) (*model.PersonalRecord, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, record *model.PersonalRecord) error {
			updated = record
			return nil
		},
	}
	svc := NewService(recordRepo, &mockGoalRepo{}, testLogger())

	result, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise: "bench press",
		Category: model.RecordCategoryStrength,
		Value:    85,
		Unit:     "kg",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !result.Improved || updated == nil || updated.Value != 85 {
		t.Errorf("重い重量は記録を更新すべき: improved=%v", result.Improved)
	}
}

// TestService_Submit_WrongGoalType は読書目標への登録を拒否することを検証する。
func TestService_Submit_WrongGoalType(t *testing.T) {
	goalRepo := &mockGoalRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Goal, error) {
			return &model.Goal{ID: id, GoalType: model.GoalTypeReading}, nil
		},
	}
	svc := NewService(&mockRecordRepo{}, goalRepo, testLogger())

	_, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise: "5K",
		Category: model.RecordCategoryTime,
		Value:    1500,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInput {
		t.Errorf("INVALID_INPUTエラーを期待: got=%v", err)
	}
}

// TestService_Submit_InvalidValue は0以下の記録値を拒否することを検証する。
func TestService_Submit_InvalidValue(t *testing.T) {
	svc := NewService(&mockRecordRepo{}, &mockGoalRepo{}, testLogger())

	_, err := svc.Submit(context.Background(), "goal-1", SubmitInput{
		Exercise: "5K",
		Category: model.RecordCategoryTime,
		Value:    0,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInput {
		t.Errorf("INVALID_INPUTエラーを期待: got=%v", err)
	}
}

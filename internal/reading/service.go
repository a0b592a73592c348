// Package reading は読書目標の分析機能を提供する。
package reading

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
// 所有コレクションの変更後に呼び出される。
type ProgressRecomputer interface {
	Recompute(ctx context.Context, goalID string) error
}

// ContentSanitizer はHTMLサニタイズのインターフェース。
// 書籍メタデータプロバイダの説明文は未サニタイズのHTMLを含むことがある。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// Service は書籍の登録・読書ログの追記・分析の読み出しを提供する。
type Service struct {
	bookRepo   repository.BookRepository
	goalRepo   repository.GoalRepository
	recomputer ProgressRecomputer
	sanitizer  ContentSanitizer
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	bookRepo repository.BookRepository,
	goalRepo repository.GoalRepository,
	recomputer ProgressRecomputer,
	sanitizer ContentSanitizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		bookRepo:   bookRepo,
		goalRepo:   goalRepo,
		recomputer: recomputer,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// AddBookInput は書籍追加の入力を表す。
type AddBookInput struct {
	Title       string
	Authors     []string
	ISBN10      string
	ISBN13      string
	CoverURL    string
	Description string
	TotalPages  *int
}

// AddBook は読書目標に書籍を追加する。
// 説明文はサニタイズしてから保存する。
func (s *Service) AddBook(ctx context.Context, goalID string, input AddBookInput) (*model.Book, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewInvalidInputError("書籍タイトルが空です")
	}

	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("目標の取得に失敗: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	if goal.GoalType != model.GoalTypeReading {
		return nil, model.NewInvalidInputError("書籍は読書目標にのみ追加できます")
	}

	now := time.Now()
	book := &model.Book{
		ID:          uuid.New().String(),
		GoalID:      goalID,
		Title:       input.Title,
		Authors:     strings.Join(input.Authors, ", "),
		ISBN10:      input.ISBN10,
		ISBN13:      input.ISBN13,
		CoverURL:    input.CoverURL,
		Description: s.sanitizer.Sanitize(input.Description),
		TotalPages:  input.TotalPages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("書籍を追加しました",
		slog.String("goal_id", goalID),
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
	)
	return book, nil
}

// LogSession は読書セッションを追記し、書籍の派生フィールドを更新して
// 目標進捗を再計算する。セッション自体は作成後不変。
func (s *Service) LogSession(ctx context.Context, bookID string, pagesRead, durationMinutes int, date time.Time) (*model.ReadingSession, error) {
	if pagesRead <= 0 {
		return nil, model.NewInvalidInputError("読了ページ数は1以上で指定してください")
	}
	if durationMinutes < 0 {
		return nil, model.NewInvalidInputError("読書時間は0以上で指定してください")
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	now := time.Now()
	session := &model.ReadingSession{
		ID:              uuid.New().String(),
		BookID:          bookID,
		PagesRead:       pagesRead,
		DurationMinutes: durationMinutes,
		Date:            date,
		CreatedAt:       now,
	}
	if err := s.bookRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	// 派生フィールドの更新: currentPage、startedAt、isCompleted
	book.CurrentPage += pagesRead
	if book.StartedAt == nil {
		started := date
		book.StartedAt = &started
	}
	if book.TotalPages != nil && *book.TotalPages > 0 && book.CurrentPage >= *book.TotalPages {
		book.CurrentPage = *book.TotalPages
		if !book.IsCompleted {
			book.IsCompleted = true
			completed := date
			book.CompletedAt = &completed
		}
	}
	book.UpdatedAt = now

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	// 読了数が進捗のソースであるため、所有コレクション変更後に再計算する
	if err := s.recomputer.Recompute(ctx, book.GoalID); err != nil {
		s.logger.Error("目標進捗の再計算に失敗しました",
			slog.String("goal_id", book.GoalID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("読書セッションを記録しました",
		slog.String("book_id", bookID),
		slog.Int("pages_read", pagesRead),
		slog.Int("current_page", book.CurrentPage),
		slog.Bool("is_completed", book.IsCompleted),
	)
	return session, nil
}

// GetBook は書籍を取得する。
func (s *Service) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return book, nil
}

// BookAnalytics は書籍の分析結果を表す。
type BookAnalytics struct {
	Progress                float64
	AveragePagesPerDay      float64
	EstimatedDaysToComplete *int
	Streak                  int
}

// Analytics は書籍の分析値をイベントログから計算して返す。
// 分析値は永続化されない（オンデマンド計算）。
func (s *Service) Analytics(ctx context.Context, bookID string) (*BookAnalytics, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	sessions, err := s.bookRepo.ListSessionsByBookID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &BookAnalytics{
		Progress:                Progress(book),
		AveragePagesPerDay:      AveragePagesPerDay(book, now),
		EstimatedDaysToComplete: EstimatedDaysToComplete(book, now),
		Streak:                  Streak(sessions, now),
	}, nil
}

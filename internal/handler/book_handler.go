package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/goaltrack/internal/model"
	"github.com/hitoshi/goaltrack/internal/reading"
)

// ReadingServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type ReadingServiceInterface interface {
	AddBook(ctx context.Context, goalID string, input reading.AddBookInput) (*model.Book, error)
	LogSession(ctx context.Context, bookID string, pagesRead, durationMinutes int, date time.Time) (*model.ReadingSession, error)
	GetBook(ctx context.Context, bookID string) (*model.Book, error)
	Analytics(ctx context.Context, bookID string) (*reading.BookAnalytics, error)
}

// BookSearcher は書籍メタデータプロバイダの検索インターフェース。
type BookSearcher interface {
	Search(ctx context.Context, query string) ([]model.BookSearchResult, error)
	FetchCover(ctx context.Context, coverURL string) ([]byte, string, error)
}

// BookHandler は書籍・読書セッションのHTTPハンドラー。
type BookHandler struct {
	service  ReadingServiceInterface
	searcher BookSearcher
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service ReadingServiceInterface, searcher BookSearcher) *BookHandler {
	return &BookHandler{
		service:  service,
		searcher: searcher,
	}
}

// addBookRequest は書籍追加リクエストのボディ。
type addBookRequest struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	ISBN10      string   `json:"isbn_10"`
	ISBN13      string   `json:"isbn_13"`
	CoverURL    string   `json:"cover_url"`
	Description string   `json:"description"`
	TotalPages  *int     `json:"total_pages"`
}

// logReadingSessionRequest は読書セッション記録リクエストのボディ。
type logReadingSessionRequest struct {
	PagesRead       int    `json:"pages_read"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
}

// bookResponse は書籍情報のAPIレスポンス。
type bookResponse struct {
	ID          string  `json:"id"`
	GoalID      string  `json:"goal_id"`
	Title       string  `json:"title"`
	Authors     string  `json:"authors"`
	ISBN10      string  `json:"isbn_10,omitempty"`
	ISBN13      string  `json:"isbn_13,omitempty"`
	CoverURL    string  `json:"cover_url,omitempty"`
	Description string  `json:"description,omitempty"`
	TotalPages  *int    `json:"total_pages,omitempty"`
	CurrentPage int     `json:"current_page"`
	IsCompleted bool    `json:"is_completed"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// readingSessionResponse は読書セッションのAPIレスポンス。
type readingSessionResponse struct {
	ID              string `json:"id"`
	BookID          string `json:"book_id"`
	PagesRead       int    `json:"pages_read"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
}

// bookAnalyticsResponse は書籍分析のAPIレスポンス。
type bookAnalyticsResponse struct {
	Progress                float64 `json:"progress"`
	AveragePagesPerDay      float64 `json:"average_pages_per_day"`
	EstimatedDaysToComplete *int    `json:"estimated_days_to_complete"`
	Streak                  int     `json:"streak"`
}

// bookSearchResultResponse は書籍検索結果のAPIレスポンス。
type bookSearchResultResponse struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	ISBN10      string   `json:"isbn_10,omitempty"`
	ISBN13      string   `json:"isbn_13,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	PageCount   *int     `json:"page_count,omitempty"`
	Description string   `json:"description,omitempty"`
}

// AddBook は読書目標への書籍追加を処理する。
// POST /api/goals/:id/books
func (h *BookHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req addBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	book, err := h.service.AddBook(r.Context(), goalID, reading.AddBookInput{
		Title:       req.Title,
		Authors:     req.Authors,
		ISBN10:      req.ISBN10,
		ISBN13:      req.ISBN13,
		CoverURL:    req.CoverURL,
		Description: req.Description,
		TotalPages:  req.TotalPages,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(book))
}

// LogSession は読書セッションの記録を処理する。
// POST /api/books/:id/sessions
func (h *BookHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	var req logReadingSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	date := time.Now()
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("日付の形式が不正です"))
			return
		}
		date = t
	}

	session, err := h.service.LogSession(r.Context(), bookID, req.PagesRead, req.DurationMinutes, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, readingSessionResponse{
		ID:              session.ID,
		BookID:          session.BookID,
		PagesRead:       session.PagesRead,
		DurationMinutes: session.DurationMinutes,
		Date:            session.Date.Format(time.RFC3339),
	})
}

// Analytics は書籍の分析値を取得する。
// GET /api/books/:id/analytics
func (h *BookHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	a, err := h.service.Analytics(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookAnalyticsResponse{
		Progress:                a.Progress,
		AveragePagesPerDay:      a.AveragePagesPerDay,
		EstimatedDaysToComplete: a.EstimatedDaysToComplete,
		Streak:                  a.Streak,
	})
}

// Search は書籍メタデータプロバイダの検索を中継する。
// GET /api/books/search?q=
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("検索クエリが空です"))
		return
	}

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]bookSearchResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, bookSearchResultResponse{
			Title:       res.Title,
			Authors:     res.Authors,
			ISBN10:      res.ISBN10,
			ISBN13:      res.ISBN13,
			CoverURL:    res.CoverURL,
			PageCount:   res.PageCount,
			Description: res.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Cover は書籍の表紙画像をSSRFガード経由で取得して返す。
// GET /api/books/:id/cover
func (h *BookHandler) Cover(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if book.CoverURL == "" {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "COVER_NOT_FOUND",
			Message:  "この書籍には表紙画像が登録されていません。",
			Category: "validation",
			Action:   "表紙URL付きで書籍を登録してください。",
		})
		return
	}

	data, contentType, err := h.searcher.FetchCover(r.Context(), book.CoverURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// toBookResponse はmodel.BookからAPIレスポンスに変換する。
func toBookResponse(b *model.Book) bookResponse {
	resp := bookResponse{
		ID:          b.ID,
		GoalID:      b.GoalID,
		Title:       b.Title,
		Authors:     b.Authors,
		ISBN10:      b.ISBN10,
		ISBN13:      b.ISBN13,
		CoverURL:    b.CoverURL,
		Description: b.Description,
		TotalPages:  b.TotalPages,
		CurrentPage: b.CurrentPage,
		IsCompleted: b.IsCompleted,
	}
	if b.StartedAt != nil {
		s := b.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if b.CompletedAt != nil {
		s := b.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/goaltrack/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

const bookColumns = `id, goal_id, title, authors, isbn13, isbn10, cover_url,
		description, total_pages, current_page, is_completed,
		started_at, completed_at, created_at, updated_at`

// scanBook は1行分の書籍をスキャンする。
func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	book := &model.Book{}
	var isbn13, isbn10, coverURL sql.NullString
	var totalPages sql.NullInt64
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&book.ID, &book.GoalID, &book.Title, &book.Authors, &isbn13, &isbn10, &coverURL,
		&book.Description, &totalPages, &book.CurrentPage, &book.IsCompleted,
		&startedAt, &completedAt, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.ISBN13 = nullStringValue(isbn13)
	book.ISBN10 = nullStringValue(isbn10)
	book.CoverURL = nullStringValue(coverURL)
	if totalPages.Valid {
		v := int(totalPages.Int64)
		book.TotalPages = &v
	}
	if startedAt.Valid {
		t := startedAt.Time
		book.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		book.CompletedAt = &t
	}
	return book, nil
}

// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}
	return book, nil
}

// ListByGoalID は目標の書籍一覧をcreated_at昇順で返す。
func (r *PostgresBookRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE goal_id = $1 ORDER BY created_at ASC`,
		goalID)
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("書籍のスキャンに失敗しました: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("書籍一覧の走査に失敗しました: %w", err)
	}
	return books, nil
}

// Create は書籍を作成する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, goal_id, title, authors, isbn13, isbn10, cover_url,
		                    description, total_pages, current_page, is_completed,
		                    started_at, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		book.ID, book.GoalID, book.Title, book.Authors,
		nullString(book.ISBN13), nullString(book.ISBN10), nullString(book.CoverURL),
		book.Description, book.TotalPages, book.CurrentPage, book.IsCompleted,
		book.StartedAt, book.CompletedAt, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("書籍の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は書籍を更新する。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET
		    title = $2, authors = $3, isbn13 = $4, isbn10 = $5, cover_url = $6,
		    description = $7, total_pages = $8, current_page = $9, is_completed = $10,
		    started_at = $11, completed_at = $12, updated_at = $13
		 WHERE id = $1`,
		book.ID, book.Title, book.Authors,
		nullString(book.ISBN13), nullString(book.ISBN10), nullString(book.CoverURL),
		book.Description, book.TotalPages, book.CurrentPage, book.IsCompleted,
		book.StartedAt, book.CompletedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("書籍の更新に失敗しました: %w", err)
	}
	return nil
}

// CountCompletedByGoalID は目標内の読了済み書籍数を返す。
func (r *PostgresBookRepo) CountCompletedByGoalID(ctx context.Context, goalID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE goal_id = $1 AND is_completed = TRUE`,
		goalID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("読了済み書籍数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CreateSession は読書セッションを追記する。
func (r *PostgresBookRepo) CreateSession(ctx context.Context, session *model.ReadingSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reading_sessions (id, book_id, pages_read, duration_minutes, date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.BookID, session.PagesRead, session.DurationMinutes,
		session.Date, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("読書セッションの追記に失敗しました: %w", err)
	}
	return nil
}

// ListSessionsByBookID は書籍の読書セッションをdate降順で返す。
func (r *PostgresBookRepo) ListSessionsByBookID(ctx context.Context, bookID string) ([]model.ReadingSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, pages_read, duration_minutes, date, created_at
		 FROM reading_sessions WHERE book_id = $1 ORDER BY date DESC`,
		bookID)
	if err != nil {
		return nil, fmt.Errorf("読書セッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []model.ReadingSession
	for rows.Next() {
		var s model.ReadingSession
		if err := rows.Scan(&s.ID, &s.BookID, &s.PagesRead, &s.DurationMinutes, &s.Date, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("読書セッションのスキャンに失敗しました: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("読書セッション一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// Package books は書籍メタデータプロバイダのクライアントを提供する。
// タイトル・著者・ISBNによる検索と表紙画像の取得を担う。
package books

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

const (
	// defaultEndpoint はGoogle Books Volumes APIのエンドポイント。
	defaultEndpoint = "https://www.googleapis.com/books/v1/volumes"
	// defaultMaxResults は検索結果の最大件数。
	defaultMaxResults = 20
	// coverFetchTimeout は表紙画像取得のタイムアウト。
	coverFetchTimeout = 10 * time.Second
	// maxCoverSize は表紙画像の最大サイズ（2MB）。
	maxCoverSize = 2 * 1024 * 1024
)

// SSRFValidator はSSRF検証のインターフェース。
// 表紙画像URLは外部入力であるため、取得前に検証する。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// ContentSanitizer はHTMLサニタイズのインターフェース。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// Client は書籍メタデータプロバイダのクライアント。
type Client struct {
	httpClient   *http.Client
	ssrfGuard    SSRFValidator
	sanitizer    ContentSanitizer
	logger       *slog.Logger
	endpoint     string // テスト用にエンドポイントを差し替え可能
	coverTimeout time.Duration
	coverMaxSize int64
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, ssrfGuard SSRFValidator, sanitizer ContentSanitizer, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		ssrfGuard:    ssrfGuard,
		sanitizer:    sanitizer,
		logger:       logger,
		endpoint:     defaultEndpoint,
		coverTimeout: coverFetchTimeout,
		coverMaxSize: maxCoverSize,
	}
}

// SetCoverFetchLimits は表紙画像取得のタイムアウトと最大サイズを上書きする。
// 0以下の値は無視してデフォルトを維持する。
func (c *Client) SetCoverFetchLimits(timeout time.Duration, maxSize int64) {
	if timeout > 0 {
		c.coverTimeout = timeout
	}
	if maxSize > 0 {
		c.coverMaxSize = maxSize
	}
}

// volumesResponse は検索APIのレスポンスを表す。
type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search は書籍をキーワードで検索する。
// ISBNらしいクエリ（ハイフン除去後に10桁または13桁の数字）はISBN検索として扱う。
// 説明文はサニタイズ済みの状態で返す。
func (c *Client) Search(ctx context.Context, query string) ([]model.BookSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewInvalidInputError("検索キーワードが空です")
	}

	q := query
	if isbn := normalizeISBN(query); isbn != "" {
		q = "isbn:" + isbn
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	params := reqURL.Query()
	params.Set("q", q)
	params.Set("maxResults", fmt.Sprintf("%d", defaultMaxResults))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("書籍検索APIの呼び出しに失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, model.NewRateLimitedError("Google Books")
	default:
		c.logger.Error("書籍検索APIがエラーステータスを返しました",
			slog.String("query", query),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewNetworkError(fmt.Sprintf("書籍検索APIがステータス %d を返しました", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var volumes volumesResponse
	if err := json.Unmarshal(body, &volumes); err != nil {
		c.logger.Error("書籍検索APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewParsingFailedError("Google Books")
	}

	results := make([]model.BookSearchResult, 0, len(volumes.Items))
	for _, item := range volumes.Items {
		info := item.VolumeInfo
		result := model.BookSearchResult{
			Title:       info.Title,
			Authors:     info.Authors,
			Description: c.sanitizer.Sanitize(info.Description),
			CoverURL:    info.ImageLinks.Thumbnail,
		}
		if info.PageCount > 0 {
			pages := info.PageCount
			result.PageCount = &pages
		}
		for _, id := range info.IndustryIdentifiers {
			switch id.Type {
			case "ISBN_10":
				result.ISBN10 = id.Identifier
			case "ISBN_13":
				result.ISBN13 = id.Identifier
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// FetchCover は表紙画像を取得する。
// URLはSSRF検証を通過したもののみ、SSRF防止機能付きクライアントで取得する。
func (c *Client) FetchCover(ctx context.Context, coverURL string) ([]byte, string, error) {
	if err := c.ssrfGuard.ValidateURL(coverURL); err != nil {
		c.logger.Warn("表紙画像URLのSSRF検証に失敗しました",
			slog.String("cover_url", coverURL),
			slog.String("error", err.Error()),
		)
		return nil, "", model.NewSSRFBlockedError()
	}

	client := c.ssrfGuard.NewSafeClient(c.coverTimeout, c.coverMaxSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", model.NewNetworkError(fmt.Sprintf("表紙画像の取得がステータス %d で失敗しました", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.coverMaxSize))
	if err != nil {
		return nil, "", fmt.Errorf("表紙画像の読み取りに失敗しました: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// normalizeISBN はクエリがISBNらしい場合に正規化して返す。
// ISBNでない場合は空文字を返す。
func normalizeISBN(query string) string {
	cleaned := strings.ReplaceAll(query, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if len(cleaned) != 10 && len(cleaned) != 13 {
		return ""
	}
	for i, r := range cleaned {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10のチェックディジットはXの場合がある
		if len(cleaned) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return ""
	}
	return cleaned
}

package books

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

type mockSSRFGuard struct {
	validateErr error
}

func (m *mockSSRFGuard) ValidateURL(rawURL string) error {
	return m.validateErr
}
func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

type markingSanitizer struct{}

func (markingSanitizer) Sanitize(rawHTML string) string { return "sanitized:" + rawHTML }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL string, sanitizer ContentSanitizer) *Client {
	c := NewClient(&http.Client{Timeout: 5 * time.Second}, &mockSSRFGuard{}, sanitizer, testLogger())
	c.endpoint = serverURL
	return c
}

// TestClient_Search は書籍検索とレスポンス変換を検証する。
func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("クエリが一致しない: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [{
				"volumeInfo": {
					"title": "The Go Programming Language",
					"authors": ["Alan Donovan", "Brian Kernighan"],
					"description": "A book about Go",
					"pageCount": 380,
					"industryIdentifiers": [
						{"type": "ISBN_10", "identifier": "0134190440"},
						{"type": "ISBN_13", "identifier": "9780134190440"}
					],
					"imageLinks": {"thumbnail": "https://example.com/cover.jpg"}
				}
			}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, passthroughSanitizer{})
	results, err := client.Search(context.Background(), "golang")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("結果数が一致しない: got=%d", len(results))
	}
	r := results[0]
	if r.Title != "The Go Programming Language" {
		t.Errorf("タイトルが一致しない: %s", r.Title)
	}
	if len(r.Authors) != 2 {
		t.Errorf("著者数が一致しない: %d", len(r.Authors))
	}
	if r.ISBN10 != "0134190440" || r.ISBN13 != "9780134190440" {
		t.Errorf("ISBNが一致しない: %s / %s", r.ISBN10, r.ISBN13)
	}
	if r.PageCount == nil || *r.PageCount != 380 {
		t.Errorf("ページ数が一致しない: %v", r.PageCount)
	}
}

// TestClient_Search_SanitizesDescription は説明文がサニタイズされることを検証する。
func TestClient_Search_SanitizesDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"volumeInfo": {"title": "T", "description": "<script>x</script>"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, markingSanitizer{})
	results, err := client.Search(context.Background(), "t")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if results[0].Description != "sanitized:<script>x</script>" {
		t.Errorf("説明文がサニタイザを通過していない: %s", results[0].Description)
	}
}

// TestClient_Search_ISBNQuery はISBNらしいクエリがISBN検索になることを検証する。
func TestClient_Search_ISBNQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, passthroughSanitizer{})
	if _, err := client.Search(context.Background(), "978-0-13-419044-0"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if gotQuery != "isbn:9780134190440" {
		t.Errorf("ISBN検索に変換されるべき: got=%s", gotQuery)
	}
}

// TestClient_Search_EmptyQuery は空クエリを拒否することを検証する。
func TestClient_Search_EmptyQuery(t *testing.T) {
	client := newTestClient("http://unused", passthroughSanitizer{})

	_, err := client.Search(context.Background(), "   ")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInput {
		t.Errorf("INVALID_INPUTエラーを期待: got=%v", err)
	}
}

// TestClient_Search_RateLimited は429応答の分類を検証する。
func TestClient_Search_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, passthroughSanitizer{})
	_, err := client.Search(context.Background(), "golang")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRateLimited {
		t.Errorf("RATE_LIMITEDエラーを期待: got=%v", err)
	}
}

// TestClient_FetchCover_SSRFBlocked はSSRF検証失敗時のブロックを検証する。
func TestClient_FetchCover_SSRFBlocked(t *testing.T) {
	client := NewClient(
		&http.Client{},
		&mockSSRFGuard{validateErr: errors.New("blocked IP address")},
		passthroughSanitizer{},
		testLogger(),
	)

	_, _, err := client.FetchCover(context.Background(), "http://169.254.169.254/latest")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSSRFBlocked {
		t.Errorf("SSRF_BLOCKEDエラーを期待: got=%v", err)
	}
}

// TestClient_FetchCover は表紙画像の取得を検証する。
func TestClient_FetchCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	client := NewClient(&http.Client{}, &mockSSRFGuard{}, passthroughSanitizer{}, testLogger())
	data, mime, err := client.FetchCover(context.Background(), server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("画像データが一致しない: %s", data)
	}
	if mime != "image/jpeg" {
		t.Errorf("MIMEタイプが一致しない: %s", mime)
	}
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9780134190440", "9780134190440"},
		{"978-0-13-419044-0", "9780134190440"},
		{"013419044X", "013419044X"},
		{"golang", ""},
		{"12345", ""},
	}
	for _, tt := range tests {
		if got := normalizeISBN(tt.in); got != tt.want {
			t.Errorf("normalizeISBN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

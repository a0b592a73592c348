// Package github はGitHub REST APIのクライアントを提供する。
// リポジトリメタデータと週次コミット統計の取得を担い、
// ステータスコードをドメインのエラーカテゴリに分類する。
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

const (
	// defaultBaseURL はGitHub REST APIのベースURL。
	defaultBaseURL = "https://api.github.com"
	// userAgent はGitHub APIが要求するUser-Agentヘッダ値。
	userAgent = "GoalTrack/1.0"
)

// ErrStatsPending はコミット統計がリモート側で集計中であることを示す。
// GitHubのstatistics系エンドポイントは初回アクセス時に202を返し、
// バックグラウンドで集計が完了するまでボディを返さない。
var ErrStatsPending = fmt.Errorf("コミット統計はリモートで集計中です")

// Client はGitHub REST APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	token      string // 空の場合は未認証アクセス（レート制限が厳しい）
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		token:      token,
		baseURL:    defaultBaseURL,
	}
}

// repositoryResponse は GET /repos/{owner}/{repo} のレスポンスを表す。
type repositoryResponse struct {
	ID              int64  `json:"id"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	Private         bool   `json:"private"`
	DefaultBranch   string `json:"default_branch"`
}

// FetchRepository はリポジトリのメタデータを取得する。
func (c *Client) FetchRepository(ctx context.Context, owner, name string) (*model.RemoteRepository, error) {
	fullName := owner + "/" + name
	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name), fullName)
	if err != nil {
		return nil, err
	}

	var resp repositoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("リポジトリメタデータのパースに失敗しました",
			slog.String("full_name", fullName),
			slog.String("error", err.Error()),
		)
		return nil, model.NewParsingFailedError("GitHub")
	}

	return &model.RemoteRepository{
		RemoteID:      resp.ID,
		FullName:      resp.FullName,
		Description:   resp.Description,
		Language:      resp.Language,
		StarCount:     resp.StargazersCount,
		ForkCount:     resp.ForksCount,
		OpenIssues:    resp.OpenIssuesCount,
		IsPrivate:     resp.Private,
		DefaultBranch: resp.DefaultBranch,
	}, nil
}

// codeFrequencyRow は GET /repos/{owner}/{repo}/stats/code_frequency の
// 1行を表す。[週開始のUNIX秒, 追加行数, 削除行数(負値)] の3要素配列。
type codeFrequencyRow [3]int64

// commitActivityRow は GET /repos/{owner}/{repo}/stats/commit_activity の1行を表す。
type commitActivityRow struct {
	Week  int64 `json:"week"` // 週開始のUNIX秒
	Total int   `json:"total"`
}

// FetchCommitActivity は週次コミット統計を取得する。
// リモート側で統計が集計中（HTTP 202）の場合はErrStatsPendingを返す。
// 呼び出し元がリトライポリシーを適用する。
func (c *Client) FetchCommitActivity(ctx context.Context, owner, name string) ([]model.WeeklyCommits, error) {
	fullName := owner + "/" + name

	activityBody, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/stats/commit_activity", c.baseURL, owner, name), fullName)
	if err != nil {
		return nil, err
	}
	var activity []commitActivityRow
	if err := json.Unmarshal(activityBody, &activity); err != nil {
		c.logger.Error("コミット統計のパースに失敗しました",
			slog.String("full_name", fullName),
			slog.String("error", err.Error()),
		)
		return nil, model.NewParsingFailedError("GitHub")
	}

	freqBody, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/stats/code_frequency", c.baseURL, owner, name), fullName)
	if err != nil {
		return nil, err
	}
	var freq []codeFrequencyRow
	if err := json.Unmarshal(freqBody, &freq); err != nil {
		c.logger.Error("行数統計のパースに失敗しました",
			slog.String("full_name", fullName),
			slog.String("error", err.Error()),
		)
		return nil, model.NewParsingFailedError("GitHub")
	}

	// 行数統計を週開始時刻で引けるようにする
	changes := make(map[int64]codeFrequencyRow, len(freq))
	for _, row := range freq {
		changes[row[0]] = row
	}

	weeks := make([]model.WeeklyCommits, 0, len(activity))
	for _, row := range activity {
		w := model.WeeklyCommits{
			WeekStart:   time.Unix(row.Week, 0).UTC(),
			CommitCount: row.Total,
		}
		if ch, ok := changes[row.Week]; ok {
			w.Additions = int(ch[1])
			// 削除行数は負値で返る
			w.Deletions = int(-ch[2])
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

// get はGETリクエストを実行し、ステータスコードをドメインエラーに分類する。
func (c *Client) get(ctx context.Context, url, fullName string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("GitHub APIの呼び出しに失敗しました",
			slog.String("full_name", fullName),
			slog.String("error", err.Error()),
		)
		return nil, model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusAccepted:
		// statistics系エンドポイントの集計中シグナル
		return nil, ErrStatsPending
	case http.StatusUnauthorized:
		return nil, model.NewUnauthenticatedError("GitHub")
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, model.NewRateLimitedError("GitHub")
	case http.StatusNotFound:
		return nil, model.NewRemoteNotFoundError(fullName)
	default:
		c.logger.Error("GitHub APIがエラーステータスを返しました",
			slog.String("full_name", fullName),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewNetworkError(fmt.Sprintf("GitHub APIがステータス %d を返しました", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, nil
}

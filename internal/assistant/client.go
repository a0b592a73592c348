// Package assistant は目標構造化の提案機能を提供する。
// 自由記述の目標文をテキスト生成プロバイダに渡し、
// 構造化された目標案（種別・目標値・単位）を取得する。
// プロバイダは補助機能であり、失敗は呼び出し元で非致命として扱う。
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultEndpoint はAnthropic Messages APIのエンドポイント。
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	// defaultModel は提案生成に使用するモデル。
	defaultModel = "claude-sonnet-4-20250514"
	// apiVersion はAPIバージョンヘッダの値。
	apiVersion = "2023-06-01"
	// maxTokens は応答の最大トークン数。
	maxTokens = 1024
)

// Suggestion は構造化された目標案を表す。
type Suggestion struct {
	Title       string  `json:"title"`
	GoalType    string  `json:"goal_type"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit"`
	Rationale   string  `json:"rationale"`
}

// Client はテキスト生成プロバイダのクライアント。
// APIキー未設定の場合は無効化された状態で動作し、常にnilを返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      defaultModel,
		endpoint:   defaultEndpoint,
	}
}

// SetModel は提案生成に使用するモデルを上書きする。空文字は無視する。
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Enabled はプロバイダが利用可能かを返す。
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SuggestGoal は自由記述の目標文から構造化された目標案を生成する。
// プロバイダが無効、または生成に失敗した場合はnilを返す（エラーは返さない）。
// 提案は補助情報であり、取得できなくても目標作成は続行できる。
func (c *Client) SuggestGoal(ctx context.Context, description string) *Suggestion {
	if !c.Enabled() {
		return nil
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}

	text, err := c.callAPI(ctx, buildPrompt(description))
	if err != nil {
		c.logger.Warn("目標案の生成に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil
	}

	suggestion, err := parseSuggestion(text)
	if err != nil {
		c.logger.Warn("目標案のパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return suggestion
}

// buildPrompt は提案生成用のプロンプトを構築する。
func buildPrompt(description string) string {
	var sb strings.Builder
	sb.WriteString("次の目標の記述を、計測可能な目標として構造化してください。JSONのみを返してください。\n\n")
	sb.WriteString("記述:\n")
	sb.WriteString(description)
	sb.WriteString("\n\n")
	sb.WriteString(`次の構造のJSONオブジェクトを返してください:
{
  "title": "目標のタイトル",
  "goal_type": "reading | fitness | programming のいずれか",
  "target_value": 12,
  "unit": "books など目標値の単位",
  "rationale": "この構造化の根拠（1文）"
}

ルール:
- goal_typeは reading / fitness / programming のいずれかのみ
- target_valueは正の数値
- JSON以外のテキストは返さない`)
	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// callAPI はMessages APIを呼び出し、最初のテキストブロックを返す。
func (c *Client) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストのシリアライズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("プロバイダがステータス %d を返しました", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("レスポンスのパースに失敗しました: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("プロバイダエラー: %s", apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("空の応答")
	}
	return apiResp.Content[0].Text, nil
}

// parseSuggestion は応答テキストを目標案にパースする。
// マークダウンのコードブロックで囲まれている場合は取り除く。
func parseSuggestion(text string) (*Suggestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var s Suggestion
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗しました: %w", err)
	}
	switch s.GoalType {
	case "reading", "fitness", "programming":
	default:
		return nil, fmt.Errorf("不明な目標種別: %s", s.GoalType)
	}
	if s.TargetValue <= 0 {
		return nil, fmt.Errorf("目標値が不正です: %f", s.TargetValue)
	}
	return &s, nil
}

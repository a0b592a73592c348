// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, external, sync, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodeParsingFailed      = "PARSING_FAILED"
	ErrCodeStatisticsNotReady = "STATISTICS_NOT_READY"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeGoalNotFound       = "GOAL_NOT_FOUND"
	ErrCodeBookNotFound       = "BOOK_NOT_FOUND"
	ErrCodeRepositoryNotFound = "REPOSITORY_NOT_FOUND"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeSyncInFlight       = "SYNC_IN_FLIGHT"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
)

// NewUnauthenticatedError はプロバイダ認証失敗エラーを生成する。
func NewUnauthenticatedError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  fmt.Sprintf("%s の認証に失敗しました。", provider),
		Category: "external",
		Action:   "アクセストークンが有効か確認してください。",
	}
}

// NewRateLimitedError はプロバイダのレート制限エラーを生成する。
func NewRateLimitedError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  fmt.Sprintf("%s のAPIレート制限に達しました。", provider),
		Category: "external",
		Action:   "しばらく待ってから再度同期してください。",
	}
}

// NewRemoteNotFoundError はリモートリソース未検出エラーを生成する。
func NewRemoteNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("リモートリソースが見つかりません: %s", resource),
		Category: "external",
		Action:   "リポジトリ名や公開設定を確認してください。",
	}
}

// NewNetworkError はネットワークエラーを生成する。
func NewNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkError,
		Message:  fmt.Sprintf("通信に失敗しました: %s", reason),
		Category: "external",
		Action:   "ネットワーク接続を確認し、再度お試しください。",
	}
}

// NewParsingFailedError はプロバイダ応答のパース失敗エラーを生成する。
func NewParsingFailedError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeParsingFailed,
		Message:  fmt.Sprintf("%s の応答の解析に失敗しました。", provider),
		Category: "external",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewStatisticsNotReadyError は統計未集計エラーを生成する。
// リトライ上限到達後の終端状態であり、同期全体の失敗ではない。
func NewStatisticsNotReadyError(fullName string) *APIError {
	return &APIError{
		Code:     ErrCodeStatisticsNotReady,
		Message:  fmt.Sprintf("リポジトリ %s のコミット統計はまだ集計中です。", fullName),
		Category: "sync",
		Action:   "メタデータは更新済みです。統計は次回の同期で取得されます。",
	}
}

// NewInvalidInputError は入力値検証エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewGoalNotFoundError は目標未検出エラーを生成する。
func NewGoalNotFoundError(goalID string) *APIError {
	return &APIError{
		Code:     ErrCodeGoalNotFound,
		Message:  fmt.Sprintf("指定された目標が見つかりません: %s", goalID),
		Category: "validation",
		Action:   "目標IDを確認してください。",
	}
}

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された書籍が見つかりません: %s", bookID),
		Category: "validation",
		Action:   "書籍IDを確認してください。",
	}
}

// NewRepositoryNotFoundError はリポジトリ未検出エラーを生成する。
func NewRepositoryNotFoundError(repoID string) *APIError {
	return &APIError{
		Code:     ErrCodeRepositoryNotFound,
		Message:  fmt.Sprintf("指定されたリポジトリが見つかりません: %s", repoID),
		Category: "validation",
		Action:   "リポジトリIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "validation",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewSyncInFlightError は同一リポジトリの同期多重実行エラーを生成する。
func NewSyncInFlightError(repoID string) *APIError {
	return &APIError{
		Code:     ErrCodeSyncInFlight,
		Message:  fmt.Sprintf("リポジトリ %s は既に同期中です。", repoID),
		Category: "sync",
		Action:   "実行中の同期が完了するまでお待ちください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを指定してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

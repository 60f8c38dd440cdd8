// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// ErrorKind はAPIエラーの分類を表す。
// 分類ごとにHTTPステータスコードが一意に決まる。
type ErrorKind string

const (
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

// APIError は統一エラーフォーマットを表す。
// サービス層はこの型でエラー分類とユーザー向けメッセージを返し、
// ハンドラー層の単一のディスパッチ地点でHTTPレスポンスへ変換される。
type APIError struct {
	Kind    ErrorKind
	Message string // クライアントに返すメッセージ
	Err     error  // ログ用の原因。レスポンスには含めない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode はエラー分類に対応するHTTPステータスコードを返す。
func (e *APIError) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewBadRequestError は入力不備エラーを生成する。
func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: message}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

// NewConflictError は一意制約違反エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

// NewInternalError は内部エラーを生成する。causeはログにのみ出力される。
func NewInternalError(message string, cause error) *APIError {
	return &APIError{Kind: KindInternal, Message: message, Err: cause}
}

// NewRoleNotAllowedError はロールによるアクセス拒否エラーを生成する。
func NewRoleNotAllowedError(role Role) *APIError {
	return NewBadRequestError(fmt.Sprintf("%s not allowed to access this resource.", role))
}

// 定義済みメッセージ
const (
	MsgNotAuthorized     = "User Not Authorized"
	MsgTokenInvalid      = "Json Web Token is invalid, Try again!"
	MsgTokenExpired      = "Json Web Token is expired, Try again!"
	MsgInternalError     = "Internal Server Error"
	MsgJobNotFound       = "Job not found."
	MsgApplicationAbsent = "Application not found!"
)

// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/hitoshi/jobboard/internal/model"
)

// TokenCookieName は認証トークンを保持するCookie名。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var userContextKey = contextKey("user")

// ErrNoUser はコンテキストに認証済みユーザーがない場合に返される。
var ErrNoUser = errors.New("user not found in context")

// Authenticator はトークンから利用者を解決する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware はCookieのトークンを検証し、利用者をリクエストコンテキストに注入するミドルウェアを返す。
// 検証に失敗した場合はAuthenticatorが返すエラーをそのままレスポンスに変換する。
func NewAuthMiddleware(authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(TokenCookieName); err == nil {
				token = cookie.Value
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireRoles は利用者のロールが指定のいずれかであることを要求するミドルウェアを返す。
// 認証ミドルウェアの後に配置する。
func RequireRoles(roles ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteError(w, r, model.NewUnauthorizedError(model.MsgNotAuthorized))
				return
			}
			if !slices.Contains(roles, user.Role) {
				WriteError(w, r, model.NewRoleNotAllowedError(user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// リクエストログ用の記録領域があれば、ユーザーIDをそこにも残す。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if state, ok := ctx.Value(requestStateKey).(*requestState); ok && user != nil {
		state.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

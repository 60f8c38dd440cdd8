package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/middleware"
)

// レスポンスメッセージ
const (
	MsgUserRegistered = "User Registered!"
	MsgUserLoggedIn   = "User Logged In!"
	MsgLoggedOut      = "Logged Out Successfully."
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Session, error)
}

// AuthHandlerConfig は認証Cookieの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	CookieMaxAge time.Duration
}

// AuthHandler はユーザー登録・ログイン・ログアウト・ユーザー取得のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type registerRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    flexString `json:"phone"`
	Password string     `json:"password"`
	Role     string     `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

// Register はユーザーを登録し、認証Cookieを設定する。
// POST /api/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	sess, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    string(req.Phone),
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return h.writeSession(w, sess, MsgUserRegistered)
}

// Login はメールアドレス・パスワード・ロールで認証し、認証Cookieを設定する。
// POST /api/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	sess, err := h.service.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return h.writeSession(w, sess, MsgUserLoggedIn)
}

// Logout は認証Cookieを失効させる。何度呼んでも結果は同じ。
// GET /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	cookie := h.newCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)

	return writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": MsgLoggedOut,
	})
}

// GetUser は認証済みユーザーを返す。
// GET /api/users/getuser
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(user),
	})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, sess *auth.Session, message string) error {
	cookie := h.newCookie(sess.Token)
	cookie.MaxAge = int(h.config.CookieMaxAge.Seconds())
	cookie.Expires = time.Now().Add(h.config.CookieMaxAge)
	http.SetCookie(w, cookie)

	return writeJSON(w, http.StatusCreated, sessionResponse{
		Success: true,
		Message: message,
		User:    toUserResponse(sess.User),
		Token:   sess.Token,
	})
}

// newCookie は認証Cookieの共通属性を設定したCookieを返す。
// Secure指定時はクロスサイトのフロントエンドから送信できるようSameSite=Noneにする。
func (h *AuthHandler) newCookie(value string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.config.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: sameSite,
	}
}

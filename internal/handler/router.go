package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
)

// AccessPolicy は "METHOD /pattern" ごとに許可するロールを定義する。
// 登録されていない認証必須ルートは全ロールに許可する。
var AccessPolicy = map[string][]model.Role{
	"POST /api/job/post":                    {model.RoleEmployer},
	"GET /api/job/getmyjobs":                {model.RoleEmployer},
	"PUT /api/job/update/{id}":              {model.RoleEmployer},
	"DELETE /api/job/delete/{id}":           {model.RoleEmployer},
	"POST /api/application/post":            {model.RoleJobSeeker},
	"GET /api/application/employer/getall":  {model.RoleEmployer},
	"GET /api/application/jobseeker/getall": {model.RoleJobSeeker},
	"DELETE /api/application/delete/{id}":   {model.RoleJobSeeker},
}

// HealthChecker はバックエンドの疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator      middleware.Authenticator
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler // nilの場合 /metrics は公開しない
	Health             HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 求人
	JobService JobServiceInterface

	// 応募
	ApplicationService ApplicationServiceInterface
	MaxResumeSize      int64

	// ローカル保存の履歴書配信。nilの場合 /uploads/ は公開しない
	UploadsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → SecurityHeaders → CORS → Logging → Metrics
//	認証必須ルート: Auth → RateLimit(General) → RequireRoles
//	登録・ログイン: RateLimit(Auth)
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	r.NotFound(dispatch(func(w http.ResponseWriter, r *http.Request) error {
		return model.NewNotFoundError("Not Found")
	}))
	r.MethodNotAllowed(dispatch(func(w http.ResponseWriter, r *http.Request) error {
		return model.NewNotFoundError("Not Found")
	}))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	jobHandler := NewJobHandler(deps.JobService)
	applicationHandler := NewApplicationHandler(deps.ApplicationService, deps.MaxResumeSize)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler(deps.Health))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	if deps.UploadsHandler != nil {
		r.Handle("/uploads/*", deps.UploadsHandler)
	}

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthMiddleware())
		}
		r.Post("/api/users/register", dispatch(authHandler.Register))
		r.Post("/api/users/login", dispatch(authHandler.Login))
	})
	r.Get("/api/job/getall", dispatch(jobHandler.GetAll))

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		route := func(method, pattern string, h appHandler) {
			handler := http.Handler(dispatch(h))
			if roles, ok := AccessPolicy[method+" "+pattern]; ok {
				handler = middleware.RequireRoles(roles...)(handler)
			}
			r.Method(method, pattern, handler)
		}

		// ユーザー
		route(http.MethodGet, "/api/users/logout", authHandler.Logout)
		route(http.MethodGet, "/api/users/getuser", authHandler.GetUser)

		// 求人
		route(http.MethodPost, "/api/job/post", jobHandler.Post)
		route(http.MethodGet, "/api/job/getmyjobs", jobHandler.GetMyJobs)
		route(http.MethodPut, "/api/job/update/{id}", jobHandler.Update)
		route(http.MethodDelete, "/api/job/delete/{id}", jobHandler.Delete)
		route(http.MethodGet, "/api/job/getJobById/{id}", jobHandler.GetByID)

		// 応募
		route(http.MethodPost, "/api/application/post", applicationHandler.Post)
		route(http.MethodGet, "/api/application/employer/getall", applicationHandler.EmployerGetAll)
		route(http.MethodGet, "/api/application/jobseeker/getall", applicationHandler.JobseekerGetAll)
		route(http.MethodDelete, "/api/application/delete/{id}", applicationHandler.JobseekerDelete)
	})

	return r
}

// healthHandler はバックエンドへの疎通結果を返す。到達できない場合は503を返す。
func healthHandler(hc HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hc != nil {
			if err := hc.PingContext(r.Context()); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
					"success": false,
					"status":  "unavailable",
				})
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"status":  "ok",
		})
	}
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger              *slog.Logger
	Authenticator       middleware.UserAuthenticator
	CORSAllowedOrigin   string
	RateLimiter         *middleware.RateLimiter
	LoginLimiter        middleware.AttemptLimiter
	RegistrationLimiter middleware.AttemptLimiter
	ClientIP            middleware.ClientIPResolver

	// 運用
	HealthChecker  HealthChecker
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// ドメイン
	AuthService AuthServiceInterface
	TaskService TaskServiceInterface
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	  /v1/auth/signup, /v1/auth/login: AttemptLimit
//	  認証が必要なルート: BearerAuth → RateLimit(General)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	var recorder interface {
		middleware.RateLimitRecorder
		AuthAttemptRecorder
	}
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, recorder)
	taskHandler := NewTaskHandler(deps.TaskService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(attemptLimit(deps.RegistrationLimiter, deps.ClientIP, recorder)).Post("/signup", authHandler.Signup)
		r.With(attemptLimit(deps.LoginLimiter, deps.ClientIP, recorder)).Post("/login", authHandler.Login)

		r.With(middleware.NewBearerAuthMiddleware(deps.Authenticator)).Get("/profile", authHandler.Profile)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.Authenticator))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/v1/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Put("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
				r.Patch("/complete", taskHandler.SetCompletion)
			})
		})

		r.Delete("/v1/users/me", userHandler.Withdraw)
	})

	return r
}

// attemptLimit はlimiterがnilの場合は何もしないミドルウェアを返す。
func attemptLimit(limiter middleware.AttemptLimiter, resolver middleware.ClientIPResolver, recorder middleware.RateLimitRecorder) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.NewAttemptLimitMiddleware(limiter, resolver, recorder)
}

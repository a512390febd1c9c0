package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mediarank/internal/middleware"
)

// HealthChecker はヘルスチェックでDBの疎通を確認するインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
func SetupAuthRoutes(service AuthServiceInterface, metrics LoginRecorder, config AuthHandlerConfig) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, metrics, config)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/github/login", h.Login)
		r.Get("/github/callback", h.Callback)

		// セッション管理
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ヘルスチェック（nilの場合はDB疎通確認をスキップ）
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPRecorder

	// 認証
	AuthService   AuthServiceInterface
	AuthConfig    AuthHandlerConfig
	LoginRecorder LoginRecorder

	// 作品・投票
	WorkService WorkServiceInterface
	VoteService VoteServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// メトリクス公開用エンドポイント（nilの場合は公開しない）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics → SessionContext → RateLimit
//
// 閲覧系ルートは認証不要で公開する。更新系ルートはゲストも通し、
// 未ログイン時の扱い（トップページへの302リダイレクト）はハンドラーと
// サービス層が決める。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.LoginRecorder, deps.AuthConfig)
	workHandler := NewWorkHandler(deps.WorkService, deps.VoteService, deps.AuthConfig.BaseURL)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	// トップページ（ランキング）
	r.Get("/", workHandler.Rankings)

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("db unreachable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// メトリクス
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（認証不要）
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.Login)
		r.Get("/github/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- カタログルート ---
	// セッションがあればユーザーIDをコンテキストに注入し、なければ
	// ゲストとして通す。閲覧は誰でも可能で、更新系の認可判断は
	// サービス層が行う（存在チェックが認可チェックより先）。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionContextMiddleware(deps.SessionFinder))

		r.Route("/api/works", func(r chi.Router) {
			r.Get("/", workHandler.ListWorks)
			r.Post("/", workHandler.CreateWork)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", workHandler.GetWork)
				r.Put("/", workHandler.UpdateWork)
				r.Delete("/", workHandler.DeleteWork)

				// POST /api/works/{id}/upvote - 投票（投票専用レート制限を適用）
				if deps.RateLimiter != nil {
					r.With(deps.RateLimiter.VoteMiddleware()).Post("/upvote", workHandler.Upvote)
				} else {
					r.Post("/upvote", workHandler.Upvote)
				}
			})
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Delete("/me", userHandler.Withdraw)
			r.Get("/{id}", userHandler.GetUser)
		})
	})

	return r
}

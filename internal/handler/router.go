package handler

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/profiles/internal/metrics"
	"github.com/hitoshi/profiles/internal/middleware"
)

//go:embed static
var staticFS embed.FS

// HealthChecker はDB接続の死活確認インターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger        *slog.Logger
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig

	// サービス
	AuthService    AuthServiceInterface
	AccountService AccountServiceInterface
	Sessions       SessionEstablisher
	AccountReader  AccountReader
	ProfileReader  ProfileReader

	// 観測
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ページ描画
	Renderer   *Renderer
	PageConfig PageConfig
	Cookies    CookieConfig
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CSRF → Session（ルートグループごと）
//
// セッションミドルウェアは3系統を使い分ける:
//   - 公開ページ: ログイン状態は任意（OptionalSession）
//   - AJAXエンドポイント: 未認証は401 JSON（Session）
//   - 保護ページ: 未認証は / へリダイレクト（PageSession）
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.Cookies)
	pageHandler := NewPageHandler(
		deps.Renderer,
		deps.AccountService,
		deps.Sessions,
		deps.AccountReader,
		deps.ProfileReader,
		deps.Metrics,
		deps.PageConfig,
		deps.Cookies,
	)

	// 静的ファイル（CSS/JS）
	staticRoot, err := fs.Sub(staticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))
	}

	// --- 公開ページ ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

		r.Get("/", pageHandler.Home)
		r.Get("/signup/", pageHandler.SignupPage)
		r.Post("/signup/", pageHandler.Signup)
	})

	// --- ログインAJAX（クライアントIPごとにレート制限） ---
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login/", authHandler.Login)

	// --- 認証必須のAJAX ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

		r.Post("/logout/", authHandler.Logout)
	})

	// --- 認証必須のページ ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPageSessionMiddleware(deps.SessionFinder))

		r.Get("/edit_profile/", pageHandler.EditProfilePage)
		r.Post("/edit_profile/", pageHandler.EditProfile)
		r.Get("/profiles-list/", pageHandler.ProfilesList)
		r.Post("/account/delete/", pageHandler.DeleteAccount)
	})

	// --- 死活監視 ---
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// --- Prometheusスクレイプ ---
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	return r
}

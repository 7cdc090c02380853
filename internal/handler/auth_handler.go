// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiles/internal/form"
	"github.com/hitoshi/profiles/internal/middleware"
	"github.com/hitoshi/profiles/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, username, password string) (*model.Account, error)
	EstablishSession(ctx context.Context, accountID string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthMetrics はログイン結果のメトリクス記録インターフェース。
type AuthMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Domain        string
	Secure        bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・ログアウトのAJAXハンドラー。
// レスポンスは常に {success, message} 形式のJSON。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetrics
	cookies CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetrics, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		cookies: cookies,
	}
}

// Login は資格情報を検証してセッションを発行する。
// POST /login/ （フォームエンコード、AJAX）
//
// 結果は3通り:
//   - フォーム不備        → 400 {false, "Invalid form submission"}
//   - 資格情報の不一致    → 401 {false, "Invalid username or password"}
//     （ユーザー名不明とパスワード誤りは意図的に区別しない）
//   - 成功                → 200 {true, "Login successful"} + セッションCookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteJSONMessage(w, http.StatusBadRequest, false, "Invalid form submission")
		return
	}

	loginForm := form.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if errs := loginForm.Validate(); errs.HasErrors() {
		middleware.WriteJSONMessage(w, http.StatusBadRequest, false, "Invalid form submission")
		return
	}

	account, err := h.service.Authenticate(r.Context(), loginForm.Username, loginForm.Password)
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) && appErr.Code == model.ErrCodeInvalidCredentials {
			h.metrics.RecordLoginFailure()
			middleware.WriteJSONMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	session, err := h.service.EstablishSession(r.Context(), account.ID)
	if err != nil {
		slog.Error("failed to establish session",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.metrics.RecordLoginSuccess()
	middleware.WriteJSONMessage(w, http.StatusOK, true, "Login successful")
}

// Logout はセッションを破棄してCookieをクリアする。
// POST /logout/ （セッションガード必須、AJAX）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.SessionIDFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONMessage(w, http.StatusUnauthorized, false, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		// ログアウト失敗してもCookieはクリアする
	}

	h.clearSessionCookie(w)
	middleware.WriteJSONMessage(w, http.StatusOK, true, "Logged out successfully")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	setSessionCookie(w, h.cookies, sessionID)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	clearSessionCookie(w, h.cookies)
}

package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// AJAXリクエストがJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// csrfFormFieldName は通常のフォーム送信からトークンを読み取る際のフィールド名。
	csrfFormFieldName = "csrf_token"

	// csrfParseMaxMemory はフォームフィールドのトークン読み取り時に
	// メモリに保持するマルチパートボディの上限。超過分は一時ファイルに落ちる。
	csrfParseMaxMemory = 8 << 20
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string

	// MaxBodyBytes は状態変更リクエストのボディサイズ上限。
	// フォームフィールドのトークン検証はボディ全体をパースするため、
	// パース前にこの上限でボディを打ち切る。0の場合は制限しない。
	MaxBodyBytes int64
}

// NewCSRFMiddleware はCSRFトークンの生成・検証ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）はトークン検証をスキップし、
// CSRFトークンCookieを設定する。
// 状態変更メソッド（POST, PUT, PATCH, DELETE）はトークン検証を必須とする。
// トークンはX-CSRF-Tokenヘッダー（AJAX）またはcsrf_tokenフォームフィールド
// （テンプレートのフォーム送信）のどちらでも提出できる。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 安全なメソッドはトークン検証をスキップ
			if isSafeMethod(r.Method) {
				// CSRFトークンCookieが未設定の場合は設定する
				ensureCSRFCookie(w, r, config)
				next.ServeHTTP(w, r)
				return
			}

			// 状態変更メソッド: CSRFトークンを検証。
			// フォームフィールドのトークン取得はボディをパースするため、
			// 先にサイズ上限を適用して巨大ボディの受信を打ち切る。
			if config.MaxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes)
			}

			cookieToken, err := r.Cookie(csrfCookieName)
			if err != nil || cookieToken.Value == "" {
				slog.Warn("CSRF validation failed: missing cookie token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			submitted, err := submittedCSRFToken(r)
			if err != nil {
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					slog.Warn("request body exceeds size limit",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Int64("limit", maxBytesErr.Limit),
					)
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				slog.Warn("CSRF validation failed: unreadable form body",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			if submitted == "" {
				slog.Warn("CSRF validation failed: missing submitted token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookieToken.Value), []byte(submitted)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// submittedCSRFToken はリクエストから提出されたCSRFトークンを取り出す。
// ヘッダーを優先し、無ければフォームフィールドを参照する。
// フォームフィールドの参照はボディのパースを伴うため、サイズ上限超過を
// 含むパースエラーをそのまま返す。
func submittedCSRFToken(r *http.Request) (string, error) {
	if token := r.Header.Get(csrfHeaderName); token != "" {
		return token, nil
	}
	if err := r.ParseMultipartForm(csrfParseMaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", err
	}
	return r.FormValue(csrfFormFieldName), nil
}

// CSRFTokenFromRequest はリクエストのCookieからCSRFトークンを取得する。
// テンプレートのhiddenフィールドに埋め込む際に使用する。
// Cookieが未設定の場合は空文字列を返す（安全なメソッドの通過時に設定される）。
func CSRFTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ensureCSRFCookie はCSRFトークンCookieが未設定の場合に設定する。
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, config CSRFConfig) {
	_, err := r.Cookie(csrfCookieName)
	if err == nil {
		// 既にCookieが設定されている
		return
	}

	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   86400, // 24時間
		HttpOnly: false, // フロントエンドから読み取り可能
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 同一リクエスト内でテンプレートに埋め込めるよう、リクエスト側にも載せる
	r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
}

// generateCSRFToken は暗号的に安全なCSRFトークンを生成する。
func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

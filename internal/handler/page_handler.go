package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiles/internal/account"
	"github.com/hitoshi/profiles/internal/avatar"
	"github.com/hitoshi/profiles/internal/form"
	"github.com/hitoshi/profiles/internal/middleware"
	"github.com/hitoshi/profiles/internal/model"
)

// multipartMaxMemory はマルチパート解析でメモリに保持する上限。
// 超過分は一時ファイルに退避される。
const multipartMaxMemory = 8 << 20

// FormOverhead はアバター以外のフォームフィールドに許容する追加バイト数。
// リクエストボディ全体の上限はAvatarMaxSizeにこの値を加えたものになる。
const FormOverhead = 1 << 20

// AccountServiceInterface はページハンドラーが必要とするアカウント操作。
type AccountServiceInterface interface {
	Signup(ctx context.Context, input account.SignupInput) (*model.Account, error)
	Update(ctx context.Context, accountID string, input account.UpdateInput) error
	Delete(ctx context.Context, accountID string) error
}

// SessionEstablisher はサインアップ直後の自動ログインに使う。
type SessionEstablisher interface {
	EstablishSession(ctx context.Context, accountID string) (*model.Session, error)
}

// AccountReader は現在ログイン中のアカウント表示用の読み取りインターフェース。
type AccountReader interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// ProfileReader はプロフィール表示用の読み取りインターフェース。
type ProfileReader interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error)
	ListAll(ctx context.Context) ([]model.ProfileWithAccount, error)
}

// PageMetrics はページ操作のメトリクス記録インターフェース。
type PageMetrics interface {
	RecordSignup()
	RecordAccountDeletion()
	RecordAvatarUploadFailure()
}

// PageConfig はページハンドラーの設定。
type PageConfig struct {
	DefaultAvatarURL string
	AvatarMaxSize    int64
}

// PageHandler はサーバーサイドレンダリングのページハンドラー。
// ホーム・サインアップ・プロフィール編集・一覧・退会を担当する。
type PageHandler struct {
	renderer       *Renderer
	accountService AccountServiceInterface
	sessions       SessionEstablisher
	accountReader  AccountReader
	profileReader  ProfileReader
	metrics        PageMetrics
	config         PageConfig
	cookies        CookieConfig
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(
	renderer *Renderer,
	accountService AccountServiceInterface,
	sessions SessionEstablisher,
	accountReader AccountReader,
	profileReader ProfileReader,
	metrics PageMetrics,
	config PageConfig,
	cookies CookieConfig,
) *PageHandler {
	return &PageHandler{
		renderer:       renderer,
		accountService: accountService,
		sessions:       sessions,
		accountReader:  accountReader,
		profileReader:  profileReader,
		metrics:        metrics,
		config:         config,
		cookies:        cookies,
	}
}

// Home はホームページを描画する。
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(w, r, "Profiles")
	h.renderer.Render(w, http.StatusOK, "home", data)
}

// SignupPage はサインアップフォームを描画する。
// GET /signup/
func (h *PageHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(w, r, "Sign up")
	data.Data = &form.SignupForm{}
	h.renderer.Render(w, http.StatusOK, "signup", data)
}

// Signup は新規アカウントを作成する。
// POST /signup/ （マルチパート。アバターファイルは省略可能）
//
// 成功時は自動ログインして成功フラッシュとともに / へ303リダイレクト。
// 検証エラー時は入力値を保持して200で再描画する（パスワードとファイルは除く）。
// アバター保存の失敗はアカウント作成を妨げず、警告フラッシュとして報告する。
func (h *PageHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.AvatarMaxSize+FormOverhead)
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		data := h.basePage(w, r, "Sign up")
		data.Data = &form.SignupForm{}
		data.Flash = &Flash{Level: FlashWarning, Message: "Invalid form submission"}
		h.renderer.Render(w, http.StatusBadRequest, "signup", data)
		return
	}

	signupForm := form.SignupForm{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
	errs := signupForm.Validate()

	upload, closer := h.avatarFromRequest(r, errs)
	if closer != nil {
		defer closer.Close()
	}

	if errs.HasErrors() {
		h.renderSignupForm(w, r, &signupForm, errs)
		return
	}

	acct, err := h.accountService.Signup(r.Context(), account.SignupInput{
		Username:  signupForm.Username,
		Email:     signupForm.Email,
		FirstName: signupForm.FirstName,
		LastName:  signupForm.LastName,
		Password:  signupForm.Password1,
		Avatar:    upload,
	})
	avatarFailed := false
	if err != nil {
		var appErr *model.AppError
		switch {
		case errors.As(err, &appErr) && appErr.Code == model.ErrCodeUsernameTaken:
			errs.Add("username", "A user with that username already exists.")
			h.renderSignupForm(w, r, &signupForm, errs)
			return
		case errors.As(err, &appErr) && appErr.Code == model.ErrCodeAvatarStoreFailed && acct != nil:
			// アカウントは作成済み。警告だけ出してログインフローは続行する
			avatarFailed = true
			h.metrics.RecordAvatarUploadFailure()
			slog.Warn("avatar upload failed during signup",
				slog.String("account_id", acct.ID),
			)
		default:
			slog.Error("signup failed", slog.String("error", err.Error()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.metrics.RecordSignup()

	// 自動ログイン。失敗してもアカウントは作成済みなのでリダイレクトは続行する
	if session, err := h.sessions.EstablishSession(r.Context(), acct.ID); err != nil {
		slog.Error("failed to establish session after signup",
			slog.String("account_id", acct.ID),
			slog.String("error", err.Error()),
		)
	} else {
		setSessionCookie(w, h.cookies, session.ID)
	}

	if avatarFailed {
		SetFlash(w, FlashWarning, "Your account has been created, but the avatar image could not be saved.")
	} else {
		SetFlash(w, FlashSuccess, "Welcome, your account has been created.")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) renderSignupForm(w http.ResponseWriter, r *http.Request, f *form.SignupForm, errs form.FieldErrors) {
	// パスワードは再描画に乗せない
	f.Password1 = ""
	f.Password2 = ""

	data := h.basePage(w, r, "Sign up")
	data.Data = f
	data.Errors = errs
	h.renderer.Render(w, http.StatusOK, "signup", data)
}

// avatarFromRequest はマルチパートフォームからアバター画像を取り出す。
// ファイルが無い場合は(nil, nil)。検証エラーはerrsに積む。
func (h *PageHandler) avatarFromRequest(r *http.Request, errs form.FieldErrors) (*account.AvatarUpload, io.Closer) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		errs.Add("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if !avatar.IsAllowedContentType(contentType) {
		file.Close()
		errs.Add("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return nil, nil
	}
	if header.Size > h.config.AvatarMaxSize {
		file.Close()
		errs.Add("avatar", "The uploaded image exceeds the maximum allowed size.")
		return nil, nil
	}

	return &account.AvatarUpload{ContentType: contentType, Body: file}, file
}

// basePage は全ページ共通のテンプレートデータを組み立てる。
// フラッシュメッセージはここで消費される。
func (h *PageHandler) basePage(w http.ResponseWriter, r *http.Request, title string) *pageData {
	data := &pageData{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flash:     PopFlash(w, r),
		Errors:    map[string][]string{},
	}

	if accountID, err := middleware.AccountIDFromContext(r.Context()); err == nil {
		acct, err := h.accountReader.FindByID(r.Context(), accountID)
		if err != nil {
			slog.Error("failed to load current account",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
		} else {
			data.CurrentAccount = acct
		}
	}

	return data
}

func setSessionCookie(w http.ResponseWriter, cookies CookieConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   cookies.Domain,
		MaxAge:   cookies.SessionMaxAge,
		HttpOnly: true,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cookies CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

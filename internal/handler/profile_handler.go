package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiles/internal/account"
	"github.com/hitoshi/profiles/internal/form"
	"github.com/hitoshi/profiles/internal/middleware"
	"github.com/hitoshi/profiles/internal/model"
)

// editFormData はプロフィール編集画面のテンプレートデータ。
// アカウント側とプロフィール側の両フォームの値を1つにまとめる。
type editFormData struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Feedback        string
	AvatarImportURL string
	AvatarURL       string // 現在のアバター表示用
}

// profileCard はプロフィール一覧の1件分の表示データ。
type profileCard struct {
	Username  string
	FirstName string
	LastName  string
	Feedback  string
	AvatarURL string
}

// EditProfilePage は編集フォームを現在の値で描画する。
// GET /edit_profile/ （要ログイン）
func (h *PageHandler) EditProfilePage(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	acct, profile, ok := h.loadAccountAndProfile(w, r, accountID)
	if !ok {
		return
	}

	data := h.basePage(w, r, "Edit profile")
	data.Data = &editFormData{
		Username:  acct.Username,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Feedback:  profile.Feedback,
		AvatarURL: profile.AvatarURL,
	}
	h.renderer.Render(w, http.StatusOK, "edit_profile", data)
}

// EditProfile はアカウントとプロフィールを更新する。
// POST /edit_profile/ （要ログイン、マルチパート）
//
// 両フォームが揃って有効な場合のみ単一トランザクションでコミットする。
// 成功時は /profiles-list/ へ303リダイレクト。検証エラー時は再描画。
// アバター保存の失敗は警告フラッシュで報告する（テキスト更新はコミット済み）。
func (h *PageHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.AvatarMaxSize+FormOverhead)
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		http.Redirect(w, r, "/edit_profile/", http.StatusSeeOther)
		return
	}

	accountForm := form.AccountForm{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}
	profileForm := form.ProfileForm{
		Feedback:        r.PostFormValue("feedback"),
		AvatarImportURL: r.PostFormValue("avatar_import_url"),
	}

	errs := accountForm.Validate()
	for field, msgs := range profileForm.Validate() {
		for _, msg := range msgs {
			errs.Add(field, msg)
		}
	}

	upload, closer := h.avatarFromRequest(r, errs)
	if closer != nil {
		defer closer.Close()
	}

	if errs.HasErrors() {
		h.renderEditForm(w, r, accountID, &accountForm, &profileForm, errs)
		return
	}

	err = h.accountService.Update(r.Context(), accountID, account.UpdateInput{
		Username:        accountForm.Username,
		Email:           accountForm.Email,
		FirstName:       accountForm.FirstName,
		LastName:        accountForm.LastName,
		Feedback:        profileForm.Feedback,
		Avatar:          upload,
		AvatarImportURL: profileForm.AvatarImportURL,
	})
	if err != nil {
		var appErr *model.AppError
		switch {
		case errors.As(err, &appErr) && appErr.Code == model.ErrCodeUsernameTaken:
			errs.Add("username", "A user with that username already exists.")
			h.renderEditForm(w, r, accountID, &accountForm, &profileForm, errs)
			return
		case errors.As(err, &appErr) && appErr.Code == model.ErrCodeFeedbackBlank:
			// サニタイズで空になったマークアップのみの入力
			errs.Add("feedback", "This field is required.")
			h.renderEditForm(w, r, accountID, &accountForm, &profileForm, errs)
			return
		case errors.As(err, &appErr) && appErr.Code == model.ErrCodeAvatarStoreFailed:
			// テキスト更新はコミット済み。アバターだけ失敗した
			h.metrics.RecordAvatarUploadFailure()
			SetFlash(w, FlashWarning, "Your profile was updated, but the avatar image could not be saved.")
			http.Redirect(w, r, "/profiles-list/", http.StatusSeeOther)
			return
		default:
			slog.Error("profile update failed",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/profiles-list/", http.StatusSeeOther)
}

// ProfilesList は全プロフィールの一覧を描画する。
// GET /profiles-list/ （要ログイン）
// アバター未設定のプロフィールにはデフォルトのプレースホルダーURLを使う。
func (h *PageHandler) ProfilesList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileReader.ListAll(r.Context())
	if err != nil {
		slog.Error("failed to list profiles", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	cards := make([]profileCard, 0, len(profiles))
	for _, p := range profiles {
		avatarURL := p.AvatarURL
		if avatarURL == "" {
			avatarURL = h.config.DefaultAvatarURL
		}
		cards = append(cards, profileCard{
			Username:  p.Username,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Feedback:  p.Feedback,
			AvatarURL: avatarURL,
		})
	}

	data := h.basePage(w, r, "Profiles list")
	data.Data = struct{ Profiles []profileCard }{Profiles: cards}
	h.renderer.Render(w, http.StatusOK, "profiles_list", data)
}

func (h *PageHandler) renderEditForm(
	w http.ResponseWriter,
	r *http.Request,
	accountID string,
	accountForm *form.AccountForm,
	profileForm *form.ProfileForm,
	errs form.FieldErrors,
) {
	// 現在のアバターは表示用にDBから引き直す
	var avatarURL string
	if profile, err := h.profileReader.FindByAccountID(r.Context(), accountID); err == nil && profile != nil {
		avatarURL = profile.AvatarURL
	}

	data := h.basePage(w, r, "Edit profile")
	data.Data = &editFormData{
		Username:        accountForm.Username,
		Email:           accountForm.Email,
		FirstName:       accountForm.FirstName,
		LastName:        accountForm.LastName,
		Feedback:        profileForm.Feedback,
		AvatarImportURL: profileForm.AvatarImportURL,
		AvatarURL:       avatarURL,
	}
	data.Errors = errs
	h.renderer.Render(w, http.StatusOK, "edit_profile", data)
}

// loadAccountAndProfile はアカウントとプロフィールを取得する。
// 失敗時はレスポンスを書き込んでfalseを返す。
func (h *PageHandler) loadAccountAndProfile(w http.ResponseWriter, r *http.Request, accountID string) (*model.Account, *model.Profile, bool) {
	acct, err := h.accountReader.FindByID(r.Context(), accountID)
	if err != nil {
		slog.Error("failed to find account",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if acct == nil {
		// セッションは有効だがアカウントが消えている。Cookieを破棄してやり直す
		clearSessionCookie(w, h.cookies)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, nil, false
	}

	profile, err := h.profileReader.FindByAccountID(r.Context(), accountID)
	if err != nil || profile == nil {
		slog.Error("failed to find profile",
			slog.String("account_id", accountID),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, nil, false
	}

	return acct, profile, true
}

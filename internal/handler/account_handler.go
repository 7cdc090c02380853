package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiles/internal/middleware"
	"github.com/hitoshi/profiles/internal/model"
)

// DeleteAccount はアカウントの退会処理を実行する。
// POST /account/delete/ （要ログイン、CSRF保護）
//
// 全セッションとアカウント（プロフィールはCASCADE）を削除し、
// Cookieをクリアして / へ303リダイレクトする。
func (h *PageHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.accountService.Delete(r.Context(), accountID); err != nil {
		var appErr *model.AppError
		if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeAccountNotFound {
			slog.Error("account deletion failed",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		// 既に存在しないアカウント。Cookieだけ破棄して続行する
	}

	h.metrics.RecordAccountDeletion()
	clearSessionCookie(w, h.cookies)
	SetFlash(w, FlashSuccess, "Your account has been deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

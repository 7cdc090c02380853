package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "flash"

// フラッシュメッセージのレベル。
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
)

// Flash は次のページ描画で1回だけ表示される通知メッセージ。
// Cookieに載せてリダイレクトをまたいで運び、描画時に消費される。
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SetFlash はフラッシュメッセージをCookieに書き込む。
func SetFlash(w http.ResponseWriter, level, message string) {
	payload, err := json.Marshal(Flash{Level: level, Message: message})
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   300, // 5分。次のページ表示まで保持できれば十分
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash はフラッシュメッセージを取り出し、Cookieを消去する。
// メッセージが無い、または壊れている場合はnilを返す。
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	// 取り出したら必ず消す
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	payload, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var flash Flash
	if err := json.Unmarshal(payload, &flash); err != nil {
		return nil
	}
	return &flash
}

package middleware

import (
	"encoding/json"
	"net/http"
)

// JSONMessage はAJAXエンドポイントの統一レスポンスフォーマット。
type JSONMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSONMessage は統一フォーマットでJSONレスポンスを書き込む。
// ログイン・ログアウト等のAJAXエンドポイントで一貫したレスポンスを提供する。
func WriteJSONMessage(w http.ResponseWriter, statusCode int, success bool, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(JSONMessage{
		Success: success,
		Message: message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteJSONMessage(w, http.StatusInternalServerError, false, "Internal server error")
}

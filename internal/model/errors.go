// Package model はドメインモデルを定義する。
package model

import "fmt"

// AppError は統一エラーフォーマットを表す。
// ログおよびエラーページに表示する原因カテゴリを含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, storage, integrity, system
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAvatarStoreFailed  = "AVATAR_STORE_FAILED"
	ErrCodeFeedbackBlank      = "FEEDBACK_BLANK"
	ErrCodeProfileIntegrity   = "PROFILE_INTEGRITY"
)

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeAccountNotFound,
		Message:  "account not found",
		Category: "auth",
	}
}

// NewUsernameTakenError はユーザー名が既に使用されている場合のエラーを生成する。
func NewUsernameTakenError(username string) *AppError {
	return &AppError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("username already taken: %s", username),
		Category: "validation",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// どのフィールドが誤っていたかは意図的に区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "invalid username or password",
		Category: "auth",
	}
}

// NewAvatarStoreFailedError は外部画像ストアへの操作失敗エラーを生成する。
// アカウント作成自体は成功しているため、呼び出し側は回復可能エラーとして扱う。
func NewAvatarStoreFailedError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeAvatarStoreFailed,
		Message:  fmt.Sprintf("failed to store avatar: %s", reason),
		Category: "storage",
	}
}

// NewFeedbackBlankError はサニタイズ後のフィードバックが空になった場合の
// エラーを生成する。マークアップのみの入力はフォーム検証を通過するため、
// サービス層で検出してフィールドエラーとして扱えるようにする。
func NewFeedbackBlankError() *AppError {
	return &AppError{
		Code:     ErrCodeFeedbackBlank,
		Message:  "feedback is blank after sanitization",
		Category: "validation",
	}
}

// NewProfileIntegrityError はアカウントとプロフィールの整合性が壊れた場合の
// エラーを生成する。作成トランザクション内で発生した場合は全体を中断する。
func NewProfileIntegrityError(accountID string) *AppError {
	return &AppError{
		Code:     ErrCodeProfileIntegrity,
		Message:  fmt.Sprintf("profile missing for account: %s", accountID),
		Category: "integrity",
	}
}

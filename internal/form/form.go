// Package form はリクエストフォームの検証を提供する。
//
// 各フォームは Validate でフィールド単位のエラーを収集し、
// エラーが無い場合のみ値を利用できる。ハンドラはFieldErrorsを
// そのままテンプレートに渡して再描画する。
package form

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/hitoshi/profiles/internal/model"
)

const (
	// UsernameMaxLength はユーザー名の最大長。
	UsernameMaxLength = 150
	// NameMaxLength は姓・名それぞれの最大長。
	NameMaxLength = 150
	// PasswordMinLength はパスワードの最小長。
	PasswordMinLength = 8
)

// usernamePattern はユーザー名に許可する文字集合。
// 英数字と @ . + - _ のみ。
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+\-_]+$`)

// FieldErrors はフィールド名からエラーメッセージ群へのマップ。
type FieldErrors map[string][]string

// Add はフィールドにエラーメッセージを追加する。
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// HasErrors はエラーが1件以上あるかを返す。
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// First は指定フィールドの最初のエラーメッセージを返す。無ければ空文字列。
func (fe FieldErrors) First(field string) string {
	if msgs, ok := fe[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// SignupForm はサインアップフォームの入力値。
type SignupForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password1 string
	Password2 string
}

// Validate はサインアップフォームを検証する。
// ユーザー名の一意性はここでは検証しない（ストレージ層の責務）。
func (f *SignupForm) Validate() FieldErrors {
	errs := FieldErrors{}

	validateUsername(errs, f.Username)
	validateEmail(errs, f.Email)
	validateName(errs, "first_name", f.FirstName)
	validateName(errs, "last_name", f.LastName)
	validatePasswords(errs, f.Password1, f.Password2)

	return errs
}

// LoginForm はログインフォームの入力値。
type LoginForm struct {
	Username string
	Password string
}

// Validate はログインフォームを検証する。
// 資格情報の照合はしない。形式不備のみを検出する。
func (f *LoginForm) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Username) == "" {
		errs.Add("username", "This field is required.")
	} else if len(f.Username) > UsernameMaxLength {
		errs.Add("username", "Ensure this value has at most 150 characters.")
	}
	if f.Password == "" {
		errs.Add("password", "This field is required.")
	}

	return errs
}

// AccountForm はプロフィール編集画面のアカウント側フォーム。
type AccountForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Validate はアカウントフォームを検証する。
func (f *AccountForm) Validate() FieldErrors {
	errs := FieldErrors{}

	validateUsername(errs, f.Username)
	validateEmail(errs, f.Email)
	validateName(errs, "first_name", f.FirstName)
	validateName(errs, "last_name", f.LastName)

	return errs
}

// ProfileForm はプロフィール編集画面のプロフィール側フォーム。
// AvatarImportURL はリモート画像URLからの取り込み用で省略可能。
type ProfileForm struct {
	Feedback        string
	AvatarImportURL string
}

// Validate はプロフィールフォームを検証する。
// フィードバックは空白のみを不可とし、最大250文字。
func (f *ProfileForm) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Feedback) == "" {
		errs.Add("feedback", "This field is required.")
	} else if len([]rune(f.Feedback)) > model.FeedbackMaxLength {
		errs.Add("feedback", "Ensure this value has at most 250 characters.")
	}

	if f.AvatarImportURL != "" {
		if !strings.HasPrefix(f.AvatarImportURL, "http://") &&
			!strings.HasPrefix(f.AvatarImportURL, "https://") {
			errs.Add("avatar_import_url", "Enter a valid URL.")
		}
	}

	return errs
}

// validateUsername はユーザー名の形式を検証する。
func validateUsername(errs FieldErrors, username string) {
	if username == "" {
		errs.Add("username", "This field is required.")
		return
	}
	if len(username) > UsernameMaxLength {
		errs.Add("username", "Ensure this value has at most 150 characters.")
	}
	if !usernamePattern.MatchString(username) {
		errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(errs FieldErrors, email string) {
	if email == "" {
		errs.Add("email", "This field is required.")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Enter a valid email address.")
	}
}

// validateName は姓・名の長さを検証する。空は許可する。
func validateName(errs FieldErrors, field, value string) {
	if len([]rune(value)) > NameMaxLength {
		errs.Add(field, "Ensure this value has at most 150 characters.")
	}
}

// validatePasswords はパスワードの強度と一致を検証する。
func validatePasswords(errs FieldErrors, password1, password2 string) {
	if password1 == "" {
		errs.Add("password1", "This field is required.")
		return
	}
	if len(password1) < PasswordMinLength {
		errs.Add("password1", "This password is too short. It must contain at least 8 characters.")
	}
	if isEntirelyNumeric(password1) {
		errs.Add("password1", "This password is entirely numeric.")
	}
	if password2 == "" {
		errs.Add("password2", "This field is required.")
	} else if password1 != password2 {
		errs.Add("password2", "The two password fields didn't match.")
	}
}

// isEntirelyNumeric は文字列が数字のみで構成されるかを返す。
func isEntirelyNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultFeedback はプロフィール作成時に設定されるフィードバックの初期値。
const DefaultFeedback = "Please add feedback"

// FeedbackMaxLength はフィードバック本文の最大文字数。
const FeedbackMaxLength = 250

// Account は認証可能なユーザーアカウントを表す。
// PasswordHashにはbcryptハッシュのみを保持し、平文パスワードは一切保存しない。
type Account struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はアカウントに1対1で従属するプロフィールを表す。
// アカウント作成と同一トランザクションで必ず作成され、
// アカウント削除時にはCASCADEで削除される（アカウントより長生きしない）。
type Profile struct {
	AccountID string
	Feedback  string
	// AvatarURL は外部画像ストア上のオブジェクトURL。
	// 未設定（空文字列）の場合、表示時にはデフォルトのプレースホルダーURLを使う。
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAvatar はアバター画像が設定されているかを返す。
func (p *Profile) HasAvatar() bool {
	return p.AvatarURL != ""
}

// ProfileWithAccount は一覧表示用にプロフィールとアカウントを結合した構造体。
type ProfileWithAccount struct {
	Profile
	Username  string
	FirstName string
	LastName  string
}

// Session はユーザーのログインセッションを表す。
// IDのみをHTTP Only Cookieに載せ、実体はDBに保持する。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

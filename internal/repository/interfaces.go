// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/profiles/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername は指定ユーザー名のアカウントを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// CreateWithProfile はアカウントとプロフィールを同一トランザクションで作成する。
	// プロフィール作成の失敗はアカウント作成ごとロールバックする。
	// アカウントがプロフィールなしで存在する瞬間は外部から観測されない。
	CreateWithProfile(ctx context.Context, account *model.Account, profile *model.Profile) error

	// UpdateWithProfile はアカウントとプロフィールを同一トランザクションで更新する。
	// どちらかの更新が失敗した場合は両方ロールバックする（all-or-nothing）。
	UpdateWithProfile(ctx context.Context, account *model.Account, profile *model.Profile) error

	// DeleteByID は指定IDのアカウントを削除する。
	// profilesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByAccountID は指定アカウントのプロフィールを取得する。見つからない場合はnilを返す。
	FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error)

	// UpdateAvatarURL はプロフィールのアバターURLのみを更新する。
	// サインアップ後のアバター添付で使用する（追加の単一書き込み）。
	UpdateAvatarURL(ctx context.Context, accountID, avatarURL string) error

	// ListAll は全プロフィールをアカウント情報付きで返す。
	// 並び順はプロフィール作成日時の昇順、同時刻はユーザー名の昇順で安定させる。
	ListAll(ctx context.Context) ([]model.ProfileWithAccount, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByAccountID は指定アカウントの全セッションを削除する。
	DeleteByAccountID(ctx context.Context, accountID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

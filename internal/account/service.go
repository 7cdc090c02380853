// Package account はアカウント管理のドメインロジックを提供する。
package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/profiles/internal/auth"
	"github.com/hitoshi/profiles/internal/avatar"
	"github.com/hitoshi/profiles/internal/model"
	"github.com/hitoshi/profiles/internal/repository"
	"github.com/hitoshi/profiles/internal/security"
)

// AvatarUpload はサインアップ・編集時に添付された画像を表す。
type AvatarUpload struct {
	ContentType string
	Body        io.Reader
}

// SignupInput はサインアップの入力値。検証済みであることを前提とする。
type SignupInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Avatar    *AvatarUpload // 省略可能
}

// UpdateInput はアカウント・プロフィール編集の入力値。検証済みであることを前提とする。
type UpdateInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Feedback        string
	Avatar          *AvatarUpload // 省略可能
	AvatarImportURL string        // 省略可能。リモート画像URLからの取り込み
}

// AvatarFetcher はリモートURLからアバター画像を取得するインターフェース。
type AvatarFetcher interface {
	Fetch(ctx context.Context, rawURL string) (contentType string, body []byte, err error)
}

// Service はアカウント管理のサービス層。
// サインアップ・編集・退会のビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	imageStore  avatar.ImageStore
	fetcher     AvatarFetcher
	sanitizer   security.FeedbackSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	imageStore avatar.ImageStore,
	fetcher AvatarFetcher,
	sanitizer security.FeedbackSanitizerService,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		imageStore:  imageStore,
		fetcher:     fetcher,
		sanitizer:   sanitizer,
	}
}

// Signup は新規アカウントを作成する。
// アカウントとプロフィールは同一トランザクションで作成され、
// プロフィールのフィードバックはデフォルト文で初期化される。
//
// アバターが添付されている場合はアカウント作成後にストアへ保存するが、
// 保存失敗はアカウント作成を取り消さない。その場合は作成済みアカウントと
// AVATAR_STORE_FAILEDエラーの両方を返し、呼び出し側は警告として扱う。
// ユーザー名が既に使用されている場合はUSERNAME_TAKENエラーを返す。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*model.Account, error) {
	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &model.Profile{
		AccountID: account.ID,
		Feedback:  model.DefaultFeedback,
		AvatarURL: "",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accountRepo.CreateWithProfile(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, model.NewUsernameTakenError(input.Username)
		}
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	slog.Info("new account created",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
	)

	// アバターは追加の単一書き込み。失敗してもアカウント作成は取り消さない。
	if input.Avatar != nil {
		if err := s.attachAvatar(ctx, account.ID, input.Avatar.ContentType, input.Avatar.Body); err != nil {
			slog.Warn("failed to store avatar during signup",
				slog.String("account_id", account.ID),
				slog.String("error", err.Error()),
			)
			return account, model.NewAvatarStoreFailedError(err.Error())
		}
	}

	return account, nil
}

// attachAvatar は画像をストアに保存し、プロフィールのURLを更新する。
func (s *Service) attachAvatar(ctx context.Context, accountID, contentType string, body io.Reader) error {
	url, err := s.imageStore.Store(ctx, accountID, contentType, body)
	if err != nil {
		return err
	}
	if err := s.profileRepo.UpdateAvatarURL(ctx, accountID, url); err != nil {
		return err
	}
	return nil
}

// Update はアカウントとプロフィールを更新する。
// 両方の更新は同一トランザクションでall-or-nothingでコミットされる。
// フィードバックは保存前にサニタイズされ、結果が空文字列になった場合は
// FEEDBACK_BLANKエラーを返して更新全体を中止する。
//
// 新しいアバター（ファイルまたは取り込みURL）が指定されている場合は
// トランザクション後にストアへ保存し、旧オブジェクトをベストエフォートで削除する。
// アバター保存の失敗はAVATAR_STORE_FAILEDエラーとして返すが、
// テキスト更新は既にコミット済みのため取り消さない。
func (s *Service) Update(ctx context.Context, accountID string, input UpdateInput) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError()
	}

	profile, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return model.NewProfileIntegrityError(accountID)
	}

	now := time.Now()
	account.Username = input.Username
	account.Email = input.Email
	account.FirstName = input.FirstName
	account.LastName = input.LastName
	account.UpdatedAt = now

	// マークアップのみの入力はサニタイズで空文字列になる。
	// DBのNOT BLANK制約に達する前にフィールドエラーとして返す。
	sanitized := s.sanitizer.Sanitize(input.Feedback)
	if strings.TrimSpace(sanitized) == "" {
		return model.NewFeedbackBlankError()
	}

	oldAvatarURL := profile.AvatarURL
	profile.Feedback = sanitized
	profile.UpdatedAt = now

	if err := s.accountRepo.UpdateWithProfile(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return model.NewUsernameTakenError(input.Username)
		}
		return fmt.Errorf("アカウントの更新に失敗しました: %w", err)
	}

	newAvatar, err := s.resolveNewAvatar(ctx, input)
	if err != nil {
		return model.NewAvatarStoreFailedError(err.Error())
	}
	if newAvatar == nil {
		return nil
	}

	if err := s.attachAvatar(ctx, accountID, newAvatar.ContentType, newAvatar.Body); err != nil {
		slog.Warn("failed to store avatar during profile edit",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return model.NewAvatarStoreFailedError(err.Error())
	}

	// 旧オブジェクトの削除はベストエフォート
	if oldAvatarURL != "" {
		if err := s.imageStore.Delete(ctx, oldAvatarURL); err != nil {
			slog.Warn("failed to delete old avatar object",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// resolveNewAvatar は入力から新しいアバター画像を決定する。
// ファイル添付を優先し、無ければ取り込みURLから取得する。どちらも無ければnil。
func (s *Service) resolveNewAvatar(ctx context.Context, input UpdateInput) (*AvatarUpload, error) {
	if input.Avatar != nil {
		return input.Avatar, nil
	}
	if input.AvatarImportURL == "" {
		return nil, nil
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("avatar import is not configured")
	}

	contentType, body, err := s.fetcher.Fetch(ctx, input.AvatarImportURL)
	if err != nil {
		return nil, err
	}
	return &AvatarUpload{ContentType: contentType, Body: bytes.NewReader(body)}, nil
}

// Delete はアカウントの退会処理を実行する。
// 削除順序: sessions → account（+ CASCADE: profile）
// アバターオブジェクトの削除はベストエフォートで、失敗しても退会は成功する。
func (s *Service) Delete(ctx context.Context, accountID string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("account_id", accountID),
	)

	// アバターURLは削除前に控えておく
	var avatarURL string
	if profile, err := s.profileRepo.FindByAccountID(ctx, accountID); err == nil && profile != nil {
		avatarURL = profile.AvatarURL
	}

	// 1. セッションを削除
	if err := s.sessionRepo.DeleteByAccountID(ctx, accountID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 2. アカウントを削除（プロフィールはCASCADE削除）
	if err := s.accountRepo.DeleteByID(ctx, accountID); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}

	// 3. アバターオブジェクトを削除（ベストエフォート）
	if avatarURL != "" {
		if err := s.imageStore.Delete(ctx, avatarURL); err != nil {
			slog.Warn("failed to delete avatar object on withdrawal",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("退会処理が完了しました",
		slog.String("account_id", accountID),
	)

	return nil
}

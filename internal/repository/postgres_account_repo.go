package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/profiles/internal/model"
)

// ErrUsernameTaken はusernameの一意制約に違反した場合に返されるエラー。
var ErrUsernameTaken = errors.New("username already taken")

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at, updated_at
		 FROM accounts WHERE id = $1`,
		id,
	).Scan(&account.ID, &account.Username, &account.Email, &account.FirstName,
		&account.LastName, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}

// FindByUsername は指定ユーザー名のアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at, updated_at
		 FROM accounts WHERE username = $1`,
		username,
	).Scan(&account.ID, &account.Username, &account.Email, &account.FirstName,
		&account.LastName, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}

	return account, nil
}

// CreateWithProfile はアカウントとプロフィールを同一トランザクションで作成する。
// どちらかのINSERTが失敗した場合は両方ロールバックする。
// usernameの一意制約違反はErrUsernameTakenにマップする。
func (r *PostgresAccountRepo) CreateWithProfile(ctx context.Context, account *model.Account, profile *model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// アカウントを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, first_name, last_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.Username, account.Email, account.FirstName,
		account.LastName, account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	// プロフィールを作成（アカウント作成の一部として常に実行する）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (account_id, feedback, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.AccountID, profile.Feedback, profile.AvatarURL, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateWithProfile はアカウントとプロフィールを同一トランザクションで更新する。
// all-or-nothing: どちらかの更新が失敗した場合は両方ロールバックする。
func (r *PostgresAccountRepo) UpdateWithProfile(ctx context.Context, account *model.Account, profile *model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts
		 SET username = $2, email = $3, first_name = $4, last_name = $5, updated_at = $6
		 WHERE id = $1`,
		account.ID, account.Username, account.Email, account.FirstName,
		account.LastName, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", account.ID)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE profiles
		 SET feedback = $2, avatar_url = $3, updated_at = $4
		 WHERE account_id = $1`,
		profile.AccountID, profile.Feedback, profile.AvatarURL, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found for account: %s", profile.AccountID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteByID は指定IDのアカウントを削除する。
// profilesはCASCADE削除される。
func (r *PostgresAccountRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// isUniqueViolation はlib/pqのunique_violationエラーかどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)

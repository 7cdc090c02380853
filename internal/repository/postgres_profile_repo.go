package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/profiles/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByAccountID は指定アカウントのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, feedback, avatar_url, created_at, updated_at
		 FROM profiles WHERE account_id = $1`,
		accountID,
	).Scan(&profile.AccountID, &profile.Feedback, &profile.AvatarURL,
		&profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}

// UpdateAvatarURL はプロフィールのアバターURLのみを更新する。
func (r *PostgresProfileRepo) UpdateAvatarURL(ctx context.Context, accountID, avatarURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET avatar_url = $2, updated_at = now() WHERE account_id = $1`,
		accountID, avatarURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar URL: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found for account: %s", accountID)
	}
	return nil
}

// ListAll は全プロフィールをアカウント情報付きで返す。
// プロフィール作成日時の昇順、同時刻はユーザー名の昇順で並べる。
// DBのデフォルト順には依存しない（決定的な並び順）。
func (r *PostgresProfileRepo) ListAll(ctx context.Context) ([]model.ProfileWithAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.account_id, p.feedback, p.avatar_url, p.created_at, p.updated_at,
		        a.username, a.first_name, a.last_name
		 FROM profiles p
		 JOIN accounts a ON a.id = p.account_id
		 ORDER BY p.created_at ASC, a.username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var list []model.ProfileWithAccount
	for rows.Next() {
		var pa model.ProfileWithAccount
		if err := rows.Scan(&pa.AccountID, &pa.Feedback, &pa.AvatarURL,
			&pa.CreatedAt, &pa.UpdatedAt,
			&pa.Username, &pa.FirstName, &pa.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		list = append(list, pa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}

	return list, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)

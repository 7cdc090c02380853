package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresSessionRepo_FindByID_Expired_ReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	// 期限切れの行はWHERE句で除外されるためErrNoRowsになる
	mock.ExpectQuery("SELECT .+ FROM sessions").
		WithArgs("expired-session").
		WillReturnError(sql.ErrNoRows)

	session, err := repo.FindByID(context.Background(), "expired-session")
	if err != nil {
		t.Fatalf("expected no error for expired session, got %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

func TestPostgresSessionRepo_FindByID_Valid(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "account_id", "expires_at", "created_at"}).
		AddRow("sess-1", "acct-1", now.Add(24*time.Hour), now)

	mock.ExpectQuery("SELECT .+ FROM sessions").
		WithArgs("sess-1").
		WillReturnRows(rows)

	session, err := repo.FindByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session == nil {
		t.Fatal("expected session, got nil")
	}
	if session.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want %q", session.AccountID, "acct-1")
	}
}

// 存在しないセッションの削除が冪等に成功することを検証
func TestPostgresSessionRepo_DeleteByID_Missing_Succeeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec("DELETE FROM sessions WHERE id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByID(context.Background(), "missing"); err != nil {
		t.Errorf("expected no error for missing session, got %v", err)
	}
}

func TestPostgresSessionRepo_DeleteExpired_ReturnsCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}
}

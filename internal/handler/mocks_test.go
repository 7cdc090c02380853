package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/hitoshi/profiles/internal/account"
	"github.com/hitoshi/profiles/internal/model"
)

type mockAuthService struct {
	authenticateFn     func(ctx context.Context, username, password string) (*model.Account, error)
	establishSessionFn func(ctx context.Context, accountID string) (*model.Session, error)
	logoutFn           func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) EstablishSession(ctx context.Context, accountID string) (*model.Session, error) {
	if m.establishSessionFn != nil {
		return m.establishSessionFn(ctx, accountID)
	}
	return &model.Session{
		ID:        "test-session-id",
		AccountID: accountID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ SessionEstablisher = (*mockAuthService)(nil)

type mockAccountService struct {
	signupFn func(ctx context.Context, input account.SignupInput) (*model.Account, error)
	updateFn func(ctx context.Context, accountID string, input account.UpdateInput) error
	deleteFn func(ctx context.Context, accountID string) error
}

func (m *mockAccountService) Signup(ctx context.Context, input account.SignupInput) (*model.Account, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, input)
	}
	return testAccount(), nil
}

func (m *mockAccountService) Update(ctx context.Context, accountID string, input account.UpdateInput) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, accountID, input)
	}
	return nil
}

func (m *mockAccountService) Delete(ctx context.Context, accountID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, accountID)
	}
	return nil
}

var _ AccountServiceInterface = (*mockAccountService)(nil)

type mockAccountReader struct {
	findByIDFn func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockAccountReader) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

var _ AccountReader = (*mockAccountReader)(nil)

type mockProfileReader struct {
	findByAccountIDFn func(ctx context.Context, accountID string) (*model.Profile, error)
	listAllFn         func(ctx context.Context) ([]model.ProfileWithAccount, error)
}

func (m *mockProfileReader) FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error) {
	if m.findByAccountIDFn != nil {
		return m.findByAccountIDFn(ctx, accountID)
	}
	return testProfile(), nil
}

func (m *mockProfileReader) ListAll(ctx context.Context) ([]model.ProfileWithAccount, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

var _ ProfileReader = (*mockProfileReader)(nil)

// mockMetrics はAuthMetricsとPageMetricsを兼ねる記録モック。
type mockMetrics struct {
	signups        int
	loginSuccesses int
	loginFailures  int
	deletions      int
	avatarFailures int
}

func (m *mockMetrics) RecordSignup()              { m.signups++ }
func (m *mockMetrics) RecordLoginSuccess()        { m.loginSuccesses++ }
func (m *mockMetrics) RecordLoginFailure()        { m.loginFailures++ }
func (m *mockMetrics) RecordAccountDeletion()     { m.deletions++ }
func (m *mockMetrics) RecordAvatarUploadFailure() { m.avatarFailures++ }
func (m *mockMetrics) RecordHTTPStatus(int)       {}

var _ AuthMetrics = (*mockMetrics)(nil)
var _ PageMetrics = (*mockMetrics)(nil)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func testAccount() *model.Account {
	now := time.Now()
	return &model.Account{
		ID:        "account-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testProfile() *model.Profile {
	now := time.Now()
	return &model.Profile{
		AccountID: "account-1",
		Feedback:  "Great community!",
		AvatarURL: "https://images.example.com/avatars/account-1/a.png",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return renderer
}

func testCookieConfig() CookieConfig {
	return CookieConfig{SessionMaxAge: 3600}
}

func testPageConfig() PageConfig {
	return PageConfig{
		DefaultAvatarURL: "https://images.example.com/default-avatar.png",
		AvatarMaxSize:    2 << 20,
	}
}

func newTestPageHandler(
	t *testing.T,
	accountService *mockAccountService,
	sessions SessionEstablisher,
	accountReader *mockAccountReader,
	profileReader *mockProfileReader,
	metrics *mockMetrics,
) *PageHandler {
	t.Helper()
	return NewPageHandler(
		testRenderer(t),
		accountService,
		sessions,
		accountReader,
		profileReader,
		metrics,
		testPageConfig(),
		testCookieConfig(),
	)
}

// multipartForm はテキストフィールドのみのマルチパートボディを組み立てる。
func multipartForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/profiles/internal/account"
	"github.com/hitoshi/profiles/internal/middleware"
	"github.com/hitoshi/profiles/internal/model"
)

func validEditFields() map[string]string {
	return map[string]string{
		"username":   "alice",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Smith",
		"feedback":   "Updated feedback",
	}
}

func postEditRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	body, contentType := multipartForm(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/edit_profile/", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithAccountID(req.Context(), "account-1"))
	return req
}

func TestEditProfilePage_PrefillsBothForms(t *testing.T) {
	reader := &mockAccountReader{
		findByIDFn: func(_ context.Context, _ string) (*model.Account, error) {
			return testAccount(), nil
		},
	}
	h := newTestPageHandler(t, &mockAccountService{}, &mockAuthService{}, reader, &mockProfileReader{}, &mockMetrics{})

	req := httptest.NewRequest(http.MethodGet, "/edit_profile/", nil)
	req = req.WithContext(middleware.ContextWithAccountID(req.Context(), "account-1"))

	rec := httptest.NewRecorder()
	h.EditProfilePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `value="alice"`) {
		t.Error("username not prefilled")
	}
	if !strings.Contains(body, "Great community!") {
		t.Error("feedback not prefilled")
	}
}

func TestEditProfile_Success_RedirectsToList(t *testing.T) {
	var gotInput account.UpdateInput
	service := &mockAccountService{
		updateFn: func(_ context.Context, accountID string, input account.UpdateInput) error {
			if accountID != "account-1" {
				t.Errorf("unexpected account id: %s", accountID)
			}
			gotInput = input
			return nil
		},
	}
	h := newTestPageHandler(t, service, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, &mockMetrics{})

	rec := httptest.NewRecorder()
	h.EditProfile(rec, postEditRequest(t, validEditFields()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/profiles-list/" {
		t.Errorf("redirect = %s, want /profiles-list/", loc)
	}
	if gotInput.Feedback != "Updated feedback" {
		t.Errorf("feedback = %s", gotInput.Feedback)
	}
}

func TestEditProfile_ValidationError_Rerenders(t *testing.T) {
	called := false
	service := &mockAccountService{
		updateFn: func(_ context.Context, _ string, _ account.UpdateInput) error {
			called = true
			return nil
		},
	}
	h := newTestPageHandler(t, service, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, &mockMetrics{})

	fields := validEditFields()
	fields["feedback"] = "   "

	rec := httptest.NewRecorder()
	h.EditProfile(rec, postEditRequest(t, fields))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if called {
		t.Error("service should not be called on validation error")
	}
	if !strings.Contains(rec.Body.String(), "This field is required.") {
		t.Error("feedback error not rendered")
	}
}

func TestEditProfile_UsernameTaken_Rerenders(t *testing.T) {
	service := &mockAccountService{
		updateFn: func(_ context.Context, _ string, input account.UpdateInput) error {
			return model.NewUsernameTakenError(input.Username)
		},
	}
	h := newTestPageHandler(t, service, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, &mockMetrics{})

	rec := httptest.NewRecorder()
	h.EditProfile(rec, postEditRequest(t, validEditFields()))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "A user with that username already exists.") {
		t.Error("username taken error not rendered")
	}
}

// アバター保存失敗はテキスト更新をコミット済みのまま警告で報告する
// マークアップのみのフィードバックは生テキストとしては検証を通過するが、
// サニタイズで空になるためフィールドエラーとして再描画される
func TestEditProfile_MarkupOnlyFeedback_Rerenders(t *testing.T) {
	service := &mockAccountService{
		updateFn: func(_ context.Context, _ string, _ account.UpdateInput) error {
			return model.NewFeedbackBlankError()
		},
	}
	h := newTestPageHandler(t, service, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, &mockMetrics{})

	fields := validEditFields()
	fields["feedback"] = `<img src=x>`

	rec := httptest.NewRecorder()
	h.EditProfile(rec, postEditRequest(t, fields))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "This field is required.") {
		t.Error("feedback field error not rendered")
	}
}

func TestEditProfile_AvatarFailure_WarnsAndRedirects(t *testing.T) {
	service := &mockAccountService{
		updateFn: func(_ context.Context, _ string, _ account.UpdateInput) error {
			return model.NewAvatarStoreFailedError("bucket unavailable")
		},
	}
	metrics := &mockMetrics{}
	h := newTestPageHandler(t, service, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, metrics)

	rec := httptest.NewRecorder()
	h.EditProfile(rec, postEditRequest(t, validEditFields()))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if metrics.avatarFailures != 1 {
		t.Errorf("avatarFailures = %d, want 1", metrics.avatarFailures)
	}
	var hasFlash bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookieName && c.Value != "" {
			hasFlash = true
		}
	}
	if !hasFlash {
		t.Error("avatar failure should set a warning flash")
	}
}

func TestProfilesList_RendersAllProfiles(t *testing.T) {
	reader := &mockProfileReader{
		listAllFn: func(_ context.Context) ([]model.ProfileWithAccount, error) {
			return []model.ProfileWithAccount{
				{
					Profile:  model.Profile{Feedback: "First!", AvatarURL: "https://images.example.com/a.png"},
					Username: "alice",
				},
				{
					Profile:  model.Profile{Feedback: "Hello"},
					Username: "bob",
				},
			}, nil
		},
	}
	h := newTestPageHandler(t, &mockAccountService{}, &mockAuthService{}, &mockAccountReader{}, reader, &mockMetrics{})

	req := httptest.NewRequest(http.MethodGet, "/profiles-list/", nil)
	req = req.WithContext(middleware.ContextWithAccountID(req.Context(), "account-1"))

	rec := httptest.NewRecorder()
	h.ProfilesList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alice") || !strings.Contains(body, "bob") {
		t.Error("profiles not all rendered")
	}
	// アバター未設定はプレースホルダーにフォールバックする
	if !strings.Contains(body, testPageConfig().DefaultAvatarURL) {
		t.Error("default avatar fallback not rendered")
	}
	if !strings.Contains(body, "https://images.example.com/a.png") {
		t.Error("stored avatar not rendered")
	}
}

func TestProfilesList_Empty(t *testing.T) {
	h := newTestPageHandler(t, &mockAccountService{}, &mockAuthService{}, &mockAccountReader{}, &mockProfileReader{}, &mockMetrics{})

	req := httptest.NewRequest(http.MethodGet, "/profiles-list/", nil)
	req = req.WithContext(middleware.ContextWithAccountID(req.Context(), "account-1"))

	rec := httptest.NewRecorder()
	h.ProfilesList(rec, req)

	if !strings.Contains(rec.Body.String(), "No profiles yet.") {
		t.Error("empty state not rendered")
	}
}

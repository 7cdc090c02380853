package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlash_RoundTrip(t *testing.T) {
	setRec := httptest.NewRecorder()
	SetFlash(setRec, FlashSuccess, "Welcome, your account has been created.")

	cookies := setRec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != flashCookieName {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	popRec := httptest.NewRecorder()
	flash := PopFlash(popRec, req)
	if flash == nil {
		t.Fatal("flash not returned")
	}
	if flash.Level != FlashSuccess {
		t.Errorf("level = %s, want %s", flash.Level, FlashSuccess)
	}
	if flash.Message != "Welcome, your account has been created." {
		t.Errorf("message = %s", flash.Message)
	}

	// 取り出したらCookieは消去される
	for _, c := range popRec.Result().Cookies() {
		if c.Name == flashCookieName {
			if c.MaxAge != -1 {
				t.Errorf("flash cookie not cleared: %+v", c)
			}
			return
		}
	}
	t.Error("flash cookie clear not set")
}

func TestPopFlash_NoCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	if flash := PopFlash(rec, httptest.NewRequest(http.MethodGet, "/", nil)); flash != nil {
		t.Errorf("flash = %+v, want nil", flash)
	}
}

func TestPopFlash_CorruptCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: "not valid base64 %%%"})

	rec := httptest.NewRecorder()
	if flash := PopFlash(rec, req); flash != nil {
		t.Errorf("flash = %+v, want nil", flash)
	}
}

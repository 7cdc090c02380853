package avatar

import (
	"strings"
	"testing"
)

func TestIsAllowedContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"image/svg+xml", false},
		{"text/html", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := IsAllowedContentType(tt.contentType); got != tt.want {
				t.Errorf("IsAllowedContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// TestObjectKey はオブジェクトキーの形式を検証する。
// 同一アカウントでも呼び出しごとに異なるキーになる。
func TestObjectKey(t *testing.T) {
	key1 := objectKey("acct-1", "png")
	key2 := objectKey("acct-1", "png")

	if !strings.HasPrefix(key1, "avatars/acct-1/") {
		t.Errorf("objectKey = %q, want prefix %q", key1, "avatars/acct-1/")
	}
	if !strings.HasSuffix(key1, ".png") {
		t.Errorf("objectKey = %q, want suffix %q", key1, ".png")
	}
	if key1 == key2 {
		t.Errorf("expected unique keys, got %q twice", key1)
	}
}

func TestKeyFromURL(t *testing.T) {
	store := &S3ImageStore{
		bucket:     "avatars",
		publicBase: "https://img.example.com",
	}

	tests := []struct {
		name    string
		url     string
		wantKey string
		wantOK  bool
	}{
		{
			name:    "管理下のURL",
			url:     "https://img.example.com/avatars/acct-1/abc.png",
			wantKey: "avatars/acct-1/abc.png",
			wantOK:  true,
		},
		{
			name:   "別ホストのURL",
			url:    "https://other.example.com/avatars/acct-1/abc.png",
			wantOK: false,
		},
		{
			name:   "デフォルト画像のパス",
			url:    "/static/img/default-avatar.png",
			wantOK: false,
		},
		{
			name:   "ベースURLのみ",
			url:    "https://img.example.com/",
			wantOK: false,
		},
		{
			name:   "空",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := store.keyFromURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("keyFromURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && key != tt.wantKey {
				t.Errorf("keyFromURL(%q) = %q, want %q", tt.url, key, tt.wantKey)
			}
		})
	}
}

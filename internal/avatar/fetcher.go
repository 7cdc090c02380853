package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/profiles/internal/security"
)

// Fetcher はリモートURLからアバター画像を取得する。
// SSRF防止のためsafeurlベースのHTTPクライアントを使用し、
// 取得前にURLの静的検証も行う。
type Fetcher struct {
	guard   security.SSRFGuardService
	client  *http.Client
	maxSize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(guard security.SSRFGuardService, timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		guard:   guard,
		client:  guard.NewSafeClient(timeout),
		maxSize: maxSize,
	}
}

// Fetch は指定URLから画像を取得し、Content-Typeと本体を返す。
// 以下の場合はエラーを返す:
//   - URLがSSRF検証に失敗した場合
//   - レスポンスが2xx以外の場合
//   - Content-Typeが許可された画像形式でない場合
//   - 本体が最大サイズを超える場合
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	if err := f.guard.ValidateURL(rawURL); err != nil {
		return "", nil, fmt.Errorf("unsafe avatar URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build avatar request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("avatar fetch returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	// "image/png; charset=..." 形式に備えてパラメータを落とす
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !IsAllowedContentType(contentType) {
		return "", nil, fmt.Errorf("unsupported avatar content type: %s", contentType)
	}

	// maxSize+1バイトまで読み、超過を検出する
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read avatar body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return "", nil, fmt.Errorf("avatar exceeds maximum size of %d bytes", f.maxSize)
	}

	return contentType, body, nil
}

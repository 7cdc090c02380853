// Package avatar はアバター画像の外部ストレージ機能を提供する。
//
// 画像本体はS3互換のオブジェクトストレージ（MinIO等）に保存し、
// データベースには公開URLのみを保持する。
package avatar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/hitoshi/profiles/internal/config"
)

// allowedContentTypes は受け入れる画像形式と保存時の拡張子。
var allowedContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// IsAllowedContentType は画像のContent-Typeが受け入れ可能かを返す。
func IsAllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

// ImageStore はアバター画像の保存・削除のインターフェースを定義する。
type ImageStore interface {
	// Store は画像を保存し、公開URLを返す。
	// contentTypeが許可リストに無い場合はエラーを返す。
	Store(ctx context.Context, accountID, contentType string, body io.Reader) (string, error)

	// Delete は公開URLに対応するオブジェクトを削除する。
	// このストアの管理外のURLに対しては何もしない。
	Delete(ctx context.Context, avatarURL string) error
}

// S3ImageStore はS3互換ストレージを使ったImageStoreの実装。
type S3ImageStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3ImageStore はS3ImageStoreの新しいインスタンスを生成する。
// MinIO等のS3互換ストレージに対応するため、エンドポイントと
// 静的クレデンシャルを明示的に設定する。
func NewS3ImageStore(ctx context.Context, cfg *config.Config) (*S3ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIOはパススタイルのバケット指定のみ対応
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimSuffix(cfg.S3PublicBase, "/"),
	}, nil
}

// Store は画像をS3に保存し、公開URLを返す。
// オブジェクトキーにはUUIDを含めるため、同一アカウントの再アップロードでも
// 既存オブジェクトを上書きしない（古いオブジェクトの削除は呼び出し側の責務）。
func (s *S3ImageStore) Store(ctx context.Context, accountID, contentType string, body io.Reader) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	key := objectKey(accountID, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put avatar object: %w", err)
	}

	return s.publicBase + "/" + key, nil
}

// Delete は公開URLに対応するオブジェクトを削除する。
// URLがこのストアの公開ベースURL配下でない場合（デフォルト画像等）は
// 何もせず成功する。
func (s *S3ImageStore) Delete(ctx context.Context, avatarURL string) error {
	key, ok := s.keyFromURL(avatarURL)
	if !ok {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar object: %w", err)
	}
	return nil
}

// keyFromURL は公開URLからオブジェクトキーを逆引きする。
func (s *S3ImageStore) keyFromURL(avatarURL string) (string, bool) {
	prefix := s.publicBase + "/"
	if !strings.HasPrefix(avatarURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(avatarURL, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// objectKey はアバターのオブジェクトキーを生成する。
func objectKey(accountID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s.%s", accountID, uuid.New(), ext)
}

var _ ImageStore = (*S3ImageStore)(nil)

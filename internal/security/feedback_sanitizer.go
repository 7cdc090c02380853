// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FeedbackSanitizerService はプロフィールのフィードバック文をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// フィードバックはプレーンテキストとして扱うため、bluemondayの
// StrictPolicyで全てのHTMLタグを除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FeedbackSanitizerService はフィードバック文のサニタイズ機能のインターフェースを定義する。
// プロフィール保存前に使用される。
type FeedbackSanitizerService interface {
	// Sanitize はフィードバック文から全てのHTMLタグを除去し、
	// プレーンテキストを返す。前後の空白もトリムする。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// feedbackSanitizer はFeedbackSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type feedbackSanitizer struct {
	policy *bluemonday.Policy
}

// NewFeedbackSanitizer はFeedbackSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去する（許可リストが空）。
func NewFeedbackSanitizer() *feedbackSanitizer {
	return &feedbackSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はフィードバック文をプレーンテキスト化して返す。
// StrictPolicyはタグ除去後のテキストをHTMLエスケープするため、
// 表示用テンプレートでの二重エスケープを避けるためにアンエスケープして返す。
func (s *feedbackSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}

var _ FeedbackSanitizerService = (*feedbackSanitizer)(nil)

package security

import "testing"

// TestFeedbackSanitize_StripsTags は全てのHTMLタグが除去されることを検証する。
func TestFeedbackSanitize_StripsTags(t *testing.T) {
	sanitizer := NewFeedbackSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "great service",
			want:  "great service",
		},
		{
			name:  "scriptタグを除去",
			input: `before<script>alert("xss")</script>after`,
			want:  "beforeafter",
		},
		{
			name:  "通常のタグも除去（プレーンテキスト扱い）",
			input: "<p>hello <strong>world</strong></p>",
			want:  "hello world",
		},
		{
			name:  "onclick属性ごと除去",
			input: `<a href="#" onclick="steal()">click</a>`,
			want:  "click",
		},
		{
			name:  "imgタグを除去",
			input: `text<img src="x" onerror="alert(1)">more`,
			want:  "textmore",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "前後の空白をトリム",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "マルチバイト文字を保持",
			input: "とても良いサービスです",
			want:  "とても良いサービスです",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestFeedbackSanitize_Idempotent は同一入力に対し常に同一出力となることを検証する。
func TestFeedbackSanitize_Idempotent(t *testing.T) {
	sanitizer := NewFeedbackSanitizer()

	input := `mixed <b>content</b> & "quotes"`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("Sanitize is not idempotent: first=%q second=%q", first, second)
	}
}

// TestFeedbackSanitize_NoDoubleEscape はエスケープ済み文字が二重エスケープされないことを検証する。
func TestFeedbackSanitize_NoDoubleEscape(t *testing.T) {
	sanitizer := NewFeedbackSanitizer()

	got := sanitizer.Sanitize("fish & chips")
	if got != "fish & chips" {
		t.Errorf("Sanitize(%q) = %q, want %q", "fish & chips", got, "fish & chips")
	}
}

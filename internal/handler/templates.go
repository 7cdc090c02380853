package handler

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiles/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData は全ページ共通のテンプレートデータ。
// ページ固有のデータはDataに載せる。
type pageData struct {
	Title          string
	CurrentAccount *model.Account
	Flash          *Flash
	CSRFToken      string
	Errors         map[string][]string
	Data           any
}

// Renderer は埋め込みテンプレートを描画する。
// 各ページはlayout.htmlと組で事前にパースされる。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページテンプレートをパースしたRendererを生成する。
// テンプレートの不備は起動時に検出する。
func NewRenderer() (*Renderer, error) {
	pageNames := []string{"home", "signup", "edit_profile", "profiles_list"}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render は指定ページをlayoutごと描画する。
func (rd *Renderer) Render(w http.ResponseWriter, statusCode int, page string, data *pageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		slog.Error("unknown template page", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

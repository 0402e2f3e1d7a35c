package render

import (
	"embed"
	"html/template"
)

// PageTemplate はginに登録するページテンプレート名です。
const PageTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates は埋め込みのHTMLテンプレートを読み込みます。
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Confirmation は削除確認ダイアログの内容です。
type Confirmation struct {
	ID    int64
	Title string
	Token string
}

// Page はページ全体の描画データです。
type Page struct {
	View    View
	Warning string
	Error   string
	Confirm *Confirmation
}

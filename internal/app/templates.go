package app

import (
	"bytes"
	"embed"
	"html/template"

	"dgcreview/api/internal/listing"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"rowClass": func(changed bool) string {
		if changed {
			return "table-danger"
		}
		return ""
	},
}).ParseFS(templateFS, "templates/*.html"))

type indexData struct {
	Title string
	Items []listing.Item
}

func renderIndex(data indexData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

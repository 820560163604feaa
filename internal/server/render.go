package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed web/templates/*.html web/static
var webFS embed.FS

var pages = []string{"index.html", "embed.html", "error.html"}

// templateRenderer renders pages wrapped in the shared layout.
type templateRenderer struct {
	templates map[string]*template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	r := &templateRenderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(webFS, "web/templates/layout.html", "web/templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// pageData is passed to every template.
type pageData struct {
	Title string
	Body  interface{}
}

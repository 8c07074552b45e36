package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed template/*.html
var templateFs embed.FS

// TemplateRenderer renders every page inside layout.html.
type TemplateRenderer struct {
	tmpl *template.Template
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	wrapped := map[string]any{
		"Page": name,
		"Data": data,
	}
	if err := t.tmpl.ExecuteTemplate(w, "layout.html", wrapped); err != nil {
		c.Logger().Error(err)
		return err
	}
	return nil
}

func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{tmpl: MustParseTemplates()}
}

func MustParseTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFs, "template/*.html"))
}

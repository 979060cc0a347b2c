// Package renderer turns a transformed form definition into HTML.
package renderer

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/spectrumleads/formgate/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer holds the parsed form template.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates. It fails only on a broken build, so
// callers typically treat an error here as fatal.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.ErrInternalServer.WithInternal(err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the form template against a precomputed page.
func (r *Renderer) Render(page Page) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "form.tmpl", page); err != nil {
		return "", errors.ErrInternalServer.WithInternal(err)
	}
	return buf.String(), nil
}

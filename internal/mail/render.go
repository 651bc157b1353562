package mail

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names used by the lead notification flows.
const (
	TemplateLeadAdmin  = "lead_admin.html"
	TemplateLeadClient = "lead_client.html"
)

// Renderer executes the embedded notification templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template set.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template with the given data.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
	}
	return buf.String(), nil
}

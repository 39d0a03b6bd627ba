package template

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed assets/template.html
var builtinTemplate string

//go:embed assets/style.css
var builtinStyle string

// requiredPlaceholders are the substitutions a page template cannot do
// without. A template missing one still renders; the build surfaces a usage
// warning instead of failing.
var requiredPlaceholders = []string{"{{title}}", "{{content}}"}

// Template is one page shell. Placeholder substitution is raw string work;
// no escaping happens here, the template author owns the HTML.
type Template struct {
	raw   string
	style string
}

// BuiltIn returns the embedded theme, its stylesheet inlined via {{style}}.
func BuiltIn() *Template {
	return &Template{raw: builtinTemplate, style: builtinStyle}
}

// FromPath loads a custom template file. Custom templates bring their own
// styling, so {{style}} resolves empty.
func FromPath(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return &Template{raw: string(raw)}, nil
}

// MissingPlaceholders lists required placeholders absent from the template.
func (t *Template) MissingPlaceholders() []string {
	var missing []string
	for _, p := range requiredPlaceholders {
		if !strings.Contains(t.raw, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// PageData carries the per-page fragments substituted into the shell.
type PageData struct {
	Title       string
	Content     string
	Nav         string
	Breadcrumbs string
	ExtraHead   string
	ExtraBody   string
}

// Render substitutes all placeholders in one pass over the template, so
// placeholder-looking text inside page content stays literal.
func (t *Template) Render(d PageData) string {
	return strings.NewReplacer(
		"{{title}}", d.Title,
		"{{content}}", d.Content,
		"{{nav}}", d.Nav,
		"{{breadcrumbs}}", d.Breadcrumbs,
		"{{style}}", t.style,
		"{{extra_head}}", d.ExtraHead,
		"{{extra_body}}", d.ExtraBody,
	).Replace(t.raw)
}

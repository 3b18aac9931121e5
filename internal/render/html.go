package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"docsmith/internal/domain"
)

// documentTemplate is the built-in page layout. Styling lives inline so the
// artifact is self-contained for both browsers and the PDF renderer.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, 'Times New Roman', serif; max-width: 48rem; margin: 2rem auto; color: #1a1a1a; line-height: 1.5; }
h1 { font-size: 1.6rem; margin-bottom: 0.2rem; }
h2 { font-size: 1.1rem; border-bottom: 1px solid #ccc; padding-bottom: 0.2rem; margin-top: 1.4rem; }
.subtitle { color: #555; margin-top: 0; }
.summary { font-style: italic; }
ul { margin: 0.4rem 0; padding-left: 1.4rem; }
pre { white-space: pre-wrap; font-family: inherit; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Subtitle}}<p class="subtitle">{{.Subtitle}}</p>{{end}}
{{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
{{range .Sections}}
<h2>{{.Heading}}</h2>
{{if .Body}}<p>{{.Body}}</p>{{end}}
{{if .Items}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}
{{if .Raw}}<pre>{{.Raw}}</pre>{{end}}
</body>
</html>
`

type htmlSection struct {
	Heading string
	Body    string
	Items   []string
}

type htmlDocument struct {
	Title    string
	Subtitle string
	Summary  string
	Sections []htmlSection
	Raw      string
}

// HTMLRenderer renders results through the built-in HTML template.
type HTMLRenderer struct {
	tpl *template.Template
}

// NewHTMLRenderer creates the HTML renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("document").Parse(documentTemplate)),
	}
}

func (r *HTMLRenderer) Format() string      { return "html" }
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render executes the template over the structured document, or wraps the
// raw text when no structure is available.
func (r *HTMLRenderer) Render(_ context.Context, result *domain.GenerationResult) ([]byte, error) {
	doc := buildHTMLDocument(result)
	if doc.Title == "" && doc.Raw == "" {
		return nil, fmt.Errorf("result has no content")
	}
	if doc.Title == "" {
		doc.Title = "Generated Document"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("template execution failed: %w", err)
	}
	return buf.Bytes(), nil
}

func buildHTMLDocument(result *domain.GenerationResult) htmlDocument {
	if result.Structured == nil {
		return htmlDocument{Raw: result.Text}
	}

	m := result.Structured
	doc := htmlDocument{}
	doc.Title, _ = m["title"].(string)
	doc.Subtitle, _ = m["subtitle"].(string)
	doc.Summary, _ = m["summary"].(string)

	sections, _ := m["sections"].([]interface{})
	for _, raw := range sections {
		section, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		s := htmlSection{}
		s.Heading, _ = section["heading"].(string)
		s.Body, _ = section["body"].(string)
		if items, _ := section["items"].([]interface{}); len(items) > 0 {
			for _, item := range items {
				if str, ok := item.(string); ok {
					s.Items = append(s.Items, str)
				}
			}
		}
		doc.Sections = append(doc.Sections, s)
	}
	return doc
}

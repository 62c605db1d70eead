// Package render produces a self-contained HTML page for a query projection.
package render

import (
	"bytes"
	"html/template"

	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/query"
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Publications"

// NoResultsMessage is shown when the projection has no records.
const NoResultsMessage = "No publications match your search criteria."

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("page").Parse(pageTemplate))
}

// Options configures page generation.
type Options struct {
	Title   string
	Filters query.Filters    // Echoed back into the filter form
	Years   []string         // Year dropdown values
	Types   []catalog.Option // Type dropdown values and labels
	Labels  format.Labels    // Section headers; defaults to format.SectionLabels
	Action  string           // Form target; empty disables the form
}

// Section is one rendered category group.
type Section struct {
	Category     string
	Label        string
	Publications []format.Display
}

type templateData struct {
	Title    string
	Action   string
	Filters  query.Filters
	Years    []string
	Types    []catalog.Option
	Sections []Section
	Total    int
	Empty    string
}

// Sections converts ordered groups into labeled display sections.
func Sections(groups []query.Group, labels format.Labels) []Section {
	if labels == nil {
		labels = format.SectionLabels
	}
	sections := make([]Section, 0, len(groups))
	for _, g := range groups {
		if len(g.Records) == 0 {
			continue
		}
		sections = append(sections, Section{
			Category:     g.Category,
			Label:        format.CategoryLabel(g.Category, labels),
			Publications: format.ToDisplayList(g.Records),
		})
	}
	return sections
}

// Page renders groups as a complete HTML document.
func Page(groups []query.Group, opts Options) (string, error) {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	sections := Sections(groups, opts.Labels)
	total := 0
	for _, s := range sections {
		total += len(s.Publications)
	}

	data := templateData{
		Title:    title,
		Action:   opts.Action,
		Filters:  opts.Filters,
		Years:    opts.Years,
		Types:    opts.Types,
		Sections: sections,
		Total:    total,
		Empty:    NoResultsMessage,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      max-width: 900px;
      margin: 0 auto;
      padding: 24px;
      color: #222;
    }
    .filters { display: flex; gap: 8px; margin-bottom: 24px; }
    .filters input[type=search] { flex: 1; padding: 6px; }
    .section-header h2 { border-bottom: 1px solid #ddd; padding-bottom: 4px; }
    .publication { margin-bottom: 16px; }
    .publication-year { color: #888; font-size: 0.9em; }
    .publication-title { font-weight: 600; }
    .publication-venue { font-style: italic; color: #555; }
    .publication-links a { margin-right: 8px; }
    .no-results { color: #666; padding: 32px 0; text-align: center; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
{{- if .Action}}
  <form class="filters" method="get" action="{{.Action}}">
    <input type="search" name="q" value="{{.Filters.Text}}" placeholder="Search publications">
    <select name="year">
      <option value="all">All years</option>
      {{- range .Years}}
      <option value="{{.}}"{{if eq . $.Filters.Year}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
    <select name="type">
      <option value="all">All types</option>
      {{- range .Types}}
      <option value="{{.Value}}"{{if eq .Value $.Filters.Category}} selected{{end}}>{{.Label}}</option>
      {{- end}}
    </select>
    <button type="submit">Filter</button>
  </form>
{{- end}}
  <div id="publications-container" data-total="{{.Total}}">
{{- if not .Sections}}
    <div class="no-results">{{.Empty}}</div>
{{- end}}
{{- range .Sections}}
    <div class="publication-section" data-category="{{.Category}}">
      <div class="section-header"><h2>{{.Label}}</h2></div>
      <div class="publication-list">
      {{- range .Publications}}
        <div class="publication" id="{{.Key}}">
          <div class="publication-year">{{.Year}}</div>
          <div class="publication-title">{{.Title}}</div>
          <div class="publication-authors">{{.Authors}}</div>
          {{- if .Venue}}
          <div class="publication-venue">{{.Venue}}</div>
          {{- end}}
          <div class="publication-links">
          {{- range .Links}}
            <a href="{{.URL}}" target="_blank" rel="noopener">{{.Label}}</a>
          {{- end}}
          </div>
        </div>
      {{- end}}
      </div>
    </div>
{{- end}}
  </div>
</body>
</html>
`

// Package renderer turns pipeline outcomes into markdown for the CLI.
package renderer

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/impulsa/dataflow"
)

//go:embed templates/*.md
var templates embed.FS

// Run is the view of a single ingestion run outcome.
type Run struct {
	Client  string
	File    string
	OK      bool
	Message string
	Report  *dataflow.IntegrityReport
}

// RunMarkdown renders a run outcome report.
func RunMarkdown(r *Run) string {
	return renderTemplate("run", "templates/run.md", r)
}

// HistoryMarkdown renders recent status records, newest first.
func HistoryMarkdown(records []dataflow.StatusRecord) string {
	return renderTemplate("history", "templates/history.md", records)
}

// preview is the internal view for PreviewMarkdown.
type preview struct {
	Headers []string
	Sep     []string
	Rows    [][]string
	Shown   int
	Total   int
}

// PreviewMarkdown renders the head of a table as a markdown table.
func PreviewMarkdown(t *dataflow.Table, limit int) string {
	names := t.Names()
	shown := t.NumRows()
	if limit > 0 && shown > limit {
		shown = limit
	}
	v := preview{Headers: names, Shown: shown, Total: t.NumRows()}
	v.Sep = make([]string, len(names))
	for i := range v.Sep {
		v.Sep[i] = "---"
	}
	for i := 0; i < shown; i++ {
		row := make([]string, len(names))
		for j, name := range names {
			row[j] = t.Column(name).Value(i).String()
		}
		v.Rows = append(v.Rows, row)
	}
	return renderTemplate("preview", "templates/preview.md", &v)
}

// renderTemplate executes one embedded template against its view. A
// template error renders as text instead of failing the command.
func renderTemplate(name, file string, data any) string {
	content, err := templates.ReadFile(file)
	if err != nil {
		return fmt.Sprintf("error reading template %q: %v", file, err)
	}
	funcs := template.FuncMap{
		"join": strings.Join,
		"pct":  func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	}
	tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return fmt.Sprintf("error parsing template %q: %v", file, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error rendering template %q: %v", file, err)
	}
	return b.String()
}

// Package report renders a comparison result document as Markdown.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"apidiff/internal/diff"
	"apidiff/internal/literal"
	"apidiff/internal/output"
)

type reportData struct {
	GeneratedAt string
	OldFile     string
	NewFile     string
	Doc         *output.Document
}

// GenerateMarkdown writes the Markdown report for a result document.
func GenerateMarkdown(doc *output.Document, oldFile, newFile, outputPath string) error {
	data := reportData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		OldFile:     oldFile,
		NewFile:     newFile,
		Doc:         doc,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"value":      renderValue,
		"pairRows":   pairRows,
		"valueRows":  valueRows,
		"textDiff":   renderTextDiff,
		"statusIcon": statusIcon,
	}).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}

// renderValue prints a literal value in a table-cell-safe single line.
func renderValue(v *literal.Value) string {
	if v == nil {
		return "`<absent>`"
	}

	text := v.Text()
	if len(text) > 120 {
		text = text[:117] + "..."
	}
	text = strings.ReplaceAll(text, "|", "\\|")
	text = strings.ReplaceAll(text, "\n", " ")

	return "`" + text + "`"
}

type row struct {
	Path string
	Old  string
	New  string
}

// valueRows flattens a one-sided bucket (added/removed) into sorted rows.
func valueRows(bucket map[string]*literal.Value) []row {
	var rows []row
	for path, v := range bucket {
		rows = append(rows, row{Path: path, Old: renderValue(v)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	return rows
}

// pairRows flattens a two-sided bucket (changed/type mismatch) into sorted rows.
func pairRows(bucket map[string]*output.ValuePair) []row {
	var rows []row
	for path, pair := range bucket {
		rows = append(rows, row{
			Path: path,
			Old:  renderValue(pair.Old),
			New:  renderValue(pair.New),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	return rows
}

// renderTextDiff shows a raw-text body diff as a fenced diff block.
func renderTextDiff(segments []diff.TextSegment) string {
	var sb strings.Builder
	sb.WriteString("```diff\n")

	for _, seg := range segments {
		prefix := "  "
		switch seg.Op {
		case "insert":
			prefix = "+ "
		case "delete":
			prefix = "- "
		}
		for _, line := range strings.Split(strings.TrimRight(seg.Text, "\n"), "\n") {
			sb.WriteString(prefix + line + "\n")
		}
	}

	sb.WriteString("```")

	return sb.String()
}

func statusIcon(hasDifferences bool) string {
	if hasDifferences {
		return "⚠️"
	}

	return "✅"
}

const markdownTemplate = `# API Traffic Comparison Report

Generated: {{.GeneratedAt}}

| | |
|---|---|
| Old run | ` + "`{{.OldFile}}`" + ` |
| New run | ` + "`{{.NewFile}}`" + ` |
{{- if .Doc.Metadata.OldBaseURL}}
| Old base URL | {{.Doc.Metadata.OldBaseURL}} |
{{- end}}
{{- if .Doc.Metadata.NewBaseURL}}
| New base URL | {{.Doc.Metadata.NewBaseURL}} |
{{- end}}

## Summary

| Metric | Count |
|---|---|
| Requests in old run | {{.Doc.Summary.TotalOld}} |
| Requests in new run | {{.Doc.Summary.TotalNew}} |
| Matched | {{.Doc.Summary.Matched}} |
| With differences | {{.Doc.Summary.WithDifferences}} |
| Only in old | {{.Doc.Summary.OnlyInOld}} |
| Only in new | {{.Doc.Summary.OnlyInNew}} |

## Matched Endpoints
{{range .Doc.Matched}}
### {{statusIcon .HasDifferences}} {{.Method}} {{.Path}}
{{- if not .HasDifferences}}

No differences.
{{- end}}
{{- with .Query}}

#### Query parameters
{{template "grouped" .}}
{{- end}}
{{- with .Headers}}

#### Headers
{{template "grouped" .}}
{{- end}}
{{- with .Body}}

#### Request body
{{template "grouped" .}}
{{- end}}
{{- with .BodyText}}

#### Request body (raw text)

{{textDiff .}}
{{- end}}
{{- with .Response}}
{{- if .Unavailable}}

_Response comparison unavailable: {{.Unavailable}}_
{{- else}}
{{- if ne .OldStatus .NewStatus}}

#### Response status

Changed from **{{.OldStatus}}** to **{{.NewStatus}}**.
{{- end}}
{{- with .Body}}

#### Response body
{{template "grouped" .}}
{{- end}}
{{- with .BodyText}}

#### Response body (raw text)

{{textDiff .}}
{{- end}}
{{- end}}
{{- end}}
{{end}}
{{- if .Doc.OnlyInOld}}
## Only in Old Run

| Method | Path |
|---|---|
{{- range .Doc.OnlyInOld}}
| {{.Method}} | {{.Path}} |
{{- end}}
{{end}}
{{- if .Doc.OnlyInNew}}
## Only in New Run

| Method | Path |
|---|---|
{{- range .Doc.OnlyInNew}}
| {{.Method}} | {{.Path}} |
{{- end}}
{{end}}
{{- with .Doc.Warnings}}
## Parse Warnings
{{range .Old}}
- old export: {{.}}
{{- end}}
{{- range .New}}
- new export: {{.}}
{{- end}}
{{end}}
{{- define "grouped"}}
{{- with .Added}}

**Added**

| Path | Value |
|---|---|
{{- range valueRows .}}
| ` + "`{{.Path}}`" + ` | {{.Old}} |
{{- end}}
{{- end}}
{{- with .Removed}}

**Removed**

| Path | Value |
|---|---|
{{- range valueRows .}}
| ` + "`{{.Path}}`" + ` | {{.Old}} |
{{- end}}
{{- end}}
{{- with .Changed}}

**Changed**

| Path | Old | New |
|---|---|---|
{{- range pairRows .}}
| ` + "`{{.Path}}`" + ` | {{.Old}} | {{.New}} |
{{- end}}
{{- end}}
{{- with .TypeMismatch}}

**Type mismatches**

| Path | Old | New |
|---|---|---|
{{- range pairRows .}}
| ` + "`{{.Path}}`" + ` | {{.Old}} | {{.New}} |
{{- end}}
{{- end}}
{{- end}}
`

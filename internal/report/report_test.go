package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apidiff/internal/compare"
	"apidiff/internal/extract"
	"apidiff/internal/output"
)

func TestGenerateMarkdown(t *testing.T) {
	oldRun := extract.Extract(`fetch("https://api.example.com/users?page=1", {"method": "GET"});
fetch("https://api.example.com/legacy", {"method": "DELETE"});`)
	newRun := extract.Extract(`fetch("https://api.example.com/users?page=2", {"method": "GET"});
fetch("https://api.example.com/orders", {
  "method": "POST",
  "body": "{\"total\": 9.5}"
});`)

	result := compare.Compare(oldRun.Records, newRun.Records, compare.Options{})
	doc := output.Build(result, extract.Metadata{BaseURL: "https://api.example.com"}, extract.Metadata{})

	path := filepath.Join(t.TempDir(), "report.md")
	if err := GenerateMarkdown(doc, "old.txt", "new.txt", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"# API Traffic Comparison Report",
		"## Summary",
		"GET /users",
		"**Changed**",
		"`page`",
		"## Only in Old Run",
		"DELETE",
		"## Only in New Run",
		"/orders",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderValue(t *testing.T) {
	t.Run("nil value", func(t *testing.T) {
		if got := renderValue(nil); got != "`<absent>`" {
			t.Errorf("unexpected rendering %q", got)
		}
	})

	t.Run("pipes escaped for tables", func(t *testing.T) {
		oldRun := extract.Extract(`fetch("https://a/x", {"method": "POST", "body": "{\"v\": \"a|b\"}"});`)
		v, _ := oldRun.Records[0].Body.Lookup("v")

		if got := renderValue(v); strings.Contains(got, "a|b") {
			t.Errorf("pipe should be escaped: %q", got)
		}
	})

	t.Run("long values truncated", func(t *testing.T) {
		oldRun := extract.Extract(`fetch("https://a/x", {"method": "POST", "body": "{\"v\": \"` + strings.Repeat("x", 300) + `\"}"});`)
		v, _ := oldRun.Records[0].Body.Lookup("v")

		got := renderValue(v)
		if len(got) > 130 {
			t.Errorf("value should be truncated, got %d chars", len(got))
		}
		if !strings.Contains(got, "...") {
			t.Errorf("truncation should be marked: %q", got)
		}
	})
}

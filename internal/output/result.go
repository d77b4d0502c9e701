// Package output serializes comparison results: the JSON result document,
// collected-run files, and the colored terminal summary.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"apidiff/internal/compare"
	"apidiff/internal/diff"
	"apidiff/internal/extract"
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// Document is the serializable form of a comparison, consumed by the
// Markdown report and by downstream tooling.
type Document struct {
	Metadata  Metadata        `json:"metadata"`
	Summary   compare.Summary `json:"summary"`
	Matched   []MatchedEntry  `json:"matched"`
	OnlyInOld []RequestEntry  `json:"only_in_old"`
	OnlyInNew []RequestEntry  `json:"only_in_new"`
	Warnings  *Warnings       `json:"warnings,omitempty"`
}

type Metadata struct {
	OldBaseURL string `json:"old_base_url,omitempty"`
	NewBaseURL string `json:"new_base_url,omitempty"`
}

type Warnings struct {
	Old []string `json:"old,omitempty"`
	New []string `json:"new,omitempty"`
}

type MatchedEntry struct {
	Method         string             `json:"method"`
	Path           string             `json:"path"`
	OldURL         string             `json:"old_url"`
	NewURL         string             `json:"new_url"`
	HasDifferences bool               `json:"has_differences"`
	Query          *GroupedDiff       `json:"query,omitempty"`
	Headers        *GroupedDiff       `json:"headers,omitempty"`
	Body           *GroupedDiff       `json:"body,omitempty"`
	BodyText       []diff.TextSegment `json:"body_text,omitempty"`
	Response       *ResponseEntry     `json:"response,omitempty"`
}

type ResponseEntry struct {
	OldStatus   int                `json:"old_status,omitempty"`
	NewStatus   int                `json:"new_status,omitempty"`
	Body        *GroupedDiff       `json:"body,omitempty"`
	BodyText    []diff.TextSegment `json:"body_text,omitempty"`
	Unavailable string             `json:"unavailable,omitempty"`
}

type RequestEntry struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	URL    string         `json:"url"`
	Query  []models.Param `json:"query,omitempty"`
	Body   *literal.Value `json:"body,omitempty"`
}

// GroupedDiff buckets a flat entry list by kind, keyed by path string.
// encoding/json writes map keys sorted, so the document is deterministic.
type GroupedDiff struct {
	Added        map[string]*literal.Value `json:"added,omitempty"`
	Removed      map[string]*literal.Value `json:"removed,omitempty"`
	Changed      map[string]*ValuePair     `json:"changed,omitempty"`
	TypeMismatch map[string]*ValuePair     `json:"type_mismatch,omitempty"`
}

type ValuePair struct {
	Old *literal.Value `json:"old"`
	New *literal.Value `json:"new"`
}

// Group converts a flat diff entry list. Returns nil for an empty list so
// the field is omitted from the document.
func Group(entries []diff.Entry) *GroupedDiff {
	if len(entries) == 0 {
		return nil
	}

	g := &GroupedDiff{}
	for _, e := range entries {
		path := e.Path.String()
		switch e.Kind {
		case diff.Added:
			if g.Added == nil {
				g.Added = map[string]*literal.Value{}
			}
			g.Added[path] = e.New
		case diff.Removed:
			if g.Removed == nil {
				g.Removed = map[string]*literal.Value{}
			}
			g.Removed[path] = e.Old
		case diff.Changed:
			if g.Changed == nil {
				g.Changed = map[string]*ValuePair{}
			}
			g.Changed[path] = &ValuePair{Old: e.Old, New: e.New}
		case diff.TypeMismatch:
			if g.TypeMismatch == nil {
				g.TypeMismatch = map[string]*ValuePair{}
			}
			g.TypeMismatch[path] = &ValuePair{Old: e.Old, New: e.New}
		}
	}

	return g
}

// Build flattens a comparison result into the output document.
func Build(result *compare.Result, oldMeta, newMeta extract.Metadata) *Document {
	doc := &Document{
		Metadata: Metadata{
			OldBaseURL: oldMeta.BaseURL,
			NewBaseURL: newMeta.BaseURL,
		},
		Summary:   result.Summary,
		Matched:   []MatchedEntry{},
		OnlyInOld: requestEntries(result.OnlyInOld),
		OnlyInNew: requestEntries(result.OnlyInNew),
	}

	for i := range result.Matched {
		pair := &result.Matched[i]

		entry := MatchedEntry{
			Method:         pair.Old.Method,
			Path:           pair.Old.Path,
			OldURL:         pair.Old.FullURL,
			NewURL:         pair.New.FullURL,
			HasDifferences: pair.HasDifferences(),
			Query:          Group(pair.QueryDiff),
			Headers:        Group(pair.HeaderDiff),
			Body:           Group(pair.BodyDiff),
			BodyText:       pair.BodyText,
		}

		if rc := pair.Response; rc != nil {
			entry.Response = &ResponseEntry{
				OldStatus:   rc.OldStatus,
				NewStatus:   rc.NewStatus,
				Body:        Group(rc.BodyDiff),
				BodyText:    rc.BodyText,
				Unavailable: rc.Unavailable,
			}
		}

		doc.Matched = append(doc.Matched, entry)
	}

	if len(result.OldWarnings) > 0 || len(result.NewWarnings) > 0 {
		doc.Warnings = &Warnings{
			Old: warningStrings(result.OldWarnings),
			New: warningStrings(result.NewWarnings),
		}
	}

	return doc
}

func requestEntries(records []models.RequestRecord) []RequestEntry {
	entries := []RequestEntry{}
	for _, r := range records {
		entry := RequestEntry{
			Method: r.Method,
			Path:   r.Path,
			URL:    r.FullURL,
			Query:  r.Query,
			Body:   r.Body,
		}
		if entry.Body == nil && r.RawBody != "" {
			entry.Body = literal.StringValue(r.RawBody)
		}
		entries = append(entries, entry)
	}

	return entries
}

func warningStrings(warnings []models.Warning) []string {
	var out []string
	for _, w := range warnings {
		out = append(out, w.String())
	}

	return out
}

// WriteJSON writes the document to path, or stdout when path is empty.
func WriteJSON(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}

	return nil
}

// Package compare runs the full request-side comparison: match the two runs,
// diff query strings, headers and bodies for every pair, and compare
// responses when both sides carry them. The result is pure data; rendering
// and I/O live elsewhere.
package compare

import (
	"apidiff/internal/config"
	"apidiff/internal/diff"
	"apidiff/internal/literal"
	"apidiff/internal/match"
	"apidiff/internal/models"
)

type Options struct {
	Config *config.Config

	// IgnoreVolatile strips configured volatile fields from bodies before
	// diffing.
	IgnoreVolatile bool
}

// Summary carries the counts exposed to reports and rule evaluation.
type Summary struct {
	TotalOld        int `json:"total_old"`
	TotalNew        int `json:"total_new"`
	Matched         int `json:"matched"`
	OnlyInOld       int `json:"only_in_old"`
	OnlyInNew       int `json:"only_in_new"`
	WithDifferences int `json:"with_differences"`
}

// ResponseComparison covers one matched pair's responses. Unavailable is set
// when either side's replay failed; the request-side diffs are unaffected.
type ResponseComparison struct {
	OldStatus     int
	NewStatus     int
	StatusChanged bool
	BodyDiff      []diff.Entry
	BodyText      []diff.TextSegment
	Unavailable   string
}

func (rc *ResponseComparison) HasDifferences() bool {
	if rc == nil {
		return false
	}

	return rc.StatusChanged || len(rc.BodyDiff) > 0 || len(rc.BodyText) > 0
}

type MatchedPair struct {
	Old models.RequestRecord
	New models.RequestRecord

	QueryDiff  []diff.Entry
	HeaderDiff []diff.Entry
	BodyDiff   []diff.Entry

	// BodyText is the fallback comparison for bodies that never parsed as
	// JSON on either side.
	BodyText []diff.TextSegment

	Response *ResponseComparison
}

func (p *MatchedPair) HasDifferences() bool {
	return len(p.QueryDiff) > 0 || len(p.HeaderDiff) > 0 ||
		len(p.BodyDiff) > 0 || len(p.BodyText) > 0 ||
		p.Response.HasDifferences()
}

// Result is built once per comparison and not mutated afterwards.
type Result struct {
	Matched   []MatchedPair
	OnlyInOld []models.RequestRecord
	OnlyInNew []models.RequestRecord
	Summary   Summary

	OldWarnings []models.Warning
	NewWarnings []models.Warning
}

func (r *Result) HasDifferences() bool {
	if len(r.OnlyInOld) > 0 || len(r.OnlyInNew) > 0 {
		return true
	}

	for i := range r.Matched {
		if r.Matched[i].HasDifferences() {
			return true
		}
	}

	return false
}

// Compare matches the two runs and diffs every pair. Pair order follows the
// old run's traversal order.
func Compare(old, new []models.RequestRecord, opts Options) *Result {
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	matched := match.Match(old, new)

	result := &Result{
		OnlyInOld: matched.OnlyInOld,
		OnlyInNew: matched.OnlyInNew,
	}

	for _, pair := range matched.Pairs {
		mp := comparePair(pair.Old, pair.New, opts)
		result.Matched = append(result.Matched, mp)
	}

	result.Summary = Summary{
		TotalOld:  len(old),
		TotalNew:  len(new),
		Matched:   len(result.Matched),
		OnlyInOld: len(result.OnlyInOld),
		OnlyInNew: len(result.OnlyInNew),
	}
	for i := range result.Matched {
		if result.Matched[i].HasDifferences() {
			result.Summary.WithDifferences++
		}
	}

	return result
}

func comparePair(old, new models.RequestRecord, opts Options) MatchedPair {
	pair := MatchedPair{Old: old, New: new}

	pair.QueryDiff = diff.Query(old.Query, new.Query)
	pair.HeaderDiff = CompareHeaders(old.Headers, new.Headers, opts.Config, false)
	pair.BodyDiff, pair.BodyText = compareBodies(
		old.Body, old.RawBody, new.Body, new.RawBody, opts)

	pair.Response = compareResponses(old.Response, new.Response, opts)

	return pair
}

// compareBodies picks the structural engine when both sides are value trees,
// the text fallback when both are raw, and wraps a raw side as a string
// value otherwise so the divergence surfaces as a root type mismatch.
func compareBodies(oldBody *literal.Value, oldRaw string, newBody *literal.Value, newRaw string, opts Options) ([]diff.Entry, []diff.TextSegment) {
	oldHas := oldBody != nil || oldRaw != ""
	newHas := newBody != nil || newRaw != ""

	switch {
	case !oldHas && !newHas:
		return nil, nil
	case oldHas && !newHas:
		return []diff.Entry{{Kind: diff.Removed, Old: bodyValue(oldBody, oldRaw)}}, nil
	case !oldHas && newHas:
		return []diff.Entry{{Kind: diff.Added, New: bodyValue(newBody, newRaw)}}, nil
	}

	if oldBody == nil && newBody == nil {
		return nil, diff.Text(oldRaw, newRaw)
	}

	oldVal := bodyValue(oldBody, oldRaw)
	newVal := bodyValue(newBody, newRaw)

	if opts.IgnoreVolatile {
		oldVal = StripVolatile(oldVal, opts.Config)
		newVal = StripVolatile(newVal, opts.Config)
	}

	return diff.Diff(oldVal, newVal), nil
}

func bodyValue(body *literal.Value, raw string) *literal.Value {
	if body != nil {
		return body
	}

	return literal.StringValue(raw)
}

func compareResponses(old, new *models.ResponseRecord, opts Options) *ResponseComparison {
	if old == nil && new == nil {
		return nil
	}

	rc := &ResponseComparison{}

	switch {
	case old == nil:
		rc.Unavailable = "no response captured for the old run"
		return rc
	case new == nil:
		rc.Unavailable = "no response captured for the new run"
		return rc
	case old.Err != "":
		rc.Unavailable = "old run replay failed: " + old.Err
		return rc
	case new.Err != "":
		rc.Unavailable = "new run replay failed: " + new.Err
		return rc
	}

	rc.OldStatus = old.Status
	rc.NewStatus = new.Status
	rc.StatusChanged = old.Status != new.Status

	if old.HasBody() || new.HasBody() {
		rc.BodyDiff, rc.BodyText = compareBodies(
			old.Body, old.RawBody, new.Body, new.RawBody, opts)
	}

	return rc
}

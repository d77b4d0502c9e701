package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// TextSegment is one hunk of a plain-text comparison, used for bodies that
// never parsed as JSON.
type TextSegment struct {
	Op   string `json:"op"` // "equal", "insert" or "delete"
	Text string `json:"text"`
}

// Text compares two raw strings. Equal inputs return nil.
func Text(old, new string) []TextSegment {
	if old == new {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	out := make([]TextSegment, 0, len(diffs))
	for _, d := range diffs {
		seg := TextSegment{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			seg.Op = "insert"
		case diffmatchpatch.DiffDelete:
			seg.Op = "delete"
		default:
			seg.Op = "equal"
		}
		out = append(out, seg)
	}

	return out
}

// Package diff compares two parsed value trees and reports every divergence
// by path. The engine is deterministic: the entry order is a pure function of
// the traversal order over the inputs, never of map iteration.
package diff

import (
	"fmt"
	"strings"

	"apidiff/internal/literal"
)

type Kind int

const (
	Added Kind = iota
	Removed
	Changed
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	case TypeMismatch:
		return "type_mismatch"
	}

	return "unknown"
}

// Segment is one step in a path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

type Path []Segment

// String renders "a.b[2]" style paths; the empty path is "root".
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}

	var sb strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			fmt.Fprintf(&sb, "[%d]", seg.Index)
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Key)
	}

	return sb.String()
}

func (p Path) child(key string) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, Segment{Key: key})
}

func (p Path) index(i int) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, Segment{Index: i, IsIndex: true})
}

// Entry is one reported difference. Old is set for Removed, New for Added,
// both for Changed and TypeMismatch.
type Entry struct {
	Path Path
	Kind Kind
	Old  *literal.Value
	New  *literal.Value
}

// Diff walks both trees and returns the complete flat list of differences.
// Identical trees yield an empty list. Every returned path resolves on at
// least one of the two inputs.
func Diff(old, new *literal.Value) []Entry {
	return walk(old, new, nil, nil)
}

func walk(old, new *literal.Value, path Path, out []Entry) []Entry {
	if old == nil {
		old = literal.Null()
	}
	if new == nil {
		new = literal.Null()
	}

	// Shape divergence is reported once at the point it occurs; the
	// subtree below it is not descended into.
	if !sameKind(old, new) {
		return append(out, Entry{Path: path, Kind: TypeMismatch, Old: old, New: new})
	}

	switch old.Kind {
	case literal.KindObject:
		return walkObjects(old, new, path, out)
	case literal.KindArray:
		return walkArrays(old, new, path, out)
	default:
		if !literal.Equal(old, new) {
			out = append(out, Entry{Path: path, Kind: Changed, Old: old, New: new})
		}
		return out
	}
}

// walkObjects unions the keys with old-order first, then keys only present
// in new, in new order.
func walkObjects(old, new *literal.Value, path Path, out []Entry) []Entry {
	for _, f := range old.Fields {
		newVal, ok := new.Lookup(f.Key)
		if !ok {
			out = append(out, Entry{Path: path.child(f.Key), Kind: Removed, Old: f.Value})
			continue
		}
		out = walk(f.Value, newVal, path.child(f.Key), out)
	}

	for _, f := range new.Fields {
		if _, ok := old.Lookup(f.Key); !ok {
			out = append(out, Entry{Path: path.child(f.Key), Kind: Added, New: f.Value})
		}
	}

	return out
}

func walkArrays(old, new *literal.Value, path Path, out []Entry) []Entry {
	n := len(old.Items)
	if len(new.Items) < n {
		n = len(new.Items)
	}

	for i := 0; i < n; i++ {
		out = walk(old.Items[i], new.Items[i], path.index(i), out)
	}

	for i := n; i < len(old.Items); i++ {
		out = append(out, Entry{Path: path.index(i), Kind: Removed, Old: old.Items[i]})
	}
	for i := n; i < len(new.Items); i++ {
		out = append(out, Entry{Path: path.index(i), Kind: Added, New: new.Items[i]})
	}

	return out
}

// sameKind treats integer and fractional numbers as distinct kinds, matching
// the type taxonomy of the export format.
func sameKind(a, b *literal.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == literal.KindNumber {
		return a.Number.IsInt == b.Number.IsInt
	}
	return true
}

package diff

import (
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// Query is the flat special case for query-string maps: no recursion, one
// value per key, last occurrence of a repeated key wins. Entry paths are a
// single key segment.
func Query(old, new []models.Param) []Entry {
	oldKeys, oldVals := collapse(old)
	newKeys, newVals := collapse(new)

	var out []Entry

	for _, k := range oldKeys {
		newVal, ok := newVals[k]
		if !ok {
			out = append(out, Entry{
				Path: Path{{Key: k}},
				Kind: Removed,
				Old:  literal.StringValue(oldVals[k]),
			})
			continue
		}
		if newVal != oldVals[k] {
			out = append(out, Entry{
				Path: Path{{Key: k}},
				Kind: Changed,
				Old:  literal.StringValue(oldVals[k]),
				New:  literal.StringValue(newVal),
			})
		}
	}

	for _, k := range newKeys {
		if _, ok := oldVals[k]; !ok {
			out = append(out, Entry{
				Path: Path{{Key: k}},
				Kind: Added,
				New:  literal.StringValue(newVals[k]),
			})
		}
	}

	return out
}

func collapse(params []models.Param) ([]string, map[string]string) {
	keys := make([]string, 0, len(params))
	vals := make(map[string]string, len(params))

	for _, p := range params {
		if _, ok := vals[p.Key]; !ok {
			keys = append(keys, p.Key)
		}
		vals[p.Key] = p.Value
	}

	return keys, vals
}

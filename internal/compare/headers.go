package compare

import (
	"strings"

	"apidiff/internal/config"
	"apidiff/internal/diff"
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// CompareHeaders diffs two header sets after dropping configured
// infrastructure headers. Names compare case-insensitively; a repeated
// header keeps its last value. Response comparison additionally tolerates
// Content-Disposition filename and multipart boundary churn.
func CompareHeaders(old, new []models.Header, cfg *config.Config, response bool) []diff.Entry {
	oldKeys, oldVals := collapseHeaders(old, cfg)
	newKeys, newVals := collapseHeaders(new, cfg)

	var out []diff.Entry

	for _, name := range oldKeys {
		newVal, ok := newVals[name]
		if !ok {
			out = append(out, diff.Entry{
				Path: diff.Path{{Key: name}},
				Kind: diff.Removed,
				Old:  literal.StringValue(oldVals[name]),
			})
			continue
		}

		if equalHeaderValue(name, oldVals[name], newVal, response) {
			continue
		}

		out = append(out, diff.Entry{
			Path: diff.Path{{Key: name}},
			Kind: diff.Changed,
			Old:  literal.StringValue(oldVals[name]),
			New:  literal.StringValue(newVal),
		})
	}

	for _, name := range newKeys {
		if _, ok := oldVals[name]; !ok {
			out = append(out, diff.Entry{
				Path: diff.Path{{Key: name}},
				Kind: diff.Added,
				New:  literal.StringValue(newVals[name]),
			})
		}
	}

	return out
}

func collapseHeaders(headers []models.Header, cfg *config.Config) ([]string, map[string]string) {
	var keys []string
	vals := map[string]string{}

	for _, h := range headers {
		name := strings.ToLower(h.Name)
		if cfg != nil && cfg.IgnoreHeader(name) {
			continue
		}
		if _, ok := vals[name]; !ok {
			keys = append(keys, name)
		}
		vals[name] = h.Value
	}

	return keys, vals
}

func equalHeaderValue(name, oldVal, newVal string, response bool) bool {
	if oldVal == newVal {
		return true
	}

	if response && name == "content-disposition" {
		return stripParams(oldVal, "filename=", "filename*=") ==
			stripParams(newVal, "filename=", "filename*=")
	}

	if name == "content-type" &&
		strings.Contains(strings.ToLower(oldVal), "multipart/form-data") &&
		strings.Contains(strings.ToLower(newVal), "multipart/form-data") {
		return stripParams(oldVal, "boundary=") == stripParams(newVal, "boundary=")
	}

	return false
}

// stripParams removes `; key=value` parameters whose key matches one of the
// given prefixes.
func stripParams(value string, prefixes ...string) string {
	parts := strings.Split(value, ";")
	var kept []string

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(trimmed)
		skip := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(lower, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, trimmed)
		}
	}

	return strings.Join(kept, "; ")
}

package compare

import (
	"apidiff/internal/config"
	"apidiff/internal/literal"
)

// StripVolatile returns a copy of the tree without fields the configuration
// marks as volatile. The input is never mutated; parsed trees are shared.
func StripVolatile(v *literal.Value, cfg *config.Config) *literal.Value {
	if v == nil || cfg == nil {
		return v
	}

	switch v.Kind {
	case literal.KindObject:
		fields := make([]literal.Field, 0, len(v.Fields))
		for _, f := range v.Fields {
			if cfg.IgnoreField(f.Key) {
				continue
			}
			fields = append(fields, literal.Field{
				Key:   f.Key,
				Value: StripVolatile(f.Value, cfg),
			})
		}
		return &literal.Value{Kind: literal.KindObject, Fields: fields}

	case literal.KindArray:
		items := make([]*literal.Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = StripVolatile(item, cfg)
		}
		return &literal.Value{Kind: literal.KindArray, Items: items}

	default:
		return v
	}
}

// VolatilePaths lists the dotted paths of fields that StripVolatile would
// drop, for reporting what was ignored.
func VolatilePaths(v *literal.Value, cfg *config.Config) []string {
	var out []string
	seen := map[string]bool{}
	collectVolatile(v, cfg, "", seen, &out)

	return out
}

func collectVolatile(v *literal.Value, cfg *config.Config, prefix string, seen map[string]bool, out *[]string) {
	if v == nil {
		return
	}

	switch v.Kind {
	case literal.KindObject:
		for _, f := range v.Fields {
			path := f.Key
			if prefix != "" {
				path = prefix + "." + f.Key
			}

			if cfg.IgnoreField(f.Key) && !seen[path] {
				seen[path] = true
				*out = append(*out, path)
				continue
			}

			collectVolatile(f.Value, cfg, path, seen, out)
		}

	case literal.KindArray:
		for _, item := range v.Items {
			collectVolatile(item, cfg, prefix, seen, out)
		}
	}
}

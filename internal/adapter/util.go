package adapter

import (
	"strconv"
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

// extractByPath walks a decoded JSON value along a dotted path. Object keys
// are matched by name and numeric segments index into arrays. It returns nil
// as soon as a segment cannot be resolved.
func extractByPath(v any, path string) any {
	if path == "" {
		return v
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// ensureList coerces the row value of an envelope into records. A single
// object becomes a one-element list; non-object rows are dropped.
func ensureList(v any) []model.RawRecord {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return []model.RawRecord{x}
	case []any:
		out := make([]model.RawRecord, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

package query

import (
	"fmt"
	"sort"
	"strings"
)

// Key derives a stable cache key from an operation identity and its
// parameters. Map parameters are flattened in sorted order so equal
// parameter sets always produce equal keys.
func Key(op string, params ...any) string {
	if len(params) == 0 {
		return op
	}

	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, canonical(p))
	}
	return strings.Join(parts, ":")
}

func canonical(p any) string {
	switch v := p.(type) {
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+v[k])
		}
		return strings.Join(pairs, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

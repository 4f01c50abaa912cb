package docstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
)

// Field names end up inside SQL JSON paths, so only plain identifiers pass.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateFilters(filters []ports.Filter, opts ports.QueryOptions) error {
	for _, f := range filters {
		if !fieldNamePattern.MatchString(f.Field) {
			return fmt.Errorf("invalid filter field %q", f.Field)
		}
	}
	if opts.OrderBy != "" && !fieldNamePattern.MatchString(opts.OrderBy) {
		return fmt.Errorf("invalid order field %q", opts.OrderBy)
	}
	return nil
}

func matchesFilters(doc ports.Document, filters []ports.Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok || !equalValues(v, f.Value) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// sortAndLimit applies ordering and limit in process. Documents missing the
// order field sort last regardless of direction.
func sortAndLimit(snaps []ports.Snapshot, opts ports.QueryOptions) []ports.Snapshot {
	if opts.OrderBy != "" {
		sort.SliceStable(snaps, func(i, j int) bool {
			a, aok := snaps[i].Data[opts.OrderBy]
			b, bok := snaps[j].Data[opts.OrderBy]
			if !aok || !bok {
				return aok && !bok
			}
			c := compareValues(a, b)
			if opts.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if opts.Limit > 0 && len(snaps) > opts.Limit {
		snaps = snaps[:opts.Limit]
	}
	return snaps
}

func compareValues(a, b any) int {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func cloneDocument(doc ports.Document) ports.Document {
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func encodeDocument(doc ports.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (ports.Document, error) {
	var doc ports.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// filterValue converts a filter value into the text form that SQL JSON
// extraction compares against
func filterValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	}
	return v
}

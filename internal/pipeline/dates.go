package pipeline

import "salesdash/internal/core"

// DateResolution describes how the canonical date field was produced.
type DateResolution struct {
	// Source is the candidate column that was parsed, empty when none existed.
	Source string
	Parsed int
	Nulls  int
}

// ResolveDate parses the first candidate column present in t into field.
// Values that do not parse become null; if no candidate exists the field is
// added with every row null. The field always exists afterwards.
func ResolveDate(t *core.Table, candidates []string, field string) (*core.Table, DateResolution) {
	var res DateResolution
	values := make([]core.Value, t.Len())

	for _, c := range candidates {
		if t.Has(c) {
			res.Source = c
			break
		}
	}

	for i := range values {
		if res.Source == "" {
			values[i] = core.Null()
			res.Nulls++
			continue
		}
		if d, ok := CoerceDate(t.Value(i, res.Source)); ok {
			values[i] = core.Date(d)
			res.Parsed++
		} else {
			values[i] = core.Null()
			res.Nulls++
		}
	}
	return t.WithColumn(field, values), res
}

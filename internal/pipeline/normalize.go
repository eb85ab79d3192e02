package pipeline

import (
	"fmt"
	"strings"

	"salesdash/internal/core"
)

// NormalizeName trims and lower-cases a column name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeColumns returns t with every column name trimmed and lower-cased.
// When two columns normalize to the same name the first keeps it and later
// ones get a numeric suffix ("region_2"); each rename is reported.
func NormalizeColumns(t *core.Table) (*core.Table, []core.Notice) {
	cols := t.Columns()
	names := make([]string, len(cols))
	used := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		names[i] = NormalizeName(c)
		used[names[i]] = struct{}{}
	}

	var notices []core.Notice
	taken := make(map[string]struct{}, len(cols))
	for i, n := range names {
		if _, dup := taken[n]; !dup {
			taken[n] = struct{}{}
			continue
		}
		renamed := n
		for k := 2; ; k++ {
			renamed = fmt.Sprintf("%s_%d", n, k)
			_, inUse := used[renamed]
			_, inTaken := taken[renamed]
			if !inUse && !inTaken {
				break
			}
		}
		taken[renamed] = struct{}{}
		names[i] = renamed
		notices = append(notices, core.Notice{
			Kind:    core.NoticeDuplicateColumn,
			Field:   renamed,
			Message: fmt.Sprintf("column %q normalizes to duplicate name %q; renamed to %q", cols[i], n, renamed),
		})
	}
	return t.WithColumnNames(names), notices
}

// Package xlsx loads sales tables from Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
	"salesdash/internal/source"
)

var _ source.Loader = (*Loader)(nil)

// Loader reads one worksheet of a workbook. The first non-blank row is the
// header.
type Loader struct {
	path  string
	sheet string
}

// New returns a loader for sheet in the workbook at path. An empty sheet
// name selects the first worksheet.
func New(path, sheet string) *Loader {
	return &Loader{path: path, sheet: strings.TrimSpace(sheet)}
}

func (l *Loader) Identity() string {
	p := l.path
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if l.sheet == "" {
		return "xlsx:" + p
	}
	return "xlsx:" + p + "#" + l.sheet
}

func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.SourceNotFound(l.path, err)
		}
		return nil, core.SourceUnreadable(l.path, err)
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, core.SourceUnreadable(l.path, fmt.Errorf("open workbook: %w", err))
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.SourceUnreadable(l.path, errors.New("workbook has no sheets"))
	}
	sheet := sheets[0]
	if l.sheet != "" {
		if !lo.Contains(sheets, l.sheet) {
			return nil, core.SourceNotFound(l.path+"#"+l.sheet, fmt.Errorf("sheet not in %v", sheets))
		}
		sheet = l.sheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.SourceUnreadable(l.path, fmt.Errorf("read rows from %s: %w", sheet, err))
	}
	t, err := fromRows(rows)
	if err != nil {
		return nil, core.SourceUnreadable(l.path, fmt.Errorf("sheet %s: %w", sheet, err))
	}
	return t, nil
}

func fromRows(rows [][]string) (*core.Table, error) {
	var header []string
	var records [][]string
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		records = append(records, row)
	}
	if header == nil {
		return nil, errors.New("no rows found")
	}
	return core.FromRecords(header, records), nil
}

func blank(row []string) bool {
	return lo.EveryBy(row, func(c string) bool { return strings.TrimSpace(c) == "" })
}

package backend

import (
	"context"

	"salesdash/internal/source"
)

// Factory creates the data source loader named by a configuration.
type Factory interface {
	CreateLoader(ctx context.Context, config Config) (source.Loader, error)
}

// Config holds what is needed to build any loader.
type Config struct {
	Type SourceType

	// File based sources
	DataPath  string
	XLSXSheet string

	// SQLite
	SQLiteTable string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetRange    string
}

// SourceType names a kind of data source.
type SourceType string

const (
	CSVSource    SourceType = "csv"
	XLSXSource   SourceType = "xlsx"
	SQLiteSource SourceType = "sqlite"
	SheetsSource SourceType = "sheets"
)

func (st SourceType) String() string {
	return string(st)
}

func (st SourceType) IsValid() bool {
	switch st {
	case CSVSource, XLSXSource, SQLiteSource, SheetsSource:
		return true
	default:
		return false
	}
}

package backend

import (
	"context"
	"fmt"
	"log/slog"

	"salesdash/internal/source"
	"salesdash/internal/source/delimited"
	"salesdash/internal/source/google"
	"salesdash/internal/source/sqlite"
	"salesdash/internal/source/xlsx"
)

// DefaultFactory builds loaders for every supported source type.
type DefaultFactory struct {
	logger *slog.Logger
	// sheets builds the Google Sheets loader; replaced in tests.
	sheets func(ctx context.Context, spreadsheetID, rng string) (source.Loader, error)
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		sheets: func(ctx context.Context, id, rng string) (source.Loader, error) {
			return google.NewFromEnv(ctx, id, rng)
		},
	}
}

func (f *DefaultFactory) CreateLoader(ctx context.Context, config Config) (source.Loader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		l   source.Loader
		err error
	)
	switch config.Type {
	case CSVSource:
		l = delimited.New(config.DataPath)
	case XLSXSource:
		l = xlsx.New(config.DataPath, config.XLSXSheet)
	case SQLiteSource:
		l, err = sqlite.New(config.DataPath, config.SQLiteTable)
	case SheetsSource:
		l, err = f.sheets(ctx, config.GoogleSpreadsheetID, config.GoogleSheetRange)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s source: %w", config.Type, err)
	}

	f.logger.Info("Initialized data source", "type", config.Type.String(), "source", l.Identity())
	return l, nil
}

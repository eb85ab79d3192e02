package backend

import (
	"errors"
	"fmt"

	"salesdash/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	st := SourceType(appConfig.DataSource)
	if !st.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s", appConfig.DataSource)
	}
	return Config{
		Type:                st,
		DataPath:            appConfig.DataPath,
		XLSXSheet:           appConfig.XLSXSheet,
		SQLiteTable:         appConfig.SQLiteTable,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetRange:    appConfig.GoogleSheetRange,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid data source: %s", c.Type)
	}
	switch c.Type {
	case CSVSource, XLSXSource, SQLiteSource:
		if c.DataPath == "" {
			return fmt.Errorf("data path is required for the %s source", c.Type)
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for the sheets source")
		}
	}
	return nil
}

// GetSourceTypes returns all valid source types.
func GetSourceTypes() []SourceType {
	return []SourceType{CSVSource, XLSXSource, SQLiteSource, SheetsSource}
}

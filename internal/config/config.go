package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/pipeline"
)

// Data source kinds.
const (
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceSQLite = "sqlite"
	SourceSheets = "sheets"
)

// SourceKinds lists every accepted DATA_SOURCE value.
var SourceKinds = []string{SourceCSV, SourceXLSX, SourceSQLite, SourceSheets}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	ReloadPerMinute int

	// Data source
	DataSource          string
	DataPath            string
	XLSXSheet           string
	SQLiteTable         string
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Pipeline
	DateCandidates           []string
	DiscountPercentThreshold float64
	TopN                     int

	// Dataset cache
	CacheSize int
	CacheTTL  time.Duration

	// AMQP reload bus; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ReloadPerMinute: getEnvInt("RELOAD_RATE_LIMIT", 6),

		DataSource:          strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),
		DataPath:            getEnv("DATA_PATH", "./data/orders.csv"),
		XLSXSheet:           getEnv("XLSX_SHEET", ""),
		SQLiteTable:         getEnv("SQLITE_TABLE", "orders"),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:    getEnv("GOOGLE_SHEET_RANGE", ""),

		DateCandidates:           getEnvList("DATE_CANDIDATES", pipeline.DefaultDateCandidates),
		DiscountPercentThreshold: getEnvFloat("DISCOUNT_PERCENT_THRESHOLD", pipeline.DefaultDiscountPercentThreshold),
		TopN:                     getEnvInt("TOP_N", pipeline.DefaultTopN),

		CacheSize: getEnvInt("CACHE_SIZE", 4),
		CacheTTL:  getEnvDuration("CACHE_TTL", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesdash.reload"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// PipelineOptions returns the preparation and report options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		DateCandidates:           append([]string(nil), c.DateCandidates...),
		DiscountPercentThreshold: c.DiscountPercentThreshold,
		TopN:                     c.TopN,
	}.WithDefaults()
}

// BusEnabled reports whether reload notifications are exchanged over AMQP.
func (c *Config) BusEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.ReloadPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid reload rate limit %d: must be at least 1 per minute", c.ReloadPerMinute))
	}

	switch c.DataSource {
	case SourceCSV, SourceXLSX:
		if c.DataPath == "" {
			errors = append(errors, fmt.Sprintf("DATA_PATH is required for the %s source", c.DataSource))
		}
	case SourceSQLite:
		if c.DataPath == "" {
			errors = append(errors, "DATA_PATH is required for the sqlite source")
		}
		if !tableNameRe.MatchString(c.SQLiteTable) {
			errors = append(errors, fmt.Sprintf("invalid SQLite table name '%s'", c.SQLiteTable))
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sheets source")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, SourceKinds))
	}

	if len(c.DateCandidates) == 0 {
		errors = append(errors, "DATE_CANDIDATES must name at least one column")
	}
	if c.DiscountPercentThreshold <= 0 {
		errors = append(errors, fmt.Sprintf("invalid discount percent threshold %v: must be positive", c.DiscountPercentThreshold))
	}
	if c.TopN < 1 || c.TopN > 1000 {
		errors = append(errors, fmt.Sprintf("invalid top N %d: must be between 1 and 1000", c.TopN))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must not be negative", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

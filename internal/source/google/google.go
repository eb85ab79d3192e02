// Package google loads sales tables from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesdash/internal/core"
	"salesdash/internal/source"
)

// DefaultRange reads the whole first sheet.
const DefaultRange = "A:ZZ"

var _ source.Loader = (*Loader)(nil)

// Loader reads one range of a spreadsheet. The first non-blank row of the
// range is the header.
type Loader struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, rng string) (*Loader, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng = strings.TrimSpace(rng)
	if rng == "" {
		rng = DefaultRange
	}
	return &Loader{svc: svc, spreadsheetID: spreadsheetID, rng: rng}, nil
}

// NewFromEnv builds the Sheets service from service account credentials
// found in GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, rng string) (*Loader, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, rng)
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (l *Loader) Identity() string {
	return "sheets:" + l.spreadsheetID + "!" + l.rng
}

func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	name := l.spreadsheetID + "!" + l.rng
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.rng).Context(ctx).Do()
	if err != nil {
		if notFound(err) {
			return nil, core.SourceNotFound(name, err)
		}
		return nil, core.SourceUnreadable(name, fmt.Errorf("read %s: %w", l.rng, err))
	}
	t, err := tableFromValues(resp.Values)
	if err != nil {
		return nil, core.SourceUnreadable(name, err)
	}
	slog.DebugContext(ctx, "Loaded spreadsheet range", "range", l.rng, "rows", t.Len())
	return t, nil
}

// notFound recognizes a missing spreadsheet (404) and a range naming a
// missing tab, which the API rejects as unparsable.
func notFound(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusNotFound {
		return true
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func tableFromValues(values [][]interface{}) (*core.Table, error) {
	var header []string
	var records [][]string
	for _, raw := range values {
		row := toStrings(raw)
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
		return nil, errors.New("range is empty")
	}
	return core.FromRecords(header, records), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

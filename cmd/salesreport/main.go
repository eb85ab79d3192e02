// Command salesreport prints a one-shot sales report for the configured data
// source. Flags override the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"salesdash/internal/cli"
	"salesdash/internal/config"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/pipeline"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type options struct {
	source, path, sheet, table string
	spreadsheet, rng           string
	start, end                 string
	categories, regions, pays  multiFlag
	top                        int
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.source, "source", cfg.DataSource, "data source: "+strings.Join(config.SourceKinds, ", "))
	fs.StringVar(&o.path, "path", cfg.DataPath, "file or database path")
	fs.StringVar(&o.sheet, "sheet", cfg.XLSXSheet, "workbook sheet (xlsx)")
	fs.StringVar(&o.table, "table", cfg.SQLiteTable, "table name (sqlite)")
	fs.StringVar(&o.spreadsheet, "spreadsheet", cfg.GoogleSpreadsheetID, "spreadsheet ID (sheets)")
	fs.StringVar(&o.rng, "range", cfg.GoogleSheetRange, "A1 range (sheets)")
	fs.StringVar(&o.start, "start", "", "first day, YYYY-MM-DD")
	fs.StringVar(&o.end, "end", "", "last day, YYYY-MM-DD")
	fs.Var(&o.categories, "category", "keep this category (repeatable)")
	fs.Var(&o.regions, "region", "keep this region (repeatable)")
	fs.Var(&o.pays, "payment", "keep this payment method (repeatable)")
	fs.IntVar(&o.top, "top", cfg.TopN, "size of the customer and product rankings")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return o, nil
}

func (o options) apply(cfg *config.Config) {
	cfg.DataSource = strings.ToLower(o.source)
	cfg.DataPath = o.path
	cfg.XLSXSheet = o.sheet
	cfg.SQLiteTable = o.table
	cfg.GoogleSpreadsheetID = o.spreadsheet
	cfg.GoogleSheetRange = o.rng
	cfg.TopN = o.top
}

// query renders the filter flags the way the HTTP API receives them so both
// surfaces validate selections identically.
func (o options) query() url.Values {
	q := url.Values{}
	if o.start != "" {
		q.Set(apphttp.ParamStart, o.start)
	}
	if o.end != "" {
		q.Set(apphttp.ParamEnd, o.end)
	}
	q[apphttp.ParamCategory] = o.categories
	q[apphttp.ParamRegion] = o.regions
	q[apphttp.ParamPayment] = o.pays
	if o.top > 0 {
		q.Set(apphttp.ParamTop, strconv.Itoa(o.top))
	}
	return q
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, stderr)

	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return cli.ExitBadArgument
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return cli.ExitBadArgument
	}
	q, err := apphttp.ParseReportQuery(o.query())
	if err != nil {
		fmt.Fprintln(stderr, "salesreport:", err)
		return cli.ExitBadArgument
	}

	loader, err := cli.NewLoader(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "salesreport:", err)
		return cli.ExitFailure
	}
	raw, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "salesreport:", describeLoadError(err))
		return cli.ExitCode(err)
	}

	opts := cfg.PipelineOptions()
	if q.TopN > 0 {
		opts.TopN = q.TopN
	}
	prepared := pipeline.Prepare(raw, opts)
	logger.Debug("Dataset prepared",
		applog.FieldSource, loader.Identity(),
		applog.FieldRows, prepared.Table.Len(),
		applog.FieldDuplicates, prepared.DuplicatesDropped)

	report := pipeline.BuildReport(prepared, q.Selection, opts)
	if err := render(stdout, loader.Identity(), raw.Len(), prepared, report); err != nil {
		fmt.Fprintln(stderr, "salesreport:", err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func describeLoadError(err error) string {
	switch cli.ExitCode(err) {
	case cli.ExitNotFound:
		return "data source not found: " + err.Error()
	case cli.ExitUnreadable:
		return "data source could not be read: " + err.Error()
	default:
		return err.Error()
	}
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

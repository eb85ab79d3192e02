// Command salesdb-import loads a delimited or workbook export into the
// SQLite orders schema so it can be served with DATA_SOURCE=sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"salesdash/internal/cli"
	applog "salesdash/internal/log"
	"salesdash/internal/pipeline"
	"salesdash/internal/source"
	"salesdash/internal/source/delimited"
	"salesdash/internal/source/sqlite"
	"salesdash/internal/source/xlsx"
)

func inputLoader(path, sheet string) source.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsx.New(path, sheet)
	default:
		return delimited.New(path)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli.LoadEnvFile()

	fs := flag.NewFlagSet("salesdb-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "CSV or XLSX export to import (required)")
	sheet := fs.String("sheet", "", "workbook sheet, first sheet when empty")
	db := fs.String("db", getenv("DATA_PATH", "./data/orders.db"), "SQLite database to write")
	level := fs.String("log-level", getenv("LOG_LEVEL", "info"), "log level")
	if err := fs.Parse(args); err != nil {
		return cli.ExitBadArgument
	}
	if *in == "" {
		fmt.Fprintln(stderr, "salesdb-import: -in is required")
		fs.Usage()
		return cli.ExitBadArgument
	}

	logger := cli.SetupLogger(*level, "text", stderr).WithComponent(applog.ComponentSource)

	loader := inputLoader(*in, *sheet)
	raw, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "salesdb-import:", err)
		return cli.ExitCode(err)
	}
	normalized, notices := pipeline.NormalizeColumns(raw)
	for _, n := range notices {
		logger.Warn(n.Message, "kind", n.Kind, "field", n.Field)
	}

	res, err := sqlite.Import(ctx, *db, normalized)
	if err != nil {
		logger.Error("Import failed", applog.FieldOperation, applog.OpImport, applog.FieldError, err.Error())
		fmt.Fprintln(stderr, "salesdb-import:", err)
		return cli.ExitFailure
	}

	fmt.Fprintf(stdout, "Imported %s rows from %s into %s (table %s)\n",
		humanize.Comma(int64(res.Rows)), loader.Identity(), *db, sqlite.DefaultTable)
	if len(res.Ignored) > 0 {
		fmt.Fprintf(stdout, "Ignored columns: %s\n", strings.Join(res.Ignored, ", "))
	}
	return cli.ExitOK
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

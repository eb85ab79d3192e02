// Package delimited loads sales tables from CSV-like text files.
package delimited

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"salesdash/internal/core"
	"salesdash/internal/source"
)

var _ source.Loader = (*Loader)(nil)

// Delimiters are the separators recognized when sniffing a header line.
var Delimiters = []rune{',', ';', '\t', '|'}

var bom = []byte{0xEF, 0xBB, 0xBF}

// Loader reads a delimited file from disk.
type Loader struct {
	path  string
	comma rune
}

// New returns a loader that sniffs the delimiter from the header line.
func New(path string) *Loader {
	return &Loader{path: path}
}

// WithDelimiter returns a loader that always splits on comma.
func WithDelimiter(path string, comma rune) *Loader {
	return &Loader{path: path, comma: comma}
}

func (l *Loader) Identity() string {
	if abs, err := filepath.Abs(l.path); err == nil {
		return "csv:" + abs
	}
	return "csv:" + l.path
}

func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.SourceNotFound(l.path, err)
		}
		return nil, core.SourceUnreadable(l.path, err)
	}
	t, err := Parse(data, l.comma)
	if err != nil {
		return nil, core.SourceUnreadable(l.path, err)
	}
	return t, nil
}

// Parse decodes delimited text into a table. The first record is the
// header. A zero comma sniffs the delimiter from the header line. Input that
// is not valid UTF-8 is decoded as Windows-1252.
func Parse(data []byte, comma rune) (*core.Table, error) {
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1252: %w", err)
		}
		data = decoded
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}
	if comma == 0 {
		comma = Sniff(headerLine(data))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return core.FromRecords(header, records), nil
}

// Sniff picks the delimiter that occurs most often in line, outside of
// double quotes. Ties go to the earlier entry of Delimiters; a line with
// none of them is read as comma-separated.
func Sniff(line string) rune {
	counts := make(map[rune]int, len(Delimiters))
	quoted := false
	for _, r := range line {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}
	best, n := ',', 0
	for _, d := range Delimiters {
		if counts[d] > n {
			best, n = d, counts[d]
		}
	}
	return best
}

func headerLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(bytes.TrimRight(data, "\r"))
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

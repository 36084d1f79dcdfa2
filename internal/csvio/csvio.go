// Package csvio reads delimited source exports into tables.
package csvio

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/table"
)

// DefaultNullValues are the cell texts read as null besides the empty cell.
var DefaultNullValues = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Options configures Read.
type Options struct {
	// Name of the resulting table, defaults to the file name
	Name string

	// Delimiter separates fields, defaults to ','
	Delimiter rune

	// SkipMalformed skips rows with more fields than the header instead of
	// failing the read
	SkipMalformed bool

	// NullValues overrides DefaultNullValues when non-nil
	NullValues []string
}

// Stats describes a read.
type Stats struct {
	Rows    int // rows loaded
	Skipped int // malformed rows skipped
	Padded  int // short rows padded with nulls
}

// Read loads a delimited file with a header row. Empty cells and the
// configured null texts are null. Rows shorter than the header are padded
// with nulls. Rows longer than the header and rows with broken quoting are
// skipped when SkipMalformed is set and fail the read otherwise.
func Read(ctx context.Context, path string, opts Options) (*table.Table, Stats, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, Stats{}, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Decode(ctx, f, path, opts)
}

// Decode reads delimited data from r. path is only used in errors and logs.
func Decode(ctx context.Context, r io.Reader, path string, opts Options) (*table.Table, Stats, error) {
	logger := logging.FromContext(ctx)
	if opts.Delimiter == 0 {
		opts.Delimiter = constants.DefaultDelimiter
	}
	nulls := opts.NullValues
	if nulls == nil {
		nulls = DefaultNullValues
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Stats{}, errors.NewParseError("csv", path, "missing header row", err)
	}
	if err != nil {
		return nil, Stats{}, errors.WrapParse("csv", path, err)
	}
	header = slices.Clone(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := table.New(opts.Name, header...)
	var stats Stats

	for {
		if stats.Rows%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		var pe *csv.ParseError
		if stderrors.As(err, &pe) {
			if !opts.SkipMalformed {
				return nil, stats, &errors.ParseError{Format: "csv", File: path, Line: pe.Line, Column: pe.Column, Message: pe.Err.Error(), Err: err}
			}
			stats.Skipped++
			logger.Warn().Str("file", path).Int("line", pe.Line).Err(pe.Err).Msg("Skipping malformed row")
			continue
		}
		if err != nil {
			return nil, stats, errors.WrapIO("read", path, err)
		}
		line, _ := cr.FieldPos(0)

		if len(record) > len(header) {
			if !opts.SkipMalformed {
				return nil, stats, &errors.ParseError{
					Format:  "csv",
					File:    path,
					Line:    line,
					Column:  1,
					Message: fmt.Sprintf("expected %d fields, saw %d", len(header), len(record)),
				}
			}
			stats.Skipped++
			logger.Warn().
				Str("file", path).
				Int("line", line).
				Int("fields", len(record)).
				Int("expected", len(header)).
				Msg("Skipping malformed row")
			continue
		}
		if len(record) < len(header) {
			stats.Padded++
		}

		values := make(map[string]string, len(record))
		for i, cell := range record {
			if cell == "" || slices.Contains(nulls, cell) {
				continue
			}
			values[header[i]] = cell
		}
		t.Append(values)
		stats.Rows++
	}

	logger.Debug().
		Str("file", path).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Int("padded", stats.Padded).
		Msg("Read delimited file")
	return t, stats, nil
}

// Package sink writes fused records to the output artifact.
//
// The format follows the file extension: .xlsx (the default layout, one
// sheet with a header row), .csv, .json, .yaml/.yml and .sqlite/.db. Every
// format is written to a temporary file next to the target and renamed into
// place, so a failed run never leaves partial output behind.
package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/output"
)

// Format identifies an output encoding.
type Format string

// Supported formats.
const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// String returns the string representation of a format.
func (f Format) String() string {
	return string(f)
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".sqlite", ".db":
		return FormatSQLite, nil
	}
	return "", &errors.ValidationError{
		Field:   "output",
		Value:   path,
		Message: "unsupported file extension, use .xlsx, .csv, .json, .yaml, .yml, .sqlite or .db",
	}
}

// encoder writes records to a file that already exists at path.
type encoder func(ctx context.Context, path string, records []output.Record, o *options) error

var encoders = map[Format]encoder{
	FormatXLSX:   writeXLSX,
	FormatCSV:    writeCSV,
	FormatJSON:   writeJSON,
	FormatYAML:   writeYAML,
	FormatSQLite: writeSQLite,
}

// options configures Write.
type options struct {
	format Format
	sheet  string
	table  string
}

// Option is a function that configures Write.
type Option func(*options)

// WithFormat forces a format regardless of the file extension.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithSheetName sets the spreadsheet sheet name.
func WithSheetName(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

// WithTableName sets the sqlite table name.
func WithTableName(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// Write stores records at path, creating the parent directory on demand.
func Write(ctx context.Context, path string, records []output.Record, opts ...Option) error {
	o := &options{
		sheet: constants.DefaultSheetName,
		table: constants.DefaultSQLTable,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return err
		}
		o.format = f
	}
	encode, ok := encoders[o.format]
	if !ok {
		return &errors.ValidationError{Field: "format", Value: o.format, Message: "unsupported format"}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	tmp, err := os.CreateTemp(dir, "."+stem+"-*"+ext)
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpPath, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := encode(ctx, tmpPath, records, o); err != nil {
		return errors.WrapResource("write", "sink", o.format.String(), err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	committed = true

	logging.FromContext(ctx).Info().
		Str("path", path).
		Str("format", o.format.String()).
		Int("records", len(records)).
		Msg("Wrote output")
	return nil
}

// header returns the output columns as spreadsheet-friendly values.
func header() []any {
	h := make([]any, len(output.Columns))
	for i, c := range output.Columns {
		h[i] = c
	}
	return h
}

// cells converts a record into row values, nil for null.
func cells(r output.Record) []any {
	values := r.Values()
	out := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

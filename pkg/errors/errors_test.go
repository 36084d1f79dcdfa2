package errors_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/bizmerge/pkg/errors"
)

func TestInvalidInputKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"field", pkgerrors.NewValidationError("workers", 0, "must be at least 1"), "invalid workers: must be at least 1"},
		{"no field", &pkgerrors.ValidationError{Message: "empty"}, "invalid input: empty"},
		{"wrapped", pkgerrors.WrapValidation("format", errors.New(`unknown "xml"`)), `invalid format: unknown "xml"`},
		{"schema", pkgerrors.NewSchemaError("directory", []string{"domain", "city"}), "directory table lacks required columns [domain, city]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsValidationError(tt.err))
			assert.True(t, pkgerrors.IsValidationError(fmt.Errorf("outer: %w", tt.err)))
			assert.False(t, pkgerrors.IsCanceled(tt.err))
		})
	}
}

func TestNilWrapping(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))
	assert.NoError(t, pkgerrors.WrapParse("csv", "a.csv", nil))
	assert.NoError(t, pkgerrors.WrapIO("read", "a.csv", nil))
	assert.NoError(t, pkgerrors.WrapResource("write", "sink", "xlsx", nil))
}

func TestConfigError(t *testing.T) {
	base := errors.New("yaml: line 2")
	err := pkgerrors.NewConfigError("file", "failed to read config file", base)
	assert.Equal(t, "config file: failed to read config file: yaml: line 2", err.Error())
	assert.ErrorIs(t, err, base)

	bare := &pkgerrors.ConfigError{Message: "empty"}
	assert.Equal(t, "config: empty", bare.Error())
}

func TestLinkError(t *testing.T) {
	canceled := fmt.Errorf("%w: %w", pkgerrors.ErrCanceled, context.Canceled)

	err := pkgerrors.NewLinkError("strict", "merged", "directory", canceled)
	assert.Equal(t, "link strict merged⋈directory: operation canceled: context canceled", err.Error())
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "link validate website: boom", pkgerrors.NewLinkError("validate", "website", "", errors.New("boom")).Error())
	assert.Equal(t, "link coverage: boom", pkgerrors.NewLinkError("coverage", "", "", errors.New("boom")).Error())

	var linkErr *pkgerrors.LinkError
	require.True(t, pkgerrors.As(fmt.Errorf("run: %w", err), &linkErr))
	assert.Equal(t, "strict", linkErr.Stage)
}

func TestParseError(t *testing.T) {
	positioned := &pkgerrors.ParseError{Format: "csv", File: "website.csv", Line: 3, Column: 7, Message: "bare quote"}
	assert.Equal(t, "malformed csv website.csv:3:7: bare quote", positioned.Error())

	base := errors.New("unexpected EOF")
	wrapped := pkgerrors.WrapParse("yaml", "authorities.yaml", base)
	assert.Equal(t, "malformed yaml authorities.yaml: unexpected EOF", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)

	assert.Equal(t, "malformed csv: missing header row", pkgerrors.NewParseError("csv", "", "missing header row", nil).Error())
}

func TestIOError(t *testing.T) {
	err := pkgerrors.WrapIO("open", "social.csv", fs.ErrNotExist)
	assert.Equal(t, "open social.csv: file does not exist", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var ioErr *pkgerrors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "social.csv", ioErr.Path)

	assert.Equal(t, "mkdir: file does not exist", pkgerrors.WrapIO("mkdir", "", fs.ErrNotExist).Error())
}

func TestResourceError(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.WrapResource("write", "sink", "xlsx", base)
	assert.Equal(t, "write sink xlsx: disk full", err.Error())
	assert.ErrorIs(t, err, base)

	assert.Equal(t, "resolve table: disk full", pkgerrors.WrapResource("resolve", "table", "", base).Error())
}

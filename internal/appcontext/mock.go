package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/bizmerge"
)

// Mock provides a mock implementation of Interface for testing.
// A nil function field makes the method return a zero or default value.
//
//	mock := &appcontext.Mock{
//	    OptionsFunc: func() []bizmerge.Option {
//	        return []bizmerge.Option{bizmerge.WithWebsitePath(path)}
//	    },
//	}
//	cmd := inspect.NewCommand(mock)
type Mock struct {
	OptionsFunc      func() []bizmerge.Option
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Options returns run options using the mock function or nil.
func (m *Mock) Options() []bizmerge.Option {
	if m.OptionsFunc != nil {
		return m.OptionsFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns the version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

var _ Interface = (*Mock)(nil)

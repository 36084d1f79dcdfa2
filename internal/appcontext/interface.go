// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete CLI application.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/bizmerge"
)

// Interface defines what commands need from the application.
// The App struct from cmd/bizmerge/app implements it.
type Interface interface {
	// Options returns the run options built from the merged configuration
	// (defaults, config file, environment and flags).
	Options() []bizmerge.Option

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

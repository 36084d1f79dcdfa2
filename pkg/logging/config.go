package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/bizmerge/pkg/constants"
)

// Config holds logger configuration options.
type Config struct {
	Level      string         // trace, debug, info, warn, error, off
	Format     string         // auto, console, json
	Output     string         // stderr, stdout, discard or a file path
	TimeFormat string         // kitchen, rfc3339, unix or a Go layout
	NoColor    bool           // console only
	AddCaller  bool           // file:line on every event
	Fields     map[string]any // added to every event
}

// DefaultConfig returns info-level logging to stderr, console on a
// terminal and JSON otherwise.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_TIME_FORMAT,
// LOG_CALLER, LOG_FIELDS (comma separated key=value) and NO_COLOR.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LOG_TIME_FORMAT"); v != "" {
		cfg.TimeFormat = v
	}
	cfg.AddCaller = os.Getenv("LOG_CALLER") == "true"
	cfg.Fields = ParseFields(os.Getenv("LOG_FIELDS"))
	return cfg
}

// NewLoggerFromConfig creates a logger from cfg. A nil cfg uses DefaultConfig.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := ParseLevel(cfg.Level)

	lc := zerolog.New(newWriter(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}
	if len(cfg.Fields) > 0 {
		lc = lc.Fields(cfg.Fields)
	}
	return lc.Logger()
}

// newWriter resolves the output destination and wraps it in a console
// writer when the format asks for one.
func newWriter(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: ParseTimeFormat(cfg.TimeFormat),
			NoColor:    cfg.NoColor,
		}
	}
	return out
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ParseTimeFormat maps a name to a time layout. An empty result makes
// zerolog print Unix timestamps.
func ParseTimeFormat(format string) string {
	switch strings.ToLower(format) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "rfc3339nano":
		return time.RFC3339Nano
	case "iso8601":
		return constants.TimeFormatISO8601
	case "unix", "epoch":
		return ""
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	return time.Kitchen
}

// ParseFields parses comma separated key=value pairs. Malformed pairs are
// ignored.
func ParseFields(s string) map[string]any {
	fields := make(map[string]any)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if k = strings.TrimSpace(k); ok && k != "" {
			fields[k] = strings.TrimSpace(v)
		}
	}
	return fields
}

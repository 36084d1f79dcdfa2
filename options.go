package bizmerge

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/agentstation/bizmerge/pkg/authority"
	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/sources"
)

// options holds the configuration of a single run.
type options struct {
	paths              map[sources.ID]string
	output             string
	workers            int
	detailThreshold    int
	emptyAddressAsNull bool
	authorities        authority.Authority
	authoritiesFile    string
	provenanceReport   string
	progress           io.Writer
	runID              string
}

func defaultOptions() *options {
	return &options{
		paths: map[sources.ID]string{
			sources.Website:   constants.DefaultWebsitePath,
			sources.Social:    constants.DefaultSocialPath,
			sources.Directory: constants.DefaultDirectoryPath,
		},
		output:             filepath.Join(constants.DefaultOutputDir, constants.DefaultOutputFile),
		workers:            runtime.GOMAXPROCS(0),
		detailThreshold:    constants.DetailThreshold,
		emptyAddressAsNull: true,
		progress:           os.Stdout,
	}
}

// Option is a function that configures a run.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.authorities == nil && o.authoritiesFile != "" {
		a, err := authority.Load(o.authoritiesFile)
		if err != nil {
			return nil, err
		}
		o.authorities = a
	}
	return o, nil
}

func requirePath(field, path string) error {
	if path == "" {
		return &errors.ValidationError{Field: field, Message: "path cannot be empty"}
	}
	return nil
}

// WithWebsitePath sets the website crawl file (";" delimited).
func WithWebsitePath(path string) Option {
	return func(o *options) error {
		if err := requirePath("website path", path); err != nil {
			return err
		}
		o.paths[sources.Website] = path
		return nil
	}
}

// WithSocialPath sets the social directory file.
func WithSocialPath(path string) Option {
	return func(o *options) error {
		if err := requirePath("social path", path); err != nil {
			return err
		}
		o.paths[sources.Social] = path
		return nil
	}
}

// WithDirectoryPath sets the mapping directory file.
func WithDirectoryPath(path string) Option {
	return func(o *options) error {
		if err := requirePath("directory path", path); err != nil {
			return err
		}
		o.paths[sources.Directory] = path
		return nil
	}
}

// WithOutput sets the output file. Its extension selects the format.
func WithOutput(path string) Option {
	return func(o *options) error {
		if err := requirePath("output", path); err != nil {
			return err
		}
		o.output = path
		return nil
	}
}

// WithWorkers sets how many rows are resolved concurrently.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "must be at least 1"}
		}
		o.workers = n
		return nil
	}
}

// WithDetailThreshold sets the minimum similarity at which a more detailed
// category or address is appended.
func WithDetailThreshold(threshold int) Option {
	return func(o *options) error {
		if threshold < 0 || threshold > constants.MaxScore {
			return &errors.ValidationError{Field: "detail threshold", Value: threshold, Message: "must be between 0 and 100"}
		}
		o.detailThreshold = threshold
		return nil
	}
}

// WithEmptyAddressAsNull controls whether a website address with no parts
// is null (the default) or the empty string.
func WithEmptyAddressAsNull(enabled bool) Option {
	return func(o *options) error {
		o.emptyAddressAsNull = enabled
		return nil
	}
}

// WithAuthorities overrides the slot order per attribute.
func WithAuthorities(a authority.Authority) Option {
	return func(o *options) error {
		if a == nil {
			return &errors.ValidationError{Field: "authorities", Message: "cannot be nil"}
		}
		o.authorities = a
		return nil
	}
}

// WithAuthoritiesFile loads slot authorities from a YAML file.
func WithAuthoritiesFile(path string) Option {
	return func(o *options) error {
		o.authoritiesFile = path
		return nil
	}
}

// WithProvenanceReport writes a YAML provenance report to path after the
// output is written. An empty path disables the report.
func WithProvenanceReport(path string) Option {
	return func(o *options) error {
		o.provenanceReport = path
		return nil
	}
}

// WithProgress sets where the progress markers are printed. Defaults to
// stdout; nil silences them.
func WithProgress(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			w = io.Discard
		}
		o.progress = w
		return nil
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}

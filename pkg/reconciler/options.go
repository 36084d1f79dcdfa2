package reconciler

import (
	"runtime"

	"github.com/agentstation/bizmerge/pkg/authority"
	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/sources"
)

// options configures a reconciler.
type options struct {
	fusion      Strategy
	priority    Strategy
	authorities authority.Authority
	fused       []string
	prioritized []string
	tracking    bool
	workers     int
}

func defaultOptions() *options {
	return &options{
		fusion:      NewFusionStrategy(constants.DetailThreshold),
		priority:    NewSourceOrderStrategy(),
		authorities: authority.New(),
		fused:       sources.FusedAttributes(),
		prioritized: sources.PrioritizedAttributes(),
		workers:     runtime.GOMAXPROCS(0),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithFusionStrategy sets the strategy for the similarity-fused attributes.
func WithFusionStrategy(strategy Strategy) Option {
	return func(r *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "fusion strategy",
				Message: "cannot be nil",
			}
		}
		r.fusion = strategy
		return nil
	}
}

// WithPriorityStrategy sets the strategy for the prioritized attributes.
func WithPriorityStrategy(strategy Strategy) Option {
	return func(r *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "priority strategy",
				Message: "cannot be nil",
			}
		}
		r.priority = strategy
		return nil
	}
}

// WithDetailThreshold sets the minimum score at which a more detailed
// candidate is appended.
func WithDetailThreshold(threshold int) Option {
	return func(r *options) error {
		if threshold < 0 || threshold > constants.MaxScore {
			return &errors.ValidationError{
				Field:   "detail threshold",
				Value:   threshold,
				Message: "must be between 0 and 100",
			}
		}
		r.fusion = NewFusionStrategy(threshold)
		return nil
	}
}

// WithAuthorities sets the slot order per attribute.
func WithAuthorities(authorities authority.Authority) Option {
	return func(r *options) error {
		if authorities == nil {
			return &errors.ValidationError{
				Field:   "authorities",
				Message: "cannot be nil",
			}
		}
		r.authorities = authorities
		return nil
	}
}

// WithAttributes sets which attributes are fused and which are prioritized.
func WithAttributes(fused, prioritized []string) Option {
	return func(r *options) error {
		r.fused = fused
		r.prioritized = prioritized
		return nil
	}
}

// WithProvenance enables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(r *options) error {
		r.tracking = enabled
		return nil
	}
}

// WithWorkers sets how many rows are resolved concurrently.
func WithWorkers(n int) Option {
	return func(r *options) error {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "workers",
				Value:   n,
				Message: "must be at least 1",
			}
		}
		r.workers = n
		return nil
	}
}

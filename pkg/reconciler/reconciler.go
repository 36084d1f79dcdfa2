// Package reconciler resolves the canonical attributes of linked rows.
//
// Category and address are fused by similarity: values that agree are
// collapsed and a more detailed variant is appended to the most trusted one.
// Name and phone are prioritized: the first value in slot order wins. Row
// resolution is a pure function of the row, so rows are resolved
// concurrently and written back by index.
package reconciler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/bizmerge/pkg/authority"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/provenance"
)

// View is a read-only view of a linked row: the value of a canonical
// attribute as recorded in a slot. Absent slots and columns read as null.
type View interface {
	Value(slot provenance.Slot, attribute string) (string, bool)
}

// Reconciler resolves linked rows.
type Reconciler interface {
	// Row resolves every configured attribute of a single row
	Row(v View) (Fused, map[string]Decision)

	// Rows resolves all rows, keeping their order
	Rows(ctx context.Context, views []View) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	fusion      Strategy
	priority    Strategy
	authorities authority.Authority
	fused       []string
	prioritized []string
	tracking    bool
	workers     int
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		fusion:      options.fusion,
		priority:    options.priority,
		authorities: options.authorities,
		fused:       options.fused,
		prioritized: options.prioritized,
		tracking:    options.tracking,
		workers:     options.workers,
	}, nil
}

// Collect returns the non-null values of attribute in the given slot order.
func Collect(v View, attribute string, order []provenance.Slot) []Candidate {
	var candidates []Candidate
	for _, slot := range order {
		if value, ok := v.Value(slot, attribute); ok {
			candidates = append(candidates, Candidate{Slot: slot, Value: value})
		}
	}
	return candidates
}

// Resolve resolves one attribute of one row with a strategy.
func Resolve(v View, attribute string, order []provenance.Slot, strategy Strategy) Decision {
	return strategy.Resolve(attribute, Collect(v, attribute, order))
}

// Row resolves every configured attribute of a single row.
func (r *reconciler) Row(v View) (Fused, map[string]Decision) {
	fused := make(Fused, len(r.fused)+len(r.prioritized))
	decisions := make(map[string]Decision, len(r.fused)+len(r.prioritized))

	resolve := func(attributes []string, strategy Strategy) {
		for _, attr := range attributes {
			d := Resolve(v, attr, r.authorities.Order(attr), strategy)
			decisions[attr] = d
			if d.Valid {
				fused[attr] = d.Value
			}
		}
	}
	resolve(r.fused, r.fusion)
	resolve(r.prioritized, r.priority)

	return fused, decisions
}

// rowStats is what a worker reports about its row.
type rowStats struct {
	appended int
	replaced int
	nulls    []string
}

// Rows resolves all rows with a bounded worker pool. Each worker writes
// only its own index, so the output order equals the input order.
func (r *reconciler) Rows(ctx context.Context, views []View) (*Result, error) {
	logger := logging.FromContext(logging.WithStage(ctx, "resolve"))
	result := NewResult(len(views))
	result.Metadata.Workers = r.workers
	tracker := provenance.NewTracker(r.tracking)
	perRow := make([]rowStats, len(views))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, v := range views {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fused, decisions := r.Row(v)
			result.Rows[i] = fused

			st := &perRow[i]
			for attr, d := range decisions {
				st.appended += d.Appended
				st.replaced += d.Replaced
				if !d.Valid {
					st.nulls = append(st.nulls, attr)
				}
				for _, step := range d.Steps {
					tracker.Track(i, attr, step)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, errors.WrapResource("resolve", "rows", "", fmt.Errorf("%w: %w", errors.ErrCanceled, err))
	}

	stats := &result.Metadata.Stats
	stats.RowsResolved = len(views)
	for _, st := range perRow {
		stats.Appended += st.appended
		stats.Replaced += st.replaced
		for _, attr := range st.nulls {
			stats.Nulls[attr]++
		}
	}
	result.Provenance = tracker.Map()
	result.Finalize()

	logger.Info().
		Int("rows", stats.RowsResolved).
		Int("appended", stats.Appended).
		Int("replaced", stats.Replaced).
		Int("workers", r.workers).
		Dur("duration", result.Metadata.Duration).
		Msg("Resolved linked rows")

	return result, nil
}

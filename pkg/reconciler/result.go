package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/bizmerge/pkg/provenance"
)

// Fused holds the resolved attributes of one linked row. A missing
// attribute is null.
type Fused map[string]string

// Get returns an attribute and whether it is non-null.
func (f Fused) Get(attribute string) (string, bool) {
	v, ok := f[attribute]
	return v, ok
}

// Ptr returns the attribute as a pointer, nil when null.
func (f Fused) Ptr(attribute string) *string {
	if v, ok := f[attribute]; ok {
		return &v
	}
	return nil
}

// Result represents the outcome of resolving every linked row.
type Result struct {
	// Rows holds one entry per input view, in input order.
	Rows []Fused

	// Provenance tracking, nil when disabled
	Provenance provenance.Map

	// Metadata
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the resolution pass.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Workers   int
	Stats     ResultStatistics
}

// ResultStatistics contains statistics about the resolution pass.
type ResultStatistics struct {
	RowsResolved int
	Appended     int            // values appended as more detailed
	Replaced     int            // values replaced by a better scoring one
	Nulls        map[string]int // rows left null per attribute
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	return fmt.Sprintf("Resolved %d rows (%d appended, %d replaced) in %s",
		s.RowsResolved, s.Appended, s.Replaced, r.Metadata.Duration.Round(time.Millisecond))
}

// NewResult creates a new result with defaults.
func NewResult(rows int) *Result {
	return &Result{
		Rows: make([]Fused, rows),
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Stats: ResultStatistics{
				Nulls: make(map[string]int),
			},
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}

// Package normalize prepares raw source tables for linkage: it lowercases
// text, derives the website address and drops rows that carry nothing
// worth matching.
package normalize

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

// Website columns combined into the derived address, in join order.
var addressParts = []string{"main_city", "main_region", "main_country"}

// options configures normalization.
type options struct {
	emptyAddressAsNull bool
}

func defaultOptions() *options {
	return &options{emptyAddressAsNull: true}
}

// Option is a function that configures normalization.
type Option func(*options)

// WithEmptyAddressAsNull controls whether a website row without city, region
// and country gets a null address (the default) or an empty one.
func WithEmptyAddressAsNull(enabled bool) Option {
	return func(o *options) {
		o.emptyAddressAsNull = enabled
	}
}

// Lowercase lowercases every cell of the table in place. Null cells stay null.
func Lowercase(t *table.Table) {
	caser := cases.Lower(language.Und)
	for _, row := range t.Rows {
		for col, v := range row.Values {
			row.Values[col] = caser.String(v)
		}
	}
}

// DeriveAddress sets the address column of every website row to the
// trimmed, non-empty parts of city, region and country joined by ", ".
func DeriveAddress(t *table.Table, opts ...Option) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	t.AddColumn(sources.Address)
	for _, row := range t.Rows {
		var parts []string
		for _, col := range addressParts {
			if v, ok := row.Get(col); ok {
				if v = strings.TrimSpace(v); v != "" {
					parts = append(parts, v)
				}
			}
		}
		if len(parts) == 0 && o.emptyAddressAsNull {
			row.SetNull(sources.Address)
			continue
		}
		row.Set(sources.Address, strings.Join(parts, constants.AddressSeparator))
	}
}

// Stats reports what Prepare did to a table.
type Stats struct {
	Source  sources.ID
	Rows    int // rows after filtering
	Dropped int // rows removed by the completeness filter
}

// Prepare validates a source table against its schema, normalizes it and
// applies the completeness filter. The table is modified in place.
func Prepare(ctx context.Context, id sources.ID, t *table.Table, opts ...Option) (Stats, error) {
	schema, ok := sources.Lookup(id)
	if !ok {
		return Stats{}, &errors.ValidationError{Field: "source", Value: id, Message: "unknown source"}
	}
	if err := schema.Validate(t); err != nil {
		return Stats{}, err
	}

	Lowercase(t)
	if id == sources.Website {
		DeriveAddress(t, opts...)
	}
	dropped := t.DropAllNull(schema.Interest...)

	stats := Stats{Source: id, Rows: t.Len(), Dropped: dropped}
	logging.FromContext(ctx).Debug().
		Str("source", id.String()).
		Int("rows", stats.Rows).
		Int("dropped", stats.Dropped).
		Msg("Prepared source table")
	return stats, nil
}

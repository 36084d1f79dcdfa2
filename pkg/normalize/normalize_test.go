package normalize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/normalize"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

func websiteTable(rows ...map[string]string) *table.Table {
	t := table.New("website", sources.MustLookup(sources.Website).Required...)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestLowercase(t *testing.T) {
	tbl := table.New("social", "name", "phone")
	tbl.Append(map[string]string{"name": "Joe's PIZZA"})
	normalize.Lowercase(tbl)

	v, _ := tbl.Rows[0].Get("name")
	assert.Equal(t, "joe's pizza", v)
	assert.True(t, tbl.Rows[0].IsNull("phone"), "null stays null")
}

func TestDeriveAddress(t *testing.T) {
	tests := []struct {
		name  string
		row   map[string]string
		opts  []normalize.Option
		want  string
		isNil bool
	}{
		{
			name: "all parts",
			row:  map[string]string{"main_city": " austin ", "main_region": "texas", "main_country": "united states"},
			want: "austin, texas, united states",
		},
		{
			name: "skips empty and missing parts",
			row:  map[string]string{"main_city": "paris", "main_region": "  "},
			want: "paris",
		},
		{
			name:  "nothing to join is null",
			row:   map[string]string{"main_city": ""},
			isNil: true,
		},
		{
			name: "nothing to join kept as empty",
			row:  map[string]string{},
			opts: []normalize.Option{normalize.WithEmptyAddressAsNull(false)},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := websiteTable(tt.row)
			normalize.DeriveAddress(tbl, tt.opts...)

			assert.True(t, tbl.HasColumn("address"))
			v, ok := tbl.Rows[0].Get("address")
			if tt.isNil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()

	t.Run("website", func(t *testing.T) {
		tbl := websiteTable(
			map[string]string{"root_domain": "foo.com", "s_category": "Bakery"},
			map[string]string{"root_domain": "bar.com"},
			map[string]string{"root_domain": "baz.com", "main_city": "Rome"},
		)

		stats, err := normalize.Prepare(ctx, sources.Website, tbl)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Rows)
		assert.Equal(t, 1, stats.Dropped)

		v, _ := tbl.Rows[0].Get("s_category")
		assert.Equal(t, "bakery", v)
		addr, _ := tbl.Rows[1].Get("address")
		assert.Equal(t, "rome", addr)
	})

	t.Run("empty address keeps the row when configured", func(t *testing.T) {
		tbl := websiteTable(map[string]string{"root_domain": "bar.com"})

		stats, err := normalize.Prepare(ctx, sources.Website, tbl, normalize.WithEmptyAddressAsNull(false))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Rows)
	})

	t.Run("missing columns", func(t *testing.T) {
		tbl := table.New("social", "domain", "name")
		_, err := normalize.Prepare(ctx, sources.Social, tbl)

		var schemaErr *errors.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "social", schemaErr.Source)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := normalize.Prepare(ctx, "yelp", table.New("yelp"))
		assert.True(t, errors.IsValidationError(err))
	})
}

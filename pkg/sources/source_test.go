package sources_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

func TestSchemas(t *testing.T) {
	for _, id := range sources.IDs() {
		t.Run(id.String(), func(t *testing.T) {
			schema, ok := sources.Lookup(id)
			require.True(t, ok)
			assert.Equal(t, id, schema.ID)
			assert.Len(t, schema.Interest, 4)

			for _, attr := range append(sources.FusedAttributes(), sources.PrioritizedAttributes()...) {
				_, ok := schema.Column(attr)
				assert.True(t, ok, "attribute %s", attr)
			}
		})
	}

	website := sources.MustLookup(sources.Website)
	assert.Equal(t, ';', website.Delimiter)
	col, _ := website.Column(sources.Name)
	assert.Equal(t, "site_name", col)

	social := sources.MustLookup(sources.Social)
	col, _ = social.Column(sources.Category)
	assert.Equal(t, "categories", col)

	assert.False(t, sources.ID("yelp").IsValid())
	assert.Panics(t, func() { sources.MustLookup("yelp") })
}

func TestValidate(t *testing.T) {
	schema := sources.MustLookup(sources.Directory)

	complete := table.New("directory", schema.Required...)
	assert.NoError(t, schema.Validate(complete))

	partial := table.New("directory", "domain", "name")
	err := schema.Validate(partial)
	require.Error(t, err)

	var schemaErr *errors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"category", "address", "phone", "country_name", "city"}, schemaErr.Missing)
	assert.True(t, errors.IsValidationError(err))

	assert.Error(t, schema.Validate(nil))
}

func TestForSlot(t *testing.T) {
	assert.Equal(t, sources.Website, sources.ForSlot(provenance.SlotWebsite))
	assert.Equal(t, sources.Social, sources.ForSlot(provenance.SlotFacebook))
	assert.Equal(t, sources.Directory, sources.ForSlot(provenance.SlotGoogleUnique))
	assert.Equal(t, sources.Directory, sources.ForSlot(provenance.SlotGoogleNonUniqueLessReliable))
}

func TestTables(t *testing.T) {
	tables := sources.NewTables()

	var wg sync.WaitGroup
	for _, id := range sources.IDs() {
		wg.Add(1)
		go func(id sources.ID) {
			defer wg.Done()
			tbl := table.New(id.String())
			tbl.Append(map[string]string{"x": "1"})
			tables.Set(id, tbl)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, tables.Len())
	assert.Equal(t, 3, tables.Rows())

	tbl, ok := tables.Get(sources.Social)
	require.True(t, ok)
	assert.Equal(t, "social", tbl.Name)
}

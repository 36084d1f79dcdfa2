package linkage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/linkage"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

func newTable(id sources.ID, rows ...map[string]string) *table.Table {
	t := table.New(id.String(), sources.MustLookup(id).Required...)
	if id == sources.Website {
		t.AddColumn("address")
	}
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func link(t *testing.T, website, social, directory *table.Table) *linkage.Result {
	t.Helper()
	res, err := linkage.Link(context.Background(), website, social, directory)
	require.NoError(t, err)
	return res
}

func column(r *linkage.Row, name string) any {
	if v, ok := r.Column(name); ok {
		return v
	}
	return nil
}

func TestLinkSingleEntity(t *testing.T) {
	website := newTable(sources.Website, map[string]string{"root_domain": "foo.com", "s_category": "bakery", "site_name": "foo"})
	social := newTable(sources.Social, map[string]string{"domain": "foo.com", "categories": "bakery cafe", "name": "foo bakery"})
	directory := newTable(sources.Directory, map[string]string{"domain": "foo.com", "category": "pastry shop", "name": "foo"})

	res := link(t, website, social, directory)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, []provenance.Slot{provenance.SlotWebsite, provenance.SlotGoogleUnique, provenance.SlotFacebook}, row.Filled())
	assert.Equal(t, "foo.com", column(row, "root_domain"))
	assert.Equal(t, "foo.com", column(row, "domain"))
	assert.Equal(t, "foo.com", column(row, "domain_google_unique"))
	assert.Nil(t, column(row, "domain_google_non_unique_reliable"))

	assert.Equal(t, "bakery", column(row, "category_website"))
	assert.Equal(t, "bakery cafe", column(row, "category_facebook"))
	assert.Equal(t, "pastry shop", column(row, "category_google_unique"))
	assert.Equal(t, "foo bakery", column(row, "name_facebook"))
	assert.Equal(t, "foo.com", row.Label())

	social1, _ := res.Stats.Stage(linkage.StageSocial)
	assert.Equal(t, 1, social1.Matched)
	assert.Equal(t, 0, social1.Added)
	assert.Equal(t, 1, res.Stats.Rows)
}

func TestPartition(t *testing.T) {
	directory := newTable(sources.Directory,
		map[string]string{"domain": "a.com"},
		map[string]string{"domain": "b.com"},
		map[string]string{"domain": "a.com"},
		map[string]string{"name": "no domain"},
		map[string]string{"name": "no domain either"},
	)

	unique, nonUnique := linkage.Partition(directory)

	ids := func(rows []*table.Row) []int {
		var out []int
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []int{1, 3, 4}, ids(unique))
	assert.Equal(t, []int{0, 2}, ids(nonUnique))
	assert.Equal(t, directory.Len(), len(unique)+len(nonUnique))
}

func TestLinkNonUniqueDirectory(t *testing.T) {
	website := newTable(sources.Website,
		map[string]string{"root_domain": "chain.com", "site_name": "chain", "main_country": "us", "main_city": "austin"},
		map[string]string{"root_domain": "chain.com", "site_name": "chain", "main_country": "us", "main_city": "boston"},
	)
	social := newTable(sources.Social)
	directory := newTable(sources.Directory,
		// strict match for row 0
		map[string]string{"domain": "chain.com", "name": "chain", "country_name": "us", "city": "austin", "phone": "1"},
		// relaxed match for row 1 (country differs)
		map[string]string{"domain": "chain.com", "name": "chain", "country_name": "usa", "city": "boston", "phone": "2"},
		// relaxed match for row 0 as well
		map[string]string{"domain": "chain.com", "name": "chain", "country_name": "united states", "city": "austin", "phone": "3"},
		// no match anywhere
		map[string]string{"domain": "chain.com", "name": "chain", "country_name": "us", "city": "denver", "phone": "4"},
	)

	res := link(t, website, social, directory)
	require.Len(t, res.Rows, 3)

	first, second, added := res.Rows[0], res.Rows[1], res.Rows[2]
	assert.Equal(t, "1", column(first, "phone_google_non_unique_reliable"))
	assert.Equal(t, "3", column(first, "phone_google_non_unique_less_reliable"))
	assert.Nil(t, column(second, "phone_google_non_unique_reliable"))
	assert.Equal(t, "2", column(second, "phone_google_non_unique_less_reliable"))
	assert.Equal(t, "4", column(added, "phone_google_non_unique_less_reliable"))
	assert.Equal(t, "denver", column(added, "city_google_non_unique_less_reliable"))
	assert.Nil(t, column(added, "root_domain"))

	assert.Equal(t, 0, res.Stats.DirectoryUnique)
	assert.Equal(t, 4, res.Stats.DirectoryNonUnique)

	reliable, _ := res.Stats.Stage(linkage.StageDirectoryReliable)
	assert.Equal(t, linkage.StageStats{Name: linkage.StageDirectoryReliable, Matched: 1}, reliable)
	lessReliable, _ := res.Stats.Stage(linkage.StageDirectoryLessReliable)
	assert.Equal(t, 2, lessReliable.Matched)
	assert.Equal(t, 1, lessReliable.Added)
}

func TestLinkIsOneToOne(t *testing.T) {
	website := newTable(sources.Website,
		map[string]string{"root_domain": "dup.com", "site_name": "first"},
		map[string]string{"root_domain": "dup.com", "site_name": "second"},
	)
	social := newTable(sources.Social,
		map[string]string{"domain": "dup.com", "name": "only"},
	)
	directory := newTable(sources.Directory)

	res := link(t, website, social, directory)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "only", column(res.Rows[0], "name_facebook"), "first left row in order wins")
	assert.Nil(t, column(res.Rows[1], "name_facebook"))
}

func TestLinkNullKeysNeverMatch(t *testing.T) {
	website := newTable(sources.Website, map[string]string{"site_name": "anon"})
	social := newTable(sources.Social, map[string]string{"name": "anon too"})
	directory := newTable(sources.Directory,
		map[string]string{"name": "anon three"},
		map[string]string{"domain": "x.com", "name": "x"},
	)

	res := link(t, website, social, directory)
	assert.Len(t, res.Rows, 4)
	for _, r := range res.Rows {
		assert.Len(t, r.Filled(), 1)
	}
}

func TestLinkSocialOnlyRowsDoNotJoinDirectory(t *testing.T) {
	website := newTable(sources.Website)
	social := newTable(sources.Social, map[string]string{"domain": "fb.com", "name": "fb"})
	directory := newTable(sources.Directory, map[string]string{"domain": "fb.com", "name": "fb"})

	res := link(t, website, social, directory)
	require.Len(t, res.Rows, 2, "joins key on the website domain only")
	assert.Equal(t, "fb.com", column(res.Rows[0], "domain"))
	assert.Equal(t, "fb.com", column(res.Rows[1], "domain_google_unique"))
}

func TestLinkCoverage(t *testing.T) {
	website := newTable(sources.Website,
		map[string]string{"root_domain": "a.com", "site_name": "a", "main_city": "x"},
		map[string]string{"root_domain": "b.com", "site_name": "b"},
		map[string]string{"root_domain": "c.com"},
	)
	social := newTable(sources.Social,
		map[string]string{"domain": "a.com"},
		map[string]string{"domain": "z.com"},
		map[string]string{"domain": "a.com"},
	)
	directory := newTable(sources.Directory,
		map[string]string{"domain": "b.com"},
		map[string]string{"domain": "a.com", "name": "a", "city": "x"},
		map[string]string{"domain": "a.com", "name": "a", "city": "y"},
		map[string]string{"domain": "q.com"},
	)

	res := link(t, website, social, directory)

	counts := map[sources.ID]int{}
	for _, r := range res.Rows {
		for _, slot := range r.Filled() {
			counts[sources.ForSlot(slot)]++
		}
	}
	assert.Equal(t, website.Len(), counts[sources.Website])
	assert.Equal(t, social.Len(), counts[sources.Social])
	assert.Equal(t, directory.Len(), counts[sources.Directory])
}

func TestRowColumn(t *testing.T) {
	row := linkage.NewRow()
	row.Set(provenance.SlotWebsite, &table.Row{ID: 0, Values: map[string]string{"root_domain": "foo.com", "site_name": "foo"}})

	assert.Equal(t, "foo", column(row, "name_website"))
	assert.Nil(t, column(row, "phone_website"), "missing column reads as null")
	assert.Nil(t, column(row, "name_facebook"), "empty slot reads as null")
	assert.Nil(t, column(row, "domain_website"))
	assert.Nil(t, column(row, "unknown"))
	assert.Nil(t, column(row, "_website"))

	v, ok := row.Value(provenance.SlotWebsite, sources.Name)
	assert.True(t, ok)
	assert.Equal(t, "foo", v)

	_, ok = row.Value(provenance.SlotWebsite, "colour")
	assert.False(t, ok)
}

func TestLinkErrors(t *testing.T) {
	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := linkage.Link(ctx, newTable(sources.Website), newTable(sources.Social), newTable(sources.Directory))
		require.Error(t, err)
		assert.True(t, errors.IsCanceled(err))

		var linkErr *errors.LinkError
		require.ErrorAs(t, err, &linkErr)
		assert.Equal(t, linkage.StageSocial, linkErr.Stage)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := linkage.Link(context.Background(), table.New("website", "root_domain"), newTable(sources.Social), newTable(sources.Directory))

		var schemaErr *errors.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "website", schemaErr.Source)
	})
}

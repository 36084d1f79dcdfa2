package authority_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge/pkg/authority"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/provenance"
)

func TestDefaultOrder(t *testing.T) {
	a := authority.New()
	for _, attr := range []string{"category", "address", "name", "phone"} {
		assert.Equal(t, provenance.Slots(), a.Order(attr), attr)
	}

	best := a.Find("phone")
	require.NotNil(t, best)
	assert.Equal(t, provenance.SlotWebsite, best.Slot)
	assert.Len(t, a.List(), 5)
}

func TestSpecificPatternWins(t *testing.T) {
	fields := append(authority.Defaults(),
		authority.Field{Path: "phone", Slot: provenance.SlotFacebook, Priority: 50},
		authority.Field{Path: "phone", Slot: provenance.SlotWebsite, Priority: 40},
	)
	a, err := authority.NewWithFields(fields...)
	require.NoError(t, err)

	assert.Equal(t, []provenance.Slot{provenance.SlotFacebook, provenance.SlotWebsite}, a.Order("phone"))
	assert.Equal(t, provenance.Slots(), a.Order("name"))
}

func TestOverrideReplacesWholeOrder(t *testing.T) {
	dir := t.TempDir()

	partial := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte("authorities:\n  - {path: phone, slot: facebook, priority: 120}\n"), 0o644))
	a, err := authority.Load(partial)
	require.NoError(t, err)
	assert.Equal(t, []provenance.Slot{provenance.SlotFacebook}, a.Order("phone"))

	full := filepath.Join(dir, "full.yaml")
	require.NoError(t, os.WriteFile(full, []byte(`authorities:
  - {path: phone, slot: facebook, priority: 100}
  - {path: phone, slot: website, priority: 90}
  - {path: phone, slot: google_unique, priority: 80}
  - {path: phone, slot: google_non_unique_reliable, priority: 70}
  - {path: phone, slot: google_non_unique_less_reliable, priority: 60}
`), 0o644))
	a, err = authority.Load(full)
	require.NoError(t, err)
	assert.Equal(t, []provenance.Slot{
		provenance.SlotFacebook,
		provenance.SlotWebsite,
		provenance.SlotGoogleUnique,
		provenance.SlotGoogleNonUniqueReliable,
		provenance.SlotGoogleNonUniqueLessReliable,
	}, a.Order("phone"))
	assert.Equal(t, provenance.Slots(), a.Order("name"))
}

func TestNewWithFieldsValidation(t *testing.T) {
	_, err := authority.NewWithFields(authority.Field{Path: "name", Slot: "yelp"})
	assert.True(t, errors.IsValidationError(err))

	_, err = authority.NewWithFields(authority.Field{Slot: provenance.SlotWebsite})
	assert.True(t, errors.IsValidationError(err))
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		attr, pattern string
		want          bool
	}{
		{"phone", "phone", true},
		{"phone", "*", true},
		{"phone", "ph*", true},
		{"phone", "name", false},
		{"address", "a?dress", true},
		{"address", "[", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, authority.MatchesPattern(tt.attr, tt.pattern), "%s ~ %s", tt.attr, tt.pattern)
	}
}

func TestFilterBySlot(t *testing.T) {
	got := authority.FilterBySlot(authority.Defaults(), provenance.SlotFacebook)
	require.Len(t, got, 1)
	assert.Equal(t, 70, got[0].Priority)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides one attribute", func(t *testing.T) {
		path := filepath.Join(dir, "authorities.yaml")
		content := `authorities:
  - path: phone
    slot: facebook
    priority: 120
  - path: phone
    slot: google_unique
    priority: 110
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		a, err := authority.Load(path)
		require.NoError(t, err)
		assert.Equal(t, []provenance.Slot{provenance.SlotFacebook, provenance.SlotGoogleUnique}, a.Order("phone"))
		assert.Equal(t, provenance.Slots(), a.Order("category"))
	})

	t.Run("replaces the wildcard", func(t *testing.T) {
		path := filepath.Join(dir, "wildcard.yaml")
		content := `authorities:
  - path: "*"
    slot: facebook
    priority: 10
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		a, err := authority.Load(path)
		require.NoError(t, err)
		assert.Equal(t, []provenance.Slot{provenance.SlotFacebook}, a.Order("name"))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("authorities: []\n"), 0o644))

		_, err := authority.Load(path)
		var cfgErr *errors.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := authority.Load(filepath.Join(dir, "absent.yaml"))
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})
}

// Package sources describes the three business-listing sources merged by
// bizmerge: their schemas, the columns that make a row worth keeping, and
// which source column holds each canonical attribute.
//
// Example usage:
//
//	schema, _ := sources.Lookup(sources.Website)
//	if err := schema.Validate(tbl); err != nil {
//	    return err
//	}
//	dropped := tbl.DropAllNull(schema.Interest...)
package sources

import (
	"slices"
	"sync"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/table"
)

// ID represents the identifier of a data source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Source names.
const (
	Website   ID = "website"
	Social    ID = "social"
	Directory ID = "directory"
)

// IDs returns all sources in load order.
func IDs() []ID {
	return []ID{Website, Social, Directory}
}

// IsValid returns true if the ID is one of the defined constants.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// Canonical attributes shared by all sources.
const (
	Category = "category"
	Address  = "address"
	Name     = "name"
	Phone    = "phone"
)

// FusedAttributes are resolved by similarity.
func FusedAttributes() []string {
	return []string{Category, Address}
}

// PrioritizedAttributes are resolved by slot priority alone.
func PrioritizedAttributes() []string {
	return []string{Name, Phone}
}

// Schema describes the fixed column set of a source.
type Schema struct {
	ID        ID
	Delimiter rune

	// Key is the domain column used by the linkage cascade.
	Key string

	// Required columns must be present in the loaded table.
	Required []string

	// Interest lists the columns of which at least one must be non-null for
	// a row to take part in linkage.
	Interest []string

	// Attributes maps canonical attribute names to source columns.
	Attributes map[string]string
}

// Column returns the source column holding a canonical attribute.
func (s Schema) Column(attribute string) (string, bool) {
	c, ok := s.Attributes[attribute]
	return c, ok
}

// Validate checks that a loaded table carries every required column.
func (s Schema) Validate(t *table.Table) error {
	if t == nil {
		return &errors.ValidationError{Field: string(s.ID), Message: "table cannot be nil"}
	}
	if missing := t.MissingColumns(s.Required...); len(missing) > 0 {
		return errors.NewSchemaError(string(s.ID), missing)
	}
	return nil
}

var schemas = map[ID]Schema{
	Website: {
		ID:        Website,
		Delimiter: constants.WebsiteDelimiter,
		Key:       "root_domain",
		Required:  []string{"root_domain", "s_category", "site_name", "phone", "main_city", "main_region", "main_country"},
		Interest:  []string{"s_category", "address", "phone", "site_name"},
		Attributes: map[string]string{
			Category: "s_category",
			Address:  "address",
			Name:     "site_name",
			Phone:    "phone",
		},
	},
	Social: {
		ID:        Social,
		Delimiter: constants.DefaultDelimiter,
		Key:       "domain",
		Required:  []string{"domain", "categories", "address", "phone", "name"},
		Interest:  []string{"categories", "address", "phone", "name"},
		Attributes: map[string]string{
			Category: "categories",
			Address:  "address",
			Name:     "name",
			Phone:    "phone",
		},
	},
	Directory: {
		ID:        Directory,
		Delimiter: constants.DefaultDelimiter,
		Key:       "domain",
		Required:  []string{"domain", "category", "address", "phone", "name", "country_name", "city"},
		Interest:  []string{"category", "address", "phone", "name"},
		Attributes: map[string]string{
			Category: "category",
			Address:  "address",
			Name:     "name",
			Phone:    "phone",
		},
	},
}

// Lookup returns the schema of a source.
func Lookup(id ID) (Schema, bool) {
	s, ok := schemas[id]
	return s, ok
}

// MustLookup returns the schema of a known source and panics otherwise.
func MustLookup(id ID) Schema {
	s, ok := Lookup(id)
	if !ok {
		panic("sources: unknown source " + string(id))
	}
	return s
}

// ForSlot returns the source that feeds a provenance slot.
func ForSlot(slot provenance.Slot) ID {
	switch slot {
	case provenance.SlotWebsite:
		return Website
	case provenance.SlotFacebook:
		return Social
	default:
		return Directory
	}
}

// Tables is a thread-safe container for the loaded source tables.
type Tables struct {
	mu     sync.RWMutex
	tables map[ID]*table.Table
}

// NewTables creates an empty container.
func NewTables() *Tables {
	return &Tables{tables: make(map[ID]*table.Table)}
}

// Get returns a table by source ID.
func (s *Tables) Get(id ID) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	return t, ok
}

// Set stores a table by source ID.
func (s *Tables) Set(id ID, t *table.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[id] = t
}

// Len returns the number of tables.
func (s *Tables) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// Rows returns the total number of rows across all tables.
func (s *Tables) Rows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tables {
		n += t.Len()
	}
	return n
}

package linkage

import (
	"strings"

	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

// Identifying domain columns of a linked row.
const (
	ColumnRootDomain                        = "root_domain"
	ColumnDomain                            = "domain"
	ColumnDomainGoogleUnique                = "domain_google_unique"
	ColumnDomainGoogleNonUniqueReliable     = "domain_google_non_unique_reliable"
	ColumnDomainGoogleNonUniqueLessReliable = "domain_google_non_unique_less_reliable"
)

// DomainColumns returns the identifying domain columns in output order.
func DomainColumns() []string {
	return []string{
		ColumnRootDomain,
		ColumnDomain,
		ColumnDomainGoogleUnique,
		ColumnDomainGoogleNonUniqueReliable,
		ColumnDomainGoogleNonUniqueLessReliable,
	}
}

// Row is one candidate entity: at most one source record per provenance slot.
type Row struct {
	slots map[provenance.Slot]*table.Row
}

// NewRow creates an empty linked row.
func NewRow() *Row {
	return &Row{slots: make(map[provenance.Slot]*table.Row, len(provenance.Slots()))}
}

// Slot returns the record linked in a slot, or nil.
func (r *Row) Slot(slot provenance.Slot) *table.Row {
	return r.slots[slot]
}

// Set links a record into a slot.
func (r *Row) Set(slot provenance.Slot, row *table.Row) {
	r.slots[slot] = row
}

// Filled returns the slots holding a record, in priority order.
func (r *Row) Filled() []provenance.Slot {
	var filled []provenance.Slot
	for _, s := range provenance.Slots() {
		if r.slots[s] != nil {
			filled = append(filled, s)
		}
	}
	return filled
}

// Value returns a canonical attribute as recorded by the source in slot.
// An empty slot, or a source without the attribute, reads as null.
func (r *Row) Value(slot provenance.Slot, attribute string) (string, bool) {
	rec := r.slots[slot]
	if rec == nil {
		return "", false
	}
	schema, ok := sources.Lookup(sources.ForSlot(slot))
	if !ok {
		return "", false
	}
	column, ok := schema.Column(attribute)
	if !ok {
		return "", false
	}
	return rec.Get(column)
}

// Column exposes the flattened, slot-qualified view of the row:
// root_domain and domain are the website and social keys, and any other
// name is a column or canonical attribute followed by a slot suffix, such as
// category_website or city_google_non_unique_reliable. Unknown names read as
// null.
func (r *Row) Column(name string) (string, bool) {
	switch name {
	case ColumnRootDomain:
		return r.slots[provenance.SlotWebsite].Get(ColumnRootDomain)
	case ColumnDomain:
		return r.slots[provenance.SlotFacebook].Get(ColumnDomain)
	}
	for _, slot := range provenance.Slots() {
		base, ok := strings.CutSuffix(name, slot.Suffix())
		if !ok || base == "" {
			continue
		}
		if isCanonical(base) {
			return r.Value(slot, base)
		}
		return r.slots[slot].Get(base)
	}
	return "", false
}

// RootDomain returns the website domain, the key every join stage matches on.
func (r *Row) RootDomain() (string, bool) {
	return r.Column(ColumnRootDomain)
}

// Label returns the first known domain of the row, for logs and reports.
func (r *Row) Label() string {
	for _, c := range DomainColumns() {
		if v, ok := r.Column(c); ok && v != "" {
			return v
		}
	}
	return ""
}

func isCanonical(attribute string) bool {
	switch attribute {
	case sources.Category, sources.Address, sources.Name, sources.Phone:
		return true
	}
	return false
}

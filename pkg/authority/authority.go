// Package authority decides which provenance slot is trusted first for each
// canonical attribute.
//
// By default every attribute uses the fixed slot order website,
// google_unique, google_non_unique_reliable, facebook,
// google_non_unique_less_reliable. A YAML file can override the order per
// attribute. The fields with the most specific matching path make up the
// whole order for that attribute, so an override lists every slot that
// should still be consulted; slots it leaves out are ignored:
//
//	authorities:
//	  - {path: phone, slot: facebook, priority: 100}
//	  - {path: phone, slot: website, priority: 90}
//	  - {path: phone, slot: google_unique, priority: 80}
//	  - {path: phone, slot: google_non_unique_reliable, priority: 70}
//	  - {path: phone, slot: google_non_unique_less_reliable, priority: 60}
package authority

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/provenance"
)

// Authority determines the slot order used to resolve an attribute.
type Authority interface {
	// Find returns the highest priority authority for an attribute
	Find(attribute string) *Field

	// Order returns the slots to consult for an attribute, most trusted first
	Order(attribute string) []provenance.Slot

	// List returns all configured authorities
	List() []Field
}

// Field defines the priority of one slot for the attributes matching Path.
type Field struct {
	Path     string          `json:"path" yaml:"path"`         // attribute name or pattern, e.g. "phone", "*"
	Slot     provenance.Slot `json:"slot" yaml:"slot"`         // which slot the priority applies to
	Priority int             `json:"priority" yaml:"priority"` // higher = more authoritative
}

// authorities is the default Authority implementation.
type authorities struct {
	fields []Field
}

// New creates an Authority with the default slot order.
func New() Authority {
	return &authorities{fields: Defaults()}
}

// NewWithFields creates an Authority from an explicit list of fields.
func NewWithFields(fields ...Field) (Authority, error) {
	for _, f := range fields {
		if f.Path == "" {
			return nil, &errors.ValidationError{Field: "path", Message: "cannot be empty"}
		}
		if !f.Slot.IsValid() {
			return nil, &errors.ValidationError{Field: "slot", Value: f.Slot, Message: "unknown provenance slot"}
		}
	}
	return &authorities{fields: fields}, nil
}

// Find returns the highest priority authority for an attribute.
func (a *authorities) Find(attribute string) *Field {
	return ByField(attribute, a.fields)
}

// Order returns the slots to consult for an attribute. Only fields with the
// most specific matching pattern take part; among them higher priority comes
// first and ties keep declaration order.
func (a *authorities) Order(attribute string) []provenance.Slot {
	var matching []Field
	best := -1
	for _, f := range a.fields {
		if !MatchesPattern(attribute, f.Path) {
			continue
		}
		switch s := specificity(attribute, f.Path); {
		case s > best:
			best = s
			matching = []Field{f}
		case s == best:
			matching = append(matching, f)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	var order []provenance.Slot
	seen := make(map[provenance.Slot]bool)
	for _, f := range matching {
		if !seen[f.Slot] {
			seen[f.Slot] = true
			order = append(order, f.Slot)
		}
	}
	return order
}

// List returns all configured authorities.
func (a *authorities) List() []Field {
	return append([]Field(nil), a.fields...)
}

// ByField returns the highest priority authority for a given attribute.
func ByField(attribute string, authorities []Field) *Field {
	var bestMatch *Field
	var bestPriority int
	var bestMatchLength int

	for i, auth := range authorities {
		if MatchesPattern(attribute, auth.Path) {
			// Prioritize by: 1) priority, 2) pattern specificity (length), 3) order
			patternLength := len(auth.Path)
			if bestMatch == nil || auth.Priority > bestPriority ||
				(auth.Priority == bestPriority && patternLength > bestMatchLength) {
				bestMatch = &authorities[i]
				bestPriority = auth.Priority
				bestMatchLength = patternLength
			}
		}
	}

	return bestMatch
}

// MatchesPattern checks if an attribute matches a pattern (supports * wildcards)
func MatchesPattern(attribute, pattern string) bool {
	if attribute == pattern {
		return true
	}

	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(attribute) >= len(prefix) && attribute[:len(prefix)] == prefix
	}

	matched, err := filepath.Match(pattern, attribute)
	if err != nil {
		return false
	}
	return matched
}

// specificity ranks an exact match above any wildcard, and longer patterns
// above shorter ones.
func specificity(attribute, pattern string) int {
	if attribute == pattern {
		return 1 << 16
	}
	return len(pattern)
}

// FilterBySlot returns only the authorities for a specific slot
func FilterBySlot(authorities []Field, slot provenance.Slot) []Field {
	var filtered []Field
	for _, auth := range authorities {
		if auth.Slot == slot {
			filtered = append(filtered, auth)
		}
	}
	return filtered
}

// Defaults returns the fixed slot order for every attribute.
func Defaults() []Field {
	slots := provenance.Slots()
	fields := make([]Field, len(slots))
	for i, slot := range slots {
		fields[i] = Field{Path: "*", Slot: slot, Priority: 100 - 10*i}
	}
	return fields
}

// File is the on-disk representation of custom authorities.
type File struct {
	Authorities []Field `yaml:"authorities"`
}

// Load reads authorities from a YAML file and layers them over the defaults.
// Fields in the file replace every default field with the same path.
func Load(path string) (Authority, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if len(f.Authorities) == 0 {
		return nil, &errors.ConfigError{Component: "authorities", Message: path + " defines no authorities"}
	}

	overridden := make(map[string]bool)
	for _, field := range f.Authorities {
		overridden[field.Path] = true
	}
	var fields []Field
	for _, d := range Defaults() {
		if !overridden[d.Path] {
			fields = append(fields, d)
		}
	}
	fields = append(fields, f.Authorities...)

	return NewWithFields(fields...)
}

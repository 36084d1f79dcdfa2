// Package provenance provides field-level tracking of which source slot a
// fused value came from.
//
// A linked row can carry a record from up to five provenance slots. The slot
// order is fixed and encodes trust: the website crawl first, then the
// directory match on a unique domain, the strict directory match on a shared
// domain, the social directory and finally the relaxed directory match.
package provenance

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"
	md "github.com/nao1215/markdown"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
)

// Slot names the origin of a candidate value within a linked row.
type Slot string

// Provenance slots in priority order.
const (
	SlotWebsite                     Slot = "website"
	SlotGoogleUnique                Slot = "google_unique"
	SlotGoogleNonUniqueReliable     Slot = "google_non_unique_reliable"
	SlotFacebook                    Slot = "facebook"
	SlotGoogleNonUniqueLessReliable Slot = "google_non_unique_less_reliable"
)

// Slots returns every slot in the fixed priority order.
func Slots() []Slot {
	return []Slot{
		SlotWebsite,
		SlotGoogleUnique,
		SlotGoogleNonUniqueReliable,
		SlotFacebook,
		SlotGoogleNonUniqueLessReliable,
	}
}

// String returns the string representation of a slot.
func (s Slot) String() string {
	return string(s)
}

// IsValid returns true if the slot is one of the defined constants.
func (s Slot) IsValid() bool {
	return slices.Contains(Slots(), s)
}

// Suffix returns the column suffix used for this slot in the flattened row view.
func (s Slot) Suffix() string {
	return "_" + string(s)
}

// Rank returns the position of the slot in the priority order, or -1.
func (s Slot) Rank() int {
	return slices.Index(Slots(), s)
}

// ParseSlot converts a string into a Slot.
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	if !slot.IsValid() {
		return "", &errors.ValidationError{
			Field:   "slot",
			Value:   s,
			Message: fmt.Sprintf("unknown provenance slot, expected one of %v", Slots()),
		}
	}
	return slot, nil
}

// Provenance records one decision taken while resolving a field.
type Provenance struct {
	Slot   Slot   `yaml:"slot"`            // Slot the value came from
	Value  string `yaml:"value"`           // Value after the decision
	Score  int    `yaml:"score,omitempty"` // Similarity score, when one was computed
	Reason string `yaml:"reason"`          // Why the value was taken
}

// Key identifies a field of an output record.
type Key struct {
	Record int
	Field  string
}

// Map tracks provenance for every resolved field.
type Map map[Key][]Provenance

// Tracker manages provenance tracking during resolution.
// Implementations are safe for concurrent use.
type Tracker interface {
	// Track records a decision for a field
	Track(record int, field string, p Provenance)

	// FindByField retrieves the decisions for a specific field
	FindByField(record int, field string) []Provenance

	// FindByRecord retrieves all decisions for a record keyed by field
	FindByRecord(record int) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	mu         sync.Mutex
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker drops
// everything it is given.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records a decision for a field.
func (p *tracker) Track(record int, field string, history Provenance) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	key := Key{Record: record, Field: field}
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves the decisions for a specific field.
func (p *tracker) FindByField(record int, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.provenance[Key{Record: record, Field: field}])
}

// FindByRecord retrieves all decisions for a record.
func (p *tracker) FindByRecord(record int) map[string][]Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make(map[string][]Provenance)
	for key, info := range p.provenance {
		if key.Record == record {
			result[key.Field] = slices.Clone(info)
		}
	}
	return result
}

// Map returns a copy of the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = slices.Clone(v)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provenance = make(Map)
}

// Report is the provenance artifact written next to the fused output.
type Report struct {
	RunID       string   `yaml:"run_id,omitempty"`
	GeneratedAt utc.Time `yaml:"generated_at"`
	Records     []Record `yaml:"records"`
}

// Record contains provenance for a single output record.
type Record struct {
	Index  int              `yaml:"index"`
	Label  string           `yaml:"label,omitempty"` // usually the root domain
	Fields map[string]Field `yaml:"fields"`
}

// Field contains the decisions taken for a single field.
type Field struct {
	Current Provenance   `yaml:"current"` // the final decision
	History []Provenance `yaml:"history,omitempty"`
}

// Slots returns the distinct slots that contributed to the field, in the
// order they were used.
func (f Field) Slots() []Slot {
	var slots []Slot
	for _, h := range f.History {
		if !slices.Contains(slots, h.Slot) {
			slots = append(slots, h.Slot)
		}
	}
	return slots
}

// GenerateReport creates a provenance report from a Map. labels optionally
// maps record indexes to a human-readable label.
func GenerateReport(provenance Map, labels map[int]string) *Report {
	byRecord := make(map[int]*Record)
	for key, infos := range provenance {
		if len(infos) == 0 {
			continue
		}
		rec, ok := byRecord[key.Record]
		if !ok {
			rec = &Record{
				Index:  key.Record,
				Label:  labels[key.Record],
				Fields: make(map[string]Field),
			}
			byRecord[key.Record] = rec
		}
		rec.Fields[key.Field] = Field{
			Current: infos[len(infos)-1],
			History: slices.Clone(infos),
		}
	}

	report := &Report{
		GeneratedAt: utc.Now(),
		Records:     make([]Record, 0, len(byRecord)),
	}
	for _, rec := range byRecord {
		report.Records = append(report.Records, *rec)
	}
	sort.Slice(report.Records, func(i, j int) bool {
		return report.Records[i].Index < report.Records[j].Index
	})
	return report
}

// String generates a human-readable representation of the report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	for _, rec := range r.Records {
		label := rec.Label
		if label == "" {
			label = "(no domain)"
		}
		fmt.Fprintf(&sb, "record %d: %s\n", rec.Index, label)
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		for _, field := range sortedFields(rec) {
			f := rec.Fields[field]
			fmt.Fprintf(&sb, "  %s: %q (from %s)\n", field, f.Current.Value, f.Current.Slot)
			if len(f.History) > 1 {
				for _, h := range f.History {
					fmt.Fprintf(&sb, "    - %s: %s\n", h.Slot, h.Reason)
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Write stores the report at path, as Markdown when the extension is .md
// and as YAML otherwise. The file is written to a temporary sibling first
// and renamed into place.
func (r *Report) Write(path string) error {
	staged, err := r.Stage(path)
	if err != nil {
		return err
	}
	defer staged.Discard()
	return staged.Commit()
}

// Staged is a rendered report waiting in a temporary sibling of its
// destination. Commit renames it into place; Discard removes it and is a
// no-op after a successful Commit.
type Staged struct {
	tmp  string
	path string
	done bool
}

// Stage renders the report and writes it next to path without touching
// path itself, so a caller can commit it together with other output.
func (r *Report) Stage(path string) (*Staged, error) {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		if err := r.Markdown(&buf); err != nil {
			return nil, errors.WrapResource("render", "report", "markdown", err)
		}
	default:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
		buf.Write(data)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".provenance-*"+filepath.Ext(path))
	if err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	staged := &Staged{tmp: tmp.Name(), path: path}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		staged.Discard()
		return nil, errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		staged.Discard()
		return nil, errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(staged.tmp, constants.FilePermissions); err != nil {
		staged.Discard()
		return nil, errors.WrapIO("chmod", path, err)
	}
	return staged, nil
}

// Path returns the destination of the staged report.
func (s *Staged) Path() string { return s.path }

// Commit renames the staged report into place.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		return errors.WrapIO("rename", s.path, err)
	}
	s.done = true
	return nil
}

// Discard removes the staged file unless it was committed.
func (s *Staged) Discard() {
	if !s.done {
		_ = os.Remove(s.tmp)
	}
}

// Markdown renders the report as a Markdown document with one table per
// record.
func (r *Report) Markdown(w io.Writer) error {
	doc := md.NewMarkdown(w).H1("Provenance Report")
	if r.RunID != "" {
		doc.PlainTextf("Run %s, generated %v.", md.Code(r.RunID), r.GeneratedAt)
	} else {
		doc.PlainTextf("Generated %v.", r.GeneratedAt)
	}
	doc.LF()

	for _, rec := range r.Records {
		label := rec.Label
		if label == "" {
			label = "(no domain)"
		}
		doc.H2(fmt.Sprintf("Record %d: %s", rec.Index, label))

		rows := make([][]string, 0, len(rec.Fields))
		for _, field := range sortedFields(rec) {
			f := rec.Fields[field]
			slots := make([]string, 0, len(f.History))
			reasons := make([]string, 0, len(f.History))
			for _, s := range f.Slots() {
				slots = append(slots, s.String())
			}
			for _, h := range f.History {
				reasons = append(reasons, h.Reason)
			}
			rows = append(rows, []string{field, f.Current.Value, strings.Join(slots, ", "), strings.Join(reasons, "; ")})
		}
		doc.Table(md.TableSet{
			Header: []string{"Field", "Value", "Slots", "Reasons"},
			Rows:   rows,
		})
	}
	return doc.Build()
}

func sortedFields(rec Record) []string {
	fields := make([]string, 0, len(rec.Fields))
	for field := range rec.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Load reads a report written by Write.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*Report, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &r, nil
}

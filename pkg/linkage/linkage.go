// Package linkage joins the three prepared source tables into one row per
// candidate entity.
//
// The cascade runs in a fixed order that decides provenance precedence:
//
//  1. website full outer join social on root_domain = domain
//  2. directory rows split into unique and non-unique domains
//  3. full outer join with the unique directory rows on root_domain = domain
//  4. left join with the non-unique directory rows on the strict key
//     (root_domain, site_name, main_country, main_city) = (domain, name, country_name, city)
//  5. non-unique rows not consumed by step 4 are found by surrogate ID
//  6. full outer join with those rows on the relaxed key
//     (root_domain, site_name, main_city) = (domain, name, city)
//
// Every join is 1:1. Each left row, in order, takes the first unconsumed
// right row with an equal key, and a null key component never matches.
// Unmatched right rows of an outer join are appended as new linked rows in
// input order.
package linkage

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/sources"
	"github.com/agentstation/bizmerge/pkg/table"
)

// Stage names, as reported in Stats and LinkError.
const (
	StageSocial                = "website_social"
	StageDirectoryUnique       = "directory_unique"
	StageDirectoryReliable     = "directory_non_unique_reliable"
	StageDirectoryLessReliable = "directory_non_unique_less_reliable"
	stageValidate              = "validate"
	stageCoverage              = "coverage"
)

// Result is the output of Link.
type Result struct {
	Rows  []*Row
	Stats Stats
}

// Stats describes what each stage of the cascade did.
type Stats struct {
	Website            int
	Social             int
	Directory          int
	DirectoryUnique    int
	DirectoryNonUnique int
	Stages             []StageStats
	Rows               int
}

// StageStats counts the matches of one join stage.
type StageStats struct {
	Name    string
	Matched int // right rows attached to an existing linked row
	Added   int // right rows that became new linked rows
}

// Stage returns the stats of a stage by name.
func (s Stats) Stage(name string) (StageStats, bool) {
	for _, st := range s.Stages {
		if st.Name == name {
			return st, true
		}
	}
	return StageStats{}, false
}

// options configures Link.
type options struct {
	verifyCoverage bool
}

// Option is a function that configures Link.
type Option func(*options)

// WithCoverageCheck verifies after linking that every input row landed in
// exactly one linked row. Enabled by default.
func WithCoverageCheck(enabled bool) Option {
	return func(o *options) {
		o.verifyCoverage = enabled
	}
}

// Link runs the join cascade over prepared website, social and directory tables.
func Link(ctx context.Context, website, social, directory *table.Table, opts ...Option) (*Result, error) {
	o := &options{verifyCoverage: true}
	for _, opt := range opts {
		opt(o)
	}

	logger := logging.FromContext(logging.WithStage(ctx, "link"))

	for id, t := range map[sources.ID]*table.Table{sources.Website: website, sources.Social: social, sources.Directory: directory} {
		if err := sources.MustLookup(id).Validate(t); err != nil {
			return nil, errors.NewLinkError(stageValidate, id.String(), "", err)
		}
	}

	stats := Stats{Website: website.Len(), Social: social.Len(), Directory: directory.Len()}

	// 1. website ⋈ social
	rows := make([]*Row, 0, website.Len())
	for _, w := range website.Rows {
		r := NewRow()
		r.Set(provenance.SlotWebsite, w)
		rows = append(rows, r)
	}
	rows, st, _ := join(rows, social.Rows, joinSpec{
		slot:  provenance.SlotFacebook,
		left:  websiteKey(ColumnRootDomain),
		right: recordKey(ColumnDomain),
		outer: true,
		stage: StageSocial,
	})
	stats.Stages = append(stats.Stages, st)
	if err := checkpoint(ctx, StageSocial); err != nil {
		return nil, err
	}

	// 2. partition by domain multiplicity
	unique, nonUnique := Partition(directory)
	stats.DirectoryUnique, stats.DirectoryNonUnique = len(unique), len(nonUnique)

	// 3. ⋈ unique directory rows
	rows, st, _ = join(rows, unique, joinSpec{
		slot:  provenance.SlotGoogleUnique,
		left:  websiteKey(ColumnRootDomain),
		right: recordKey(ColumnDomain),
		outer: true,
		stage: StageDirectoryUnique,
	})
	stats.Stages = append(stats.Stages, st)
	if err := checkpoint(ctx, StageDirectoryUnique); err != nil {
		return nil, err
	}

	// 4. left join on the strict key
	rows, st, consumed := join(rows, nonUnique, joinSpec{
		slot:  provenance.SlotGoogleNonUniqueReliable,
		left:  websiteKey(ColumnRootDomain, "site_name", "main_country", "main_city"),
		right: recordKey(ColumnDomain, "name", "country_name", "city"),
		outer: false,
		stage: StageDirectoryReliable,
	})
	stats.Stages = append(stats.Stages, st)
	if err := checkpoint(ctx, StageDirectoryReliable); err != nil {
		return nil, err
	}

	// 5. unmatched non-unique rows by surrogate ID
	unmatched := make([]*table.Row, 0, len(nonUnique)-len(consumed))
	for _, rec := range nonUnique {
		if !consumed[rec.ID] {
			unmatched = append(unmatched, rec)
		}
	}

	// 6. ⋈ unmatched on the relaxed key
	rows, st, _ = join(rows, unmatched, joinSpec{
		slot:  provenance.SlotGoogleNonUniqueLessReliable,
		left:  websiteKey(ColumnRootDomain, "site_name", "main_city"),
		right: recordKey(ColumnDomain, "name", "city"),
		outer: true,
		stage: StageDirectoryLessReliable,
	})
	stats.Stages = append(stats.Stages, st)
	stats.Rows = len(rows)

	if o.verifyCoverage {
		if err := verifyCoverage(rows, website, social, directory); err != nil {
			return nil, errors.NewLinkError(stageCoverage, "", "", err)
		}
	}

	for _, s := range stats.Stages {
		logger.Debug().
			Str("join", s.Name).
			Int("matched", s.Matched).
			Int("added", s.Added).
			Msg("Join stage complete")
	}
	logger.Info().
		Int("website", stats.Website).
		Int("social", stats.Social).
		Int("directory_unique", stats.DirectoryUnique).
		Int("directory_non_unique", stats.DirectoryNonUnique).
		Int("rows", stats.Rows).
		Msg("Linked source tables")

	return &Result{Rows: rows, Stats: stats}, nil
}

// Partition splits directory rows by how often their domain occurs. Rows
// whose domain occurs exactly once are unique, rows whose domain occurs two
// or more times are non-unique (all copies). A null domain counts as
// distinct from every other, so such rows are unique. Input order is kept in
// both partitions.
func Partition(directory *table.Table) (unique, nonUnique []*table.Row) {
	counts := make(map[string]int)
	for _, rec := range directory.Rows {
		if d, ok := rec.Get(ColumnDomain); ok {
			counts[d]++
		}
	}
	for _, rec := range directory.Rows {
		d, ok := rec.Get(ColumnDomain)
		if ok && counts[d] > 1 {
			nonUnique = append(nonUnique, rec)
			continue
		}
		unique = append(unique, rec)
	}
	return unique, nonUnique
}

// keySep cannot appear in CSV-decoded text cells.
const keySep = "\x00"

type (
	leftKeyFunc  func(*Row) (string, bool)
	rightKeyFunc func(*table.Row) (string, bool)
)

type joinSpec struct {
	slot  provenance.Slot
	left  leftKeyFunc
	right rightKeyFunc
	outer bool // keep unmatched right rows as new linked rows
	stage string
}

// websiteKey builds a composite key from columns of the website slot.
func websiteKey(columns ...string) leftKeyFunc {
	rk := recordKey(columns...)
	return func(r *Row) (string, bool) {
		return rk(r.Slot(provenance.SlotWebsite))
	}
}

// recordKey builds a composite key from columns of a source record. Any
// null component makes the key null.
func recordKey(columns ...string) rightKeyFunc {
	return func(rec *table.Row) (string, bool) {
		parts := make([]string, len(columns))
		for i, c := range columns {
			v, ok := rec.Get(c)
			if !ok {
				return "", false
			}
			parts[i] = v
		}
		return strings.Join(parts, keySep), true
	}
}

// join attaches right rows to linked rows in j.slot and returns the new
// row list, its stats and the IDs of the right rows consumed by a match.
func join(left []*Row, right []*table.Row, j joinSpec) ([]*Row, StageStats, map[int]bool) {
	st := StageStats{Name: j.stage}

	queues := make(map[string][]*table.Row)
	for _, rec := range right {
		if k, ok := j.right(rec); ok {
			queues[k] = append(queues[k], rec)
		}
	}

	consumed := make(map[int]bool, len(right))
	for _, r := range left {
		if r.Slot(j.slot) != nil {
			continue
		}
		k, ok := j.left(r)
		if !ok {
			continue
		}
		q := queues[k]
		if len(q) == 0 {
			continue
		}
		r.Set(j.slot, q[0])
		queues[k] = q[1:]
		consumed[q[0].ID] = true
		st.Matched++
	}

	if j.outer {
		for _, rec := range right {
			if consumed[rec.ID] {
				continue
			}
			r := NewRow()
			r.Set(j.slot, rec)
			left = append(left, r)
			st.Added++
		}
	}
	return left, st, consumed
}

func checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewLinkError(stage, "", "", fmt.Errorf("%w: %w", errors.ErrCanceled, err))
	}
	return nil
}

// verifyCoverage checks that each input row is linked exactly once.
func verifyCoverage(rows []*Row, website, social, directory *table.Table) error {
	seen := map[sources.ID]map[int]int{
		sources.Website:   {},
		sources.Social:    {},
		sources.Directory: {},
	}
	for _, r := range rows {
		for _, slot := range r.Filled() {
			seen[sources.ForSlot(slot)][r.Slot(slot).ID]++
		}
	}
	for id, t := range map[sources.ID]*table.Table{sources.Website: website, sources.Social: social, sources.Directory: directory} {
		for _, rec := range t.Rows {
			if n := seen[id][rec.ID]; n != 1 {
				return fmt.Errorf("%s row %d linked %d times", id, rec.ID, n)
			}
		}
	}
	return nil
}

// Package bizmerge links business listings from a website crawl, a social
// business directory and a mapping directory, and fuses the records that
// describe the same company into one output row.
//
// A run reads the three sources, normalizes and filters them, links rows
// through an exact-key join cascade, resolves conflicting attributes row by
// row and writes the result:
//
//	res, err := bizmerge.Run(ctx,
//		bizmerge.WithWebsitePath("datasets/website_dataset.csv"),
//		bizmerge.WithOutput("out/company_data.xlsx"),
//	)
package bizmerge

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/bizmerge/internal/csvio"
	"github.com/agentstation/bizmerge/internal/sink"
	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/linkage"
	"github.com/agentstation/bizmerge/pkg/logging"
	"github.com/agentstation/bizmerge/pkg/normalize"
	"github.com/agentstation/bizmerge/pkg/output"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/reconciler"
	"github.com/agentstation/bizmerge/pkg/sources"
)

// SourceStats describes how one source file was loaded.
type SourceStats struct {
	Path    string `json:"path" yaml:"path"`
	Read    int    `json:"read" yaml:"read"`       // data rows kept by the reader
	Skipped int    `json:"skipped" yaml:"skipped"` // malformed rows skipped
	Padded  int    `json:"padded" yaml:"padded"`   // short rows padded with nulls
	Dropped int    `json:"dropped" yaml:"dropped"` // rows removed by the completeness filter
	Rows    int    `json:"rows" yaml:"rows"`       // rows entering linkage
}

// Result summarizes a run.
type Result struct {
	RunID      string                      `json:"run_id" yaml:"run_id"`
	StartedAt  utc.Time                    `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time                    `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration               `json:"duration" yaml:"duration"`
	Sources    map[sources.ID]SourceStats  `json:"sources" yaml:"sources"`
	Link       linkage.Stats               `json:"link" yaml:"link"`
	Resolve    reconciler.ResultStatistics `json:"resolve" yaml:"resolve"`
	Output     string                      `json:"output,omitempty" yaml:"output,omitempty"`
	Report     string                      `json:"report,omitempty" yaml:"report,omitempty"`

	// Records are the fused rows in linkage order.
	Records []output.Record `json:"-" yaml:"-"`
	// Provenance is set when a provenance report was requested.
	Provenance *provenance.Report `json:"-" yaml:"-"`
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("Merged %d website, %d social and %d directory rows into %d records in %s",
		r.Link.Website, r.Link.Social, r.Link.Directory, len(r.Records), r.Duration.Round(time.Millisecond))
}

// Run executes the whole pipeline and writes the output file.
func Run(ctx context.Context, opts ...Option) (*Result, error) {
	return run(ctx, true, opts...)
}

// Resolve executes the pipeline up to the fused records without writing
// anything.
func Resolve(ctx context.Context, opts ...Option) (*Result, error) {
	return run(ctx, false, opts...)
}

func run(ctx context.Context, write bool, opts ...Option) (*Result, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	ctx = logging.WithRunID(ctx, o.runID)
	logger := logging.FromContext(ctx)

	start := time.Now()
	res := &Result{
		RunID:     o.runID,
		StartedAt: utc.Now(),
		Sources:   make(map[sources.ID]SourceStats, len(sources.IDs())),
	}

	tables, err := load(ctx, o, res)
	if err != nil {
		return nil, err
	}

	website, _ := tables.Get(sources.Website)
	social, _ := tables.Get(sources.Social)
	directory, _ := tables.Get(sources.Directory)
	linked, err := linkage.Link(ctx, website, social, directory)
	if err != nil {
		return nil, err
	}
	res.Link = linked.Stats

	ropts := []reconciler.Option{
		reconciler.WithWorkers(o.workers),
		reconciler.WithDetailThreshold(o.detailThreshold),
		reconciler.WithProvenance(o.provenanceReport != ""),
	}
	if o.authorities != nil {
		ropts = append(ropts, reconciler.WithAuthorities(o.authorities))
	}
	rec, err := reconciler.New(ropts...)
	if err != nil {
		return nil, err
	}

	views := make([]reconciler.View, len(linked.Rows))
	for i, row := range linked.Rows {
		views[i] = row
	}
	progress(ctx, o, constants.MarkerResolved)
	resolved, err := rec.Rows(ctx, views)
	if err != nil {
		return nil, err
	}
	res.Resolve = resolved.Metadata.Stats

	res.Records = output.Project(linked.Rows, resolved.Rows)

	if o.provenanceReport != "" {
		labels := make(map[int]string, len(linked.Rows))
		for i, row := range linked.Rows {
			labels[i] = row.Label()
		}
		res.Provenance = provenance.GenerateReport(resolved.Provenance, labels)
		res.Provenance.RunID = o.runID
	}

	if write {
		// the report is staged before the output is written and committed
		// after it, so a failure on either side leaves neither behind
		var staged *provenance.Staged
		if res.Provenance != nil {
			staged, err = res.Provenance.Stage(o.provenanceReport)
			if err != nil {
				return nil, err
			}
			defer staged.Discard()
		}

		if err := sink.Write(logging.WithStage(ctx, "write"), o.output, res.Records); err != nil {
			return nil, err
		}
		res.Output = o.output

		if staged != nil {
			if err := staged.Commit(); err != nil {
				_ = os.Remove(o.output)
				return nil, err
			}
			res.Report = staged.Path()
		}
		progress(ctx, o, constants.MarkerSuccess)
	}

	res.FinishedAt = utc.Now()
	res.Duration = time.Since(start)
	logger.Info().
		Int("records", len(res.Records)).
		Dur("duration", res.Duration).
		Msg(res.Summary())
	return res, nil
}

// load reads and prepares the three sources concurrently.
func load(ctx context.Context, o *options, res *Result) (*sources.Tables, error) {
	tables := sources.NewTables()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range sources.IDs() {
		g.Go(func() error {
			sctx := logging.WithStage(logging.WithSource(gctx, id.String()), "load")
			schema := sources.MustLookup(id)
			path := o.paths[id]

			t, rs, err := csvio.Read(sctx, path, csvio.Options{
				Name:      id.String(),
				Delimiter: schema.Delimiter,
				// a malformed website row aborts the run; the other
				// sources skip it
				SkipMalformed: id != sources.Website,
			})
			if err != nil {
				return err
			}

			ps, err := normalize.Prepare(sctx, id, t, normalize.WithEmptyAddressAsNull(o.emptyAddressAsNull))
			if err != nil {
				return err
			}

			tables.Set(id, t)
			mu.Lock()
			res.Sources[id] = SourceStats{
				Path:    path,
				Read:    rs.Rows,
				Skipped: rs.Skipped,
				Padded:  rs.Padded,
				Dropped: ps.Dropped,
				Rows:    ps.Rows,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.WrapResource("load", "sources", "", fmt.Errorf("%w: %w", errors.ErrCanceled, ctx.Err()))
		}
		return nil, err
	}
	return tables, nil
}

// progress prints a milestone marker and logs it.
func progress(ctx context.Context, o *options, marker string) {
	_, _ = fmt.Fprintln(o.progress, marker)
	logging.FromContext(ctx).Info().Msg(marker)
}

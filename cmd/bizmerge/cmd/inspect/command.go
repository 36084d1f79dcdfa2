// Package inspect implements the command that previews fused records
// without writing any output file.
package inspect

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/bizmerge"
	"github.com/agentstation/bizmerge/internal/appcontext"
	"github.com/agentstation/bizmerge/internal/cmd/output"
	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
	"github.com/agentstation/bizmerge/pkg/sources"
)

// Flags holds the inspect-specific flags.
type Flags struct {
	Limit int
	Stats bool
}

// NewCommand creates the inspect command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Preview fused records without writing output",
		Long: `Inspect runs the whole pipeline in memory and prints the first fused
records, or per-source load statistics with --stats. Nothing is written.`,
		Example: `  bizmerge inspect
  bizmerge inspect --limit 5 -o json
  bizmerge inspect --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.Limit < 0 {
				return &errors.ValidationError{Field: "limit", Value: flags.Limit, Message: "cannot be negative"}
			}
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return errors.WrapValidation("format", err)
			}

			opts := append(app.Options(), bizmerge.WithProgress(cmd.ErrOrStderr()))
			res, err := bizmerge.Resolve(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), output.DetectFormat(string(format)), res, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", constants.DefaultInspectLimit, "number of records to show (0 shows all)")
	cmd.Flags().BoolVar(&flags.Stats, "stats", false, "show per-source statistics instead of records")

	return cmd
}

// Print writes either the records or the statistics of res.
func Print(w io.Writer, format output.Format, res *bizmerge.Result, flags *Flags) error {
	formatter := output.NewFormatter(format)

	if flags.Stats {
		if format == output.FormatTable {
			return formatter.Format(w, statsData(res))
		}
		return formatter.Format(w, res)
	}

	records := res.Records
	if flags.Limit > 0 && len(records) > flags.Limit {
		records = records[:flags.Limit]
	}
	return formatter.Format(w, records)
}

func statsData(res *bizmerge.Result) output.Data {
	data := output.Data{
		Headers: []string{"Source", "Path", "Read", "Skipped", "Padded", "Dropped", "Rows"},
	}
	for _, id := range sources.IDs() {
		s := res.Sources[id]
		data.Rows = append(data.Rows, []string{
			id.String(),
			s.Path,
			strconv.Itoa(s.Read),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Padded),
			strconv.Itoa(s.Dropped),
			strconv.Itoa(s.Rows),
		})
	}
	data.Rows = append(data.Rows, []string{"linked", "", "", "", "", "", strconv.Itoa(res.Link.Rows)})
	return data
}

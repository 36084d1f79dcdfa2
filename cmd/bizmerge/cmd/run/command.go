// Package run implements the command that links, fuses and writes the
// company dataset.
package run

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/bizmerge"
	"github.com/agentstation/bizmerge/internal/appcontext"
)

// Flags holds the run-specific flags.
type Flags struct {
	OutputDir        string
	OutputFile       string
	ProvenanceReport string
}

// NewCommand creates the run command. defaults only seed the help text;
// the configured output is used unless a flag is set explicitly.
func NewCommand(app appcontext.Interface, defaults Flags) *cobra.Command {
	flags := defaults

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Link the three sources and write the fused dataset",
		Long: `Run reads the website, social and directory files, links their rows by
domain, resolves conflicting attributes and writes one record per company.

The output format follows the file extension: .xlsx (default), .csv, .json,
.yaml or .sqlite.`,
		Example: `  bizmerge run
  bizmerge run --website data/website.csv --output-file companies.sqlite
  bizmerge run --provenance-report out/provenance.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := app.Options()
			changed := cmd.Flags().Changed
			if changed("output-dir") || changed("output-file") {
				opts = append(opts, bizmerge.WithOutput(filepath.Join(flags.OutputDir, flags.OutputFile)))
			}
			if changed("provenance-report") {
				opts = append(opts, bizmerge.WithProvenanceReport(flags.ProvenanceReport))
			}
			return Execute(cmd.Context(), cmd.OutOrStdout(), opts...)
		},
	}

	cmd.Flags().StringVar(&flags.OutputDir, "output-dir", defaults.OutputDir, "directory for the output file")
	cmd.Flags().StringVar(&flags.OutputFile, "output-file", defaults.OutputFile, "output file name, its extension selects the format")
	cmd.Flags().StringVar(&flags.ProvenanceReport, "provenance-report", defaults.ProvenanceReport, "write a YAML provenance report to this path")

	return cmd
}

// Execute runs the pipeline, printing the progress markers to w.
func Execute(ctx context.Context, w io.Writer, opts ...bizmerge.Option) error {
	opts = append(opts, bizmerge.WithProgress(w))
	_, err := bizmerge.Run(ctx, opts...)
	return err
}

package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/spf13/pflag"

	"github.com/agentstation/bizmerge/cmd/bizmerge/cmd/inspect"
	"github.com/agentstation/bizmerge/cmd/bizmerge/cmd/run"
	"github.com/agentstation/bizmerge/pkg/logging"
)

// Execute runs the bizmerge CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bizmerge",
		Short:   "Business listing linkage and fusion",
		Version: a.version,
		Long: `Bizmerge links company listings from a website crawl, a social business
directory and a mapping directory by domain, then fuses the matched records
into one row per company.

Categories and addresses are merged by fuzzy similarity; names and phone
numbers are taken from the most trusted source that has one.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.bizmerge.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error")

	flags.StringVar(&a.config.WebsitePath, "website", a.config.WebsitePath, "website crawl file (; delimited)")
	flags.StringVar(&a.config.SocialPath, "social", a.config.SocialPath, "social directory file")
	flags.StringVar(&a.config.DirectoryPath, "directory", a.config.DirectoryPath, "mapping directory file")
	flags.IntVar(&a.config.Workers, "workers", a.config.Workers, "rows resolved concurrently (0 uses all CPUs)")
	flags.IntVar(&a.config.DetailThreshold, "detail-threshold", a.config.DetailThreshold, "minimum similarity for appending a more detailed value")
	flags.BoolVar(&a.config.EmptyAddressAsNull, "empty-address-null", a.config.EmptyAddressAsNull, "treat a website address with no parts as null")
	flags.StringVar(&a.config.Authorities, "authorities", a.config.Authorities, "YAML file overriding source priority per attribute")

	rootCmd.SetVersionTemplate("bizmerge {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		if err := a.reloadConfig(cmd); err != nil {
			return err
		}
	}
	if err := a.config.Validate(); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// reloadConfig reads the file named by --config and then re-applies every
// flag set on the command line, so flags still take precedence.
func (a *App) reloadConfig(cmd *cobra.Command) error {
	changed := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	fresh, err := loadConfig(a.config.ConfigFile)
	if err != nil {
		return err
	}
	*a.config = *fresh

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(run.NewCommand(a, run.Flags{
		OutputDir:        a.config.OutputDir,
		OutputFile:       a.config.OutputFile,
		ProvenanceReport: a.config.ProvenanceReport,
	}))
	rootCmd.AddCommand(inspect.NewCommand(a))
	rootCmd.AddCommand(a.createVersionCommand())
	rootCmd.AddCommand(createManCommand())
}

// createManCommand creates the hidden man command used when packaging.
func createManCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate man page",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "BIZMERGE",
				Section: "1",
				Source:  "bizmerge",
				Manual:  "bizmerge Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}

// createVersionCommand creates the version command.
func (a *App) createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("bizmerge %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// ExitOnError prints an error and exits with status 1.
// It is meant for top-level error handling in main.go.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

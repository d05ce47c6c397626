package company

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrdemo/company/pkg/logger"
)

// RootOptions holds the global flags and what PersistentPreRunE derived from
// them.
type RootOptions struct {
	ConfigPath string
	Port       int
	Store      string
	Index      string
	ReadOnly   bool
	LogLevel   string

	config Config
	logs   *logger.LogData
}

// Main runs the command line with args, without the program name.
func Main(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the company command tree. Flags given on the command
// line override the configuration file and the environment.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "company",
		Short:         "HR demo service",
		Long:          "Company keeps ten HR entity kinds in a document store, mirrors them into a search index and serves both over REST.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logs == nil {
				return nil
			}
			return opts.logs.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file (default $"+EnvPrefix+"CONFIG)")
	flags.IntVar(&opts.Port, "port", 0, "HTTP port")
	flags.StringVar(&opts.Store, "store", "", "document store: memory, pebble or surrealdb")
	flags.StringVar(&opts.Index, "index", "", "search index: memory, sqlite or postgres")
	flags.BoolVar(&opts.ReadOnly, "read-only", false, "reject store writes")
	flags.StringVar(&opts.LogLevel, "log-level", "", "minimum log level")

	cmd.AddCommand(
		newRunCommand(opts),
		newMigrateCommand(opts),
		newReindexCommand(opts),
		newCleanupCommand(opts),
	)
	return cmd
}

// load reads the configuration and applies the flags that were set.
func (opts *RootOptions) load(cmd *cobra.Command) error {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	cfg, err := LoadConfig(path, nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = opts.Port
	}
	if flags.Changed("store") {
		cfg.Store = opts.Store
	}
	if flags.Changed("index") {
		cfg.Index = opts.Index
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly = opts.ReadOnly
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts.logs, err = logger.New().
		FromBuffer(cmd.ErrOrStderr()).
		FromPath(cfg.LogFile).
		Level(cfg.LogLevel).
		Console(cfg.LogConsole).
		Make()
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	opts.config = cfg
	return nil
}

// withApp opens the application for one command and closes it afterwards.
func (opts *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	app, err := New(ctx, opts.config, opts.logs.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			opts.logs.Logger.Warn().Err(err).Msg("failed to close backends")
		}
	}()
	return fn(ctx, app)
}

func newRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve the REST API and run the cleanup schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *App) error {
				return app.Run(ctx)
			})
		},
	}
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare store tables and index tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *App) error {
				return app.Migrate(ctx)
			})
		},
	}
}

func newReindexCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [entity...]",
		Short: "Rebuild the search index from the store",
		Long: `Rebuild the search index of the named entities, or of all of them, from
the document store. Entities are named by REST path or name.

Example:
  company reindex
  company reindex employees job-histories`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *App) error {
				results, err := app.Reindex(ctx, args...)
				for _, res := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tindexed=%d\tfailed=%d\n", res.Kind, res.Indexed, res.Failed)
				}
				return err
			})
		},
	}
}

func newCleanupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove users that did not activate within three days, once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *App) error {
				removed := app.Cleanup(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d not activated users\n", removed)
				return nil
			})
		},
	}
}

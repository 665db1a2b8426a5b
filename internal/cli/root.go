package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/treeview/internal/app"
	"github.com/artpar/treeview/internal/session/sqlite"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	Config app.Config
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Config: app.DefaultConfig()}

	cmd := &cobra.Command{
		Use:           "treeview",
		Short:         "treeview - browse nested data as a collapsible tree",
		Long:          "treeview renders YAML or JSON node lists as a collapsible tree in the terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Config.LogFile, "log-file", opts.Config.LogFile, "Write logs to this file")
	flags.StringVar(&opts.Config.LogLevel, "log-level", opts.Config.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.Config.DataDir, "data-dir", opts.Config.DataDir, "Directory for saved sessions")

	// Add subcommands
	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewPrintCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// newApp builds the application container. With remember set the session
// store under DataDir is opened. The returned cleanup closes the store and
// the log file.
func (o *RootOptions) newApp(remember bool) (*app.App, func(), error) {
	logger, logCloser, err := app.NewLogger(o.Config)
	if err != nil {
		return nil, nil, err
	}

	appOpts := []app.Option{app.WithConfig(o.Config), app.WithLogger(logger)}
	if remember {
		store, err := openSessions(o.Config)
		if err != nil {
			logCloser.Close()
			return nil, nil, err
		}
		appOpts = append(appOpts, app.WithSessionStore(store))
	}

	application := app.New(appOpts...)
	cleanup := func() {
		if err := application.Close(); err != nil {
			logger.Warn("failed to close session store", "error", err)
		}
		logCloser.Close()
	}
	return application, cleanup, nil
}

func openSessions(cfg app.Config) (*sqlite.Store, error) {
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, err
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

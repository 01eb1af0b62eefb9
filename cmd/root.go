// Package cmd defines and implements the CLI commands for the albowatch
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/app"
	"github.com/gfiorillo/albowatch/internal/config"
	"github.com/gfiorillo/albowatch/internal/pipeline"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application surface the commands use, so tests can
// inject a mock container.
type App interface {
	Close()
	Logger() *zap.Logger
	Pipeline() *pipeline.Pipeline
	Config() config.Config
}

// newApp is the application factory, replaceable in tests.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albowatch",
		Short: "Watches a municipal register and notifies about new publications.",
		Long: `albowatch periodically walks the paginated online register (albo
pretorio) of a municipality, detects acts that were not seen before,
optionally enriches them with attachment text and a generated summary,
and notifies a Telegram chat about each new act exactly once per run.`,

		// Build and inject the application after flags are parsed but
		// before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is env/flags only)")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// resolveApp retrieves the injected application container.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

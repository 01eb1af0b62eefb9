package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCheckCmd creates the 'check' subcommand: one full pipeline pass,
// the unit of work a scheduler (cron, GitHub Actions) invokes.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Runs one register check",
		Long: `Walks the register once, notifies about every act not seen in a
previous run, and commits the updated seen-state.`,

		RunE: runCheckCommand,
	}
}

func runCheckCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	result := appInstance.Pipeline().Run(cmd.Context())
	appInstance.Logger().Info("check finished",
		zap.String("run_id", result.RunID),
		zap.Int("found", result.Found),
		zap.Int("delivered", result.Delivered),
		zap.Bool("committed", result.Committed),
	)
	return nil
}

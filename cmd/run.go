package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/energy-etl/pkg/scheduler"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce the processed dataset and the codebook",
	Long:  `Runs the dataset job followed by the codebook job.`,
	RunE:  runAll,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAll(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Stop()

	svc, err := scheduler.NewService(logger, app.config.Schedule, app.dataset, app.codebook)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.RunOnce(ctx)
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethpandaops/energy-etl/pkg/observability"
	"github.com/ethpandaops/energy-etl/pkg/scheduler"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	scheduleRunNow bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run both jobs on the configured schedule",
	Long: `Runs the dataset and codebook jobs on the configured cron schedule and
exposes Prometheus metrics. A run that is still in progress when the next one
is due causes the next one to be skipped.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run both jobs once before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
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

	observability.StartMetricsServer(app.config.MetricsAddr, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.StopMetricsServer(ctx); err != nil {
			logger.WithError(err).Error("Failed to shutdown metrics server")
		}
	}()

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scheduleRunNow {
		if err := svc.RunOnce(ctx); err != nil {
			logger.WithError(err).Error("Initial run failed")
		}
	}

	return svc.Start(ctx)
}

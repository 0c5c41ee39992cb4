package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Produce the processed energy dataset",
	Long: `Fetches the energy dataset, fills missing GDP values, converts and renames
the configured columns and writes the processed dataset.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.dataset.Run(ctx)
}

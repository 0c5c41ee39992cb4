package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var codebookCmd = &cobra.Command{
	Use:   "codebook",
	Short: "Produce the codebook for the processed dataset",
	Long: `Fetches the upstream codebook and writes a codebook with one entry per
published column, using the published column names and units.`,
	RunE: runCodebook,
}

func init() {
	rootCmd.AddCommand(codebookCmd)
}

func runCodebook(cmd *cobra.Command, _ []string) error {
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

	return app.codebook.Run(ctx)
}

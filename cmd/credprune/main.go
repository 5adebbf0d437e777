package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/cmd/credprune/commands"
	"github.com/systmms/credprune/internal/config"
	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/logging"
	"github.com/systmms/credprune/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitInterrupted follows the shell convention of 128 + SIGINT.
const exitInterrupted = 130

func main() {
	code := exitCode(os.Stderr, run())
	secure.Purge()
	os.Exit(code)
}

// exitCode reports err to w and maps it to the process exit status.
func exitCode(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, commands.ErrInterrupted):
		fmt.Fprintf(w, "Interrupted: %v\n", err)
		return exitInterrupted
	}

	fmt.Fprintf(w, "Error: %v\n", dserrors.SimplifyError(err))
	if dserrors.IsSetupError(err) {
		fmt.Fprintln(w, "No rows were processed.")
	}
	return 1
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "credprune",
		Short: "Bulk-revoke application client secrets in the identity directory",
		Long: `credprune removes exactly the client secrets listed in a CSV file from
exactly the application registrations they belong to. Rows that cannot be
resolved are reported and skipped; one failed row never stops the batch.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			cfg.Logger = logging.New(debug, noColor)
			cfg.Path = configFile
			cfg.Explicit = cmd.Flags().Changed("config")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewRevokeCommand(cfg),
		commands.NewCheckCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	// The first signal stops the batch after the current row; a second one
	// falls through to the default handler and kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	return rootCmd.ExecuteContext(ctx)
}

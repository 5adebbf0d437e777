package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/input"
	"github.com/systmms/credprune/internal/logging"
	"github.com/systmms/credprune/internal/revoke"
)

func NewRevokeCommand(cfg *config.Config) *cobra.Command {
	var (
		inputPath   string
		dryRun      bool
		auditPath   string
		metricsPath string
		jsonOutput  bool
		dirFlags    directoryFlags
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Remove the client secrets listed in a CSV file",
		Long: `Remove client secrets from application registrations.

Each row of the input names an application (client) ID and the key ID of one
of its client secrets. Rows are processed in order, one at a time. A row whose
application or secret cannot be found is reported and skipped, so re-running
a batch is safe.

Exit status is 0 whenever the batch runs to completion, even when some rows
fail. Setup problems (unreadable input, no directory session) exit 1, and an
interrupted batch exits 130.

Examples:
  # Preview which secrets would be removed
  credprune revoke --input expired.csv --dry-run

  # Remove them, keeping a JSON audit trail
  credprune revoke --input expired.csv --audit-log revoke-audit.jsonl

  # Export counts for node_exporter's textfile collector
  credprune revoke --input expired.csv --metrics-file /var/lib/node_exporter/credprune.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return dserrors.UserError{
					Message:    "Input file is required",
					Suggestion: "Use --input <file.csv> with AppId and SecretId columns",
				}
			}
			logger := loggerFor(cfg)

			def, err := loadDefinition(cfg, dirFlags)
			if err != nil {
				return err
			}

			requests, err := input.ReadFile(inputPath, input.ColumnsFrom(def.Input))
			if err != nil {
				return dserrors.SetupError{Stage: dserrors.StageInput, Err: err}
			}

			audit, err := logging.NewAuditLogger(auditPath)
			if err != nil {
				return dserrors.SetupError{Stage: dserrors.StageConfig, Err: err}
			}
			defer func() { _ = audit.Sync() }()

			var metrics *revoke.Metrics
			if metricsPath != "" {
				metrics = revoke.NewMetrics()
			}

			ctx := cmd.Context()
			runnerOpts := []revoke.RunnerOption{
				revoke.WithDryRun(dryRun),
				revoke.WithLogger(logger),
				revoke.WithAuditLogger(audit),
			}
			if metrics != nil {
				runnerOpts = append(runnerOpts, revoke.WithMetrics(metrics))
			}

			var res *revoke.BatchResult
			if len(requests) == 0 {
				logger.Info("No rows in %s, nothing to do", inputPath)
				res = revoke.NewRunner(nil, runnerOpts...).Run(ctx, requests)
			} else {
				sess, err := startSession(ctx, cfg, def)
				if err != nil {
					return err
				}
				defer func() { _ = sess.Close() }()

				if dryRun {
					logger.Info("Dry run: %d row(s) will be resolved, nothing will be removed", len(requests))
				}
				res = revoke.NewRunner(sess.Client(), runnerOpts...).Run(ctx, requests)
			}

			if err := writeResult(cmd, res, jsonOutput); err != nil {
				return err
			}

			if metrics != nil {
				if err := metrics.WriteTextfile(metricsPath); err != nil {
					logger.Warn("%v", err)
				}
			}

			if res.Interrupted {
				return fmt.Errorf("%w: %d of %d row(s) not attempted", ErrInterrupted, res.Count(revoke.NotAttempted), res.Total())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file of application and secret IDs (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve every row but do not remove anything")
	cmd.Flags().StringVar(&auditPath, "audit-log", "", "Append a JSON record per row to this file")
	cmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Write Prometheus metrics to this file when done")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the batch result as JSON instead of a summary table")
	dirFlags.bind(cmd)

	return cmd
}

func writeResult(cmd *cobra.Command, res *revoke.BatchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode batch result: %w", err)
		}
		return nil
	}
	return res.WriteSummary(cmd.OutOrStdout())
}

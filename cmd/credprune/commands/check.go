package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/input"
	"github.com/systmms/credprune/internal/revoke"
)

// NewCheckCommand validates an input file without contacting the directory.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	var (
		inputPath string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate an input file offline",
		Long: `Parse the input file and check every secret ID without signing in.

Rows with a malformed secret ID are listed; they would be reported as
InvalidIdentifier by 'credprune revoke'. With --strict the command fails
when any row is invalid, which is useful as a pre-flight step in pipelines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return dserrors.UserError{
					Message:    "Input file is required",
					Suggestion: "Use --input <file.csv> with AppId and SecretId columns",
				}
			}
			logger := loggerFor(cfg)

			def, err := loadDefinition(cfg, directoryFlags{})
			if err != nil {
				return err
			}

			requests, err := input.ReadFile(inputPath, input.ColumnsFrom(def.Input))
			if err != nil {
				return dserrors.SetupError{Stage: dserrors.StageInput, Err: err}
			}

			invalid, missingApp := 0, 0
			for i, req := range requests {
				if _, err := revoke.ValidateSecretID(req.SecretID); err != nil {
					invalid++
					logger.Warn("row %d (line %d): %s: application %s: %v", i+1, req.Line, revoke.InvalidIdentifier, req.AppID, err)
					continue
				}
				if req.AppID == "" {
					missingApp++
					logger.Warn("row %d (line %d): empty application id for secret %s", i+1, req.Line, req.SecretID)
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) checked: %d valid, %d invalid secret id(s), %d empty application id(s)\n",
				len(requests), len(requests)-invalid-missingApp, invalid, missingApp)

			if strict && invalid+missingApp > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d of %d row(s) failed validation", invalid+missingApp, len(requests)),
					Suggestion: "Fix or remove the rows listed above, or run without --strict",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file of application and secret IDs (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any row is invalid")

	return cmd
}

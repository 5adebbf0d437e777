package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
	"github.com/systmms/credprune/internal/directory"
	dserrors "github.com/systmms/credprune/internal/errors"
)

type credentialView struct {
	KeyID         string     `json:"key_id"`
	DisplayName   string     `json:"display_name,omitempty"`
	Hint          string     `json:"hint,omitempty"`
	StartDateTime *time.Time `json:"start_date_time,omitempty"`
	EndDateTime   *time.Time `json:"end_date_time,omitempty"`
	Expired       bool       `json:"expired"`
}

type applicationView struct {
	ObjectID    string           `json:"object_id"`
	AppID       string           `json:"app_id"`
	DisplayName string           `json:"display_name"`
	Secrets     []credentialView `json:"secrets"`
}

// NewListCommand shows the client secrets of one application.
func NewListCommand(cfg *config.Config) *cobra.Command {
	var (
		appID      string
		jsonOutput bool
		dirFlags   directoryFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the client secrets of an application",
		Long: `List the client secrets registered on one application.

This is read-only and is meant for checking key IDs before building an input
file for 'credprune revoke'.

Examples:
  credprune list --app 00000000-0000-0000-0000-000000000000
  credprune list --app 00000000-0000-0000-0000-000000000000 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if appID == "" {
				return dserrors.UserError{
					Message:    "Application ID is required",
					Suggestion: "Use --app <application-client-id>",
				}
			}

			def, err := loadDefinition(cfg, dirFlags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := startSession(ctx, cfg, def)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			app, err := sess.Client().FindApplication(ctx, appID)
			if err != nil {
				return dserrors.DirectoryError(fmt.Sprintf("lookup of application %s", appID), err)
			}

			view := newApplicationView(app, time.Now())
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return writeApplication(cmd, view)
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "Application (client) ID (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	dirFlags.bind(cmd)

	return cmd
}

func newApplicationView(app *directory.ApplicationRecord, now time.Time) applicationView {
	view := applicationView{
		ObjectID:    app.ObjectID,
		AppID:       app.AppID,
		DisplayName: app.DisplayName,
		Secrets:     make([]credentialView, 0, len(app.PasswordCredentials)),
	}
	for _, cred := range app.PasswordCredentials {
		view.Secrets = append(view.Secrets, credentialView{
			KeyID:         cred.KeyID,
			DisplayName:   cred.DisplayName,
			Hint:          cred.Hint,
			StartDateTime: cred.StartDateTime,
			EndDateTime:   cred.EndDateTime,
			Expired:       cred.Expired(now),
		})
	}
	return view
}

func writeApplication(cmd *cobra.Command, view applicationView) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s (%s)\nObject ID: %s\n\n", view.DisplayName, view.AppID, view.ObjectID)

	if len(view.Secrets) == 0 {
		_, _ = fmt.Fprintln(out, "No client secrets.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "KEY ID\tNAME\tHINT\tEXPIRES\tSTATUS\n")
	_, _ = fmt.Fprintf(w, "------\t----\t----\t-------\t------\n")
	for _, s := range view.Secrets {
		expires := "-"
		if s.EndDateTime != nil {
			expires = s.EndDateTime.UTC().Format("2006-01-02")
		}
		status := "active"
		if s.Expired {
			status = "expired"
		}
		name := s.DisplayName
		if name == "" {
			name = "-"
		}
		hint := s.Hint
		if hint == "" {
			hint = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.KeyID, name, hint, expires, status)
	}
	return w.Flush()
}

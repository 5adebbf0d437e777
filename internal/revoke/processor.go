package revoke

import (
	"context"
	"errors"

	"github.com/systmms/credprune/internal/directory"
)

// Processor resolves and removes the secret named by a single row.
type Processor struct {
	client directory.Client
	dryRun bool
}

// NewProcessor returns a Processor bound to client. In dry-run mode every
// read still happens but the removal is replaced by RemovalSkipped.
func NewProcessor(client directory.Client, dryRun bool) *Processor {
	return &Processor{
		client: client,
		dryRun: dryRun,
	}
}

// Process runs one row to completion. It never returns an error: every
// failure is folded into the returned outcome.
//
// The steps short-circuit in order: identifier validation (no directory
// call), application lookup, credential presence, removal.
func (p *Processor) Process(ctx context.Context, req RemovalRequest) RowOutcome {
	out := RowOutcome{Request: req}

	secretID, err := ValidateSecretID(req.SecretID)
	if err != nil {
		out.Kind = InvalidIdentifier
		out.Reason = err.Error()
		return out
	}
	out.SecretID = secretID

	if req.AppID == "" {
		out.Kind = ApplicationNotFound
		out.Reason = "empty application id"
		return out
	}

	app, err := p.client.FindApplication(ctx, req.AppID)
	if err != nil {
		var amb *directory.AmbiguousApplicationError
		switch {
		case errors.As(err, &amb):
			out.Kind = ApplicationNotFound
			out.AmbiguousMatches = amb.Matches
			out.Reason = err.Error()
		case errors.Is(err, directory.ErrApplicationNotFound):
			out.Kind = ApplicationNotFound
		default:
			out.Kind = LookupFailed
			out.Reason = err.Error()
		}
		return out
	}
	out.AppObjectID = app.ObjectID
	out.AppDisplayName = app.DisplayName

	creds, err := p.client.ListPasswordCredentials(ctx, app.ObjectID)
	if err != nil {
		if errors.Is(err, directory.ErrApplicationNotFound) {
			// Deleted between lookup and listing.
			out.Kind = ApplicationNotFound
			return out
		}
		out.Kind = LookupFailed
		out.Reason = err.Error()
		return out
	}

	cred, found := findCredential(creds, secretID)
	if !found {
		out.Kind = SecretNotFound
		return out
	}
	out.SecretName = cred.DisplayName

	if p.dryRun {
		out.Kind = RemovalSkipped
		return out
	}

	if err := p.client.RemovePasswordCredential(ctx, app.ObjectID, secretID.String()); err != nil {
		out.Kind = RemovalFailed
		out.Reason = err.Error()
		return out
	}

	out.Kind = RemovalSucceeded
	return out
}

func findCredential(creds []directory.PasswordCredential, id SecretID) (directory.PasswordCredential, bool) {
	for _, cred := range creds {
		if cred.MatchesKeyID(id.String()) {
			return cred, true
		}
	}
	return directory.PasswordCredential{}, false
}

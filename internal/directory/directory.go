// Package directory is the collaborator the revocation core talks to: an
// authenticated session against the identity directory that can look up
// application registrations, list their password credentials and remove one.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrApplicationNotFound is returned when no application matches a lookup.
var ErrApplicationNotFound = errors.New("application not found")

// AmbiguousApplicationError is returned when more than one application shares
// the requested application ID. It matches ErrApplicationNotFound with
// errors.Is so callers that only care about resolution treat both alike.
type AmbiguousApplicationError struct {
	AppID   string
	Matches int
}

func (e *AmbiguousApplicationError) Error() string {
	return fmt.Sprintf("application id %q matched %d applications", e.AppID, e.Matches)
}

func (e *AmbiguousApplicationError) Is(target error) bool {
	return target == ErrApplicationNotFound
}

// PasswordCredential is a client secret registered on an application.
type PasswordCredential struct {
	KeyID         string
	DisplayName   string
	Hint          string
	StartDateTime *time.Time
	EndDateTime   *time.Time
}

// Expired reports whether the credential's end date is before now.
func (p PasswordCredential) Expired(now time.Time) bool {
	return p.EndDateTime != nil && p.EndDateTime.Before(now)
}

// MatchesKeyID compares key identifiers case-insensitively.
func (p PasswordCredential) MatchesKeyID(keyID string) bool {
	return strings.EqualFold(p.KeyID, keyID)
}

// ApplicationRecord is a resolved application registration.
type ApplicationRecord struct {
	// ObjectID is the directory-assigned object id used for writes.
	ObjectID string
	// AppID is the caller-facing application (client) id.
	AppID               string
	DisplayName         string
	PasswordCredentials []PasswordCredential
}

// Client is the directory surface the revocation workflow needs.
type Client interface {
	// FindApplication resolves an application by its application (client)
	// id. It returns ErrApplicationNotFound when nothing matches and an
	// *AmbiguousApplicationError when more than one application does.
	FindApplication(ctx context.Context, appID string) (*ApplicationRecord, error)

	// ListPasswordCredentials returns the current secrets of the application
	// with the given object id.
	ListPasswordCredentials(ctx context.Context, objectID string) ([]PasswordCredential, error)

	// RemovePasswordCredential deletes one secret from an application.
	RemovePasswordCredential(ctx context.Context, objectID, keyID string) error
}

package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/systmms/credprune/internal/directory"
)

// Method names recorded by FakeDirectoryClient.
const (
	CallFindApplication          = "FindApplication"
	CallListPasswordCredentials  = "ListPasswordCredentials"
	CallRemovePasswordCredential = "RemovePasswordCredential"
)

// DirectoryCall is one recorded call. Arg is the app id for FindApplication
// and the object id otherwise; KeyID is only set for removals.
type DirectoryCall struct {
	Method string
	Arg    string
	KeyID  string
}

// FakeDirectoryClient is an in-memory directory.Client. Removals mutate the
// stored state so repeated batches observe earlier deletions.
type FakeDirectoryClient struct {
	mu sync.Mutex

	apps []*directory.ApplicationRecord

	findErr   map[string]error // app id -> error
	listErr   map[string]error // object id -> error
	removeErr map[string]error // object id -> error

	calls []DirectoryCall
}

// NewFakeDirectoryClient creates an empty fake directory.
func NewFakeDirectoryClient() *FakeDirectoryClient {
	return &FakeDirectoryClient{
		findErr:   make(map[string]error),
		listErr:   make(map[string]error),
		removeErr: make(map[string]error),
	}
}

// WithApplication registers an application with the given secret key ids.
// Registering the same app id twice makes lookups ambiguous.
func (f *FakeDirectoryClient) WithApplication(objectID, appID, displayName string, keyIDs ...string) *FakeDirectoryClient {
	f.mu.Lock()
	defer f.mu.Unlock()

	app := &directory.ApplicationRecord{
		ObjectID:    objectID,
		AppID:       appID,
		DisplayName: displayName,
	}
	for i, id := range keyIDs {
		app.PasswordCredentials = append(app.PasswordCredentials, directory.PasswordCredential{
			KeyID:       id,
			DisplayName: fmt.Sprintf("secret-%d", i+1),
		})
	}
	f.apps = append(f.apps, app)
	return f
}

// WithFindError makes FindApplication fail for appID.
func (f *FakeDirectoryClient) WithFindError(appID string, err error) *FakeDirectoryClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findErr[appID] = err
	return f
}

// WithListError makes ListPasswordCredentials fail for objectID.
func (f *FakeDirectoryClient) WithListError(objectID string, err error) *FakeDirectoryClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr[objectID] = err
	return f
}

// WithRemoveError makes RemovePasswordCredential fail for objectID.
func (f *FakeDirectoryClient) WithRemoveError(objectID string, err error) *FakeDirectoryClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeErr[objectID] = err
	return f
}

// FindApplication implements directory.Client.
func (f *FakeDirectoryClient) FindApplication(ctx context.Context, appID string) (*directory.ApplicationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, DirectoryCall{Method: CallFindApplication, Arg: appID})
	if err := f.findErr[appID]; err != nil {
		return nil, err
	}

	var matches []*directory.ApplicationRecord
	for _, app := range f.apps {
		if app.AppID == appID {
			matches = append(matches, app)
		}
	}
	switch len(matches) {
	case 0:
		return nil, directory.ErrApplicationNotFound
	case 1:
		cp := *matches[0]
		cp.PasswordCredentials = append([]directory.PasswordCredential(nil), matches[0].PasswordCredentials...)
		return &cp, nil
	default:
		return nil, &directory.AmbiguousApplicationError{AppID: appID, Matches: len(matches)}
	}
}

// ListPasswordCredentials implements directory.Client.
func (f *FakeDirectoryClient) ListPasswordCredentials(ctx context.Context, objectID string) ([]directory.PasswordCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, DirectoryCall{Method: CallListPasswordCredentials, Arg: objectID})
	if err := f.listErr[objectID]; err != nil {
		return nil, err
	}

	app := f.byObjectID(objectID)
	if app == nil {
		return nil, directory.ErrApplicationNotFound
	}
	return append([]directory.PasswordCredential(nil), app.PasswordCredentials...), nil
}

// RemovePasswordCredential implements directory.Client.
func (f *FakeDirectoryClient) RemovePasswordCredential(ctx context.Context, objectID, keyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, DirectoryCall{Method: CallRemovePasswordCredential, Arg: objectID, KeyID: keyID})
	if err := f.removeErr[objectID]; err != nil {
		return err
	}

	app := f.byObjectID(objectID)
	if app == nil {
		return directory.ErrApplicationNotFound
	}
	for i, cred := range app.PasswordCredentials {
		if cred.MatchesKeyID(keyID) {
			app.PasswordCredentials = append(app.PasswordCredentials[:i], app.PasswordCredentials[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no password credential found with keyId %s", keyID)
}

// Calls returns a copy of the recorded calls.
func (f *FakeDirectoryClient) Calls() []DirectoryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DirectoryCall(nil), f.calls...)
}

// CallCount returns how many times method was called.
func (f *FakeDirectoryClient) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (f *FakeDirectoryClient) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Secrets returns the key ids currently stored for an application.
func (f *FakeDirectoryClient) Secrets(objectID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	app := f.byObjectID(objectID)
	if app == nil {
		return nil
	}
	ids := make([]string, 0, len(app.PasswordCredentials))
	for _, cred := range app.PasswordCredentials {
		ids = append(ids, cred.KeyID)
	}
	return ids
}

func (f *FakeDirectoryClient) byObjectID(objectID string) *directory.ApplicationRecord {
	for _, app := range f.apps {
		if app.ObjectID == objectID {
			return app
		}
	}
	return nil
}

var _ directory.Client = (*FakeDirectoryClient)(nil)

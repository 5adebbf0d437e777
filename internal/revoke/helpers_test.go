package revoke_test

import "github.com/systmms/credprune/internal/directory"

// fakeNotFound wraps the not-found sentinel the way a Graph 404 would.
type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "Request_ResourceNotFound" }

func (fakeNotFound) Is(target error) bool { return target == directory.ErrApplicationNotFound }

package registry

import (
	"errors"
)

// ErrModelNotFound is a sentinel error returned by Store.Get if the requested
// model could not be located.
var ErrModelNotFound = errors.New("model not found")

// ErrRegistrationClosed indicates that Commit or Rollback was called on a
// registration that has already been finalized.
var ErrRegistrationClosed = errors.New("registration already finalized")

package core

import "github.com/google/uuid"

// NewID returns a fresh identifier for a resource instance. Resource ids are only used
// for diagnostics; cache keys are always the requested identifier string.
func NewID() string {
	return uuid.NewString()
}

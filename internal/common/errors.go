// Package common defines shared constants and sentinel errors used across
// client and server layers of MediaKeeper. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Transport errors. ErrUnavailable marks a transient network failure:
	// the authoritative store could not be reached at all.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("rejected by server")
	ErrInvalidToken = errors.New("invalid token")

	// Local durability errors.
	ErrPersistence           = errors.New("persistence failure")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
	ErrQueueFull             = errors.New("pending change queue is full")

	// Sync flow errors.
	ErrOffline = errors.New("network offline")

	// Validation errors.
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrMissingID         = errors.New("payload has no id")
)

// ReplayError describes a single pending change the authoritative store
// refused during a sync pass. The change stays queued.
type ReplayError struct {
	ChangeID  string
	EntityKey string
	Err       error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay %s (%s): %v", e.ChangeID, e.EntityKey, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// PassAbortError ends a sync pass early because the authoritative store
// became unreachable. Remaining is the number of entries left untried.
type PassAbortError struct {
	Err       error
	Remaining int
}

func (e *PassAbortError) Error() string {
	return fmt.Sprintf("sync pass aborted with %d untried changes: %v", e.Remaining, e.Err)
}

func (e *PassAbortError) Unwrap() error { return e.Err }

// Persistence wraps err so that errors.Is(err, ErrPersistence) holds.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

package syncer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nekogravitycat/booking-sync/internal/pkg/apperror"
	"github.com/nekogravitycat/booking-sync/internal/remote"
)

var (
	// ErrStaleFetch is returned when a fetch completed after a newer local
	// change (or was superseded), so its result was not applied.
	ErrStaleFetch = errors.New("fetch result superseded by a newer local change")

	ErrSessionClosed   = apperror.New(http.StatusUnauthorized, "session closed")
	ErrSessionNotFound = apperror.New(http.StatusUnauthorized, "session not found or expired")
	ErrOwnerRequired   = apperror.New(http.StatusBadRequest, "owner id is required")
)

// ValidationError reports input rejected before any remote call.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type RemoteKind int

const (
	RemoteUnavailable RemoteKind = iota
	RemoteNotFound
	RemoteUnauthorized
	RemoteConflict
)

func (k RemoteKind) String() string {
	switch k {
	case RemoteNotFound:
		return "not found"
	case RemoteUnauthorized:
		return "not allowed"
	case RemoteConflict:
		return "conflict"
	default:
		return "remote store unavailable"
	}
}

// RemoteError reports a failed round-trip to the remote store.
type RemoteError struct {
	Op   string
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func newRemoteError(op string, err error) *RemoteError {
	kind := RemoteUnavailable
	switch {
	case errors.Is(err, remote.ErrNotFound):
		kind = RemoteNotFound
	case errors.Is(err, remote.ErrUnauthorized):
		kind = RemoteUnauthorized
	case errors.Is(err, remote.ErrConflict):
		kind = RemoteConflict
	}
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// ConsistencyError means the remote accepted an operation but the local store
// could not apply it: the cache no longer matches what the controller expected.
// It wraps a *store.KeyError.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string { return e.Op + ": local cache out of sync: " + e.Err.Error() }
func (e *ConsistencyError) Unwrap() error { return e.Err }

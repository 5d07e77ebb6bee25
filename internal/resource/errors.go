// Package resource keeps a local copy of the service collection consistent
// with the remote store. Cache holds the replace-only snapshot; Coordinator
// performs mutations and refreshes the cache after each success.
package resource

import (
	"errors"
	"fmt"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// ErrClosed is returned by Load once the cache has been torn down.
var ErrClosed = errors.New("resource: cache closed")

// ErrDuplicateID indicates a listing that repeats a service ID.
var ErrDuplicateID = errors.New("resource: duplicate service id")

// LoadError reports a failed collection fetch.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading services: %s", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Op names a mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpRemove Op = "delete"
)

// Kind classifies a mutation failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not-found"
	KindForbidden  Kind = "forbidden"
	KindTransport  Kind = "transport"
)

// MutationError reports a failed create, update or delete.
// The cache is never changed when one is returned.
type MutationError struct {
	Op   Op
	ID   string // Empty for create.
	Kind Kind
	Err  error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s service: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s: %s", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// kindOf maps a repository error onto a Kind.
func kindOf(err error) Kind {
	switch {
	case errors.Is(err, zoo.ErrValidation):
		return KindValidation
	case errors.Is(err, zoo.ErrNotFound):
		return KindNotFound
	case errors.Is(err, zoo.ErrForbidden):
		return KindForbidden
	default:
		return KindTransport
	}
}

func mutationError(op Op, id string, err error) *MutationError {
	return &MutationError{Op: op, ID: id, Kind: kindOf(err), Err: err}
}

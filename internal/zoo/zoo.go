// Package zoo defines the service record, the repository port the rest of
// zoodesk talks to, and the error kinds a repository may report.
package zoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service is a named offering managed by zoodesk.
// ID is assigned by the store and never changes.
type Service struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Fields returns the mutable part of the record.
func (s Service) Fields() Fields {
	return Fields{Name: s.Name, Description: s.Description}
}

// Fields holds the values sent on create and update.
type Fields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Field keys accepted by Fields.Set.
const (
	FieldName        = "name"
	FieldDescription = "description"
)

// Set assigns the field named by key. It reports false for unknown keys.
func (f *Fields) Set(key, value string) bool {
	switch key {
	case FieldName:
		f.Name = value
	case FieldDescription:
		f.Description = value
	default:
		return false
	}
	return true
}

// Validate checks that the fields can be stored.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

// Error kinds. Repository implementations wrap one of these so callers can
// classify failures with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrTransport  = errors.New("transport error")
	ErrForbidden  = errors.New("forbidden")
)

// Lister fetches the full service collection.
type Lister interface {
	List(ctx context.Context) ([]Service, error)
}

// Repository is the remote store of service records.
type Repository interface {
	Lister
	Create(ctx context.Context, f Fields) (Service, error)
	Update(ctx context.Context, id string, f Fields) (Service, error)
	Delete(ctx context.Context, id string) error
}

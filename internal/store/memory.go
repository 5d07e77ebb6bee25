// Package store provides zoo.Repository implementations that back the REST
// server: in-memory, a JSON file, and SQL databases (SQLite and Postgres).
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// IDFunc generates a new service ID.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Memory keeps services in insertion order in memory.
type Memory struct {
	mu       sync.RWMutex
	services []zoo.Service
	newID    IDFunc
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithIDFunc overrides ID generation.
func WithIDFunc(fn IDFunc) MemoryOption {
	return func(m *Memory) { m.newID = fn }
}

// WithServices seeds the store.
func WithServices(services ...zoo.Service) MemoryOption {
	return func(m *Memory) { m.services = slices.Clone(services) }
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{newID: NewID}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns all services in insertion order.
func (m *Memory) List(ctx context.Context) ([]zoo.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.services), nil
}

// Create stores a new service under a fresh ID.
func (m *Memory) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := zoo.Service{ID: m.newID(), Name: f.Name, Description: f.Description}
	m.services = append(m.services, s)
	return s, nil
}

// Update replaces the fields of service id.
func (m *Memory) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return zoo.Service{}, notFound(id)
	}
	m.services[i] = zoo.Service{ID: id, Name: f.Name, Description: f.Description}
	return m.services[i], nil
}

// Delete removes service id.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	m.services = slices.Delete(m.services, i, i+1)
	return nil
}

func (m *Memory) indexOf(id string) int {
	return slices.IndexFunc(m.services, func(s zoo.Service) bool { return s.ID == id })
}

func notFound(id string) error {
	return fmt.Errorf("store: service %q: %w", id, zoo.ErrNotFound)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// File persists services as a single JSON document. Every mutation
// rewrites the whole file through a temp file and rename.
type File struct {
	path  string
	newID IDFunc
	mu    sync.Mutex
}

// NewFile returns a store backed by the JSON file at path.
// The file is created on the first write.
func NewFile(path string) *File {
	return &File{path: path, newID: NewID}
}

// List returns all services in insertion order.
func (s *File) List(ctx context.Context) ([]zoo.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Create stores a new service under a fresh ID.
func (s *File) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	services, err := s.read()
	if err != nil {
		return zoo.Service{}, err
	}
	created := zoo.Service{ID: s.newID(), Name: f.Name, Description: f.Description}
	if err := s.write(append(services, created)); err != nil {
		return zoo.Service{}, err
	}
	return created, nil
}

// Update replaces the fields of service id.
func (s *File) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	services, err := s.read()
	if err != nil {
		return zoo.Service{}, err
	}
	i := slices.IndexFunc(services, func(sv zoo.Service) bool { return sv.ID == id })
	if i < 0 {
		return zoo.Service{}, notFound(id)
	}
	services[i] = zoo.Service{ID: id, Name: f.Name, Description: f.Description}
	if err := s.write(services); err != nil {
		return zoo.Service{}, err
	}
	return services[i], nil
}

// Delete removes service id.
func (s *File) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	services, err := s.read()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(services, func(sv zoo.Service) bool { return sv.ID == id })
	if i < 0 {
		return notFound(id)
	}
	return s.write(slices.Delete(services, i, i+1))
}

// read loads the document. A missing file is an empty collection.
func (s *File) read() ([]zoo.Service, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var services []zoo.Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("store: parsing %s: %w", s.path, err)
	}
	return services, nil
}

func (s *File) write(services []zoo.Service) error {
	if services == nil {
		services = []zoo.Service{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(services, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replacing %s: %w", s.path, err)
	}
	return nil
}

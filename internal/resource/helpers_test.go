package resource

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// fakeRepo is an in-memory zoo.Repository with injectable failures.
type fakeRepo struct {
	mu        sync.Mutex
	services  []zoo.Service
	nextID    int
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	lists     int
}

func newFakeRepo(services ...zoo.Service) *fakeRepo {
	return &fakeRepo{services: services, nextID: len(services) + 1}
}

func (r *fakeRepo) List(ctx context.Context) ([]zoo.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return slices.Clone(r.services), nil
}

func (r *fakeRepo) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return zoo.Service{}, r.createErr
	}
	s := zoo.Service{ID: fmt.Sprintf("srv-%d", r.nextID), Name: f.Name, Description: f.Description}
	r.nextID++
	r.services = append(r.services, s)
	return s, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return zoo.Service{}, r.updateErr
	}
	for i, s := range r.services {
		if s.ID == id {
			r.services[i] = zoo.Service{ID: id, Name: f.Name, Description: f.Description}
			return r.services[i], nil
		}
	}
	return zoo.Service{}, fmt.Errorf("service %s: %w", id, zoo.ErrNotFound)
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, s := range r.services {
		if s.ID == id {
			r.services = slices.Delete(r.services, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("service %s: %w", id, zoo.ErrNotFound)
}

func (r *fakeRepo) snapshot() []zoo.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.services)
}

func (r *fakeRepo) listCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

// gatedLister returns one queued response per List call, each released
// only when the test sends on its gate.
type gatedLister struct {
	mu        sync.Mutex
	responses []gatedResponse
	started   chan int
}

type gatedResponse struct {
	gate     chan struct{}
	services []zoo.Service
	err      error
}

func newGatedLister(responses ...gatedResponse) *gatedLister {
	return &gatedLister{responses: responses, started: make(chan int, len(responses))}
}

func (g *gatedLister) List(ctx context.Context) ([]zoo.Service, error) {
	g.mu.Lock()
	resp := g.responses[0]
	g.responses = g.responses[1:]
	g.mu.Unlock()

	g.started <- len(resp.services)
	<-resp.gate
	return resp.services, resp.err
}

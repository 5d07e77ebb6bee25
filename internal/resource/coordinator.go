package resource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Coordinator runs mutations against the repository and refreshes the
// cache after each success. It neither queues nor retries; concurrent
// mutations race at the server and the next refresh shows the outcome.
type Coordinator struct {
	repo   zoo.Repository
	cache  *Cache
	logger *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger for mutation outcomes.
func WithCoordinatorLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator returns a Coordinator that mutates repo and refreshes cache.
func NewCoordinator(repo zoo.Repository, cache *Cache, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{repo: repo, cache: cache, logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create sends a new record to the repository.
func (c *Coordinator) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, mutationError(OpCreate, "", err)
	}
	created, err := c.repo.Create(ctx, f)
	if err != nil {
		return zoo.Service{}, c.fail(OpCreate, "", err)
	}
	c.settle(ctx, OpCreate, created.ID)
	return created, nil
}

// Update replaces the fields of an existing record.
func (c *Coordinator) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	if err := checkID(id); err != nil {
		return zoo.Service{}, mutationError(OpUpdate, id, err)
	}
	if err := f.Validate(); err != nil {
		return zoo.Service{}, mutationError(OpUpdate, id, err)
	}
	updated, err := c.repo.Update(ctx, id, f)
	if err != nil {
		return zoo.Service{}, c.fail(OpUpdate, id, err)
	}
	c.settle(ctx, OpUpdate, id)
	return updated, nil
}

// Remove deletes a record. Callers obtain any user confirmation first.
func (c *Coordinator) Remove(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return mutationError(OpRemove, id, err)
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return c.fail(OpRemove, id, err)
	}
	c.settle(ctx, OpRemove, id)
	return nil
}

func (c *Coordinator) fail(op Op, id string, err error) error {
	me := mutationError(op, id, err)
	c.logger.Warn("service mutation failed", "op", op, "id", id, "kind", me.Kind, "err", err)
	return me
}

// settle refreshes the cache after a successful mutation. A refresh
// failure is left on the cache; the mutation itself still succeeded.
func (c *Coordinator) settle(ctx context.Context, op Op, id string) {
	c.logger.Info("service mutation applied", "op", op, "id", id)
	if err := c.cache.Invalidate(ctx); err != nil {
		c.logger.Warn("refresh after mutation failed", "op", op, "id", id, "err", err)
	}
}

func checkID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", zoo.ErrValidation)
	}
	return nil
}

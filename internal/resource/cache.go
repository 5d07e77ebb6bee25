package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Status is the load state of the cache.
type Status int

const (
	StatusLoading Status = iota // No fetch has settled yet.
	StatusReady                 // Last applied fetch succeeded.
	StatusError                 // Last applied fetch failed.
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// Snapshot is a point-in-time view of the cache.
type Snapshot struct {
	Services   []zoo.Service
	Status     Status
	Err        error     // Set when Status is StatusError.
	Stale      bool      // Services predate a failed refresh.
	Refreshing bool      // A fetch is in flight.
	LoadedAt   time.Time // Time of the last successful fetch.
}

// Cache holds the last known server state of the service collection.
// Contents are only ever replaced wholesale by a fetch. It is safe for
// concurrent use.
type Cache struct {
	lister zoo.Lister
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	services []zoo.Service
	index    map[string]int
	status   Status
	err      error
	loadedAt time.Time
	issued   uint64 // Sequence handed to the most recent fetch.
	applied  uint64 // Sequence of the most recently applied response.
	inflight int
	closed   bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets the logger for fetch outcomes.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// WithClock overrides the time source used for LoadedAt.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache backed by lister.
func NewCache(lister zoo.Lister, opts ...CacheOption) *Cache {
	c := &Cache{
		lister: lister,
		logger: logging.Nop(),
		now:    time.Now,
		index:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the full collection once and applies it, unless a response
// to a later fetch has already been applied. On failure the previous
// contents stay visible and are marked stale. A response dropped as out of
// order reports nil, whatever its outcome.
func (c *Cache) Load(ctx context.Context) error {
	seq, err := c.begin()
	if err != nil {
		return err
	}

	services, err := c.lister.List(ctx)
	if err == nil {
		err = checkUnique(services)
	}
	return c.apply(seq, services, err)
}

// Invalidate discards the current state by re-running Load.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.Load(ctx)
}

// Current returns the present snapshot. The returned slice is a copy.
func (c *Cache) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Services:   append([]zoo.Service(nil), c.services...),
		Status:     c.status,
		Err:        c.err,
		Stale:      c.status == StatusError && len(c.services) > 0,
		Refreshing: c.inflight > 0,
		LoadedAt:   c.loadedAt,
	}
}

// Get returns the cached record with the given ID.
func (c *Cache) Get(id string) (zoo.Service, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return zoo.Service{}, false
	}
	return c.services[i], true
}

// Close tears the cache down. Contents are dropped and responses still in
// flight are discarded.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.services = nil
	c.index = make(map[string]int)
}

func (c *Cache) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	c.issued++
	c.inflight++
	return c.issued, nil
}

func (c *Cache) apply(seq uint64, services []zoo.Service, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
	if c.closed {
		return ErrClosed
	}
	if seq <= c.applied {
		c.logger.Debug("discarding out-of-order service listing", "seq", seq, "applied", c.applied)
		return nil
	}
	c.applied = seq

	if err != nil {
		c.status = StatusError
		c.err = err
		c.logger.Warn("service listing failed", "seq", seq, "err", err)
		return &LoadError{Err: err}
	}

	c.services = append([]zoo.Service(nil), services...)
	c.index = make(map[string]int, len(services))
	for i, s := range c.services {
		c.index[s.ID] = i
	}
	c.status = StatusReady
	c.err = nil
	c.loadedAt = c.now()
	c.logger.Debug("service listing applied", "seq", seq, "count", len(services))
	return nil
}

func checkUnique(services []zoo.Service) error {
	seen := make(map[string]struct{}, len(services))
	for _, s := range services {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

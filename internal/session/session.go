// Package session binds the cache, the mutation coordinator and the dialog
// machine to a role, and exposes them as blocking action handlers for
// callers that do not run inside the Bubble Tea loop.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smileynet/zoodesk/internal/dialog"
	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/resource"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Session is one role-scoped screen over the shared service data.
type Session struct {
	role      zoo.Role
	cache     *resource.Cache
	coord     *resource.Coordinator
	durations NoticeDurations
	notify    func(Notice)
	logger    *slog.Logger

	mu      sync.Mutex
	machine *dialog.Machine
}

// Option configures a Session.
type Option func(*Session)

// WithRole sets the screen role. Defaults to zoo.RoleAdmin.
func WithRole(r zoo.Role) Option {
	return func(s *Session) { s.role = r }
}

// WithNotifier receives a Notice for every load failure and mutation outcome.
func WithNotifier(fn func(Notice)) Option {
	return func(s *Session) { s.notify = fn }
}

// WithNoticeDurations overrides how long notices stay visible.
func WithNoticeDurations(d NoticeDurations) Option {
	return func(s *Session) { s.durations = d }
}

// WithLogger sets the logger shared with the cache and coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a Session over repo with an empty cache.
func New(repo zoo.Repository, opts ...Option) *Session {
	s := &Session{
		role:      zoo.RoleAdmin,
		durations: DefaultNoticeDurations(),
		notify:    func(Notice) {},
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = resource.NewCache(repo, resource.WithCacheLogger(s.logger))
	s.coord = resource.NewCoordinator(repo, s.cache, resource.WithCoordinatorLogger(s.logger))
	s.machine = dialog.New(s.cache)
	return s
}

// Role returns the screen role.
func (s *Session) Role() zoo.Role { return s.role }

// Cache returns the shared cache.
func (s *Session) Cache() *resource.Cache { return s.cache }

// Coordinator returns the shared mutation coordinator.
func (s *Session) Coordinator() *resource.Coordinator { return s.coord }

// NoticeDurations returns how long notices stay visible.
func (s *Session) NoticeDurations() NoticeDurations { return s.durations }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Load fetches the collection into the cache.
func (s *Session) Load(ctx context.Context) error {
	if err := s.role.Check(zoo.ActionList); err != nil {
		return err
	}
	if err := s.cache.Load(ctx); err != nil {
		s.notify(s.durations.LoadNotice(err))
		return err
	}
	return nil
}

// Snapshot returns the current cache snapshot.
func (s *Session) Snapshot() resource.Snapshot {
	return s.cache.Current()
}

// Dialog returns the current dialog state.
func (s *Session) Dialog() dialog.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// BeginEdit opens the edit form for the cached record id.
func (s *Session) BeginEdit(id string) error {
	if err := s.role.Check(zoo.ActionEdit); err != nil {
		return err
	}
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.BeginEdit(rec)
	return nil
}

// EditDraftField changes one field of the open draft.
func (s *Session) EditDraftField(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.EditDraftField(key, value)
}

// ConfirmEdit sends the draft as an update. On failure the form stays open
// with the draft intact and the error is returned.
func (s *Session) ConfirmEdit(ctx context.Context) error {
	s.mu.Lock()
	id, fields, err := s.machine.ConfirmEdit()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = s.coord.Update(ctx, id, fields)
	s.notify(s.durations.MutationNotice(resource.OpUpdate, err))

	s.mu.Lock()
	s.machine.SettleEdit(id, err)
	s.mu.Unlock()
	return err
}

// CancelEdit discards the draft. The cache is not touched.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.CancelEdit()
}

// BeginCreate opens an empty form for a new record.
func (s *Session) BeginCreate() error {
	if err := s.role.Check(zoo.ActionCreate); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.BeginCreate()
	return nil
}

// ConfirmCreate sends the create form's draft.
func (s *Session) ConfirmCreate(ctx context.Context) (zoo.Service, error) {
	s.mu.Lock()
	fields, err := s.machine.ConfirmCreate()
	s.mu.Unlock()
	if err != nil {
		return zoo.Service{}, err
	}

	created, err := s.coord.Create(ctx, fields)
	s.notify(s.durations.MutationNotice(resource.OpCreate, err))

	s.mu.Lock()
	s.machine.SettleCreate(err)
	s.mu.Unlock()
	return created, err
}

// Create sends a new record directly, without a form.
func (s *Session) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	if err := s.role.Check(zoo.ActionCreate); err != nil {
		return zoo.Service{}, err
	}
	created, err := s.coord.Create(ctx, f)
	s.notify(s.durations.MutationNotice(resource.OpCreate, err))
	return created, err
}

// Remove deletes a record. Callers obtain user confirmation first.
func (s *Session) Remove(ctx context.Context, id string) error {
	if err := s.role.Check(zoo.ActionDelete); err != nil {
		return err
	}
	err := s.coord.Remove(ctx, id)
	s.notify(s.durations.MutationNotice(resource.OpRemove, err))
	return err
}

// BeginView opens the detail view for the cached record id.
func (s *Session) BeginView(id string) error {
	if err := s.role.Check(zoo.ActionView); err != nil {
		return err
	}
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.BeginView(rec)
	return nil
}

// Viewed returns the record in the detail view as currently cached.
func (s *Session) Viewed() (zoo.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Viewed()
}

// EndView closes the detail view.
func (s *Session) EndView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.EndView()
}

// Close tears down the cache.
func (s *Session) Close() {
	s.cache.Close()
}

func (s *Session) lookup(id string) (zoo.Service, error) {
	rec, ok := s.cache.Get(id)
	if !ok {
		return zoo.Service{}, fmt.Errorf("session: service %q: %w", id, zoo.ErrNotFound)
	}
	return rec, nil
}

package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smileynet/zoodesk/internal/zoo"
)

func sampleServices() []zoo.Service {
	return []zoo.Service{
		{ID: "1", Name: "Tour", Description: "Old"},
		{ID: "2", Name: "Feeding", Description: "Daily 3pm"},
	}
}

func TestCache_StartsEmptyAndLoading(t *testing.T) {
	c := NewCache(newFakeRepo())

	snap := c.Current()

	if snap.Status != StatusLoading {
		t.Errorf("status = %v, want loading", snap.Status)
	}
	if len(snap.Services) != 0 {
		t.Errorf("services = %v, want empty", snap.Services)
	}
}

func TestCache_LoadPopulates(t *testing.T) {
	// Given: a repository with two services
	repo := newFakeRepo(sampleServices()...)
	loadedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCache(repo, WithClock(func() time.Time { return loadedAt }))

	// When: the cache loads
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Then: the snapshot matches the repository and is ready
	snap := c.Current()
	if snap.Status != StatusReady {
		t.Errorf("status = %v, want ready", snap.Status)
	}
	if len(snap.Services) != 2 || snap.Services[0].ID != "1" || snap.Services[1].ID != "2" {
		t.Errorf("services = %+v, want repository order", snap.Services)
	}
	if !snap.LoadedAt.Equal(loadedAt) {
		t.Errorf("loadedAt = %v, want %v", snap.LoadedAt, loadedAt)
	}
	if repo.listCount() != 1 {
		t.Errorf("list calls = %d, want exactly 1", repo.listCount())
	}
}

func TestCache_LoadFailureBeforeFirstLoad(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("connection refused")
	c := NewCache(repo)

	err := c.Load(context.Background())

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	snap := c.Current()
	if snap.Status != StatusError {
		t.Errorf("status = %v, want error", snap.Status)
	}
	if snap.Stale {
		t.Error("empty cache should not be marked stale")
	}
	if len(snap.Services) != 0 {
		t.Errorf("services = %v, want empty", snap.Services)
	}
}

func TestCache_LoadFailureKeepsStaleSnapshot(t *testing.T) {
	// Given: a cache that loaded successfully once
	repo := newFakeRepo(sampleServices()...)
	c := NewCache(repo)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	// When: the next refresh fails
	repo.listErr = errors.New("server unavailable")
	if err := c.Invalidate(context.Background()); err == nil {
		t.Fatal("Invalidate() should fail")
	}

	// Then: the previous records remain, marked stale, with the error detail
	snap := c.Current()
	if snap.Status != StatusError || !snap.Stale {
		t.Errorf("status = %v stale = %v, want error + stale", snap.Status, snap.Stale)
	}
	if len(snap.Services) != 2 {
		t.Errorf("services = %+v, want previous 2", snap.Services)
	}
	if snap.Err == nil || snap.Err.Error() != "server unavailable" {
		t.Errorf("err = %v, want server unavailable", snap.Err)
	}

	// When: the repository recovers and the cache reloads
	repo.listErr = nil
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if snap := c.Current(); snap.Status != StatusReady || snap.Stale || snap.Err != nil {
		t.Errorf("after recovery: %+v, want ready", snap)
	}
}

func TestCache_ReplacesWholesale(t *testing.T) {
	repo := newFakeRepo(sampleServices()...)
	c := NewCache(repo)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	repo.mu.Lock()
	repo.services = []zoo.Service{{ID: "3", Name: "Safari"}}
	repo.mu.Unlock()
	if err := c.Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("1"); ok {
		t.Error("record 1 should be gone after refresh")
	}
	if got, ok := c.Get("3"); !ok || got.Name != "Safari" {
		t.Errorf("Get(3) = %+v, %v", got, ok)
	}
}

func TestCache_CurrentReturnsCopy(t *testing.T) {
	c := NewCache(newFakeRepo(sampleServices()...))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := c.Current()
	snap.Services[0].Name = "mutated"

	if got, _ := c.Get("1"); got.Name != "Tour" {
		t.Errorf("cache mutated through snapshot: %+v", got)
	}
}

func TestCache_DuplicateIDsRejected(t *testing.T) {
	repo := newFakeRepo(sampleServices()...)
	c := NewCache(repo)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	repo.mu.Lock()
	repo.services = []zoo.Service{{ID: "9", Name: "a"}, {ID: "9", Name: "b"}}
	repo.mu.Unlock()
	err := c.Load(context.Background())

	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Load() error = %v, want ErrDuplicateID", err)
	}
	if snap := c.Current(); len(snap.Services) != 2 || snap.Services[0].ID != "1" {
		t.Errorf("duplicate listing replaced the snapshot: %+v", snap.Services)
	}
}

func TestCache_LaterIssuedResponseWins(t *testing.T) {
	// Given: two fetches whose responses are released in reverse order
	first := gatedResponse{gate: make(chan struct{}), services: []zoo.Service{{ID: "old", Name: "First"}}}
	second := gatedResponse{gate: make(chan struct{}), services: []zoo.Service{{ID: "new", Name: "Second"}}}
	lister := newGatedLister(first, second)
	c := NewCache(lister)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.Load(context.Background()) }()
	<-lister.started
	go func() { defer wg.Done(); _ = c.Load(context.Background()) }()
	<-lister.started

	if !c.Current().Refreshing {
		t.Error("cache should report refreshing while fetches are in flight")
	}

	// When: the second response arrives before the first
	close(second.gate)
	waitFor(t, func() bool { _, ok := c.Get("new"); return ok })
	close(first.gate)
	wg.Wait()

	// Then: the snapshot holds the most recently issued response
	snap := c.Current()
	if len(snap.Services) != 1 || snap.Services[0].ID != "new" {
		t.Errorf("services = %+v, want second response", snap.Services)
	}
	if snap.Refreshing {
		t.Error("refreshing should clear once both fetches settle")
	}
}

func TestCache_LateFailureDoesNotOverrideNewerSuccess(t *testing.T) {
	first := gatedResponse{gate: make(chan struct{}), err: errors.New("timeout")}
	second := gatedResponse{gate: make(chan struct{}), services: sampleServices()}
	lister := newGatedLister(first, second)
	c := NewCache(lister)

	var wg sync.WaitGroup
	var firstErr, secondErr error
	wg.Add(2)
	go func() { defer wg.Done(); firstErr = c.Load(context.Background()) }()
	<-lister.started
	go func() { defer wg.Done(); secondErr = c.Load(context.Background()) }()
	<-lister.started

	close(second.gate)
	waitFor(t, func() bool { return c.Current().Status == StatusReady })
	close(first.gate)
	wg.Wait()

	if snap := c.Current(); snap.Status != StatusReady || snap.Err != nil {
		t.Errorf("snapshot = %+v, want ready from newer response", snap)
	}
	if secondErr != nil {
		t.Errorf("newer Load() = %v, want nil", secondErr)
	}
	// The dropped failure never reached the snapshot, so its caller has
	// nothing to report.
	if firstErr != nil {
		t.Errorf("dropped Load() = %v, want nil", firstErr)
	}
}

func TestCache_AppliedFailureIsReturned(t *testing.T) {
	first := gatedResponse{gate: make(chan struct{}), services: sampleServices()}
	second := gatedResponse{gate: make(chan struct{}), err: errors.New("timeout")}
	lister := newGatedLister(first, second)
	c := NewCache(lister)

	var wg sync.WaitGroup
	var secondErr error
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.Load(context.Background()) }()
	<-lister.started
	go func() { defer wg.Done(); secondErr = c.Load(context.Background()) }()
	<-lister.started

	close(first.gate)
	close(second.gate)
	wg.Wait()

	var le *LoadError
	if !errors.As(secondErr, &le) {
		t.Fatalf("Load() = %v, want *LoadError", secondErr)
	}
	if snap := c.Current(); snap.Status != StatusError || snap.Err == nil {
		t.Errorf("snapshot = %+v, want error from the latest fetch", snap)
	}
}

func TestCache_Close(t *testing.T) {
	c := NewCache(newFakeRepo(sampleServices()...))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.Close()

	if _, ok := c.Get("1"); ok {
		t.Error("closed cache should be empty")
	}
	if err := c.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close = %v, want ErrClosed", err)
	}
}

func TestCache_CloseDiscardsInflightResponse(t *testing.T) {
	resp := gatedResponse{gate: make(chan struct{}), services: sampleServices()}
	lister := newGatedLister(resp)
	c := NewCache(lister)

	done := make(chan struct{})
	var loadErr error
	go func() { loadErr = c.Load(context.Background()); close(done) }()
	<-lister.started

	c.Close()
	close(resp.gate)
	<-done

	if snap := c.Current(); len(snap.Services) != 0 {
		t.Errorf("closed cache applied an in-flight response: %+v", snap.Services)
	}
	if !errors.Is(loadErr, ErrClosed) {
		t.Errorf("Load() = %v, want ErrClosed", loadErr)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

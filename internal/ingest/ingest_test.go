package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/types"
)

// fakeStore upserts into a map keyed by the natural key, mirroring the
// database behavior closely enough to observe idempotence.
type fakeStore struct {
	flights     map[string]*types.Flight
	nextID      int64
	truncates   int
	upsertErr   error
	cleanupErr  error
	cleaned     int64
	lastCutoff  time.Time
	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{flights: make(map[string]*types.Flight), nextID: 1}
}

func (s *fakeStore) UpsertFlights(flights []*types.Flight) (int, int, error) {
	s.upsertCalls++
	if s.upsertErr != nil {
		return 0, 0, s.upsertErr
	}
	var inserted, updated int
	for _, f := range flights {
		key := f.FlightIcao + "|" + f.DepartureScheduled
		if existing, ok := s.flights[key]; ok {
			f.ID = existing.ID
			s.flights[key] = f
			updated++
			continue
		}
		f.ID = s.nextID
		s.nextID++
		s.flights[key] = f
		inserted++
	}
	return inserted, updated, nil
}

func (s *fakeStore) TruncateFlights() error {
	s.truncates++
	s.flights = make(map[string]*types.Flight)
	return nil
}

func (s *fakeStore) CleanupFlights(cutoff time.Time) (int64, error) {
	s.lastCutoff = cutoff
	return s.cleaned, s.cleanupErr
}

type fakeProvider struct {
	result *provider.FetchResult
	err    error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(ctx context.Context, airportIcao string, dir provider.Direction) (*provider.FetchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func batch() *provider.FetchResult {
	return &provider.FetchResult{
		Raw:     3,
		Dropped: 1,
		Flights: []*types.Flight{
			{FlightIcao: "ROT123", DepartureScheduled: "2024-01-01T10:00:00Z"},
			{FlightIcao: "ROT456", DepartureScheduled: "2024-01-01T11:00:00Z"},
		},
	}
}

func TestIngest(t *testing.T) {
	store := newFakeStore()
	o := New(store, &fakeProvider{result: batch()}, nil, false)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(store.flights) != 2 {
		t.Errorf("stored %d flights, want 2", len(store.flights))
	}
	got := o.Stats().GetStats()
	if got["fetched_flights"] != uint64(3) {
		t.Errorf("fetched_flights = %v, want 3", got["fetched_flights"])
	}
	if got["dropped_flights"] != uint64(1) {
		t.Errorf("dropped_flights = %v, want 1", got["dropped_flights"])
	}
	if got["inserted_flights"] != uint64(2) {
		t.Errorf("inserted_flights = %v, want 2", got["inserted_flights"])
	}
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	store := newFakeStore()
	o := New(store, &fakeProvider{result: batch()}, nil, false)

	for i := 0; i < 2; i++ {
		if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
			t.Fatalf("Ingest run %d failed: %v", i+1, err)
		}
	}

	if len(store.flights) != 2 {
		t.Errorf("stored %d flights after two runs, want 2", len(store.flights))
	}
	got := o.Stats().GetStats()
	if got["inserted_flights"] != uint64(2) {
		t.Errorf("inserted_flights = %v, want 2", got["inserted_flights"])
	}
	if got["updated_flights"] != uint64(2) {
		t.Errorf("updated_flights = %v, want 2", got["updated_flights"])
	}
}

func TestIngestEmptyBatchIsNoOp(t *testing.T) {
	store := newFakeStore()
	o := New(store, &fakeProvider{result: &provider.FetchResult{Raw: 5, Dropped: 5}}, nil, false)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if store.upsertCalls != 0 {
		t.Errorf("upsert called %d times on empty batch, want 0", store.upsertCalls)
	}
	got := o.Stats().GetStats()
	if got["failed_runs"] != uint64(0) {
		t.Errorf("failed_runs = %v, want 0", got["failed_runs"])
	}
}

func TestIngestProviderError(t *testing.T) {
	store := newFakeStore()
	o := New(store, &fakeProvider{err: errors.New("upstream down")}, nil, false)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err == nil {
		t.Fatal("expected provider error to propagate")
	}
	if store.upsertCalls != 0 {
		t.Error("upsert should not run after fetch failure")
	}
	got := o.Stats().GetStats()
	if got["failed_runs"] != uint64(1) {
		t.Errorf("failed_runs = %v, want 1", got["failed_runs"])
	}
}

func TestIngestStoreError(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("connection lost")
	o := New(store, &fakeProvider{result: batch()}, nil, false)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err == nil {
		t.Fatal("expected store error to propagate")
	}
	got := o.Stats().GetStats()
	if got["failed_runs"] != uint64(1) {
		t.Errorf("failed_runs = %v, want 1", got["failed_runs"])
	}
}

func TestIngestReplaceMode(t *testing.T) {
	store := newFakeStore()
	o := New(store, &fakeProvider{result: batch()}, nil, true)

	for i := 0; i < 2; i++ {
		if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
			t.Fatalf("Ingest run %d failed: %v", i+1, err)
		}
	}

	if store.truncates != 2 {
		t.Errorf("truncated %d times, want 2 (once per run)", store.truncates)
	}
	if len(store.flights) != 2 {
		t.Errorf("stored %d flights, want 2", len(store.flights))
	}
}

// fakeCache records invalidated flight ids.
type fakeCache struct {
	deleted []int64
	err     error
}

func (c *fakeCache) DeleteFlight(ctx context.Context, id int64) error {
	if c.err != nil {
		return c.err
	}
	c.deleted = append(c.deleted, id)
	return nil
}

func TestIngestInvalidatesCachedFlights(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{}
	o := New(store, &fakeProvider{result: batch()}, nil, false)
	o.SetCache(cache)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(cache.deleted) != 2 {
		t.Fatalf("invalidated %d cached flights, want 2", len(cache.deleted))
	}
	want := map[int64]bool{1: true, 2: true}
	for _, id := range cache.deleted {
		if !want[id] {
			t.Errorf("invalidated unexpected flight id %d", id)
		}
	}
}

func TestIngestCacheErrorDoesNotFailRun(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{err: errors.New("redis down")}
	o := New(store, &fakeProvider{result: batch()}, nil, false)
	o.SetCache(cache)

	if err := o.Ingest(context.Background(), "LROP", provider.DirectionBoth); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(store.flights) != 2 {
		t.Errorf("stored %d flights, want 2", len(store.flights))
	}
}

func TestCleanup(t *testing.T) {
	store := newFakeStore()
	store.cleaned = 9
	o := New(store, &fakeProvider{}, nil, false)

	before := time.Now()
	if err := o.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	wantCutoff := before.Add(-24 * time.Hour)
	if store.lastCutoff.Before(wantCutoff.Add(-time.Minute)) || store.lastCutoff.After(wantCutoff.Add(time.Minute)) {
		t.Errorf("cutoff = %v, want about %v", store.lastCutoff, wantCutoff)
	}
	got := o.Stats().GetStats()
	if got["cleaned_flights"] != uint64(9) {
		t.Errorf("cleaned_flights = %v, want 9", got["cleaned_flights"])
	}
}

func TestCleanupError(t *testing.T) {
	store := newFakeStore()
	store.cleanupErr = errors.New("timeout")
	o := New(store, &fakeProvider{}, nil, false)

	if err := o.Cleanup(24 * time.Hour); err == nil {
		t.Fatal("expected cleanup error to propagate")
	}
}

package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/stats"
	"github.com/aerodash/flightboard/internal/types"
)

// FlightStore is the slice of the storage layer the orchestrator writes to
type FlightStore interface {
	UpsertFlights(flights []*types.Flight) (inserted, updated int, err error)
	TruncateFlights() error
	CleanupFlights(cutoff time.Time) (int64, error)
}

// FlightCache is the slice of the cache layer the orchestrator invalidates
// after writes, so updated records are not served stale from a prior run.
type FlightCache interface {
	DeleteFlight(ctx context.Context, id int64) error
}

// Orchestrator runs one fetch-normalize-upsert cycle per invocation. Provider
// and configuration errors propagate to the caller; the next scheduled run is
// the retry mechanism.
type Orchestrator struct {
	store       FlightStore
	provider    provider.Provider
	stats       *stats.Stats
	cache       FlightCache
	replaceMode bool
}

// New creates an orchestrator. replaceMode enables the legacy
// truncate-then-insert behavior instead of the natural-key upsert.
func New(store FlightStore, p provider.Provider, st *stats.Stats, replaceMode bool) *Orchestrator {
	if st == nil {
		st = stats.New()
	}
	return &Orchestrator{
		store:       store,
		provider:    p,
		stats:       st,
		replaceMode: replaceMode,
	}
}

// SetCache sets the cache to invalidate after writes. Without one, cached
// flight detail records age out on their TTL alone.
func (o *Orchestrator) SetCache(c FlightCache) {
	o.cache = c
}

// Stats exposes the cumulative ingestion counters
func (o *Orchestrator) Stats() *stats.Stats {
	return o.stats
}

// Ingest fetches, normalizes, and persists flights for one airport. A batch
// that normalizes to zero records is a no-op, not an error.
func (o *Orchestrator) Ingest(ctx context.Context, airportIcao string, dir provider.Direction) error {
	runID := uuid.New().String()
	start := time.Now()
	o.stats.IncrementTotalRuns()
	o.stats.UpdateLastRunTime()

	result, err := o.provider.Fetch(ctx, airportIcao, dir)
	if err != nil {
		o.stats.IncrementFailedRuns()
		return fmt.Errorf("failed to fetch flights for %s: %w", airportIcao, err)
	}

	o.stats.AddFetchedFlights(uint64(result.Raw))
	o.stats.AddDroppedFlights(uint64(result.Dropped))
	o.stats.AddNormalizedFlights(uint64(len(result.Flights)))

	if len(result.Flights) == 0 {
		log.Printf("[%s] %s: no flights for %s (raw=%d dropped=%d)",
			runID, o.provider.Name(), airportIcao, result.Raw, result.Dropped)
		o.stats.AddProcessingTime(time.Since(start))
		return nil
	}

	if o.replaceMode {
		if err := o.store.TruncateFlights(); err != nil {
			o.stats.IncrementFailedRuns()
			return fmt.Errorf("failed to truncate flights: %w", err)
		}
	}

	inserted, updated, err := o.store.UpsertFlights(result.Flights)
	if err != nil {
		o.stats.IncrementFailedRuns()
		return fmt.Errorf("failed to store flights for %s: %w", airportIcao, err)
	}

	o.stats.AddInsertedFlights(uint64(inserted))
	o.stats.AddUpdatedFlights(uint64(updated))

	// Drop cached detail records for the batch; the upsert assigned every
	// flight its row id.
	if o.cache != nil {
		for _, f := range result.Flights {
			if f.ID == 0 {
				continue
			}
			if err := o.cache.DeleteFlight(ctx, f.ID); err != nil {
				log.Printf("Warning: failed to invalidate cached flight %d: %v", f.ID, err)
			}
		}
	}

	o.stats.AddProcessingTime(time.Since(start))

	log.Printf("[%s] %s: ingested %d flights for %s (inserted=%d updated=%d dropped=%d) in %s",
		runID, o.provider.Name(), len(result.Flights), airportIcao,
		inserted, updated, result.Dropped, time.Since(start).Round(time.Millisecond))
	return nil
}

// Cleanup deletes flights whose scheduled departure is older than the
// retention window.
func (o *Orchestrator) Cleanup(olderThan time.Duration) error {
	deleted, err := o.store.CleanupFlights(time.Now().Add(-olderThan))
	if err != nil {
		return fmt.Errorf("failed to clean up flights: %w", err)
	}
	if deleted > 0 {
		o.stats.AddCleanedFlights(uint64(deleted))
		log.Printf("Cleaned up %d flights older than %s", deleted, olderThan)
	}
	return nil
}

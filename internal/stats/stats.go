package stats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Persister stores a statistics snapshot (implemented by the db client)
type Persister interface {
	StoreIngestStats(stats map[string]interface{}) error
}

// Stats tracks cumulative ingestion statistics across runs
type Stats struct {
	// Run counts
	TotalRuns  uint64
	FailedRuns uint64

	// Flight counts
	FetchedFlights    uint64
	NormalizedFlights uint64
	DroppedFlights    uint64
	InsertedFlights   uint64
	UpdatedFlights    uint64
	CleanedFlights    uint64

	// Timing
	LastRunTime    time.Time
	ProcessingTime time.Duration

	// Database client for persistence
	db Persister

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		LastRunTime: time.Now(),
	}
}

// SetDB sets the database client for persistence
func (s *Stats) SetDB(db Persister) {
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
}

// Persist stores the current statistics in the database
func (s *Stats) Persist() error {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return fmt.Errorf("database client not set")
	}
	s.mu.RUnlock()

	return s.db.StoreIngestStats(s.GetStats())
}

// IncrementTotalRuns increments the total runs counter
func (s *Stats) IncrementTotalRuns() {
	atomic.AddUint64(&s.TotalRuns, 1)
}

// IncrementFailedRuns increments the failed runs counter
func (s *Stats) IncrementFailedRuns() {
	atomic.AddUint64(&s.FailedRuns, 1)
}

// AddFetchedFlights adds to the raw fetched flights counter
func (s *Stats) AddFetchedFlights(n uint64) {
	atomic.AddUint64(&s.FetchedFlights, n)
}

// AddNormalizedFlights adds to the normalized flights counter
func (s *Stats) AddNormalizedFlights(n uint64) {
	atomic.AddUint64(&s.NormalizedFlights, n)
}

// AddDroppedFlights adds to the dropped records counter
func (s *Stats) AddDroppedFlights(n uint64) {
	atomic.AddUint64(&s.DroppedFlights, n)
}

// AddInsertedFlights adds to the inserted flights counter
func (s *Stats) AddInsertedFlights(n uint64) {
	atomic.AddUint64(&s.InsertedFlights, n)
}

// AddUpdatedFlights adds to the updated flights counter
func (s *Stats) AddUpdatedFlights(n uint64) {
	atomic.AddUint64(&s.UpdatedFlights, n)
}

// AddCleanedFlights adds to the cleaned-up flights counter
func (s *Stats) AddCleanedFlights(n uint64) {
	atomic.AddUint64(&s.CleanedFlights, n)
}

// UpdateLastRunTime updates the last run time
func (s *Stats) UpdateLastRunTime() {
	s.mu.Lock()
	s.LastRunTime = time.Now()
	s.mu.Unlock()
}

// AddProcessingTime adds to the total processing time
func (s *Stats) AddProcessingTime(duration time.Duration) {
	s.mu.Lock()
	s.ProcessingTime += duration
	s.mu.Unlock()
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":         atomic.LoadUint64(&s.TotalRuns),
		"failed_runs":        atomic.LoadUint64(&s.FailedRuns),
		"fetched_flights":    atomic.LoadUint64(&s.FetchedFlights),
		"normalized_flights": atomic.LoadUint64(&s.NormalizedFlights),
		"dropped_flights":    atomic.LoadUint64(&s.DroppedFlights),
		"inserted_flights":   atomic.LoadUint64(&s.InsertedFlights),
		"updated_flights":    atomic.LoadUint64(&s.UpdatedFlights),
		"cleaned_flights":    atomic.LoadUint64(&s.CleanedFlights),
		"last_run_time":      s.LastRunTime,
		"processing_time":    s.ProcessingTime,
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()
	return fmt.Sprintf(
		"Total Runs: %d\n"+
			"Failed Runs: %d\n"+
			"Fetched Flights: %d\n"+
			"Normalized Flights: %d\n"+
			"Dropped Flights: %d\n"+
			"Inserted Flights: %d\n"+
			"Updated Flights: %d\n"+
			"Cleaned Flights: %d\n"+
			"Last Run Time: %s\n"+
			"Processing Time: %s",
		stats["total_runs"],
		stats["failed_runs"],
		stats["fetched_flights"],
		stats["normalized_flights"],
		stats["dropped_flights"],
		stats["inserted_flights"],
		stats["updated_flights"],
		stats["cleaned_flights"],
		stats["last_run_time"],
		stats["processing_time"],
	)
}

// StartPersistence starts periodic persistence of statistics
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final persistence before shutdown
			if err := s.Persist(); err != nil {
				log.Printf("Failed to persist final statistics: %v", err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				log.Printf("Failed to persist statistics: %v", err)
			}
		}
	}
}

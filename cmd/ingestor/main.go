package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aerodash/flightboard/internal/config"
	"github.com/aerodash/flightboard/internal/db"
	"github.com/aerodash/flightboard/internal/ingest"
	"github.com/aerodash/flightboard/internal/nats"
	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/provider/aerodatabox"
	"github.com/aerodash/flightboard/internal/provider/aviationstack"
	"github.com/aerodash/flightboard/internal/redis"
	"github.com/aerodash/flightboard/internal/stats"
	"github.com/aerodash/flightboard/internal/types"
)

// createClients creates all the required clients for the application
func createClients(cfg *config.Config) (*nats.Client, *db.Client, *redis.Client, error) {
	natsClient, err := nats.New(cfg.NATSURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		natsClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	redisClient, err := redis.New(cfg.RedisAddr)
	if err != nil {
		natsClient.Close()
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return nil, nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return natsClient, dbClient, redisClient, nil
}

// buildProvider constructs the configured flight data provider
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderAeroDataBox:
		return aerodatabox.New(cfg.AeroDataBoxAPIKey, cfg.AeroDataBoxAPIHost, cfg.FetchWindow), nil
	case config.ProviderAviationStack:
		return aviationstack.New(cfg.AviationStackAPIKey), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// refreshAirport runs one ingestion cycle for an airport and the follow-up
// cleanup and cache invalidation
func refreshAirport(ctx context.Context, o *ingest.Orchestrator, redisClient *redis.Client, cfg *config.Config, airport string, dir provider.Direction) {
	if err := o.Ingest(ctx, airport, dir); err != nil {
		log.Printf("Ingestion failed for %s: %v", airport, err)
		return
	}

	if err := o.Cleanup(time.Duration(cfg.RetentionHours) * time.Hour); err != nil {
		log.Printf("Cleanup failed: %v", err)
	}

	if err := redisClient.InvalidateStats(ctx); err != nil {
		log.Printf("Warning: failed to invalidate stats cache: %v", err)
	}
}

// runSchedule fetches every configured airport on a fixed interval until the
// context is cancelled. The first cycle runs immediately.
func runSchedule(ctx context.Context, o *ingest.Orchestrator, redisClient *redis.Client, cfg *config.Config) {
	ticker := time.NewTicker(cfg.FetchInterval)
	defer ticker.Stop()

	for {
		for _, airport := range cfg.Airports {
			refreshAirport(ctx, o, redisClient, cfg, airport, provider.DirectionBoth)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// setupRefreshSubscription handles on-demand refresh requests from the API
func setupRefreshSubscription(ctx context.Context, natsClient *nats.Client, o *ingest.Orchestrator, redisClient *redis.Client, cfg *config.Config) error {
	err := natsClient.SubscribeRefresh(func(req *types.RefreshRequest) {
		dir, err := provider.ParseDirection(req.Type)
		if err != nil {
			log.Printf("[%s] Invalid refresh request: %v", req.RequestID, err)
			return
		}
		log.Printf("[%s] Refresh requested for %s", req.RequestID, req.AirportIcao)
		refreshAirport(ctx, o, redisClient, cfg, req.AirportIcao, dir)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to refresh requests: %w", err)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	natsClient, dbClient, redisClient, err := createClients(cfg)
	if err != nil {
		log.Printf("Failed to create clients: %v", err)
		os.Exit(1)
	}

	flightProvider, err := buildProvider(cfg)
	if err != nil {
		log.Printf("Failed to build provider: %v", err)
		os.Exit(1)
	}

	ingestStats := stats.New()
	ingestStats.SetDB(dbClient)

	orchestrator := ingest.New(dbClient, flightProvider, ingestStats, cfg.IngestMode == config.ModeReplace)
	orchestrator.SetCache(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := setupRefreshSubscription(ctx, natsClient, orchestrator, redisClient, cfg); err != nil {
		log.Printf("Failed to setup refresh subscription: %v", err)
		natsClient.Close()
		os.Exit(1)
	}

	go runSchedule(ctx, orchestrator, redisClient, cfg)
	go ingestStats.StartPersistence(ctx, 5*time.Minute)
	go logStats(ctx, ingestStats)

	log.Printf("Ingestor started: provider=%s airports=%v interval=%s mode=%s",
		cfg.Provider, cfg.Airports, cfg.FetchInterval, cfg.IngestMode)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	natsClient.Close()
	if err := dbClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
	}
	if err := redisClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
	}
}

// logStats periodically logs ingestion statistics
func logStats(ctx context.Context, s *stats.Stats) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("Statistics:\n%s", s)
		}
	}
}

package main

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aerodash/flightboard/internal/db"
	"github.com/aerodash/flightboard/internal/db/migrations"
	"github.com/aerodash/flightboard/internal/types"
)

// setupPostgres starts a disposable Postgres container and returns a migrated
// database client.
func setupPostgres(t *testing.T) *db.Client {
	ctx := context.Background()

	container, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("flightboard"),
		postgrescontainer.WithUsername("flightboard"),
		postgrescontainer.WithPassword("flightboard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate Postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	migrator := migrations.New(database)
	if err := migrator.Migrate([]*migrations.Migration{
		migrations.InitialSchema,
		migrations.IngestStats,
	}); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Logf("Failed to close migration connection: %v", err)
	}

	client, err := db.New(connStr)
	if err != nil {
		t.Fatalf("Failed to create database client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func testFlights() []*types.Flight {
	return []*types.Flight{
		{
			AirlineName:        "TAROM",
			AirlineIcao:        "ROT",
			DepartureIcao:      "LROP",
			DepartureScheduled: "2024-01-01T10:00:00Z",
			ArrivalIcao:        "EDDF",
			ArrivalScheduled:   "2024-01-01T12:00:00Z",
			FlightNumber:       "123",
			FlightIcao:         "ROT123",
		},
		{
			AirlineName:        "Wizz Air",
			AirlineIcao:        "WZZ",
			DepartureIcao:      "LROP",
			DepartureDelay:     "20",
			DepartureScheduled: "2024-01-01T11:00:00Z",
			ArrivalIcao:        "LHBP",
			ArrivalScheduled:   "2024-01-01T12:00:00Z",
			FlightNumber:       "4321",
			FlightIcao:         "WZZ4321",
		},
	}
}

// TestUpsertIntegration exercises the upsert path against real Postgres: the
// same batch stored twice must not create duplicate rows.
func TestUpsertIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := setupPostgres(t)

	inserted, updated, err := client.UpsertFlights(testFlights())
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if inserted != 2 || updated != 0 {
		t.Errorf("First upsert: inserted=%d updated=%d, want 2/0", inserted, updated)
	}

	// Second batch carries a new delay for ROT123.
	second := testFlights()
	second[0].DepartureDelay = "15"
	inserted, updated, err = client.UpsertFlights(second)
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if inserted != 0 || updated != 2 {
		t.Errorf("Second upsert: inserted=%d updated=%d, want 0/2", inserted, updated)
	}

	stored, err := client.GetFlightByKey("ROT123", "2024-01-01T10:00:00Z")
	if err != nil {
		t.Fatalf("GetFlightByKey failed: %v", err)
	}
	if stored == nil {
		t.Fatal("flight not found after upsert")
	}
	if stored.DepartureDelay != "15" {
		t.Errorf("DepartureDelay = %q, want updated 15", stored.DepartureDelay)
	}

	page, err := client.ListFlights("", 10, types.FilterAll)
	if err != nil {
		t.Fatalf("ListFlights failed: %v", err)
	}
	if len(page.Page) != 2 {
		t.Errorf("listed %d flights, want 2 (no duplicates)", len(page.Page))
	}
}

// TestListAndStatsIntegration verifies pagination, filtering, and the
// aggregate view against real Postgres.
func TestListAndStatsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := setupPostgres(t)

	if _, _, err := client.UpsertFlights(testFlights()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Delayed filter matches only the Wizz Air flight.
	page, err := client.ListFlights("", 10, types.FilterDelayed)
	if err != nil {
		t.Fatalf("ListFlights(delayed) failed: %v", err)
	}
	if len(page.Page) != 1 || page.Page[0].FlightIcao != "WZZ4321" {
		t.Errorf("delayed filter returned %+v, want only WZZ4321", page.Page)
	}

	page, err = client.ListFlights("", 10, types.FilterOnTime)
	if err != nil {
		t.Fatalf("ListFlights(ontime) failed: %v", err)
	}
	if len(page.Page) != 1 || page.Page[0].FlightIcao != "ROT123" {
		t.Errorf("ontime filter returned %+v, want only ROT123", page.Page)
	}

	// Page size one walks both rows over two pages, newest id first.
	first, err := client.ListFlights("", 1, types.FilterAll)
	if err != nil {
		t.Fatalf("ListFlights page 1 failed: %v", err)
	}
	if len(first.Page) != 1 || first.IsDone {
		t.Fatalf("page 1 = %+v, want one row and more pages", first)
	}
	second, err := client.ListFlights(first.NextCursor, 1, types.FilterAll)
	if err != nil {
		t.Fatalf("ListFlights page 2 failed: %v", err)
	}
	if len(second.Page) != 1 {
		t.Fatalf("page 2 returned %d rows, want 1", len(second.Page))
	}
	if first.Page[0].ID <= second.Page[0].ID {
		t.Errorf("pages out of order: %d then %d", first.Page[0].ID, second.Page[0].ID)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFlights != 2 || stats.DelayedFlights != 1 || stats.OnTimeFlights != 1 {
		t.Errorf("stats = %+v, want 2 total / 1 delayed / 1 ontime", stats)
	}
	if stats.UniqueAirports != 1 {
		t.Errorf("UniqueAirports = %d, want 1 (both depart LROP)", stats.UniqueAirports)
	}
}

// TestCleanupIntegration verifies age-based deletion against real Postgres.
func TestCleanupIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := setupPostgres(t)

	if _, _, err := client.UpsertFlights(testFlights()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Both flights departed on 2024-01-01; a cutoff after that removes both.
	deleted, err := client.CleanupFlights(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CleanupFlights failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFlights != 0 {
		t.Errorf("TotalFlights = %d after cleanup, want 0", stats.TotalFlights)
	}
}

package migrations

import "time"

// InitialSchema creates the flights table and its lookup indexes
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		-- Create flights table
		CREATE TABLE IF NOT EXISTS flights (
			id BIGSERIAL PRIMARY KEY,
			airline_name TEXT NOT NULL,
			airline_icao TEXT NOT NULL,
			codeshared_airline_name TEXT NOT NULL DEFAULT '',
			codeshared_airline_icao TEXT NOT NULL DEFAULT '',
			codeshared_flight_number TEXT NOT NULL DEFAULT '',
			codeshared_flight_icao TEXT NOT NULL DEFAULT '',
			departure_icao TEXT NOT NULL DEFAULT '',
			departure_delay TEXT NOT NULL DEFAULT '',
			departure_scheduled TEXT NOT NULL DEFAULT '',
			departure_estimated TEXT NOT NULL DEFAULT '',
			departure_terminal TEXT NOT NULL DEFAULT '',
			arrival_icao TEXT NOT NULL DEFAULT '',
			arrival_delay TEXT NOT NULL DEFAULT '',
			arrival_scheduled TEXT NOT NULL DEFAULT '',
			arrival_estimated TEXT NOT NULL DEFAULT '',
			arrival_terminal TEXT NOT NULL DEFAULT '',
			flight_number TEXT NOT NULL DEFAULT '',
			flight_icao TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		-- Natural key index: unique by convention, enforced by the upsert path
		CREATE INDEX IF NOT EXISTS idx_flights_natural_key ON flights (flight_icao, departure_scheduled);

		-- Departure airport index for filtering and stats
		CREATE INDEX IF NOT EXISTS idx_flights_departure_icao ON flights (departure_icao);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS flights;
	`,
	CreatedAt: time.Now(),
}

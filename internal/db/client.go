package db

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/aerodash/flightboard/internal/types"
)

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

const flightColumns = `id, airline_name, airline_icao,
			codeshared_airline_name, codeshared_airline_icao,
			codeshared_flight_number, codeshared_flight_icao,
			departure_icao, departure_delay, departure_scheduled,
			departure_estimated, departure_terminal,
			arrival_icao, arrival_delay, arrival_scheduled,
			arrival_estimated, arrival_terminal,
			flight_number, flight_icao`

func scanFlight(row interface{ Scan(...interface{}) error }) (*types.Flight, error) {
	var f types.Flight
	err := row.Scan(
		&f.ID, &f.AirlineName, &f.AirlineIcao,
		&f.CodesharedAirlineName, &f.CodesharedAirlineIcao,
		&f.CodesharedFlightNumber, &f.CodesharedFlightIcao,
		&f.DepartureIcao, &f.DepartureDelay, &f.DepartureScheduled,
		&f.DepartureEstimated, &f.DepartureTerminal,
		&f.ArrivalIcao, &f.ArrivalDelay, &f.ArrivalScheduled,
		&f.ArrivalEstimated, &f.ArrivalTerminal,
		&f.FlightNumber, &f.FlightIcao,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFlightByKey looks up a flight by its natural key. The index is unique by
// convention only; if duplicates exist the most recently stored record wins.
// Returns nil, nil when no record matches.
func (c *Client) GetFlightByKey(flightIcao, departureScheduled string) (*types.Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE flight_icao = $1 AND departure_scheduled = $2
		ORDER BY id DESC
		LIMIT 1
	`
	f, err := scanFlight(c.db.QueryRow(query, flightIcao, departureScheduled))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFlight inserts a new flight and fills in its assigned id
func (c *Client) CreateFlight(flight *types.Flight) error {
	query := `
		INSERT INTO flights (
			airline_name, airline_icao,
			codeshared_airline_name, codeshared_airline_icao,
			codeshared_flight_number, codeshared_flight_icao,
			departure_icao, departure_delay, departure_scheduled,
			departure_estimated, departure_terminal,
			arrival_icao, arrival_delay, arrival_scheduled,
			arrival_estimated, arrival_terminal,
			flight_number, flight_icao
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	return c.db.QueryRow(query,
		flight.AirlineName, flight.AirlineIcao,
		flight.CodesharedAirlineName, flight.CodesharedAirlineIcao,
		flight.CodesharedFlightNumber, flight.CodesharedFlightIcao,
		flight.DepartureIcao, flight.DepartureDelay, flight.DepartureScheduled,
		flight.DepartureEstimated, flight.DepartureTerminal,
		flight.ArrivalIcao, flight.ArrivalDelay, flight.ArrivalScheduled,
		flight.ArrivalEstimated, flight.ArrivalTerminal,
		flight.FlightNumber, flight.FlightIcao,
	).Scan(&flight.ID)
}

// UpdateFlight replaces every field of the stored record with the new values
func (c *Client) UpdateFlight(id int64, flight *types.Flight) error {
	query := `
		UPDATE flights SET
			airline_name = $1, airline_icao = $2,
			codeshared_airline_name = $3, codeshared_airline_icao = $4,
			codeshared_flight_number = $5, codeshared_flight_icao = $6,
			departure_icao = $7, departure_delay = $8, departure_scheduled = $9,
			departure_estimated = $10, departure_terminal = $11,
			arrival_icao = $12, arrival_delay = $13, arrival_scheduled = $14,
			arrival_estimated = $15, arrival_terminal = $16,
			flight_number = $17, flight_icao = $18,
			updated_at = NOW()
		WHERE id = $19
	`
	_, err := c.db.Exec(query,
		flight.AirlineName, flight.AirlineIcao,
		flight.CodesharedAirlineName, flight.CodesharedAirlineIcao,
		flight.CodesharedFlightNumber, flight.CodesharedFlightIcao,
		flight.DepartureIcao, flight.DepartureDelay, flight.DepartureScheduled,
		flight.DepartureEstimated, flight.DepartureTerminal,
		flight.ArrivalIcao, flight.ArrivalDelay, flight.ArrivalScheduled,
		flight.ArrivalEstimated, flight.ArrivalTerminal,
		flight.FlightNumber, flight.FlightIcao,
		id,
	)
	return err
}

// UpsertFlights writes a normalized batch in input order. Each record is
// matched on (flight_icao, departure_scheduled) and either replaced in place
// or inserted. There is no batch transaction: a failure partway through
// leaves the earlier writes committed.
func (c *Client) UpsertFlights(flights []*types.Flight) (inserted, updated int, err error) {
	for _, flight := range flights {
		existing, err := c.GetFlightByKey(flight.FlightIcao, flight.DepartureScheduled)
		if err != nil {
			return inserted, updated, fmt.Errorf("failed to look up flight %s: %w", flight.FlightIcao, err)
		}
		if existing != nil {
			if err := c.UpdateFlight(existing.ID, flight); err != nil {
				return inserted, updated, fmt.Errorf("failed to update flight %s: %w", flight.FlightIcao, err)
			}
			flight.ID = existing.ID
			updated++
			continue
		}
		if err := c.CreateFlight(flight); err != nil {
			return inserted, updated, fmt.Errorf("failed to insert flight %s: %w", flight.FlightIcao, err)
		}
		inserted++
	}
	return inserted, updated, nil
}

// TruncateFlights deletes every stored flight (legacy replace ingest mode)
func (c *Client) TruncateFlights() error {
	_, err := c.db.Exec(`DELETE FROM flights`)
	return err
}

// CleanupFlights deletes flights whose scheduled departure predates the
// cutoff. Records without a departure time are kept.
func (c *Client) CleanupFlights(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM flights
		WHERE departure_scheduled <> ''
		  AND departure_scheduled::timestamptz < $1
	`
	res, err := c.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// filterPredicate returns the WHERE fragment for a listing filter. A flight
// is delayed when either side carries a delay, on time when neither does.
func filterPredicate(filter types.Filter) string {
	switch filter {
	case types.FilterDelayed:
		return ` AND (departure_delay <> '' OR arrival_delay <> '')`
	case types.FilterOnTime:
		return ` AND departure_delay = '' AND arrival_delay = ''`
	}
	return ""
}

// ListFlights returns one page of flights, most recently stored first.
// cursor is the opaque token from a previous page ("" for the first page).
func (c *Client) ListFlights(cursor string, limit int, filter types.Filter) (*types.FlightPage, error) {
	if limit <= 0 {
		limit = 10
	}
	lastID, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether another page exists.
	query := `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE ($1 = 0 OR id < $1)` + filterPredicate(filter) + `
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, lastID, limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []*types.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &types.FlightPage{IsDone: true}
	if len(flights) > limit {
		flights = flights[:limit]
		page.IsDone = false
		page.NextCursor = encodeCursor(flights[len(flights)-1].ID)
	}
	page.Page = flights
	return page, nil
}

// GetFlightByID retrieves a single flight. Returns nil, nil when absent.
func (c *Client) GetFlightByID(id int64) (*types.Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE id = $1
	`
	f, err := scanFlight(c.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stats computes the dashboard aggregate in one full scan
func (c *Client) Stats() (*types.FlightStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE departure_delay <> '' OR arrival_delay <> ''),
			COUNT(DISTINCT departure_icao) FILTER (WHERE departure_icao <> '')
		FROM flights
	`
	var s types.FlightStats
	if err := c.db.QueryRow(query).Scan(&s.TotalFlights, &s.DelayedFlights, &s.UniqueAirports); err != nil {
		return nil, err
	}
	s.OnTimeFlights = s.TotalFlights - s.DelayedFlights
	return &s, nil
}

// StoreIngestStats stores an ingestion statistics snapshot
func (c *Client) StoreIngestStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO ingest_stats (
			time, total_runs, failed_runs,
			fetched_flights, normalized_flights, dropped_flights,
			inserted_flights, updated_flights, cleaned_flights,
			processing_time_ms, last_run_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	processingTime := stats["processing_time"].(time.Duration).Milliseconds()

	_, err := c.db.Exec(query,
		time.Now(),
		stats["total_runs"],
		stats["failed_runs"],
		stats["fetched_flights"],
		stats["normalized_flights"],
		stats["dropped_flights"],
		stats["inserted_flights"],
		stats["updated_flights"],
		stats["cleaned_flights"],
		processingTime,
		stats["last_run_time"],
	)
	return err
}

// Cursor tokens are the last seen row id, base64-wrapped so callers treat
// them as opaque.

func encodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrInvalidCursor, err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w %q", types.ErrInvalidCursor, cursor)
	}
	return id, nil
}

package types

import (
	"errors"
	"time"
)

// ErrInvalidCursor marks a pagination token the storage layer cannot decode.
// Handlers treat it as client error rather than server failure.
var ErrInvalidCursor = errors.New("invalid cursor")

// Flight is the canonical normalized flight record persisted by the upsert
// engine. Timestamps are ISO-8601 strings as delivered by the providers;
// delay fields hold whole minutes as a decimal string and are only set when
// the computed delay is positive.
type Flight struct {
	ID                     int64  `json:"id,omitempty"`
	AirlineName            string `json:"airlineName"`
	AirlineIcao            string `json:"airlineIcao"`
	CodesharedAirlineName  string `json:"codesharedAirlineName,omitempty"`
	CodesharedAirlineIcao  string `json:"codesharedAirlineIcao,omitempty"`
	CodesharedFlightNumber string `json:"codesharedFlightNumber,omitempty"`
	CodesharedFlightIcao   string `json:"codesharedFlightIcao,omitempty"`
	DepartureIcao          string `json:"departureIcao"`
	DepartureDelay         string `json:"departureDelay,omitempty"`
	DepartureScheduled     string `json:"departureScheduled"`
	DepartureEstimated     string `json:"departureEstimated,omitempty"`
	DepartureTerminal      string `json:"departureTerminal,omitempty"`
	ArrivalIcao            string `json:"arrivalIcao"`
	ArrivalDelay           string `json:"arrivalDelay,omitempty"`
	ArrivalScheduled       string `json:"arrivalScheduled"`
	ArrivalEstimated       string `json:"arrivalEstimated,omitempty"`
	ArrivalTerminal        string `json:"arrivalTerminal,omitempty"`
	FlightNumber           string `json:"flightNumber,omitempty"`
	FlightIcao             string `json:"flightIcao"`
}

// Delayed reports whether the flight carries a departure or arrival delay.
func (f *Flight) Delayed() bool {
	return f.DepartureDelay != "" || f.ArrivalDelay != ""
}

// Filter selects which flights a listing returns.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterOnTime  Filter = "ontime"
	FilterDelayed Filter = "delayed"
)

// Valid reports whether the filter is one of the supported values.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterOnTime, FilterDelayed:
		return true
	}
	return false
}

// FlightPage is one page of a cursor-paginated flight listing.
type FlightPage struct {
	Page       []*Flight `json:"page"`
	IsDone     bool      `json:"isDone"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// FlightStats is the aggregate view served to the dashboard. UniqueAirports
// counts distinct departure airports only.
type FlightStats struct {
	TotalFlights   int64 `json:"totalFlights"`
	DelayedFlights int64 `json:"delayedFlights"`
	OnTimeFlights  int64 `json:"onTimeFlights"`
	UniqueAirports int64 `json:"uniqueAirports"`
}

// RefreshRequest asks the ingestor to refresh flights for one airport.
// Type is an optional direction hint ("departure" or "arrival").
type RefreshRequest struct {
	RequestID   string    `json:"request_id"`
	AirportIcao string    `json:"airport_icao"`
	Type        string    `json:"type,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

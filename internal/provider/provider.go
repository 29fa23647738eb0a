package provider

import (
	"context"
	"fmt"

	"github.com/aerodash/flightboard/internal/types"
)

// Direction narrows a fetch to one side of an airport's traffic.
type Direction string

const (
	DirectionDeparture Direction = "departure"
	DirectionArrival   Direction = "arrival"
	// DirectionBoth lets the provider decide: the windowed provider always
	// fetches both lists, the simple provider defaults to departures.
	DirectionBoth Direction = ""
)

// ParseDirection validates an optional direction hint.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionDeparture, DirectionArrival, DirectionBoth:
		return Direction(s), nil
	}
	return DirectionBoth, fmt.Errorf("unknown direction %q", s)
}

// FetchResult is one provider fetch: the normalized batch plus counts of the
// raw records seen and the records dropped during normalization.
type FetchResult struct {
	Flights []*types.Flight
	Raw     int
	Dropped int
}

// Provider fetches scheduled flights for an airport and normalizes them into
// the internal record shape. Implementations drop individual malformed
// records rather than failing the batch.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, airportIcao string, dir Direction) (*FetchResult, error)
}

// UpstreamError is a non-success response from a provider API. It carries the
// upstream status and body for diagnostics; callers do not retry.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Body)
}

// Placeholders for airline identity the payload could not supply.
const (
	UnknownAirlineName = "Unknown"
	UnknownAirlineIcao = "UNK"
)

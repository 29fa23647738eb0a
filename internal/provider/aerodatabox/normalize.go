package aerodatabox

import (
	"strings"

	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/types"
)

// normalizeFlight maps one raw AeroDataBox flight into the internal record.
// dir says which list the record came from; that side's airport is omitted by
// the API and back-filled with the queried airport. Returns nil when the
// record cannot yield a flight code, has no scheduled time on either side, or
// carries a scheduled time that does not parse.
func normalizeFlight(raw *rawFlight, dir provider.Direction, queryAirportIcao string) *types.Flight {
	if raw == nil {
		return nil
	}

	airlineName := provider.UnknownAirlineName
	airlineIcao := provider.UnknownAirlineIcao
	if raw.Airline != nil {
		if raw.Airline.Name != "" {
			airlineName = raw.Airline.Name
		}
		if raw.Airline.ICAO != "" {
			airlineIcao = strings.ToUpper(raw.Airline.ICAO)
		}
	}

	number := bareNumber(raw.Number)
	flightIcao := provider.DeriveFlightIcao(airlineIcao, number, raw.CallSign)
	if flightIcao == "" {
		return nil
	}

	depIcao := airportIcao(raw.Departure.Airport)
	arrIcao := airportIcao(raw.Arrival.Airport)
	if dir == provider.DirectionDeparture && depIcao == "" {
		depIcao = queryAirportIcao
	}
	if dir == provider.DirectionArrival && arrIcao == "" {
		arrIcao = queryAirportIcao
	}

	depScheduled := raw.Departure.ScheduledTime.UTC
	arrScheduled := raw.Arrival.ScheduledTime.UTC
	if depScheduled == "" && arrScheduled == "" {
		return nil
	}
	if depScheduled != "" && !provider.ValidTime(depScheduled) {
		return nil
	}
	if arrScheduled != "" && !provider.ValidTime(arrScheduled) {
		return nil
	}

	f := &types.Flight{
		AirlineName:        airlineName,
		AirlineIcao:        airlineIcao,
		DepartureIcao:      depIcao,
		DepartureScheduled: depScheduled,
		DepartureEstimated: raw.Departure.RevisedTime.UTC,
		DepartureTerminal:  raw.Departure.Terminal,
		ArrivalIcao:        arrIcao,
		ArrivalScheduled:   arrScheduled,
		ArrivalEstimated:   raw.Arrival.RevisedTime.UTC,
		ArrivalTerminal:    raw.Arrival.Terminal,
		FlightNumber:       number,
		FlightIcao:         flightIcao,
	}

	if depScheduled != "" {
		f.DepartureDelay = provider.DelayMinutes(depScheduled, raw.Departure.RevisedTime.UTC, raw.Departure.RunwayTime.UTC)
	}
	if arrScheduled != "" {
		f.ArrivalDelay = provider.DelayMinutes(arrScheduled, raw.Arrival.RevisedTime.UTC, raw.Arrival.RunwayTime.UTC)
	}

	return f
}

// bareNumber strips the airline designator from a display flight number,
// e.g. "RO 123" -> "123".
func bareNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	parts := strings.Fields(number)
	return parts[len(parts)-1]
}

func airportIcao(a *rawAirport) string {
	if a == nil {
		return ""
	}
	return strings.ToUpper(a.ICAO)
}

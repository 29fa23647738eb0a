package aviationstack

import (
	"strings"

	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/types"
)

// normalizeFlight maps one raw timetable entry into the internal record.
// Returns nil when the record cannot yield a flight code, has no scheduled
// time, or carries a scheduled time that does not parse.
func normalizeFlight(raw *rawFlight, dir provider.Direction, queryAirportIcao string) *types.Flight {
	if raw == nil {
		return nil
	}

	airlineName := provider.UnknownAirlineName
	airlineIcao := provider.UnknownAirlineIcao
	if raw.Airline.Name != "" {
		airlineName = raw.Airline.Name
	}
	if raw.Airline.ICAOCode != "" {
		airlineIcao = strings.ToUpper(raw.Airline.ICAOCode)
	}

	flightIcao := strings.ToUpper(strings.TrimSpace(raw.Flight.ICAONumber))
	if flightIcao == "" {
		flightIcao = provider.DeriveFlightIcao(airlineIcao, raw.Flight.Number, "")
	}
	if flightIcao == "" {
		return nil
	}

	depIcao := strings.ToUpper(raw.Departure.ICAOCode)
	arrIcao := strings.ToUpper(raw.Arrival.ICAOCode)
	if dir == provider.DirectionDeparture && depIcao == "" {
		depIcao = queryAirportIcao
	}
	if dir == provider.DirectionArrival && arrIcao == "" {
		arrIcao = queryAirportIcao
	}

	if raw.Departure.ScheduledTime == "" && raw.Arrival.ScheduledTime == "" {
		return nil
	}
	if raw.Departure.ScheduledTime != "" && !provider.ValidTime(raw.Departure.ScheduledTime) {
		return nil
	}
	if raw.Arrival.ScheduledTime != "" && !provider.ValidTime(raw.Arrival.ScheduledTime) {
		return nil
	}

	f := &types.Flight{
		AirlineName:        airlineName,
		AirlineIcao:        airlineIcao,
		DepartureIcao:      depIcao,
		DepartureScheduled: raw.Departure.ScheduledTime,
		DepartureEstimated: raw.Departure.EstimatedTime,
		DepartureTerminal:  raw.Departure.Terminal,
		ArrivalIcao:        arrIcao,
		ArrivalScheduled:   raw.Arrival.ScheduledTime,
		ArrivalEstimated:   raw.Arrival.EstimatedTime,
		ArrivalTerminal:    raw.Arrival.Terminal,
		FlightNumber:       strings.TrimSpace(raw.Flight.Number),
		FlightIcao:         flightIcao,
	}

	f.DepartureDelay = stopDelay(&raw.Departure)
	f.ArrivalDelay = stopDelay(&raw.Arrival)

	if raw.Codeshared != nil {
		f.CodesharedAirlineName = raw.Codeshared.Airline.Name
		f.CodesharedAirlineIcao = strings.ToUpper(raw.Codeshared.Airline.ICAOCode)
		f.CodesharedFlightNumber = raw.Codeshared.Flight.Number
		f.CodesharedFlightIcao = strings.ToUpper(raw.Codeshared.Flight.ICAONumber)
	}

	return f
}

// stopDelay prefers the delay the API already computed; when absent it falls
// back to the timestamp delta. Non-positive delays are dropped either way.
func stopDelay(stop *rawStop) string {
	if s := string(stop.Delay); s != "" {
		if n, err := stop.Delay.Int64(); err == nil {
			if n > 0 {
				return stop.Delay.String()
			}
			return ""
		}
	}
	if stop.ScheduledTime == "" {
		return ""
	}
	return provider.DelayMinutes(stop.ScheduledTime, stop.EstimatedTime, stop.ActualTime)
}

package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts covers the timestamp shapes the providers emit: RFC3339,
// aviationstack's zone-less milliseconds form, and aerodatabox's
// space-separated minute form.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
}

// ParseTime parses a provider timestamp, trying the known layouts in order.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// ValidTime reports whether a provider timestamp parses. Scheduled times are
// stored as-is and later compared as timestamps, so an unparseable one must
// not reach storage.
func ValidTime(s string) bool {
	_, err := ParseTime(s)
	return err == nil
}

// DeriveFlightIcao builds the ICAO-prefixed flight code used as the record's
// natural key. Precedence: airline ICAO + number, then callsign, then the
// UNK placeholder + number. Empty result means the record must be dropped.
func DeriveFlightIcao(airlineIcao, flightNumber, callsign string) string {
	airlineIcao = strings.TrimSpace(airlineIcao)
	flightNumber = strings.TrimSpace(flightNumber)
	callsign = strings.TrimSpace(callsign)

	if airlineIcao != "" && airlineIcao != UnknownAirlineIcao && flightNumber != "" {
		return airlineIcao + flightNumber
	}
	if callsign != "" {
		return callsign
	}
	if flightNumber != "" {
		return UnknownAirlineIcao + flightNumber
	}
	return ""
}

// DelayMinutes computes a delay in whole minutes from a scheduled time and
// the best available comparison time (actual preferred over estimated).
// Returns the delay as a decimal string, or "" when no positive delay can be
// derived; zero and negative deltas are treated as no delay.
func DelayMinutes(scheduled, estimated, actual string) string {
	sched, err := ParseTime(scheduled)
	if err != nil {
		return ""
	}

	other := actual
	if strings.TrimSpace(other) == "" {
		other = estimated
	}
	cmp, err := ParseTime(other)
	if err != nil {
		return ""
	}

	mins := int64(math.Round(float64(cmp.Sub(sched).Milliseconds()) / 60000.0))
	if mins <= 0 {
		return ""
	}
	return strconv.FormatInt(mins, 10)
}

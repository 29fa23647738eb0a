package aviationstack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aerodash/flightboard/internal/provider"
)

const defaultBaseURL = "https://api.aviationstack.com/v1"

// Client fetches scheduled flights from the aviationstack timetable API.
// One call covers one direction for one airport; departure and arrival
// airport, delay, and terminal are already structured per flight.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// New creates an aviationstack client.
func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

func (c *Client) Name() string { return "aviationstack" }

// Fetch retrieves and normalizes the timetable for the airport. The API is
// single-direction; an empty hint defaults to departures.
func (c *Client) Fetch(ctx context.Context, airportIcao string, dir provider.Direction) (*provider.FetchResult, error) {
	if dir == provider.DirectionBoth {
		dir = provider.DirectionDeparture
	}

	params := url.Values{
		"iataCode":   {provider.IATAFor(airportIcao)},
		"type":       {string(dir)},
		"access_key": {c.apiKey},
	}
	u := c.baseURL + "/timetable?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("aviationstack: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aviationstack: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &provider.UpstreamError{Provider: "aviationstack", Status: resp.StatusCode, Body: string(body)}
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("aviationstack: decode response: %w", err)
	}

	result := &provider.FetchResult{Raw: len(parsed.Data)}
	for i := range parsed.Data {
		f := normalizeFlight(&parsed.Data[i], dir, airportIcao)
		if f == nil {
			result.Dropped++
			continue
		}
		result.Flights = append(result.Flights, f)
	}
	return result, nil
}

// aviationstack JSON types.

type response struct {
	Data []rawFlight `json:"data"`
}

type rawFlight struct {
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Departure  rawStop        `json:"departure"`
	Arrival    rawStop        `json:"arrival"`
	Airline    rawAirline     `json:"airline"`
	Flight     rawFlightInfo  `json:"flight"`
	Codeshared *rawCodeshared `json:"codeshared"`
}

type rawStop struct {
	IATACode      string      `json:"iataCode"`
	ICAOCode      string      `json:"icaoCode"`
	Terminal      string      `json:"terminal"`
	Delay         json.Number `json:"delay"`
	ScheduledTime string      `json:"scheduledTime"`
	EstimatedTime string      `json:"estimatedTime"`
	ActualTime    string      `json:"actualTime"`
}

type rawAirline struct {
	Name     string `json:"name"`
	IATACode string `json:"iataCode"`
	ICAOCode string `json:"icaoCode"`
}

type rawFlightInfo struct {
	Number     string `json:"number"`
	IATANumber string `json:"iataNumber"`
	ICAONumber string `json:"icaoNumber"`
}

type rawCodeshared struct {
	Airline rawAirline    `json:"airline"`
	Flight  rawFlightInfo `json:"flight"`
}

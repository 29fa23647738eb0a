package aerodatabox

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

const windowTimeFormat = "2006-01-02T15:04"

// Client fetches scheduled flights from the AeroDataBox FIDS API (RapidAPI).
// The API is queried per airport over a bounded forward time window and
// returns departures and arrivals as separate lists, each omitting the
// queried airport's own side.
type Client struct {
	apiKey     string
	apiHost    string
	httpClient *http.Client
	baseURL    string
	window     time.Duration
	now        func() time.Time
}

// New creates an AeroDataBox client. window bounds the forward fetch window;
// the upstream API caps it at 12 hours.
func New(apiKey, apiHost string, window time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		apiHost: apiHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://" + apiHost,
		window:  window,
		now:     time.Now,
	}
}

func (c *Client) Name() string { return "aerodatabox" }

// Fetch retrieves and normalizes flights for the airport. With no direction
// hint it issues two fetches, departures then arrivals, and concatenates the
// results.
func (c *Client) Fetch(ctx context.Context, airportIcao string, dir provider.Direction) (*provider.FetchResult, error) {
	dirs := []provider.Direction{provider.DirectionDeparture, provider.DirectionArrival}
	if dir != provider.DirectionBoth {
		dirs = []provider.Direction{dir}
	}

	iata := provider.IATAFor(airportIcao)
	result := &provider.FetchResult{}
	for _, d := range dirs {
		resp, err := c.fetchWindow(ctx, iata, d)
		if err != nil {
			return nil, err
		}

		raws := resp.Departures
		if d == provider.DirectionArrival {
			raws = resp.Arrivals
		}
		for i := range raws {
			result.Raw++
			f := normalizeFlight(&raws[i], d, airportIcao)
			if f == nil {
				result.Dropped++
				continue
			}
			result.Flights = append(result.Flights, f)
		}
	}
	return result, nil
}

func (c *Client) fetchWindow(ctx context.Context, iata string, dir provider.Direction) (*response, error) {
	from := c.now().UTC()
	to := from.Add(c.window)

	direction := "Departure"
	if dir == provider.DirectionArrival {
		direction = "Arrival"
	}

	params := url.Values{
		"withLeg":        {"true"},
		"withCancelled":  {"true"},
		"withCodeshared": {"true"},
		"direction":      {direction},
	}
	u := fmt.Sprintf("%s/flights/airports/iata/%s/%s/%s?%s",
		c.baseURL, url.PathEscape(iata),
		from.Format(windowTimeFormat), to.Format(windowTimeFormat),
		params.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("aerodatabox: create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aerodatabox: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &provider.UpstreamError{Provider: "aerodatabox", Status: resp.StatusCode, Body: string(body)}
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("aerodatabox: decode response: %w", err)
	}
	return &parsed, nil
}

// AeroDataBox JSON types.

type response struct {
	Departures []rawFlight `json:"departures"`
	Arrivals   []rawFlight `json:"arrivals"`
}

type rawFlight struct {
	Number          string      `json:"number"`
	CallSign        string      `json:"callSign"`
	Status          string      `json:"status"`
	CodeshareStatus string      `json:"codeshareStatus"`
	Airline         *rawAirline `json:"airline"`
	Departure       rawMovement `json:"departure"`
	Arrival         rawMovement `json:"arrival"`
}

type rawAirline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

type rawMovement struct {
	Airport       *rawAirport `json:"airport"`
	ScheduledTime rawTime     `json:"scheduledTime"`
	RevisedTime   rawTime     `json:"revisedTime"`
	RunwayTime    rawTime     `json:"runwayTime"`
	Terminal      string      `json:"terminal"`
}

type rawAirport struct {
	ICAO string `json:"icao"`
	IATA string `json:"iata"`
	Name string `json:"name"`
}

type rawTime struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aerodash/flightboard/internal/types"
)

const (
	SubjectFlightsRefresh = "flights.refresh"
)

// Client represents a NATS client
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a new NATS client
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create stream if it doesn't exist
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     "FLIGHTS_REFRESH",
		Subjects: []string{SubjectFlightsRefresh},
		Storage:  nats.FileStorage,
		MaxAge:   1 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{
		conn: nc,
		js:   js,
	}, nil
}

// PublishRefreshRequest publishes an on-demand refresh request
func (c *Client) PublishRefreshRequest(req *types.RefreshRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	_, err = c.js.Publish(SubjectFlightsRefresh, data)
	if err != nil {
		return fmt.Errorf("failed to publish refresh request: %w", err)
	}

	return nil
}

// SubscribeRefresh subscribes to refresh requests
func (c *Client) SubscribeRefresh(handler func(*types.RefreshRequest)) error {
	_, err := c.js.Subscribe(SubjectFlightsRefresh, func(msg *nats.Msg) {
		var req types.RefreshRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("Error unmarshaling refresh request: %v", err)
			return
		}
		handler(&req)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

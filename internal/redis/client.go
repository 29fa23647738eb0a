package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aerodash/flightboard/internal/types"
)

const (
	statsKey = "stats:flights"

	statsTTL  = 60 * time.Second
	flightTTL = 5 * time.Minute
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client caches query results so the dashboard's hot reads skip the database
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// getData retrieves data from Redis and unmarshals it into the target.
// A cache miss leaves the target untouched and returns nil.
func (c *Client) getData(ctx context.Context, key string, target interface{}, dataType string) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s data: %w", dataType, err)
	}

	return true, nil
}

// StoreStats caches the flight statistics aggregate
func (c *Client) StoreStats(ctx context.Context, stats *types.FlightStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return c.client.Set(ctx, statsKey, data, statsTTL).Err()
}

// GetStats retrieves cached flight statistics. Returns nil on a cache miss.
func (c *Client) GetStats(ctx context.Context) (*types.FlightStats, error) {
	var stats types.FlightStats
	found, err := c.getData(ctx, statsKey, &stats, "stats")
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

// InvalidateStats drops the cached statistics after an ingestion run
func (c *Client) InvalidateStats(ctx context.Context) error {
	return c.client.Del(ctx, statsKey).Err()
}

// StoreFlight caches a single flight detail record
func (c *Client) StoreFlight(ctx context.Context, flight *types.Flight) error {
	data, err := json.Marshal(flight)
	if err != nil {
		return fmt.Errorf("failed to marshal flight: %w", err)
	}

	key := fmt.Sprintf("flight:%d", flight.ID)
	return c.client.Set(ctx, key, data, flightTTL).Err()
}

// GetFlight retrieves a cached flight detail record. Returns nil on a miss.
func (c *Client) GetFlight(ctx context.Context, id int64) (*types.Flight, error) {
	key := fmt.Sprintf("flight:%d", id)
	var flight types.Flight
	found, err := c.getData(ctx, key, &flight, "flight")
	if err != nil || !found {
		return nil, err
	}
	return &flight, nil
}

// DeleteFlight removes a cached flight detail record
func (c *Client) DeleteFlight(ctx context.Context, id int64) error {
	key := fmt.Sprintf("flight:%d", id)
	return c.client.Del(ctx, key).Err()
}

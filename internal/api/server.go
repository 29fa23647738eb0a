package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aerodash/flightboard/internal/provider"
	"github.com/aerodash/flightboard/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// FlightStore is the read surface the API serves from
type FlightStore interface {
	ListFlights(cursor string, limit int, filter types.Filter) (*types.FlightPage, error)
	GetFlightByID(id int64) (*types.Flight, error)
	Stats() (*types.FlightStats, error)
}

// Cache is the slice of the Redis client the API reads through. Misses are
// nil results, not errors.
type Cache interface {
	GetStats(ctx context.Context) (*types.FlightStats, error)
	StoreStats(ctx context.Context, stats *types.FlightStats) error
	GetFlight(ctx context.Context, id int64) (*types.Flight, error)
	StoreFlight(ctx context.Context, flight *types.Flight) error
}

// Publisher forwards refresh requests to the ingestor
type Publisher interface {
	PublishRefreshRequest(req *types.RefreshRequest) error
}

// Server wires the query handlers to storage, cache, and the refresh bus
type Server struct {
	store     FlightStore
	cache     Cache
	publisher Publisher
}

// NewServer creates a Server. cache and publisher may be nil; the handlers
// degrade gracefully without them.
func NewServer(store FlightStore, cache Cache, publisher Publisher) *Server {
	return &Server{store: store, cache: cache, publisher: publisher}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", s.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/flights", s.ListFlights)
		apiGroup.GET("/flights/:id", s.GetFlight)
		apiGroup.GET("/stats", s.GetStats)
		apiGroup.POST("/refresh", s.Refresh)
	}
	return r
}

// Health reports service liveness
// GET /healthz
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListFlights serves one page of the flight board
// GET /api/flights?cursor=xxx&limit=10&filter=all|ontime|delayed
func (s *Server) ListFlights(c *gin.Context) {
	filter := types.Filter(c.DefaultQuery("filter", string(types.FilterAll)))
	if !filter.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be one of all, ontime, delayed"})
		return
	}

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		limit = n
	}

	page, err := s.store.ListFlights(c.Query("cursor"), limit, filter)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetFlight serves a single flight detail record
// GET /api/flights/:id
func (s *Server) GetFlight(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight id"})
		return
	}

	if s.cache != nil {
		if flight, err := s.cache.GetFlight(c.Request.Context(), id); err != nil {
			log.Printf("Warning: flight cache read failed: %v", err)
		} else if flight != nil {
			c.JSON(http.StatusOK, flight)
			return
		}
	}

	flight, err := s.store.GetFlightByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if flight == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "flight not found"})
		return
	}

	if s.cache != nil {
		if err := s.cache.StoreFlight(c.Request.Context(), flight); err != nil {
			log.Printf("Warning: flight cache write failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, flight)
}

// GetStats serves the dashboard aggregate, Redis-first
// GET /api/stats
func (s *Server) GetStats(c *gin.Context) {
	if s.cache != nil {
		if stats, err := s.cache.GetStats(c.Request.Context()); err != nil {
			log.Printf("Warning: stats cache read failed: %v", err)
		} else if stats != nil {
			c.JSON(http.StatusOK, stats)
			return
		}
	}

	stats, err := s.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.cache != nil {
		if err := s.cache.StoreStats(c.Request.Context(), stats); err != nil {
			log.Printf("Warning: stats cache write failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, stats)
}

// Refresh queues an on-demand ingestion run for an airport
// POST /api/refresh?airport=LROP&type=departure
func (s *Server) Refresh(c *gin.Context) {
	if s.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh is not available"})
		return
	}

	airport := c.Query("airport")
	if airport == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airport query parameter is required"})
		return
	}

	dir, err := provider.ParseDirection(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := &types.RefreshRequest{
		RequestID:   uuid.New().String(),
		AirportIcao: airport,
		Type:        string(dir),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishRefreshRequest(req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request_id": req.RequestID})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aerodash/flightboard/internal/api"
	"github.com/aerodash/flightboard/internal/config"
	"github.com/aerodash/flightboard/internal/db"
	"github.com/aerodash/flightboard/internal/nats"
	"github.com/aerodash/flightboard/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		log.Printf("Failed to create database client: %v", err)
		os.Exit(1)
	}

	// The API keeps serving without cache or refresh bus; both are optional.
	var cache api.Cache
	redisClient, err := redis.New(cfg.RedisAddr)
	if err != nil {
		log.Printf("Warning: Redis unavailable, serving uncached: %v", err)
	} else {
		cache = redisClient
	}

	var publisher api.Publisher
	natsClient, err := nats.New(cfg.NATSURL)
	if err != nil {
		log.Printf("Warning: NATS unavailable, refresh endpoint disabled: %v", err)
	} else {
		publisher = natsClient
	}

	server := api.NewServer(dbClient, cache, publisher)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if natsClient != nil {
		natsClient.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
		}
	}
	if err := dbClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
	}
}

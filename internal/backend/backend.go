// Package backend builds the data store and optional event publisher
// from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"greenstash/internal/amqp"
	"greenstash/internal/config"
	"greenstash/internal/services"
	"greenstash/internal/storage"
	"greenstash/internal/storage/memory"
)

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the wired store, the optional event publisher and a
// cleanup function releasing both.
type Result struct {
	Store   services.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Build creates the store selected by cfg.DataBackend and, when an AMQP
// URL is configured, the event publisher. A broker that cannot be
// reached is logged and skipped, local operation never depends on it.
func Build(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backendType := BackendType(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var store services.Store
	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		logger.Info("Initialized memory backend")
	}

	var events *amqp.Client
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			events = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	cleanup := func() error {
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		return store.Close()
	}

	return &Result{Store: store, Events: events, Cleanup: cleanup}, nil
}

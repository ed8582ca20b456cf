// Package postgres owns the database handle and its availability gate. The
// connection is dialed in the background with backoff so a database outage at
// startup or mid-flight never blocks request handling; core operations check
// Available and fail fast with a retryable error instead.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
)

const (
	pingTimeout   = 2 * time.Second
	retryInterval = 5 * time.Second
)

// Connector manages a *sql.DB and tracks whether the database is reachable.
type Connector struct {
	db        *sql.DB
	available atomic.Bool
	logger    *slog.Logger
}

// Open creates the database handle. The handle itself is lazy; Run drives
// the initial connection and ongoing health checks.
func Open(databaseURL string, logger *slog.Logger) (*Connector, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Connector{db: db, logger: logger}, nil
}

// DB returns the underlying handle. Callers should consult Available first.
func (c *Connector) DB() *sql.DB {
	return c.db
}

// Available reports whether the last health check succeeded.
func (c *Connector) Available() bool {
	return c.available.Load()
}

// Health pings the database with a bounded timeout.
func (c *Connector) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

// Run keeps the availability gate current until ctx is cancelled, retrying
// at a fixed interval while the database is unreachable. Reconnection is an
// operational concern independent of request handling; requests observe only
// the gate.
func (c *Connector) Run(ctx context.Context) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	c.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Connector) check(ctx context.Context) {
	err := c.Health(ctx)
	was := c.available.Swap(err == nil)
	switch {
	case err != nil && was:
		c.logger.Error("postgres unavailable", "error", err)
	case err == nil && !was:
		c.logger.Info("postgres available")
	}
}

// Close releases the database handle.
func (c *Connector) Close() error {
	return c.db.Close()
}

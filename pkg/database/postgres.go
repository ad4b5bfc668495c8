// Package database opens the PostgreSQL pool shared by the repositories.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/pkg/config"
)

// DSN renders cfg as a postgres:// URL with credentials escaped.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	q.Set("application_name", "campus-api")
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgres opens the pool and waits for the server, retrying the ping with a
// doubling delay up to cfg.ConnectRetries attempts.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)
	}

	if err := waitReady(ctx, db, cfg.ConnectRetries, time.Second, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func waitReady(ctx context.Context, db pinger, attempts int, delay time.Duration, logger *zap.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		logger.Warn("postgres not ready", zap.Int("attempt", i), zap.Duration("retry_in", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("ping postgres after %d attempts: %w", attempts, err)
}

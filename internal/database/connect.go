package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"bridge-local-platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewConnectionPool creates the PostgreSQL connection pool shared by every
// repository. Credentials are URL-escaped so provisioned passwords with
// special characters survive the DSN.
func NewConnectionPool(cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// Traffic is short request-scoped queries (job board reads, single-row
	// conditional updates, webhook settles), so a small pool suffices.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	log.Printf("Connecting to database %q at %s:%d...", cfg.Name, cfg.Host, cfg.Port)
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection pool established")
	return pool, nil
}

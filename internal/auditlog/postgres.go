// Package auditlog records one row per feed load to Postgres: when it
// happened, how many rows of each table were parsed, and how long it
// took. It is an operational log, not the planner's own index — the
// planner holds its feed and derived indices entirely in memory.
package auditlog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Config holds database connection settings.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MinConns int32
	MaxConns int32
}

// LoadConfigFromEnv builds a Config from the process environment.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("AUDITLOG_DB_PORT", "5432"))
	minConns, _ := strconv.Atoi(getEnv("AUDITLOG_DB_MIN_CONNS", "2"))
	maxConns, _ := strconv.Atoi(getEnv("AUDITLOG_DB_MAX_CONNS", "10"))

	return &Config{
		Host:     getEnv("AUDITLOG_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("AUDITLOG_DB_NAME", "journeyplanner"),
		User:     getEnv("AUDITLOG_DB_USER", "postgres"),
		Password: getEnv("AUDITLOG_DB_PASSWORD", ""),
		SSLMode:  getEnv("AUDITLOG_DB_SSLMODE", "disable"),
		MinConns: int32(minConns),
		MaxConns: int32(maxConns),
	}
}

// GetPool returns the global connection pool, connecting once.
func GetPool() (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = initPool(LoadConfigFromEnv())
	})
	return pool, poolErr
}

// InitPoolWithConfig initializes the pool with a caller-supplied
// config, bypassing the environment (useful for tests).
func InitPoolWithConfig(config *Config) (*pgxpool.Pool, error) {
	return initPool(config)
}

func initPool(config *Config) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, config.Port, config.Database, config.User, config.Password, config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("auditlog: parse connection string: %w", err)
	}
	poolConfig.MinConns = config.MinConns
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("auditlog: create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("auditlog: ping database: %w", err)
	}
	return p, nil
}

// Close releases the connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// Schema is the DDL for the audit log table, run once at deployment
// time; the planner never creates it itself.
const Schema = `
CREATE TABLE IF NOT EXISTS feed_load_log (
	id           uuid PRIMARY KEY,
	feed_dir     text NOT NULL,
	loaded_at    timestamptz NOT NULL,
	duration_ms  bigint NOT NULL,
	stop_count       integer NOT NULL,
	route_count      integer NOT NULL,
	trip_count       integer NOT NULL,
	stop_time_count  integer NOT NULL,
	calendar_count   integer NOT NULL,
	exception_count  integer NOT NULL
)`

// FeedCounts is the row counts of one loaded feed, used to populate a
// feed_load_log row.
type FeedCounts struct {
	Stops      int
	Routes     int
	Trips      int
	StopTimes  int
	Calendars  int
	Exceptions int
}

// RecordFeedLoad inserts one row describing a completed feed load.
func RecordFeedLoad(ctx context.Context, feedDir string, counts FeedCounts, duration time.Duration) error {
	p, err := GetPool()
	if err != nil {
		return err
	}

	_, err = p.Exec(ctx, `
		INSERT INTO feed_load_log
			(id, feed_dir, loaded_at, duration_ms, stop_count, route_count, trip_count, stop_time_count, calendar_count, exception_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(), feedDir, time.Now().UTC(), duration.Milliseconds(),
		counts.Stops, counts.Routes, counts.Trips, counts.StopTimes, counts.Calendars, counts.Exceptions,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert feed_load_log row: %w", err)
	}
	return nil
}

// HealthCheck pings the database connection.
func HealthCheck(ctx context.Context) error {
	p, err := GetPool()
	if err != nil {
		return fmt.Errorf("auditlog: pool not initialized: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("auditlog: ping failed: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

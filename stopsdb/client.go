package stopsdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	_ "modernc.org/sqlite"          // Pure Go SQLite driver

	"koox.dev/busrouter/internal/appconf"
	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/routing"
)

//go:embed schema.sql
var ddl string

// Client owns the SQLite connection holding the editable stop dataset.
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
}

// NewClient opens the database and applies the schema.
func NewClient(config Config) (*Client, error) {
	if config.Env == appconf.Test && !config.inMemory() {
		return nil, fmt.Errorf("test database must use in-memory storage, please set DBPath to ':memory:'")
	}

	switch config.driverName() {
	case DriverModernc, DriverMattn:
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", config.Driver)
	}

	db, err := sql.Open(config.driverName(), dsn(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.inMemory() {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
	}
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	client := &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
	}

	if config.verbose {
		logger := slog.Default().With(slog.String("component", "stopsdb"))
		logging.LogOperation(logger, "stops_database_opened",
			slog.String("path", config.DBPath),
			slog.String("driver", config.driverName()))
		if err := client.LogSchema(logger); err != nil {
			logging.LogError(logger, "failed to log schema", err)
		}
	}

	return client, nil
}

func dsn(config Config) string {
	if config.inMemory() {
		return ":memory:"
	}
	if config.driverName() == DriverMattn {
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", config.DBPath, DefaultBusyTimeoutMs)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", config.DBPath, DefaultBusyTimeoutMs)
}

// Close releases the database.
func (c *Client) Close() error {
	return c.DB.Close()
}

// LoadStops returns every stored stop in dataset order. It makes Client a
// routing.Loader.
func (c *Client) LoadStops(ctx context.Context) ([]routing.Stop, error) {
	return c.Queries.ListStops(ctx)
}

// ImportStops replaces the stored dataset and records where it came from.
func (c *Client) ImportStops(ctx context.Context, source string, stops []routing.Stop) error {
	if err := c.Queries.ReplaceAll(ctx, stops); err != nil {
		return err
	}
	if err := c.Queries.SetImportMetadata(ctx, source, len(stops), time.Now()); err != nil {
		return err
	}

	if c.config.verbose {
		logging.LogOperation(slog.Default().With(slog.String("component", "stopsdb")), "stops_imported",
			slog.String("source", source),
			slog.Int("stops", len(stops)))
	}
	return nil
}

// SeedIfEmpty imports from loader only when the database has no stops, so
// edits made through the API survive restarts. It reports whether it imported.
func (c *Client) SeedIfEmpty(ctx context.Context, source string, loader routing.Loader) (bool, error) {
	count, err := c.Queries.CountStops(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	stops, err := loader.LoadStops(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading seed dataset: %w", err)
	}
	if err := c.ImportStops(ctx, source, stops); err != nil {
		return false, err
	}
	return true, nil
}

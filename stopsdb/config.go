package stopsdb

import "koox.dev/busrouter/internal/appconf"

const (
	// DriverModernc is the pure Go SQLite driver.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo SQLite driver.
	DriverMattn = "sqlite3"

	// DefaultBusyTimeoutMs is how long a writer waits on a locked file database.
	DefaultBusyTimeoutMs = 5000
)

// Config holds configuration options for the Client
type Config struct {
	// Database configuration
	DBPath  string              // Path to SQLite database file, or ":memory:"
	Env     appconf.Environment // Environment name: development, test, production.
	Driver  string              // DriverModernc (default) or DriverMattn
	verbose bool                // Enable verbose logging
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Env:     env,
		Driver:  DriverModernc,
		verbose: verbose,
	}
}

// WithDriver returns a copy of c using driver; empty keeps the default.
func (c Config) WithDriver(driver string) Config {
	if driver != "" {
		c.Driver = driver
	}
	return c
}

func (c Config) driverName() string {
	if c.Driver == "" {
		return DriverModernc
	}
	return c.Driver
}

func (c Config) inMemory() bool {
	return c.DBPath == ":memory:"
}

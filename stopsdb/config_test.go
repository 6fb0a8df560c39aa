package stopsdb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"koox.dev/busrouter/internal/appconf"
)

func TestNewConfig(t *testing.T) {
	config := NewConfig("/path/to/stops.db", appconf.Production, true)

	assert.Equal(t, "/path/to/stops.db", config.DBPath, "DBPath should match input")
	assert.Equal(t, appconf.Production, config.Env, "Env should match input")
	assert.True(t, config.verbose, "verbose should match input")
	assert.Equal(t, DriverModernc, config.Driver)
}

func TestConfigWithDriver(t *testing.T) {
	config := NewConfig(":memory:", appconf.Test, false)

	assert.Equal(t, DriverMattn, config.WithDriver(DriverMattn).Driver)
	assert.Equal(t, DriverModernc, config.WithDriver("").Driver)
	// The receiver is not modified.
	assert.Equal(t, DriverModernc, config.Driver)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"memory", Config{DBPath: ":memory:"}, ":memory:"},
		{"modernc file", Config{DBPath: "/data/stops.db", Driver: DriverModernc}, "file:/data/stops.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"mattn file", Config{DBPath: "/data/stops.db", Driver: DriverMattn}, "file:/data/stops.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"default driver", Config{DBPath: "stops.db"}, "file:stops.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dsn(tt.config))
		})
	}
}

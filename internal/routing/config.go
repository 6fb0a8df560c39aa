package routing

import "time"

type Config struct {
	// Source is a description of where the loader reads from, for logs.
	Source          string
	SearchOptions   SearchOptions
	RefreshInterval time.Duration
	// Verbose logs every successful snapshot swap. Failures are always logged.
	Verbose bool
}

// refreshEnabled reports whether the periodic updater should run.
func (config Config) refreshEnabled() bool {
	return config.RefreshInterval > 0
}

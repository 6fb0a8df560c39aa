package app

import (
	"log/slog"

	"koox.dev/busrouter/internal/appconf"
	"koox.dev/busrouter/internal/clock"
	"koox.dev/busrouter/internal/events"
	"koox.dev/busrouter/internal/metrics"
	"koox.dev/busrouter/internal/routing"
	"koox.dev/busrouter/stopsdb"
)

// Application holds the dependencies shared by the HTTP handlers.
type Application struct {
	Config        appconf.Config
	RoutingConfig appconf.RoutingConfigData
	Logger        *slog.Logger
	Manager       *routing.Manager
	Store         *stopsdb.Client
	Metrics       *metrics.Collector
	Events        events.Publisher
	Clock         clock.Clock
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"koox.dev/busrouter/internal/app"
	"koox.dev/busrouter/internal/appconf"
	"koox.dev/busrouter/internal/clock"
	"koox.dev/busrouter/internal/dataset"
	"koox.dev/busrouter/internal/events"
	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/metrics"
	"koox.dev/busrouter/internal/restapi"
	"koox.dev/busrouter/internal/routing"
	"koox.dev/busrouter/internal/webui"
	"koox.dev/busrouter/stopsdb"
)

const buildTimeout = 2 * time.Minute

// ParseAPIKeys splits a comma-separated string of API keys and trims whitespace from each key.
// Returns an empty slice if the input is empty.
func ParseAPIKeys(apiKeysFlag string) []string {
	if apiKeysFlag == "" {
		return []string{}
	}

	keys := strings.Split(apiKeysFlag, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

func createClock(env appconf.Environment) clock.Clock {
	if env == appconf.Test {
		return clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	}
	return clock.RealClock{}
}

// BuildApplication opens the stop store, seeds it from the dataset when it is
// empty, builds the first routing snapshot and connects the change bus.
func BuildApplication(cfg appconf.Config, routingCfg appconf.RoutingConfigData) (*app.Application, error) {
	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	storeCfg := stopsdb.NewConfig(routingCfg.DataPath, routingCfg.Env, routingCfg.Verbose).WithDriver(routingCfg.DBDriver)
	store, err := stopsdb.NewClient(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open stop store: %w", err)
	}

	source := dataset.Source{
		URL:             routingCfg.DatasetURL,
		AuthHeaderKey:   routingCfg.DatasetAuthHeaderKey,
		AuthHeaderValue: routingCfg.DatasetAuthHeaderValue,
	}

	if routingCfg.Reimport {
		stops, err := source.LoadStops(ctx)
		if err == nil {
			err = store.ImportStops(ctx, source.URL, stops)
		}
		if err != nil {
			logging.SafeCloseWithLogging(store, logger, "stop_store")
			return nil, fmt.Errorf("failed to import dataset: %w", err)
		}
	} else if _, err := store.SeedIfEmpty(ctx, source.URL, source); err != nil {
		logging.SafeCloseWithLogging(store, logger, "stop_store")
		return nil, fmt.Errorf("failed to seed stop store: %w", err)
	}

	collector := metrics.NewCollector(routingCfg.BusChangePenalty, routingCfg.RefreshInterval)

	manager, err := routing.NewManager(ctx, routing.Config{
		Source: routingCfg.DataPath,
		SearchOptions: routing.SearchOptions{
			BusChangePenalty: routingCfg.BusChangePenalty,
			MaxExpansions:    routingCfg.MaxExpansions,
		},
		RefreshInterval: routingCfg.RefreshInterval,
		Verbose:         routingCfg.Verbose,
	}, store)
	if err != nil {
		logging.SafeCloseWithLogging(store, logger, "stop_store")
		return nil, fmt.Errorf("failed to build routing snapshot: %w", err)
	}

	// The initial load ran before anyone could observe it.
	stats := manager.Statistics()
	collector.ObserveReload(routing.ReloadResult{Version: stats.Version, Stops: stats.Stops, Routes: stats.Routes})
	manager.OnReload(collector.ObserveReload)

	coreApp := &app.Application{
		Config:        cfg,
		RoutingConfig: routingCfg,
		Logger:        logger,
		Manager:       manager,
		Store:         store,
		Metrics:       collector,
		Events:        events.NoopPublisher{},
		Clock:         createClock(cfg.Env),
	}

	if cfg.NatsURL != "" {
		bus, err := connectChangeBus(cfg.NatsURL, coreApp)
		if err != nil {
			shutdownApplication(coreApp)
			return nil, err
		}
		coreApp.Events = bus
	}

	if routingCfg.Reimport {
		msg := events.StopsChanged{Action: events.ActionImport, Timestamp: coreApp.Clock.Now()}
		if err := coreApp.Events.PublishStopsChanged(ctx, msg); err != nil {
			logging.LogError(logger, "failed to announce import", err)
		}
	}

	if routingCfg.Verbose {
		manager.PrintStatistics()
	}

	return coreApp, nil
}

// connectChangeBus reloads the snapshot whenever another instance edits the
// shared store.
func connectChangeBus(url string, coreApp *app.Application) (*events.NATSBus, error) {
	bus, err := events.NewNATSBus(url, coreApp.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger := coreApp.Logger.With(slog.String("component", "change_bus"))
	err = bus.SubscribeStopsChanged(func(msg events.StopsChanged) {
		logging.LogOperation(logger, "remote_stops_changed",
			slog.String("instance", msg.Instance),
			slog.String("action", msg.Action),
			slog.Int("stop_id", msg.StopID))

		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()
		if err := coreApp.Manager.ForceUpdate(ctx); err != nil {
			logging.LogError(logger, "reload after remote change failed", err)
		}
	})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", events.StopsChangedSubject, err)
	}
	return bus, nil
}

// CreateServer creates and configures the HTTP server with routes and middleware.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	webUI := webui.NewWebUI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	handler := api.WithSecurityHeaders(mux)
	requestLogger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)
	handler = restapi.NewRequestLoggingMiddleware(requestLogger, coreApp.Metrics)(handler)
	// Outermost so the request id is visible to the logger.
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down the server and every application resource.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger
	logger.Info("starting server", "addr", srv.Addr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		api.Shutdown()
		shutdownApplication(coreApp)
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	api.Shutdown()
	shutdownApplication(coreApp)
	if err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func shutdownApplication(coreApp *app.Application) {
	if coreApp.Events != nil {
		coreApp.Events.Close()
	}
	if coreApp.Manager != nil {
		coreApp.Manager.Shutdown()
	}
	if coreApp.Store != nil {
		logging.SafeCloseWithLogging(coreApp.Store, coreApp.Logger, "stop_store")
	}
}

// dumpConfigJSON writes the effective configuration in config-file form with
// secrets redacted.
func dumpConfigJSON(w io.Writer, cfg appconf.Config, routingCfg appconf.RoutingConfigData) error {
	feed := map[string]string{
		"url": routingCfg.DatasetURL,
	}
	if routingCfg.DatasetAuthHeaderKey != "" {
		feed["auth-header-name"] = routingCfg.DatasetAuthHeaderKey
		feed["auth-header-value"] = "***REDACTED***"
	}

	apiKeys := make([]string, len(cfg.ApiKeys))
	for i := range cfg.ApiKeys {
		apiKeys[i] = "***REDACTED***"
	}

	jsonConfig := map[string]interface{}{
		"port":               cfg.Port,
		"env":                cfg.Env.String(),
		"api-keys":           apiKeys,
		"rate-limit":         cfg.RateLimit,
		"dataset":            feed,
		"data-path":          routingCfg.DataPath,
		"db-driver":          routingCfg.DBDriver,
		"max-expansions":     routingCfg.MaxExpansions,
		"bus-change-penalty": routingCfg.BusChangePenalty,
	}
	if routingCfg.RefreshInterval > 0 {
		jsonConfig["refresh-interval"] = routingCfg.RefreshInterval.String()
	}
	if cfg.NatsURL != "" {
		jsonConfig["nats-url"] = cfg.NatsURL
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonConfig)
}

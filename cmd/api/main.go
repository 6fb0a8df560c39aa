package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"koox.dev/busrouter/internal/appconf"
)

func main() {
	var cfg appconf.Config
	var routingCfg appconf.RoutingConfigData
	var apiKeysFlag string
	var envFlag string
	var configFile string
	var dumpConfig bool

	flag.StringVar(&configFile, "f", "", "Path to a JSON or YAML config file; other settings flags are ignored when set")
	flag.BoolVar(&dumpConfig, "dump-config", false, "Print the effective configuration as JSON and exit")
	flag.BoolVar(&routingCfg.Reimport, "reimport", false, "Replace the stored stops with the dataset before serving")

	flag.IntVar(&cfg.Port, "port", appconf.DefaultPort, "API server port")
	flag.StringVar(&envFlag, "env", "development", "Environment (development|test|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "test", "Comma Separated API Keys (test, etc)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", appconf.DefaultRateLimit, "Requests per second per API key for rate limiting")
	flag.StringVar(&cfg.NatsURL, "nats-url", "", "Optional NATS server URL used to share stop edits between instances")
	flag.StringVar(&routingCfg.DatasetURL, "dataset-url", appconf.DefaultDatasetURL, "Path or URL of the stop dataset (JSON, gzipped JSON or GTFS zip)")
	flag.StringVar(&routingCfg.DatasetAuthHeaderKey, "dataset-auth-header-name", "", "Optional header name sent when fetching the dataset")
	flag.StringVar(&routingCfg.DatasetAuthHeaderValue, "dataset-auth-header-value", "", "Optional header value sent when fetching the dataset")
	flag.StringVar(&routingCfg.DataPath, "data-path", appconf.DefaultDataPath, "Path to the SQLite database holding the editable stops")
	flag.StringVar(&routingCfg.DBDriver, "db-driver", appconf.DefaultDBDriver, "SQLite driver (sqlite|sqlite3)")
	flag.DurationVar(&routingCfg.RefreshInterval, "refresh-interval", 0, "Rebuild the routing snapshot from the store this often (0 disables)")
	flag.IntVar(&routingCfg.MaxExpansions, "max-expansions", 0, "Abort a route search after this many expanded states (0 is unlimited)")
	flag.Float64Var(&routingCfg.BusChangePenalty, "bus-change-penalty", appconf.DefaultBusChangePenalty, "Cost added for each change of bus")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if configFile != "" {
		jsonConfig, err := appconf.LoadFromFile(configFile)
		if err != nil {
			logger.Error("failed to load config file", "path", configFile, "error", err)
			os.Exit(1)
		}
		reimport := routingCfg.Reimport
		cfg = jsonConfig.ToAppConfig()
		routingCfg = jsonConfig.ToRoutingConfigData()
		routingCfg.Reimport = reimport
	} else {
		cfg.Verbose = true
		routingCfg.Verbose = true
		cfg.ApiKeys = ParseAPIKeys(apiKeysFlag)
		cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
		routingCfg.Env = cfg.Env
	}

	appconf.LoadDotEnv(".env")
	appconf.ApplyEnvOverrides(&cfg, &routingCfg)

	if err := validateFlags(cfg, routingCfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if dumpConfig {
		if err := dumpConfigJSON(os.Stdout, cfg, routingCfg); err != nil {
			logger.Error("failed to dump config", "error", err)
			os.Exit(1)
		}
		return
	}

	coreApp, err := BuildApplication(cfg, routingCfg)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)

	if err := Run(context.Background(), srv, coreApp, api); err != nil {
		coreApp.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func validateFlags(cfg appconf.Config, routingCfg appconf.RoutingConfigData) error {
	if len(cfg.ApiKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}
	for _, key := range cfg.ApiKeys {
		if key == "" {
			return fmt.Errorf("api keys cannot be empty")
		}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", cfg.Port)
	}
	if cfg.RateLimit < 1 {
		return fmt.Errorf("rate-limit must be at least 1, got %d", cfg.RateLimit)
	}
	if routingCfg.DatasetURL == "" {
		return fmt.Errorf("dataset-url is required")
	}
	if (routingCfg.DatasetAuthHeaderKey == "") != (routingCfg.DatasetAuthHeaderValue == "") {
		return fmt.Errorf("dataset auth header name and value must be provided together")
	}
	if routingCfg.RefreshInterval < 0 {
		return fmt.Errorf("refresh-interval must not be negative")
	}
	if routingCfg.RefreshInterval > 0 && routingCfg.RefreshInterval < time.Second {
		return fmt.Errorf("refresh-interval must be at least 1s, got %s", routingCfg.RefreshInterval)
	}
	if routingCfg.MaxExpansions < 0 {
		return fmt.Errorf("max-expansions must not be negative")
	}
	if routingCfg.BusChangePenalty < 0 {
		return fmt.Errorf("bus-change-penalty must not be negative")
	}
	return nil
}

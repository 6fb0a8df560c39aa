package appconf

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read after a .env file (if any) is loaded.
const (
	EnvAPIKeys     = "BUSROUTER_API_KEYS"
	EnvNatsURL     = "BUSROUTER_NATS_URL"
	EnvDatasetAuth = "BUSROUTER_DATASET_AUTH_VALUE"
)

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set are not overwritten.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnvOverrides overwrites secrets in cfg and routingCfg with values from
// the environment, so they need not appear on the command line.
func ApplyEnvOverrides(cfg *Config, routingCfg *RoutingConfigData) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKeys)); v != "" {
		keys := strings.Split(v, ",")
		cfg.ApiKeys = make([]string, 0, len(keys))
		for _, k := range keys {
			if k = strings.TrimSpace(k); k != "" {
				cfg.ApiKeys = append(cfg.ApiKeys, k)
			}
		}
	}
	if v := os.Getenv(EnvNatsURL); v != "" {
		cfg.NatsURL = v
	}
	if v := os.Getenv(EnvDatasetAuth); v != "" && routingCfg != nil {
		routingCfg.DatasetAuthHeaderValue = v
	}
}

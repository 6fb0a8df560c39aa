package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const maxConfigFileSize = 10 * 1024 * 1024

const (
	DefaultPort             = 4000
	DefaultRateLimit        = 100
	DefaultDatasetURL       = "./testdata/koox_stops_routes.json"
	DefaultDataPath         = "./busrouter.db"
	DefaultDBDriver         = "sqlite"
	DefaultBusChangePenalty = 100.0
)

// DatasetFeed describes where the stop dataset is read from.
type DatasetFeed struct {
	URL             string `json:"url" yaml:"url"`
	AuthHeaderName  string `json:"auth-header-name" yaml:"auth-header-name"`
	AuthHeaderValue string `json:"auth-header-value" yaml:"auth-header-value"`
}

// JSONConfig is the on-disk configuration. Despite the name it is also
// decoded from YAML files.
type JSONConfig struct {
	Port             int         `json:"port" yaml:"port"`
	Env              string      `json:"env" yaml:"env"`
	ApiKeys          []string    `json:"api-keys" yaml:"api-keys"`
	RateLimit        int         `json:"rate-limit" yaml:"rate-limit"`
	Dataset          DatasetFeed `json:"dataset" yaml:"dataset"`
	DataPath         string      `json:"data-path" yaml:"data-path"`
	DBDriver         string      `json:"db-driver" yaml:"db-driver" validate:"omitempty,oneof=sqlite sqlite3"`
	RefreshInterval  string      `json:"refresh-interval" yaml:"refresh-interval"`
	MaxExpansions    int         `json:"max-expansions" yaml:"max-expansions" validate:"gte=0"`
	BusChangePenalty float64     `json:"bus-change-penalty" yaml:"bus-change-penalty" validate:"gte=0"`
	NatsURL          string      `json:"nats-url" yaml:"nats-url" validate:"omitempty,url"`
}

// RoutingConfigData carries the dataset and search settings extracted from a
// config file. cmd/api turns it into a routing.Config.
type RoutingConfigData struct {
	DatasetURL             string
	DatasetAuthHeaderKey   string
	DatasetAuthHeaderValue string
	DataPath               string
	DBDriver               string
	RefreshInterval        time.Duration
	MaxExpansions          int
	BusChangePenalty       float64
	Env                    Environment
	Verbose                bool
	// Reimport replaces the stored stops with the dataset at startup.
	Reimport bool
}

// LoadFromFile reads, defaults and validates a JSON or YAML config file.
func LoadFromFile(path string) (*JSONConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config JSONConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *JSONConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if len(c.ApiKeys) == 0 {
		c.ApiKeys = []string{"test"}
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Dataset.URL == "" {
		c.Dataset.URL = DefaultDatasetURL
	}
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	if c.DBDriver == "" {
		c.DBDriver = DefaultDBDriver
	}
	if c.BusChangePenalty == 0 {
		c.BusChangePenalty = DefaultBusChangePenalty
	}
}

func (c *JSONConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Env {
	case "development", "test", "production":
	default:
		return fmt.Errorf("env must be one of: development, test, production (got %q)", c.Env)
	}

	if c.RateLimit < 1 {
		return fmt.Errorf("rate-limit must be at least 1, got %d", c.RateLimit)
	}

	if len(c.ApiKeys) == 0 {
		return fmt.Errorf("api-keys cannot be empty")
	}
	seen := make(map[string]bool, len(c.ApiKeys))
	for _, key := range c.ApiKeys {
		if key == "" {
			return fmt.Errorf("api-keys cannot contain empty strings")
		}
		if seen[key] {
			return fmt.Errorf("duplicate API key found: %s", key)
		}
		seen[key] = true
	}

	if c.DataPath != "" && c.DataPath != ":memory:" && hasPathTraversal(c.DataPath) {
		return fmt.Errorf("data-path must not contain path traversal: %s", c.DataPath)
	}

	if c.Dataset.URL != "" {
		lower := strings.ToLower(c.Dataset.URL)
		if strings.HasPrefix(lower, "file://") {
			return fmt.Errorf("dataset url: file:// URLs are not allowed, use a plain path instead")
		}
		isURL := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
		if !isURL && hasPathTraversal(c.Dataset.URL) {
			return fmt.Errorf("dataset url must not contain path traversal: %s", c.Dataset.URL)
		}
	}

	if (c.Dataset.AuthHeaderName == "") != (c.Dataset.AuthHeaderValue == "") {
		return fmt.Errorf("dataset: both auth-header-name and auth-header-value must be provided together")
	}

	if c.RefreshInterval != "" {
		d, err := time.ParseDuration(c.RefreshInterval)
		if err != nil {
			return fmt.Errorf("refresh-interval is not a valid duration: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("refresh-interval must be at least 1m, got %s", d)
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	return nil
}

func hasPathTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// ToAppConfig converts the file config into the runtime Config.
func (c *JSONConfig) ToAppConfig() Config {
	return Config{
		Port:      c.Port,
		Env:       EnvFlagToEnvironment(c.Env),
		ApiKeys:   c.ApiKeys,
		Verbose:   true,
		RateLimit: c.RateLimit,
		NatsURL:   c.NatsURL,
	}
}

// ToRoutingConfigData extracts the dataset and search settings.
func (c *JSONConfig) ToRoutingConfigData() RoutingConfigData {
	var refresh time.Duration
	if c.RefreshInterval != "" {
		// validate() has already rejected malformed values.
		refresh, _ = time.ParseDuration(c.RefreshInterval)
	}

	return RoutingConfigData{
		DatasetURL:             c.Dataset.URL,
		DatasetAuthHeaderKey:   c.Dataset.AuthHeaderName,
		DatasetAuthHeaderValue: c.Dataset.AuthHeaderValue,
		DataPath:               c.DataPath,
		DBDriver:               c.DBDriver,
		RefreshInterval:        refresh,
		MaxExpansions:          c.MaxExpansions,
		BusChangePenalty:       c.BusChangePenalty,
		Env:                    EnvFlagToEnvironment(c.Env),
		Verbose:                true,
	}
}

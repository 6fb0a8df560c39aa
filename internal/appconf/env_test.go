package appconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKeys, " alpha, beta ,,gamma ")
	t.Setenv(EnvNatsURL, "nats://nats.internal:4222")
	t.Setenv(EnvDatasetAuth, "Bearer from-env")

	cfg := Config{ApiKeys: []string{"test"}}
	routingCfg := RoutingConfigData{DatasetAuthHeaderValue: "Bearer from-flag"}

	ApplyEnvOverrides(&cfg, &routingCfg)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.ApiKeys)
	assert.Equal(t, "nats://nats.internal:4222", cfg.NatsURL)
	assert.Equal(t, "Bearer from-env", routingCfg.DatasetAuthHeaderValue)
}

func TestApplyEnvOverrides_NothingSet(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")
	t.Setenv(EnvNatsURL, "")
	t.Setenv(EnvDatasetAuth, "")

	cfg := Config{ApiKeys: []string{"test"}, NatsURL: "nats://keep"}
	ApplyEnvOverrides(&cfg, nil)

	assert.Equal(t, []string{"test"}, cfg.ApiKeys)
	assert.Equal(t, "nats://keep", cfg.NatsURL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BUSROUTER_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BUSROUTER_TEST_DOTENV") })

	LoadDotEnv(envFile)
	assert.Equal(t, "loaded", os.Getenv("BUSROUTER_TEST_DOTENV"))

	// Missing files are ignored.
	LoadDotEnv(filepath.Join(dir, "missing.env"))
}

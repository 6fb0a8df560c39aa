package stopsdb

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koox.dev/busrouter/internal/appconf"
	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/routing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleStops() []routing.Stop {
	return []routing.Stop{
		{ID: 3, Name: "Malecon", Latitude: 19.85, Longitude: -90.54, Routes: []string{"3", "Lerma"}},
		{ID: 1, Name: "Centro Historico", Latitude: 19.8448, Longitude: -90.5365, Routes: []string{"1", "3"}},
		{ID: 2, Name: "Mercado Principal", Latitude: 19.8432, Longitude: -90.531, Routes: []string{"1", "2"}},
	}
}

func TestNewClient_InvalidConfigHandling(t *testing.T) {
	client, err := NewClient(NewConfig("/tmp/invalid_test_db.sqlite", appconf.Test, false))
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "test database must use in-memory storage")
}

func TestNewClient_UnsupportedDriver(t *testing.T) {
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false).WithDriver("postgres"))
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNewClient_ValidConfig(t *testing.T) {
	client := newTestClient(t)

	assert.NotNil(t, client.DB)
	assert.NotNil(t, client.Queries)
	assert.Equal(t, 1, client.DB.Stats().MaxOpenConnections)

	counts, err := client.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"stops": 0, "stop_routes": 0, "import_metadata": 0}, counts)
}

func TestNewClient_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stops.db")
	ctx := context.Background()

	client, err := NewClient(NewConfig(path, appconf.Development, false))
	require.NoError(t, err)
	require.NoError(t, client.ImportStops(ctx, "test", sampleStops()))
	require.NoError(t, client.Close())

	client, err = NewClient(NewConfig(path, appconf.Development, false))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	n, err := client.Queries.CountStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportStopsRecordsMetadata(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Queries.GetImportMetadata(ctx)
	assert.ErrorIs(t, err, routing.ErrNotFound)

	require.NoError(t, client.ImportStops(ctx, "testdata/koox.json", sampleStops()))

	meta, err := client.Queries.GetImportMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "testdata/koox.json", meta.Source)
	assert.Equal(t, 3, meta.StopCount)
	assert.False(t, meta.ImportedAt.IsZero())

	counts, err := client.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, 3, counts["stops"])
	assert.Equal(t, 6, counts["stop_routes"])
	assert.Equal(t, 1, counts["import_metadata"])
}

func TestLogSchema(t *testing.T) {
	client := newTestClient(t)

	var buf bytes.Buffer
	require.NoError(t, client.LogSchema(logging.NewStructuredLogger(&buf, slog.LevelInfo)))

	out := buf.String()
	assert.Contains(t, out, "schema_object")
	assert.Contains(t, out, `"name":"stops"`)
	assert.Contains(t, out, `"name":"idx_stops_seq"`)
	assert.Contains(t, out, "CREATE TABLE")
}

func TestSeedIfEmpty(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	calls := 0
	loader := routing.LoaderFunc(func(context.Context) ([]routing.Stop, error) {
		calls++
		return sampleStops(), nil
	})

	seeded, err := client.SeedIfEmpty(ctx, "seed", loader)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = client.SeedIfEmpty(ctx, "seed", loader)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 1, calls)
}

func TestClientIsRoutingLoader(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.ImportStops(ctx, "test", sampleStops()))

	var loader routing.Loader = client
	m, err := routing.NewManager(ctx, routing.Config{Source: "sqlite"}, loader)
	require.NoError(t, err)
	defer m.Shutdown()

	plan, err := m.Engine().PlanTrip(ctx, 19.85, -90.54, 19.8432, -90.531)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.BusCount)

	_, err = client.Queries.DeleteStop(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, m.ForceUpdate(ctx))

	_, err = m.Engine().PlanTrip(ctx, 19.85, -90.54, 19.8432, -90.531)
	assert.ErrorIs(t, err, routing.ErrNoPath)
}

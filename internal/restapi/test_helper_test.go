package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"koox.dev/busrouter/internal/app"
	"koox.dev/busrouter/internal/appconf"
	"koox.dev/busrouter/internal/clock"
	"koox.dev/busrouter/internal/dataset"
	"koox.dev/busrouter/internal/events"
	"koox.dev/busrouter/internal/metrics"
	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/routing"
	"koox.dev/busrouter/stopsdb"
)

const testAPIKey = "TEST"

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.StopsChanged
}

func (p *recordingPublisher) PublishStopsChanged(_ context.Context, msg events.StopsChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) messages() []events.StopsChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StopsChanged(nil), p.msgs...)
}

func newTestApplication(t *testing.T) *app.Application {
	t.Helper()

	return &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{testAPIKey},
			RateLimit: 1000,
		},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics.NewCollector(routing.DefaultBusChangePenalty, 0),
		Events:  &recordingPublisher{},
		Clock:   clock.NewMockClock(testNow),
	}
}

// createTestApi builds an API over an in-memory store seeded with the
// Campeche test dataset.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	ctx := context.Background()

	store, err := stopsdb.NewClient(stopsdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	source := dataset.Source{URL: filepath.Join("..", "..", "testdata", "koox_stops_routes.json")}
	seeded, err := store.SeedIfEmpty(ctx, source.URL, source)
	require.NoError(t, err)
	require.True(t, seeded)

	manager, err := routing.NewManager(ctx, routing.Config{Source: "test"}, store)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	application := newTestApplication(t)
	application.Store = store
	application.Manager = manager
	manager.OnReload(application.Metrics.ObserveReload)

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

// createTestApiWithEngine serves a fixed engine with no store behind it.
func createTestApiWithEngine(t *testing.T, engine *routing.Engine) *RestAPI {
	t.Helper()

	application := newTestApplication(t)
	application.Manager = routing.NewManagerWithEngine(engine, nil)
	t.Cleanup(application.Manager.Shutdown)

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

func serveRequest(t *testing.T, api *RestAPI, method, target string, body interface{}) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.SetupAPIRoutes())
	defer server.Close()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+target, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model models.ResponseModel
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &model), string(raw))
	}
	return resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, target string) (*http.Response, models.ResponseModel) {
	t.Helper()
	return serveRequest(t, api, http.MethodGet, target, nil)
}

func serveAndRetrieveEndpoint(t *testing.T, target string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, target)
	return api, resp, model
}

func dataMap(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", model.Data)
	return data
}

func dataEntry(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	entry, ok := dataMap(t, model)["entry"].(map[string]interface{})
	require.True(t, ok)
	return entry
}

func dataList(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	list, ok := dataMap(t, model)["list"].([]interface{})
	require.True(t, ok)
	return list
}

func collectIDs(t *testing.T, list []interface{}) []int {
	t.Helper()
	ids := make([]int, 0, len(list))
	for _, item := range list {
		object, ok := item.(map[string]interface{})
		require.True(t, ok)
		id, ok := object["id"].(float64)
		require.True(t, ok)
		ids = append(ids, int(id))
	}
	return ids
}

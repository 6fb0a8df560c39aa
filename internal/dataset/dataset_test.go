package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koox.dev/busrouter/internal/routing"
)

const sampleJSON = `[
  {"id": 1, "stop_name": "Centro", "latitude": 19.8448, "longitude": -90.5365, "routes": [1, 3]},
  {"id": 2, "stop_name": " Malecon ", "latitude": 19.85, "longitude": -90.54, "routes": ["Lerma", 2.5]}
]`

func TestLoadJSON(t *testing.T) {
	stops, err := LoadJSON(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, stops, 2)

	assert.Equal(t, routing.Stop{ID: 1, Name: "Centro", Latitude: 19.8448, Longitude: -90.5365, Routes: []string{"1", "3"}}, stops[0])
	assert.Equal(t, "Malecon", stops[1].Name)
	assert.Equal(t, []string{"Lerma", "2.5"}, stops[1].Routes)
}

func TestLoadJSONGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleJSON))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	stops, err := LoadJSON(&buf)
	require.NoError(t, err)
	assert.Len(t, stops, 2)
}

func TestLoadJSONRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `[{"id": 1,`},
		{"not an array", `{"id": 1}`},
		{"bad route type", `[{"id": 1, "stop_name": "A", "routes": [true]}]`},
		{"latitude out of range", `[{"id": 1, "stop_name": "A", "latitude": 95, "routes": []}]`},
		{"missing name", `[{"id": 1, "latitude": 1, "routes": ["1"]}]`},
		{"duplicate id", `[{"id": 1, "stop_name": "A"}, {"id": 1, "stop_name": "B"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(tt.data))
			assert.ErrorIs(t, err, routing.ErrInvalidInput)
		})
	}
}

func TestLoadDefaultDataset(t *testing.T) {
	stops, err := Source{URL: filepath.Join("..", "..", "testdata", "koox_stops_routes.json")}.LoadStops(context.Background())
	require.NoError(t, err)
	assert.Len(t, stops, 12)

	_, err = routing.NewEngine(stops, routing.SearchOptions{})
	assert.NoError(t, err)
}

func minimalGTFS(t *testing.T) []byte {
	t.Helper()

	files := map[string]string{
		"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
KOOX,Ko'ox,https://example.com,America/Merida
`,
		"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
R1,KOOX,1,Centro,3
R2,KOOX,,Lerma,3
`,
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
S1,Centro,19.8448,-90.5365
S2,Mercado,19.8432,-90.5310
S3,Lerma,19.8050,-90.5950
`,
		"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WEEKDAY,1,1,1,1,1,0,0,20250101,20251231
`,
		"trips.txt": `route_id,service_id,trip_id
R1,WEEKDAY,T1
R2,WEEKDAY,T2
`,
		"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
T1,08:00:00,08:00:00,S1,1
T1,08:10:00,08:10:00,S2,2
T2,09:00:00,09:00:00,S2,1
T2,09:20:00,09:20:00,S3,2
`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoadGTFS(t *testing.T) {
	stops, err := Parse(minimalGTFS(t))
	require.NoError(t, err)
	require.Len(t, stops, 3)

	byName := map[string]routing.Stop{}
	for _, s := range stops {
		byName[s.Name] = s
	}
	assert.Equal(t, []string{"1"}, byName["Centro"].Routes)
	assert.Equal(t, []string{"1", "R2"}, byName["Mercado"].Routes)
	assert.Equal(t, []string{"R2"}, byName["Lerma"].Routes)
	assert.InDelta(t, 19.805, byName["Lerma"].Latitude, 1e-9)

	engine, err := routing.NewEngine(stops, routing.SearchOptions{})
	require.NoError(t, err)
	plan, err := engine.PlanTrip(context.Background(), 19.8448, -90.5365, 19.805, -90.595)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.BusCount)
}

func TestFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer server.Close()

	src := Source{URL: server.URL, AuthHeaderKey: "Authorization", AuthHeaderValue: "Bearer secret"}
	stops, err := src.LoadStops(context.Background())
	require.NoError(t, err)
	assert.Len(t, stops, 2)

	_, err = Source{URL: server.URL}.LoadStops(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stops.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o600))

	data, err := Fetch(context.Background(), path, "", "")
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(data))

	_, err = Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "", "")
	assert.Error(t, err)
}

func TestIsLocalFile(t *testing.T) {
	assert.True(t, IsLocalFile("./testdata/stops.json"))
	assert.False(t, IsLocalFile("https://example.com/stops.json"))
	assert.False(t, IsLocalFile("http://example.com/stops.json"))
}

package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"koox.dev/busrouter/internal/routing"
)

// StopRecord is one entry of the stop dataset file:
//
//	{"id": 1, "stop_name": "Centro", "latitude": 19.84, "longitude": -90.53, "routes": [1, "Lerma"]}
type StopRecord struct {
	ID        int       `json:"id"`
	StopName  string    `json:"stop_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Routes    []RouteID `json:"routes"`
}

// RouteID decodes from either a JSON string or a JSON number.
type RouteID string

func (r *RouteID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RouteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("route must be a string or number, got %s", data)
	}
	*r = RouteID(n.String())
	return nil
}

// ToStop converts the record into a routing stop.
func (rec StopRecord) ToStop() routing.Stop {
	routes := make([]string, 0, len(rec.Routes))
	for _, r := range rec.Routes {
		routes = append(routes, strings.TrimSpace(string(r)))
	}
	return routing.Stop{
		ID:        rec.ID,
		Name:      strings.TrimSpace(rec.StopName),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Routes:    routes,
	}
}

var gzipMagic = []byte{0x1f, 0x8b}

// LoadJSON decodes a JSON array of stop records, transparently inflating
// gzip input. Every record is validated; the first bad one fails the load.
func LoadJSON(r io.Reader) ([]routing.Stop, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip dataset: %w", err)
		}
		defer zr.Close()
		return decodeRecords(zr)
	}
	return decodeRecords(br)
}

func decodeRecords(r io.Reader) ([]routing.Stop, error) {
	var records []StopRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: error decoding stop dataset: %v", routing.ErrInvalidInput, err)
	}

	stops := make([]routing.Stop, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for i, rec := range records {
		stop := rec.ToStop()
		if err := routing.ValidateStop(stop); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[stop.ID]; dup {
			return nil, fmt.Errorf("record %d: %w: duplicate stop id %d", i, routing.ErrInvalidInput, stop.ID)
		}
		seen[stop.ID] = struct{}{}
		stops = append(stops, stop)
	}
	return stops, nil
}

package models

import (
	"strings"

	"koox.dev/busrouter/internal/dataset"
	"koox.dev/busrouter/internal/routing"
)

// Stop is the wire form of a stop, matching the dataset file format.
type Stop struct {
	ID        int      `json:"id"`
	StopName  string   `json:"stop_name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Routes    []string `json:"routes"`
}

func NewStop(s routing.Stop) Stop {
	routes := s.Routes
	if routes == nil {
		routes = []string{}
	}
	return Stop{
		ID:        s.ID,
		StopName:  s.Name,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Routes:    routes,
	}
}

func NewStops(stops []routing.Stop) []Stop {
	out := make([]Stop, len(stops))
	for i, s := range stops {
		out[i] = NewStop(s)
	}
	return out
}

// StopWithDistance is a stop annotated with its distance from a query point.
type StopWithDistance struct {
	Stop
	DistanceKm float64 `json:"distanceKm"`
}

func NewStopWithDistance(s routing.Stop, km float64) StopWithDistance {
	return StopWithDistance{Stop: NewStop(s), DistanceKm: km}
}

// StopRequest is the body of POST and PUT /api/stops. Absent fields are nil;
// on update they keep their current value.
type StopRequest struct {
	ID        *int              `json:"id"`
	StopName  *string           `json:"stop_name"`
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Routes    []dataset.RouteID `json:"routes"`
}

// MissingForCreate lists the fields a new stop must carry.
func (r StopRequest) MissingForCreate() map[string][]string {
	fieldErrors := make(map[string][]string)
	if r.StopName == nil || strings.TrimSpace(*r.StopName) == "" {
		fieldErrors["stop_name"] = []string{"stop_name is required"}
	}
	if r.Latitude == nil {
		fieldErrors["latitude"] = []string{"latitude is required"}
	}
	if r.Longitude == nil {
		fieldErrors["longitude"] = []string{"longitude is required"}
	}
	return fieldErrors
}

// ApplyTo overlays the fields present in r onto base.
func (r StopRequest) ApplyTo(base routing.Stop) routing.Stop {
	if r.ID != nil {
		base.ID = *r.ID
	}
	if r.StopName != nil {
		base.Name = *r.StopName
	}
	if r.Latitude != nil {
		base.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		base.Longitude = *r.Longitude
	}
	if r.Routes != nil {
		base.Routes = make([]string, len(r.Routes))
		for i, route := range r.Routes {
			base.Routes[i] = string(route)
		}
	}
	return base
}

package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/rtree"

	"koox.dev/busrouter/internal/utils"
)

// TripPlan answers a routing query.
type TripPlan struct {
	StartStop       Stop
	EndStop         Stop
	StartDistanceKm float64
	EndDistanceKm   float64
	Itinerary       []Segment
	BusCount        int
	Stats           SearchStats
}

// Engine answers queries against one immutable dataset snapshot. It is safe
// for concurrent use.
type Engine struct {
	graph    *Graph
	spatial  *rtree.RTree
	options  SearchOptions
	version  uint64
	loadedAt time.Time
}

// NewEngine validates stops and builds the graph and spatial index.
func NewEngine(stops []Stop, opts SearchOptions) (*Engine, error) {
	g, err := NewGraph(stops)
	if err != nil {
		return nil, err
	}
	return &Engine{
		graph:    g,
		spatial:  buildStopSpatialIndex(g.stops),
		options:  opts,
		loadedAt: time.Now(),
	}, nil
}

// Graph exposes the underlying read-only graph.
func (e *Engine) Graph() *Graph { return e.graph }

// Version identifies the snapshot; the manager increments it on every swap.
func (e *Engine) Version() uint64 { return e.version }

// LoadedAt is when the snapshot was built.
func (e *Engine) LoadedAt() time.Time { return e.loadedAt }

// Options returns the search options the engine plans with.
func (e *Engine) Options() SearchOptions { return e.options }

// PlanTrip snaps both coordinates to their nearest stops and finds the ride
// sequence with the fewest bus changes, then the least distance.
func (e *Engine) PlanTrip(ctx context.Context, startLat, startLon, endLat, endLon float64) (TripPlan, error) {
	if !utils.IsValidLatLon(startLat, startLon) {
		return TripPlan{}, fmt.Errorf("%w: start coordinates (%v, %v) out of range", ErrInvalidInput, startLat, startLon)
	}
	if !utils.IsValidLatLon(endLat, endLon) {
		return TripPlan{}, fmt.Errorf("%w: destination coordinates (%v, %v) out of range", ErrInvalidInput, endLat, endLon)
	}

	startStop, startDist, err := e.graph.Nearest(startLat, startLon)
	if err != nil {
		return TripPlan{}, err
	}
	endStop, endDist, err := e.graph.Nearest(endLat, endLon)
	if err != nil {
		return TripPlan{}, err
	}

	path, stats, err := Search(ctx, e.graph, startStop.ID, endStop.ID, e.options)
	if err != nil {
		return TripPlan{Stats: stats}, err
	}

	itinerary := BuildItinerary(e.graph, path)
	return TripPlan{
		StartStop:       startStop,
		EndStop:         endStop,
		StartDistanceKm: startDist,
		EndDistanceKm:   endDist,
		Itinerary:       itinerary,
		BusCount:        len(itinerary),
		Stats:           stats,
	}, nil
}

// NearestStop returns the closest stop to (lat, lon) and its distance in km.
func (e *Engine) NearestStop(lat, lon float64) (Stop, float64, error) {
	return e.graph.Nearest(lat, lon)
}

// StopByID returns the stop with the given id or ErrNotFound.
func (e *Engine) StopByID(id int) (Stop, error) {
	s, ok := e.graph.StopByID(id)
	if !ok {
		return Stop{}, fmt.Errorf("%w: stop %d", ErrNotFound, id)
	}
	return s, nil
}

// StopsForRoute returns the stops served by route in id order, or
// ErrNotFound when no stop is served by it.
func (e *Engine) StopsForRoute(route string) ([]Stop, error) {
	ids := e.graph.routeStopList[route]
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: route %q", ErrNotFound, route)
	}
	stops := make([]Stop, 0, len(ids))
	for _, id := range ids {
		stops = append(stops, *e.graph.stopsByID[id])
	}
	return stops, nil
}

// Routes returns every route id, sorted.
func (e *Engine) Routes() []string { return e.graph.Routes() }

// Stops returns every stop in dataset order.
func (e *Engine) Stops() []Stop { return e.graph.Stops() }

// StopsNear returns stops within radiusMeters of (lat, lon), nearest first.
func (e *Engine) StopsNear(lat, lon, radiusMeters float64, maxCount int) ([]StopWithDistance, error) {
	if !utils.IsValidLatLon(lat, lon) {
		return nil, fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidInput, lat, lon)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}
	return stopsNear(e.spatial, e.graph.stops, lat, lon, radiusMeters, maxCount), nil
}

package routing

import (
	"fmt"
	"slices"
)

// Graph indexes one immutable snapshot of the stop dataset. Two stops are
// adjacent when at least one route serves both.
type Graph struct {
	stops     []Stop
	stopsByID map[int]*Stop

	routeToStops map[string]map[int]struct{}
	stopToRoutes map[int]map[string]struct{}

	// Sorted views of the maps above, so searches iterate deterministically.
	routeStopList map[string][]int
	stopRouteList map[int][]string
	routes        []string
}

// NewGraph validates stops and builds both directions of the route index.
// The input slice is copied; later changes to it do not affect the graph.
func NewGraph(stops []Stop) (*Graph, error) {
	g := &Graph{
		stops:         make([]Stop, 0, len(stops)),
		stopsByID:     make(map[int]*Stop, len(stops)),
		routeToStops:  make(map[string]map[int]struct{}),
		stopToRoutes:  make(map[int]map[string]struct{}, len(stops)),
		routeStopList: make(map[string][]int),
		stopRouteList: make(map[int][]string, len(stops)),
	}

	seen := make(map[int]struct{}, len(stops))
	for _, s := range stops {
		s = s.Normalized()
		if err := ValidateStop(s); err != nil {
			return nil, err
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate stop id %d", ErrInvalidInput, s.ID)
		}
		seen[s.ID] = struct{}{}
		g.stops = append(g.stops, s)
	}

	for i := range g.stops {
		s := &g.stops[i]
		g.stopsByID[s.ID] = s

		routes := make(map[string]struct{}, len(s.Routes))
		for _, r := range s.Routes {
			routes[r] = struct{}{}
			members, ok := g.routeToStops[r]
			if !ok {
				members = make(map[int]struct{})
				g.routeToStops[r] = members
				g.routes = append(g.routes, r)
			}
			members[s.ID] = struct{}{}
			g.routeStopList[r] = append(g.routeStopList[r], s.ID)
		}
		g.stopToRoutes[s.ID] = routes
		g.stopRouteList[s.ID] = s.Routes
	}

	slices.Sort(g.routes)
	for r := range g.routeStopList {
		slices.Sort(g.routeStopList[r])
	}

	return g, nil
}

// Len returns the number of stops.
func (g *Graph) Len() int {
	return len(g.stops)
}

// Stops returns every stop in dataset order.
func (g *Graph) Stops() []Stop {
	return slices.Clone(g.stops)
}

// Routes returns every route identifier, sorted.
func (g *Graph) Routes() []string {
	return slices.Clone(g.routes)
}

// StopByID looks up a stop by its identifier.
func (g *Graph) StopByID(id int) (Stop, bool) {
	s, ok := g.stopsByID[id]
	if !ok {
		return Stop{}, false
	}
	return *s, true
}

// StopsOf returns the sorted ids of the stops served by route. Unknown routes
// yield an empty slice.
func (g *Graph) StopsOf(route string) []int {
	return slices.Clone(g.routeStopList[route])
}

// RoutesOf returns the sorted routes serving stopID. Unknown stops yield an
// empty slice.
func (g *Graph) RoutesOf(stopID int) []string {
	return slices.Clone(g.stopRouteList[stopID])
}

// Serves reports whether route serves stopID.
func (g *Graph) Serves(route string, stopID int) bool {
	_, ok := g.routeToStops[route][stopID]
	return ok
}

func (g *Graph) distance(a, b int) float64 {
	sa, sb := g.stopsByID[a], g.stopsByID[b]
	return stopDistance(sa, sb)
}

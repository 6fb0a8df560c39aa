package dataset

import (
	"fmt"
	"slices"

	"github.com/OneBusAway/go-gtfs"

	"koox.dev/busrouter/internal/routing"
)

// LoadGTFS builds the stop dataset from a static GTFS zip. Stops get integer
// ids in stops.txt order and are served by every route with a trip calling
// there. A route is named by its short name, falling back to its id. Stops
// without coordinates are skipped.
func LoadGTFS(data []byte) ([]routing.Stop, error) {
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return stopsFromStatic(static), nil
}

func stopsFromStatic(static *gtfs.Static) []routing.Stop {
	routesByStop := make(map[string]map[string]struct{})
	for _, trip := range static.Trips {
		if trip.Route == nil {
			continue
		}
		name := routeName(trip.Route)
		for _, st := range trip.StopTimes {
			if st.Stop == nil {
				continue
			}
			set, ok := routesByStop[st.Stop.Id]
			if !ok {
				set = make(map[string]struct{})
				routesByStop[st.Stop.Id] = set
			}
			set[name] = struct{}{}
		}
	}

	stops := make([]routing.Stop, 0, len(static.Stops))
	for i, s := range static.Stops {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		routes := make([]string, 0, len(routesByStop[s.Id]))
		for r := range routesByStop[s.Id] {
			routes = append(routes, r)
		}
		slices.Sort(routes)

		name := s.Name
		if name == "" {
			name = s.Id
		}
		stops = append(stops, routing.Stop{
			ID:        i + 1,
			Name:      name,
			Latitude:  *s.Latitude,
			Longitude: *s.Longitude,
			Routes:    routes,
		})
	}
	return stops
}

func routeName(route *gtfs.Route) string {
	if route.ShortName != "" {
		return route.ShortName
	}
	return route.Id
}

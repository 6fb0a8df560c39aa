package routing

import (
	"sort"

	"github.com/tidwall/rtree"

	"koox.dev/busrouter/internal/utils"
)

// StopWithDistance pairs a stop with its distance in km from a query point.
type StopWithDistance struct {
	Stop       Stop
	DistanceKm float64
}

// buildStopSpatialIndex creates an R-tree keyed by [lat, lon]. The stored
// value is the stop's index in dataset order.
func buildStopSpatialIndex(stops []Stop) *rtree.RTree {
	tree := &rtree.RTree{}

	// Points: min and max are the same.
	for i, stop := range stops {
		tree.Insert(
			[2]float64{stop.Latitude, stop.Longitude},
			[2]float64{stop.Latitude, stop.Longitude},
			i,
		)
	}

	return tree
}

// queryStopsInBounds returns dataset indices of the stops inside bounds.
func queryStopsInBounds(tree *rtree.RTree, bounds utils.CoordinateBounds) []int {
	if tree == nil {
		return []int{}
	}

	minLat := min(bounds.MinLat, bounds.MaxLat)
	maxLat := max(bounds.MinLat, bounds.MaxLat)
	minLon := min(bounds.MinLon, bounds.MaxLon)
	maxLon := max(bounds.MinLon, bounds.MaxLon)

	var results []int
	tree.Search(
		[2]float64{minLat, minLon},
		[2]float64{maxLat, maxLon},
		func(min, max [2]float64, data interface{}) bool {
			if idx, ok := data.(int); ok {
				results = append(results, idx)
			}
			return true
		},
	)

	return results
}

// stopsNear returns stops within radiusMeters of (lat, lon) ordered by
// distance, then dataset order. maxCount <= 0 means no limit.
func stopsNear(tree *rtree.RTree, stops []Stop, lat, lon, radiusMeters float64, maxCount int) []StopWithDistance {
	// Padded box; the distance filter below is exact.
	bounds := utils.CalculateBounds(lat, lon, radiusMeters*1.01)
	candidates := queryStopsInBounds(tree, bounds)

	type hit struct {
		idx  int
		dist float64
	}
	radiusKm := radiusMeters / 1000
	hits := make([]hit, 0, len(candidates))
	for _, idx := range candidates {
		s := stops[idx]
		d := utils.Distance(lat, lon, s.Latitude, s.Longitude)
		if d <= radiusKm {
			hits = append(hits, hit{idx: idx, dist: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].idx < hits[j].idx
	})

	if maxCount > 0 && len(hits) > maxCount {
		hits = hits[:maxCount]
	}

	out := make([]StopWithDistance, len(hits))
	for i, h := range hits {
		out[i] = StopWithDistance{Stop: stops[h.idx], DistanceKm: h.dist}
	}
	return out
}

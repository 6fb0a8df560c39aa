package routing

import (
	"fmt"
	"math"

	"koox.dev/busrouter/internal/utils"
)

// Nearest returns the stop closest to (lat, lon) and its distance in km.
// Ties keep the stop that appears first in the dataset.
func (g *Graph) Nearest(lat, lon float64) (Stop, float64, error) {
	if !utils.IsValidLatLon(lat, lon) {
		return Stop{}, 0, fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidInput, lat, lon)
	}
	if len(g.stops) == 0 {
		return Stop{}, 0, ErrEmptyDataset
	}

	best := -1
	bestDist := math.Inf(1)
	for i := range g.stops {
		d := utils.Distance(lat, lon, g.stops[i].Latitude, g.stops[i].Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	return g.stops[best], bestDist, nil
}

func stopDistance(a, b *Stop) float64 {
	return utils.Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

package models

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"koox.dev/busrouter/internal/routing"
	"koox.dev/busrouter/internal/utils"
)

// Segment is one ride of a trip plan.
type Segment struct {
	Route       string  `json:"route"`
	From        Stop    `json:"from"`
	To          Stop    `json:"to"`
	DistanceKm  float64 `json:"distanceKm"`
	Polyline    string  `json:"polyline"`
	Description string  `json:"description"`
}

type SearchStats struct {
	Expanded int `json:"expanded"`
	Pushed   int `json:"pushed"`
}

// TripPlan is the entry returned by /api/plan.
type TripPlan struct {
	StartStop       StopWithDistance `json:"startStop"`
	EndStop         StopWithDistance `json:"endStop"`
	BusCount        int              `json:"busCount"`
	TotalDistanceKm float64          `json:"totalDistanceKm"`
	Itinerary       []Segment        `json:"itinerary"`
	Stats           SearchStats      `json:"stats"`
}

// NewSegment converts a ride. The polyline is the straight line between the
// two stops, since routes carry no geometry.
func NewSegment(seg routing.Segment) Segment {
	line := polyline.EncodeCoords([][]float64{
		{seg.From.Latitude, seg.From.Longitude},
		{seg.To.Latitude, seg.To.Longitude},
	})
	return Segment{
		Route:       seg.Route,
		From:        NewStop(seg.From),
		To:          NewStop(seg.To),
		DistanceKm:  utils.Distance(seg.From.Latitude, seg.From.Longitude, seg.To.Latitude, seg.To.Longitude),
		Polyline:    string(line),
		Description: fmt.Sprintf("Take bus %s from %s to %s", seg.Route, seg.From.Name, seg.To.Name),
	}
}

func NewTripPlan(plan routing.TripPlan) TripPlan {
	out := TripPlan{
		StartStop: NewStopWithDistance(plan.StartStop, plan.StartDistanceKm),
		EndStop:   NewStopWithDistance(plan.EndStop, plan.EndDistanceKm),
		BusCount:  plan.BusCount,
		Itinerary: make([]Segment, 0, len(plan.Itinerary)),
		Stats:     SearchStats{Expanded: plan.Stats.Expanded, Pushed: plan.Stats.Pushed},
	}
	for _, seg := range plan.Itinerary {
		s := NewSegment(seg)
		out.TotalDistanceKm += s.DistanceKm
		out.Itinerary = append(out.Itinerary, s)
	}
	return out
}

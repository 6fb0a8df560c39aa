package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"koox.dev/busrouter/internal/routing"
)

func TestNewTripPlan(t *testing.T) {
	a := routing.Stop{ID: 1, Name: "A", Latitude: 0, Longitude: 0, Routes: []string{"1"}}
	b := routing.Stop{ID: 2, Name: "B", Latitude: 0, Longitude: 0.01, Routes: []string{"1", "2"}}
	c := routing.Stop{ID: 3, Name: "C", Latitude: 0, Longitude: 0.02, Routes: []string{"2"}}

	plan := NewTripPlan(routing.TripPlan{
		StartStop:       a,
		EndStop:         c,
		StartDistanceKm: 0.1,
		Itinerary: []routing.Segment{
			{From: a, To: b, Route: "1"},
			{From: b, To: c, Route: "2"},
		},
		BusCount: 2,
		Stats:    routing.SearchStats{Expanded: 3, Pushed: 4},
	})

	assert.Equal(t, 2, plan.BusCount)
	assert.Equal(t, 0.1, plan.StartStop.DistanceKm)
	assert.Equal(t, "C", plan.EndStop.StopName)
	require.Len(t, plan.Itinerary, 2)
	assert.Equal(t, "Take bus 1 from A to B", plan.Itinerary[0].Description)
	assert.InDelta(t, 1.112, plan.Itinerary[0].DistanceKm, 0.001)
	assert.InDelta(t, 2.224, plan.TotalDistanceKm, 0.002)
	assert.Equal(t, SearchStats{Expanded: 3, Pushed: 4}, plan.Stats)

	coords, _, err := polyline.DecodeCoords([]byte(plan.Itinerary[1].Polyline))
	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.InDelta(t, 0.01, coords[0][1], 1e-5)
	assert.InDelta(t, 0.02, coords[1][1], 1e-5)
}

func TestNewTripPlanEmptyItinerary(t *testing.T) {
	s := routing.Stop{ID: 1, Name: "A"}
	plan := NewTripPlan(routing.TripPlan{StartStop: s, EndStop: s})

	assert.NotNil(t, plan.Itinerary)
	assert.Empty(t, plan.Itinerary)
	assert.Equal(t, 0, plan.BusCount)
}

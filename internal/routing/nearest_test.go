package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestOwnCoordinates(t *testing.T) {
	g, err := NewGraph(campecheStops())
	require.NoError(t, err)

	for _, s := range g.Stops() {
		got, dist, err := g.Nearest(s.Latitude, s.Longitude)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.InDelta(t, 0, dist, 1e-9)
	}
}

func TestNearestTieKeepsDatasetOrder(t *testing.T) {
	g, err := NewGraph([]Stop{
		{ID: 9, Name: "east", Latitude: 0, Longitude: 0.01},
		{ID: 3, Name: "west", Latitude: 0, Longitude: -0.01},
	})
	require.NoError(t, err)

	got, _, err := g.Nearest(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
}

func TestNearestPicksClosest(t *testing.T) {
	g, err := NewGraph(abcStops())
	require.NoError(t, err)

	got, dist, err := g.Nearest(0.001, 0.011)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ID)
	assert.Greater(t, dist, 0.0)
	assert.Less(t, dist, 0.2)
}

func TestNearestEmptyDataset(t *testing.T) {
	g, err := NewGraph(nil)
	require.NoError(t, err)

	_, _, err = g.Nearest(0, 0)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNearestInvalidCoordinates(t *testing.T) {
	g, err := NewGraph(abcStops())
	require.NoError(t, err)

	for _, c := range [][2]float64{{91, 0}, {0, 181}, {math.NaN(), 0}, {0, math.Inf(1)}} {
		_, _, err := g.Nearest(c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidInput, "coords %v", c)
	}
}

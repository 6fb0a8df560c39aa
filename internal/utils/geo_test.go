package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	campecheCentro    = [2]float64{19.8454, -90.5237}
	campecheMalecon   = [2]float64{19.8301, -90.5473}
	campecheAeropto   = [2]float64{19.8168, -90.5003}
	seattleDowntown   = [2]float64{47.6062, -122.3321}
	reddingCalifornia = [2]float64{40.5865, -122.3917}
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]float64
		expected float64
		delta    float64
	}{
		{"one degree of longitude at the equator", [2]float64{0, 0}, [2]float64{0, 1}, 111.195, 0.01},
		{"one degree of latitude", [2]float64{0, 0}, [2]float64{1, 0}, 111.195, 0.01},
		{"identical points", campecheCentro, campecheCentro, 0, 1e-12},
		{"Seattle to Redding", seattleDowntown, reddingCalifornia, 780.57, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a[0], tt.a[1], tt.b[0], tt.b[1])
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{campecheCentro, campecheMalecon, campecheAeropto, seattleDowntown, reddingCalifornia}
	for _, a := range points {
		for _, b := range points {
			ab := Distance(a[0], a[1], b[0], b[1])
			ba := Distance(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9)
		}
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	a, b, c := campecheCentro, campecheMalecon, campecheAeropto

	ab := Distance(a[0], a[1], b[0], b[1])
	bc := Distance(b[0], b[1], c[0], c[1])
	ac := Distance(a[0], a[1], c[0], c[1])

	assert.LessOrEqual(t, ac, ab+bc+1e-9)
	assert.LessOrEqual(t, ab, ac+bc+1e-9)
	assert.LessOrEqual(t, bc, ab+ac+1e-9)
}

func TestCalculateBounds(t *testing.T) {
	bounds := CalculateBounds(campecheCentro[0], campecheCentro[1], 1000)

	assert.Less(t, bounds.MinLat, campecheCentro[0])
	assert.Greater(t, bounds.MaxLat, campecheCentro[0])
	assert.Less(t, bounds.MinLon, campecheCentro[1])
	assert.Greater(t, bounds.MaxLon, campecheCentro[1])

	// The box must enclose a point exactly radius meters north.
	northKm := Distance(campecheCentro[0], campecheCentro[1], bounds.MaxLat, campecheCentro[1])
	assert.InDelta(t, 1.0, northKm, 0.01)
}

func TestCalculateBounds_Poles(t *testing.T) {
	bounds := CalculateBounds(90, 0, 5000)
	assert.Equal(t, 90.0, bounds.MaxLat)
	assert.Equal(t, -180.0, bounds.MinLon)
	assert.Equal(t, 180.0, bounds.MaxLon)
}

func TestIsValidLatLon(t *testing.T) {
	assert.True(t, IsValidLatLon(19.84, -90.52))
	assert.True(t, IsValidLatLon(-90, 180))
	assert.False(t, IsValidLatLon(91, 0))
	assert.False(t, IsValidLatLon(0, -181))
	assert.False(t, IsValidLatLon(math.NaN(), 0))
	assert.False(t, IsValidLatLon(0, math.Inf(1)))
}

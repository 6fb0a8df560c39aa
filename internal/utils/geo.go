package utils

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

const metersPerDegreeLat = 111320.0

// CoordinateBounds is an axis-aligned lat/lon box.
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Distance returns the great-circle distance in kilometers between two
// points given in degrees, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// CalculateBounds returns the box enclosing a circle of radiusMeters around
// (lat, lon).
func CalculateBounds(lat, lon, radiusMeters float64) CoordinateBounds {
	latDelta := radiusMeters / metersPerDegreeLat

	cosLat := math.Cos(toRadians(lat))
	lonDelta := 180.0
	if cosLat > 1e-9 {
		lonDelta = math.Min(180.0, radiusMeters/(metersPerDegreeLat*cosLat))
	}

	return CoordinateBounds{
		MinLat: math.Max(-90, lat-latDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// IsValidLatLon reports whether lat and lon are finite and within range.
func IsValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

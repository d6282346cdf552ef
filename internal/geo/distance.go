// Package geo provides great-circle distance calculations for driver and
// order proximity matching.
package geo

import "math"

const (
	// EarthRadiusKm is Earth's radius in kilometres for the haversine formula.
	EarthRadiusKm = 6371.0
	// MetersPerKm converts kilometres to metres.
	MetersPerKm = 1000.0
)

// DistanceKm returns the haversine great-circle distance in kilometres
// between two latitude/longitude points given in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// WithinRadiusKm reports whether two points are within radiusKm of each other.
func WithinRadiusKm(lat1, lon1, lat2, lon2, radiusKm float64) bool {
	return DistanceKm(lat1, lon1, lat2, lon2) <= radiusKm
}

// MetersToKm converts metres to kilometres.
func MetersToKm(m float64) float64 {
	return m / MetersPerKm
}

// ValidCoordinates reports whether lat/lon fall in the valid degree ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

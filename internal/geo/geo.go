// Package geo provides the small amount of spherical geometry the tracker
// needs: great-circle distance between fixes and compass direction labels.
package geo

import (
	"math"
)

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6371000

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// DistanceMeters returns the great-circle (haversine) distance in meters
// between two lat/lng pairs in decimal degrees. NaN inputs propagate; callers
// filter invalid fixes before measuring.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Direction8 maps a heading in degrees to one of the eight compass labels
// N, NE, E, SE, S, SW, W, NW. Any real heading is accepted; values outside
// [0,360) are normalized.
func Direction8(headingDeg float64) string {
	idx := int(math.Round(headingDeg/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return compassLabels[idx]
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

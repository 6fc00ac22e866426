// Package geofence classifies coordinates against a circular region using
// the haversine great-circle distance.
package geofence

import "math"

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371

// Region is a circular geofence: a center coordinate and a radius in
// kilometers.
type Region struct {
	CenterLatitude  float64
	CenterLongitude float64
	RadiusKm        float64
}

// DistanceKm returns the haversine great-circle distance in kilometers
// between two lat/lng pairs given in degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Pow(math.Sin(dLng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Contains reports whether the given point lies inside the region. The
// boundary is inclusive: a point exactly RadiusKm away is inside.
func (r Region) Contains(lat, lng float64) bool {
	return DistanceKm(lat, lng, r.CenterLatitude, r.CenterLongitude) <= r.RadiusKm
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Package geofence decides whether a reported device location counts as
// being at a task.
package geofence

import (
	"math"

	"github.com/playperu/geohunt/internal/geohunt"
)

// EarthRadiusKm is the mean radius of the spherical Earth model.
const EarthRadiusKm = 6371.0

// Readings with an accuracy inside [MinRejectedAccuracy, MaxRejectedAccuracy]
// are rejected. Precise readings pass below the band; coarse emulator and
// debug readings pass above it.
const (
	MinRejectedAccuracy = 200.0
	MaxRejectedAccuracy = 600.0
)

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b geohunt.Point) float64 {
	dLat := deg2rad(b.Lat - a.Lat)
	dLon := deg2rad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h past 1 near the antipode.
	h = min(max(h, 0), 1)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Accept reports whether a player reporting position reported with the given
// accuracy is at task. Both conditions must hold: the distance is strictly
// below maxDistanceKm and the accuracy is outside the rejected band.
func Accept(task, reported geohunt.Point, accuracy, maxDistanceKm float64) bool {
	// Written so that a NaN distance is rejected.
	if !(DistanceKm(task, reported) < maxDistanceKm) {
		return false
	}
	return accuracy < MinRejectedAccuracy || accuracy > MaxRejectedAccuracy
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

package cluster

import (
	"math"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6371000

// HaversineDistance returns the great-circle distance in meters between
// two coordinates.
func HaversineDistance(a, b photo.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

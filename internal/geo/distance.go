// Package geo provides the great-circle math the rest of the engine leans
// on. Pure functions, degrees in, meters out.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two
// coordinates given in degrees. NaN inputs propagate; callers exclude places
// with unresolved coordinates before calling.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BoundingBox returns the min/max latitude and longitude of a box that
// contains the circle of radiusMeters around (lat, lng). Used as a cheap SQL
// pre-filter before exact haversine distances are computed; the box is
// slightly larger than the circle, never smaller.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	// Longitude degrees shrink with latitude. Clamp the cosine away from
	// zero so the box stays finite near the poles.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := latDelta / cosLat
	return lat - latDelta, lat + latDelta, lng - lngDelta, lng + lngDelta
}

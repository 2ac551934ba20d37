// Package geo provides the spherical distance math shared by the
// segmenter, the statistics engine and the spatial index.
package geo

import "math"

// EarthRadiusKM is the sphere radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Distance calculates the haversine great-circle distance between two
// points in kilometers. Bitwise-identical coordinates return exactly 0
// without touching the trigonometry; floating-point rounding near zero
// can otherwise produce domain errors.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

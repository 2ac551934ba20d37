package pipeline

import (
	"math"

	"github.com/kass/go-trip-splitter/pkg/geo"
	"github.com/kass/go-trip-splitter/pkg/models"
)

// speedEpsilon is the minimum duration, in seconds, a trip or segment
// must span before speed math divides by it. At or below it, speed is
// defined as exactly 0 so the output never carries Inf or NaN.
const speedEpsilon = 1e-6

// ComputeStats derives the rounded statistics for one non-empty trip.
// Segments at or below the duration epsilon are skipped for max speed;
// they neither contribute 0 nor raise an error.
func ComputeStats(trip models.Trip) models.TripStats {
	pts := trip.Points

	var distanceKM, maxSpeedKMH float64
	for i := 1; i < len(pts); i++ {
		segKM := geo.Distance(pts[i-1].Lat, pts[i-1].Lon, pts[i].Lat, pts[i].Lon)
		distanceKM += segKM

		segSeconds := pts[i].Timestamp.Sub(pts[i-1].Timestamp).Seconds()
		if segSeconds > speedEpsilon {
			if speed := segKM / (segSeconds / 3600.0); speed > maxSpeedKMH {
				maxSpeedKMH = speed
			}
		}
	}

	durationSeconds := trip.Last().Timestamp.Sub(trip.First().Timestamp).Seconds()

	// Near-zero duration keeps average speed at 0 even when distance is
	// nonzero.
	avgSpeedKMH := 0.0
	if durationSeconds > speedEpsilon {
		avgSpeedKMH = distanceKM / (durationSeconds / 3600.0)
	}

	return models.TripStats{
		DistanceKM:  round3(distanceKM),
		DurationMin: round3(durationSeconds / 60.0),
		AvgSpeedKMH: round3(avgSpeedKMH),
		MaxSpeedKMH: round3(maxSpeedKMH),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

package pipeline

import (
	"sort"

	"github.com/kass/go-trip-splitter/pkg/geo"
	"github.com/kass/go-trip-splitter/pkg/models"
)

// SortByTime returns the points ordered ascending by timestamp. The sort
// is stable, so points with equal timestamps keep their input order, and
// the input slice is left untouched.
func SortByTime(points []models.GpsPoint) []models.GpsPoint {
	sorted := make([]models.GpsPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Segment partitions timestamp-sorted points into trips. Each point is
// compared against the last point of the growing trip: when the time gap
// or the great-circle jump exceeds its threshold (strict >), the current
// trip closes and a new one opens at that point. The final in-progress
// trip is always appended, even with a single point, so concatenating the
// output reproduces the input exactly.
func Segment(points []models.GpsPoint, cfg Config) []models.Trip {
	if len(points) == 0 {
		return nil
	}

	var trips []models.Trip
	current := []models.GpsPoint{points[0]}

	for _, p := range points[1:] {
		prev := current[len(current)-1]

		gapMinutes := p.Timestamp.Sub(prev.Timestamp).Minutes()
		jumpKM := geo.Distance(prev.Lat, prev.Lon, p.Lat, p.Lon)

		if gapMinutes > cfg.MaxTimeGapMinutes || jumpKM > cfg.MaxDistanceJumpKM {
			trips = append(trips, models.Trip{Points: current})
			current = []models.GpsPoint{p}
			continue
		}

		current = append(current, p)
	}

	return append(trips, models.Trip{Points: current})
}

// Package geometry builds map-ready GeoJSON features from segmented
// trips.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/kass/go-trip-splitter/pkg/models"
)

// Palette is the default set of 20 visually distinct trip colors. Trips
// cycle through it by 1-based trip number.
var Palette = []string{
	"#E6194B", "#3CB44B", "#FFE119", "#4363D8", "#F58231", "#911EB4",
	"#46F0F0", "#F032E6", "#BCF60C", "#FABEBE", "#008080", "#E6BEFF",
	"#9A6324", "#FFFAC8", "#800000", "#AAFFC3", "#808000", "#FFD8B1",
	"#000075", "#808080",
}

// Options control the degenerate-trip policy and geometry
// simplification. The zero value duplicates single-point trips and
// leaves geometry unsimplified.
type Options struct {
	// DropSinglePointTrips excludes one-point trips from the collection
	// instead of duplicating their coordinate into a valid LineString.
	DropSinglePointTrips bool

	// SimplifyTolerance enables Douglas-Peucker simplification of trip
	// geometry when greater than 0. Endpoints are always preserved.
	SimplifyTolerance float64

	// Colors overrides Palette when non-empty.
	Colors []string
}

// BuildFeature converts one trip into a LineString feature whose
// coordinates are [lon, lat] pairs in trip order, with the trip id,
// color and flattened statistics attached as properties. ok is false
// when the trip cannot form a two-coordinate geometry under the
// configured policy; such trips are excluded from the collection.
func BuildFeature(tripNum int, trip models.Trip, stats models.TripStats, opts Options) (f *geojson.Feature, ok bool) {
	line := make(orb.LineString, 0, len(trip.Points))
	for _, p := range trip.Points {
		line = append(line, orb.Point{p.Lon, p.Lat})
	}

	// A LineString needs at least two positions.
	if len(line) == 1 && !opts.DropSinglePointTrips {
		line = append(line, line[0])
	}
	if len(line) < 2 {
		return nil, false
	}

	if opts.SimplifyTolerance > 0 && len(line) > 2 {
		line = simplify.DouglasPeucker(opts.SimplifyTolerance).Simplify(line).(orb.LineString)
	}

	colors := opts.Colors
	if len(colors) == 0 {
		colors = Palette
	}

	f = geojson.NewFeature(line)
	f.Properties = geojson.Properties{
		"trip_id":       fmt.Sprintf("trip_%d", tripNum),
		"color":         colors[(tripNum-1)%len(colors)],
		"distance_km":   stats.DistanceKM,
		"duration_min":  stats.DurationMin,
		"avg_speed_kmh": stats.AvgSpeedKMH,
		"max_speed_kmh": stats.MaxSpeedKMH,
	}
	return f, true
}

// BuildCollection assembles the combined FeatureCollection in trip
// order. excluded carries the 1-based numbers of trips dropped by the
// geometry policy so callers can record a diagnostic. Zero trips still
// produce a collection with an empty feature list.
func BuildCollection(trips []models.Trip, stats []models.TripStats, opts Options) (fc *geojson.FeatureCollection, excluded []int) {
	fc = geojson.NewFeatureCollection()
	for i, trip := range trips {
		f, ok := BuildFeature(i+1, trip, stats[i], opts)
		if !ok {
			excluded = append(excluded, i+1)
			continue
		}
		fc.Append(f)
	}
	return fc, excluded
}

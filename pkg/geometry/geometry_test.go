package geometry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-trip-splitter/pkg/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func trip(coords ...[2]float64) models.Trip {
	tr := models.Trip{}
	for i, c := range coords {
		tr.Points = append(tr.Points, models.GpsPoint{
			DeviceID:  "d1",
			Lat:       c[0],
			Lon:       c[1],
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	return tr
}

func TestBuildFeatureCoordinateOrder(t *testing.T) {
	f, ok := BuildFeature(1, trip([2]float64{10, 20}, [2]float64{11, 21}), models.TripStats{}, Options{})

	require.True(t, ok)
	line, isLine := f.Geometry.(orb.LineString)
	require.True(t, isLine)
	require.Len(t, line, 2)

	// GeoJSON positions are [lon, lat].
	assert.Equal(t, orb.Point{20, 10}, line[0])
	assert.Equal(t, orb.Point{21, 11}, line[1])
}

func TestBuildFeatureProperties(t *testing.T) {
	stats := models.TripStats{DistanceKM: 1.5, DurationMin: 30, AvgSpeedKMH: 3, MaxSpeedKMH: 6}

	f, ok := BuildFeature(3, trip([2]float64{10, 20}, [2]float64{11, 21}), stats, Options{})

	require.True(t, ok)
	assert.Equal(t, "trip_3", f.Properties["trip_id"])
	assert.Equal(t, Palette[2], f.Properties["color"])
	assert.Equal(t, 1.5, f.Properties["distance_km"])
	assert.Equal(t, 30.0, f.Properties["duration_min"])
	assert.Equal(t, 3.0, f.Properties["avg_speed_kmh"])
	assert.Equal(t, 6.0, f.Properties["max_speed_kmh"])
}

func TestBuildFeatureColorCycling(t *testing.T) {
	tr := trip([2]float64{10, 20}, [2]float64{11, 21})

	first, _ := BuildFeature(1, tr, models.TripStats{}, Options{})
	twentieth, _ := BuildFeature(20, tr, models.TripStats{}, Options{})
	twentyFirst, _ := BuildFeature(21, tr, models.TripStats{}, Options{})

	assert.Equal(t, Palette[0], first.Properties["color"])
	assert.Equal(t, Palette[19], twentieth.Properties["color"])
	// Trip 21 wraps back to the first color.
	assert.Equal(t, Palette[0], twentyFirst.Properties["color"])
}

func TestBuildFeatureCustomColors(t *testing.T) {
	opts := Options{Colors: []string{"#111111", "#222222"}}
	tr := trip([2]float64{10, 20}, [2]float64{11, 21})

	f, _ := BuildFeature(3, tr, models.TripStats{}, opts)

	assert.Equal(t, "#111111", f.Properties["color"])
}

func TestBuildFeatureSinglePointDuplicated(t *testing.T) {
	f, ok := BuildFeature(1, trip([2]float64{10, 20}), models.TripStats{}, Options{})

	require.True(t, ok)
	line := f.Geometry.(orb.LineString)
	require.Len(t, line, 2)
	assert.Equal(t, line[0], line[1])
}

func TestBuildFeatureSinglePointDropped(t *testing.T) {
	f, ok := BuildFeature(1, trip([2]float64{10, 20}), models.TripStats{}, Options{DropSinglePointTrips: true})

	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestBuildFeatureSimplification(t *testing.T) {
	// Collinear interior points vanish under simplification; the
	// endpoints survive.
	tr := trip(
		[2]float64{10.00, 20.0},
		[2]float64{10.01, 20.0},
		[2]float64{10.02, 20.0},
		[2]float64{10.03, 20.0},
	)

	f, ok := BuildFeature(1, tr, models.TripStats{}, Options{SimplifyTolerance: 0.001})

	require.True(t, ok)
	line := f.Geometry.(orb.LineString)
	assert.Less(t, len(line), 4)
	assert.Equal(t, orb.Point{20.0, 10.00}, line[0])
	assert.Equal(t, orb.Point{20.0, 10.03}, line[len(line)-1])
}

func TestBuildCollectionOrderAndExclusions(t *testing.T) {
	trips := []models.Trip{
		trip([2]float64{10, 20}, [2]float64{11, 21}),
		trip([2]float64{30, 40}),
		trip([2]float64{50, 60}, [2]float64{51, 61}),
	}
	stats := make([]models.TripStats, len(trips))

	fc, excluded := BuildCollection(trips, stats, Options{DropSinglePointTrips: true})

	require.Len(t, fc.Features, 2)
	assert.Equal(t, []int{2}, excluded)
	// Excluded trips keep their numbers; nothing is renumbered.
	assert.Equal(t, "trip_1", fc.Features[0].Properties["trip_id"])
	assert.Equal(t, "trip_3", fc.Features[1].Properties["trip_id"])
}

func TestBuildCollectionEmptyMarshalsEmptyFeatureList(t *testing.T) {
	fc, excluded := BuildCollection(nil, nil, Options{})

	assert.Empty(t, excluded)

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.NotNil(t, decoded.Features)
	assert.Empty(t, decoded.Features)
}

func TestBuildCollectionRoundTrips(t *testing.T) {
	trips := []models.Trip{trip([2]float64{10, 20}, [2]float64{11, 21})}
	stats := []models.TripStats{{DistanceKM: 1.234}}

	fc, _ := BuildCollection(trips, stats, Options{})
	data, err := json.Marshal(fc)
	require.NoError(t, err)

	parsed, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, parsed.Features, 1)
	assert.Equal(t, "trip_1", parsed.Features[0].Properties["trip_id"])
}

package rtree

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-trip-splitter/pkg/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fix(lat, lon float64) models.GpsPoint {
	return models.GpsPoint{DeviceID: "d1", Lat: lat, Lon: lon, Timestamp: t0}
}

// cityPoints covers several longitude bands so partitioned queries are
// exercised.
func cityPoints() []TripPoint {
	return []TripPoint{
		{TripID: "trip_1", Seq: 0, Point: fix(40.7128, -74.0060)}, // New York
		{TripID: "trip_1", Seq: 1, Point: fix(40.7589, -73.9851)}, // Times Square
		{TripID: "trip_2", Seq: 0, Point: fix(51.5074, -0.1278)},  // London
		{TripID: "trip_2", Seq: 1, Point: fix(48.8566, 2.3522)},   // Paris
		{TripID: "trip_3", Seq: 0, Point: fix(35.6762, 139.6503)}, // Tokyo
	}
}

func TestNewIndexEmpty(t *testing.T) {
	idx := NewIndex()

	assert.Equal(t, int64(0), idx.Count())
}

func TestInsertAndCount(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())

	assert.Equal(t, int64(5), idx.Count())
}

func TestFromTripsNumbering(t *testing.T) {
	trips := []models.Trip{
		{Points: []models.GpsPoint{fix(10, 20), fix(10.001, 20.001)}},
		{Points: []models.GpsPoint{fix(50, 60)}},
	}

	idx := FromTrips(trips)
	require.Equal(t, int64(3), idx.Count())

	hits, err := idx.QueryBox(49, 59, 51, 61)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "trip_2", hits[0].TripID)
	assert.Equal(t, 0, hits[0].Seq)
}

func TestQueryBox(t *testing.T) {
	idx := NewIndexWithPartitions(4)
	idx.Insert(cityPoints())

	// Box around Manhattan: both New York points, nothing else.
	hits, err := idx.QueryBox(40.5, -74.5, 41.0, -73.5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "trip_1", h.TripID)
	}
}

func TestQueryBoxEmptyRegion(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())

	// Middle of the Pacific.
	hits, err := idx.QueryBox(-10, -150, 10, -130)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryRadiusSortedByDistance(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())

	// 500 km around London reaches Paris (~344 km) but not New York.
	hits, err := idx.QueryRadius(51.5074, -0.1278, 500)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 51.5074, hits[0].Point.Lat) // London itself first
	assert.Equal(t, 48.8566, hits[1].Point.Lat)
}

func TestQueryRadiusTight(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())

	hits, err := idx.QueryRadius(51.5074, -0.1278, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "trip_2", hits[0].TripID)
}

func TestNearestNeighbors(t *testing.T) {
	idx := NewIndexWithPartitions(4)
	idx.Insert(cityPoints())

	hits := idx.NearestNeighbors(40.7, -74.0, 2)

	require.Len(t, hits, 2)
	assert.Equal(t, "trip_1", hits[0].TripID)
	assert.Equal(t, "trip_1", hits[1].TripID)
}

func TestNearestNeighborsMoreThanAvailable(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())

	hits := idx.NearestNeighbors(0, 0, 100)

	assert.Len(t, hits, 5)
}

func TestClear(t *testing.T) {
	idx := NewIndex()
	idx.Insert(cityPoints())
	require.Equal(t, int64(5), idx.Count())

	idx.Clear()

	assert.Equal(t, int64(0), idx.Count())
	hits, err := idx.QueryBox(-90, -180, 90, 180)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip_points.gob")

	idx := NewIndex()
	idx.Insert(cityPoints())
	require.NoError(t, idx.SaveToFile(path))

	loaded := NewIndex()
	require.NoError(t, loaded.LoadFromFile(path))

	assert.Equal(t, idx.Count(), loaded.Count())

	hits, err := loaded.QueryRadius(51.5074, -0.1278, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "trip_2", hits[0].TripID)
	assert.Equal(t, 0, hits[0].Seq)
}

func TestLoadFromMissingFile(t *testing.T) {
	idx := NewIndex()

	err := idx.LoadFromFile(filepath.Join(t.TempDir(), "nope.rtree"))

	assert.Error(t, err)
}

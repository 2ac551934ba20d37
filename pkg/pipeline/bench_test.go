package pipeline

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/kass/go-trip-splitter/pkg/models"
)

func syntheticPoints(n int) []models.GpsPoint {
	r := rand.New(rand.NewSource(42))
	points := make([]models.GpsPoint, n)

	lat, lon := 40.0, -74.0
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		lat += (r.Float64() - 0.5) * 0.002
		lon += (r.Float64() - 0.5) * 0.002
		clock = clock.Add(time.Duration(5+r.Intn(120)) * time.Second)
		points[i] = models.GpsPoint{DeviceID: "bench", Lat: lat, Lon: lon, Timestamp: clock}
	}
	return points
}

func BenchmarkValidateRecord(b *testing.B) {
	rec := models.RawRecord{Index: 1, Fields: []string{"d1", "40.7128", "-74.0060", "2024-01-01 12:00:00+02:00"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ValidateRecord(rec)
	}
}

func BenchmarkSegment(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		points := syntheticPoints(size)
		cfg := DefaultConfig()

		b.Run(fmt.Sprintf("points_%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = Segment(points, cfg)
			}
		})
	}
}

func BenchmarkComputeStats(b *testing.B) {
	trip := models.Trip{Points: syntheticPoints(10000)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeStats(trip)
	}
}

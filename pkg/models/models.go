package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// previewLimit caps the raw row text carried into rejects log lines.
const previewLimit = 100

// RawRecord is one raw delimited row before validation. Index is the
// 1-based position in the input source, used only for diagnostics.
type RawRecord struct {
	Index  int
	Fields []string
}

// Preview joins the row back to text for log lines, truncated to at most
// 100 bytes with an ellipsis marker. The cut never splits a multibyte
// rune.
func (r RawRecord) Preview() string {
	s := strings.Join(r.Fields, ",")
	if len(s) <= previewLimit {
		return s
	}
	cut := previewLimit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// GpsPoint is a validated fix. Timestamp is always normalized to UTC.
// RawTimestamp keeps the original text for auditing; it is not part of
// any output artifact.
type GpsPoint struct {
	DeviceID     string    `json:"device_id"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Timestamp    time.Time `json:"timestamp"`
	RawTimestamp string    `json:"-"`
}

// Trip is a non-empty run of chronologically consecutive points with no
// excessive time or distance discontinuity between neighbors. A trip owns
// its points; trips never alias each other.
type Trip struct {
	Points []GpsPoint
}

// First returns the earliest point of the trip.
func (t Trip) First() GpsPoint { return t.Points[0] }

// Last returns the latest point of the trip.
func (t Trip) Last() GpsPoint { return t.Points[len(t.Points)-1] }

// TripStats is the derived, read-only aggregate of one trip. All fields
// are non-negative and rounded to 3 decimal places.
type TripStats struct {
	DistanceKM  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	AvgSpeedKMH float64 `json:"avg_speed_kmh"`
	MaxSpeedKMH float64 `json:"max_speed_kmh"`
}

// RejectReason tags why a row was excluded from the point dataset.
type RejectReason int

const (
	RejectColumnCount RejectReason = iota
	RejectEmptyCoordinate
	RejectNonNumericCoordinate
	RejectCoordinateRange
	RejectEmptyTimestamp
	RejectBadTimestamp
)

// Reject pairs a failed row with its reason. Rejects are a side channel;
// they never join the point dataset.
type Reject struct {
	Row     RawRecord
	Reason  RejectReason
	Message string
}

// String renders the rejects log line for this record.
func (r Reject) String() string {
	return fmt.Sprintf("Row %d ('%s'): %s", r.Row.Index, r.Row.Preview(), r.Message)
}

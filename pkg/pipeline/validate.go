package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kass/go-trip-splitter/pkg/models"
)

// timestampLayouts covers ISO-8601 with a Z suffix, an explicit numeric
// offset (with or without a colon), fractional seconds, and naive
// date-times. Naive timestamps parse as UTC. A literal space in place of
// the T separator is normalized before these are tried.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ValidateRecord turns one raw row into a GpsPoint or a Reject. Malformed
// input is data, not a fault: this never returns an error and never
// panics.
func ValidateRecord(rec models.RawRecord) (*models.GpsPoint, *models.Reject) {
	if len(rec.Fields) != 4 {
		return nil, &models.Reject{
			Row:     rec,
			Reason:  models.RejectColumnCount,
			Message: fmt.Sprintf("Expected 4 columns, got %d.", len(rec.Fields)),
		}
	}

	deviceID, latStr, lonStr, tsStr := rec.Fields[0], rec.Fields[1], rec.Fields[2], rec.Fields[3]

	lat, lon, rej := parseCoordinates(rec, latStr, lonStr)
	if rej != nil {
		return nil, rej
	}

	ts, rej := parseTimestamp(rec, tsStr)
	if rej != nil {
		return nil, rej
	}

	return &models.GpsPoint{
		DeviceID:     deviceID,
		Lat:          lat,
		Lon:          lon,
		Timestamp:    ts,
		RawTimestamp: tsStr,
	}, nil
}

func parseCoordinates(rec models.RawRecord, latStr, lonStr string) (lat, lon float64, rej *models.Reject) {
	if latStr == "" || lonStr == "" {
		return 0, 0, &models.Reject{
			Row:     rec,
			Reason:  models.RejectEmptyCoordinate,
			Message: "Latitude or longitude is empty.",
		}
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, &models.Reject{
			Row:     rec,
			Reason:  models.RejectNonNumericCoordinate,
			Message: fmt.Sprintf("Non-numeric latitude or longitude (lat='%s', lon='%s').", latStr, lonStr),
		}
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, &models.Reject{
			Row:     rec,
			Reason:  models.RejectCoordinateRange,
			Message: fmt.Sprintf("Invalid coordinates lat=%s, lon=%s. Out of range.", latStr, lonStr),
		}
	}

	return lat, lon, nil
}

func parseTimestamp(rec models.RawRecord, tsStr string) (time.Time, *models.Reject) {
	if tsStr == "" {
		return time.Time{}, &models.Reject{
			Row:     rec,
			Reason:  models.RejectEmptyTimestamp,
			Message: "Timestamp is empty.",
		}
	}

	// Some exporters separate date and time with a space instead of T.
	normalized := strings.Replace(tsStr, " ", "T", 1)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, &models.Reject{
		Row:     rec,
		Reason:  models.RejectBadTimestamp,
		Message: fmt.Sprintf("Invalid ISO 8601 timestamp format '%s'.", tsStr),
	}
}

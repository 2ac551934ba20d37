// Package pipeline implements the validation, sorting, segmentation and
// statistics stages of the trip splitter. The stages run strictly in
// sequence over one input source; invalid rows are pipeline outputs
// (rejects), not faults.
package pipeline

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kass/go-trip-splitter/pkg/models"
)

// Config carries the segmentation thresholds for one run. The thresholds
// are injected, never read from package state, so concurrent runs over
// different files stay independent.
type Config struct {
	MaxTimeGapMinutes float64
	MaxDistanceJumpKM float64
}

// DefaultConfig returns the standard gap/jump thresholds.
func DefaultConfig() Config {
	return Config{
		MaxTimeGapMinutes: 25.0,
		MaxDistanceJumpKM: 2.0,
	}
}

// RejectSink receives rejected rows as they are found.
type RejectSink interface {
	Reject(models.Reject)
}

// Collect validates every row from src and returns the accepted points in
// input order along with the reject count. Rejects stream to sink (which
// may be nil) as they happen. onRecord, when non-nil, is called once per
// raw row for progress reporting.
//
// Rows are read one physical line at a time so the 1-based row index in
// diagnostics always matches the line's position in the input: a blank
// line is a zero-column reject, not an invisible skip. Parsing of each
// line is deliberately lenient: wrong field counts and stray quotes
// reach the validator as data. Only unreadable input fails the run.
func Collect(src io.Reader, sink RejectSink, onRecord func()) ([]models.GpsPoint, int, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var points []models.GpsPoint
	rejected := 0

	for i := 1; sc.Scan(); i++ {
		if onRecord != nil {
			onRecord()
		}

		fields, err := splitRow(sc.Text())
		if err != nil {
			return points, rejected, fmt.Errorf("failed to read row %d: %w", i, err)
		}

		point, rej := ValidateRecord(models.RawRecord{Index: i, Fields: fields})
		if rej != nil {
			rejected++
			if sink != nil {
				sink.Reject(*rej)
			}
			continue
		}
		points = append(points, *point)
	}
	if err := sc.Err(); err != nil {
		return points, rejected, fmt.Errorf("failed to read input: %w", err)
	}
	return points, rejected, nil
}

// splitRow parses one physical line into fields. An empty line yields
// zero fields, which the validator rejects by column count.
func splitRow(line string) ([]string, error) {
	if line == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// ComputeAllStats derives statistics for every trip, index-aligned with
// the input.
func ComputeAllStats(trips []models.Trip) []models.TripStats {
	stats := make([]models.TripStats, len(trips))
	for i, trip := range trips {
		stats[i] = ComputeStats(trip)
	}
	return stats
}

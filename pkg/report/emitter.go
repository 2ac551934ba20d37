// Package report writes the per-trip artifacts and the rejects log.
// Everything here is thin I/O around the pipeline's outputs; the only
// policy it owns is the rejects log line format and the best-effort
// nature of diagnostic writes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/kass/go-trip-splitter/pkg/models"
)

// RejectsLog is the append-style diagnostics channel. Writes are best
// effort: a failing write must never compound a record-level or fatal
// error, so errors are swallowed.
type RejectsLog struct {
	w io.Writer
}

// NewRejectsLog wraps w as the rejects channel. A nil writer yields a
// log that silently drops everything.
func NewRejectsLog(w io.Writer) *RejectsLog {
	return &RejectsLog{w: w}
}

// Reject records one rejected row.
func (l *RejectsLog) Reject(rej models.Reject) {
	l.line(rej.String())
}

// Infof records a non-fatal pipeline diagnostic.
func (l *RejectsLog) Infof(format string, args ...any) {
	l.line("INFO: " + fmt.Sprintf(format, args...))
}

// Criticalf records a run-level failure. Like every other write here it
// is best effort; the caller still aborts on the underlying error.
func (l *RejectsLog) Criticalf(format string, args ...any) {
	l.line("CRITICAL: " + fmt.Sprintf(format, args...))
}

func (l *RejectsLog) line(s string) {
	if l.w == nil {
		return
	}
	_, _ = io.WriteString(l.w, s+"\n")
}

// Emitter writes the per-trip and combined artifacts under OutDir.
type Emitter struct {
	OutDir string
}

// WriteTripCSV writes trip_<n>.csv: device id, lat, lon and the UTC
// timestamp rendered with a Z suffix, one row per point in trip order.
func (e Emitter) WriteTripCSV(n int, trip models.Trip) error {
	f, err := os.Create(e.path(fmt.Sprintf("trip_%d.csv", n)))
	if err != nil {
		return fmt.Errorf("failed to create trip csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, p := range trip.Points {
		row := []string{
			p.DeviceID,
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Lon, 'f', -1, 64),
			p.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write trip csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush trip csv: %w", err)
	}
	return nil
}

// WriteTripStats writes trip_<n>.json with the four rounded fields.
func (e Emitter) WriteTripStats(n int, stats models.TripStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trip stats: %w", err)
	}
	if err := os.WriteFile(e.path(fmt.Sprintf("trip_%d.json", n)), data, 0o644); err != nil {
		return fmt.Errorf("failed to write trip stats: %w", err)
	}
	return nil
}

// WriteGeoJSON writes the combined trips.geojson collection. An empty
// collection is still written with an empty feature list.
func (e Emitter) WriteGeoJSON(fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	if err := os.WriteFile(e.path("trips.geojson"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}
	return nil
}

func (e Emitter) path(name string) string {
	if e.OutDir == "" {
		return name
	}
	return filepath.Join(e.OutDir, name)
}

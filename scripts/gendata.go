// Command gendata writes a synthetic GPS fix file in the 4-column input
// format (device_id,lat,lon,timestamp). Devices random-walk around a
// start location; occasional long pauses and teleports produce trip
// boundaries, and a fraction of rows is deliberately malformed to
// exercise the rejects path.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"
)

func main() {
	var (
		output    = flag.String("o", "points.csv", "Output file path")
		devices   = flag.Int("devices", 5, "Number of simulated devices")
		rows      = flag.Int("rows", 10000, "Total rows to generate")
		malformed = flag.Float64("malformed", 0.03, "Fraction of rows made invalid")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	r := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	type walker struct {
		id       string
		lat, lon float64
		clock    time.Time
	}

	walkers := make([]*walker, *devices)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range walkers {
		walkers[i] = &walker{
			id:    fmt.Sprintf("device_%03d", i+1),
			lat:   48.0 + r.Float64()*4.0,
			lon:   2.0 + r.Float64()*8.0,
			clock: base.Add(time.Duration(r.Intn(3600)) * time.Second),
		}
	}

	w := csv.NewWriter(f)
	for i := 0; i < *rows; i++ {
		wk := walkers[r.Intn(len(walkers))]

		// Small moves most of the time; sometimes a long pause or a jump
		// far enough to start a new trip.
		wk.lat += (r.Float64() - 0.5) * 0.004
		wk.lon += (r.Float64() - 0.5) * 0.004
		switch {
		case r.Float64() < 0.01:
			wk.clock = wk.clock.Add(time.Duration(30+r.Intn(90)) * time.Minute)
		case r.Float64() < 0.01:
			wk.lat += 0.05 + r.Float64()*0.2
		default:
			wk.clock = wk.clock.Add(time.Duration(10+r.Intn(120)) * time.Second)
		}

		row := []string{
			wk.id,
			strconv.FormatFloat(wk.lat, 'f', 6, 64),
			strconv.FormatFloat(wk.lon, 'f', 6, 64),
			wk.clock.Format(time.RFC3339),
		}

		if r.Float64() < *malformed {
			switch r.Intn(4) {
			case 0:
				row = row[:3]
			case 1:
				row[1] = "not-a-number"
			case 2:
				row[2] = "200.0"
			case 3:
				row[3] = "soon"
			}
		}

		if err := w.Write(row); err != nil {
			log.Fatalf("Failed to write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}

	fmt.Printf("Wrote %d rows for %d devices to %s\n", *rows, *devices, *output)
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kass/go-trip-splitter/pkg/config"
	"github.com/kass/go-trip-splitter/pkg/geometry"
	"github.com/kass/go-trip-splitter/pkg/pipeline"
	"github.com/kass/go-trip-splitter/pkg/report"
	"github.com/kass/go-trip-splitter/pkg/rtree"
)

var rootCmd = &cobra.Command{
	Use:   "trip-splitter",
	Short: "Split raw GPS fix streams into cleaned, map-ready trips",
	Long: `Validates a delimited stream of GPS fixes, orders it chronologically,
segments it into trips using time-gap and distance-jump heuristics, and
emits per-trip CSV/JSON artifacts plus a combined GeoJSON collection.`,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the validation/segmentation pipeline over one input file",
	Run:   runProcess,
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Spatial queries over a saved trip point index",
	Long:  `Queries a gob snapshot written by 'process --index' for trip points near a location.`,
	Run:   runLocate,
}

var (
	inputFile    string
	outDir       string
	rejectsPath  string
	maxGap       float64
	maxJump      float64
	dropSingle   bool
	simplifyTol  float64
	configPath   string
	indexFile    string
	showProgress bool

	locateFile   string
	locateLat    float64
	locateLon    float64
	locateRadius float64
	locateK      int
)

func init() {
	processCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file (device_id,lat,lon,timestamp)")
	processCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory for trip artifacts")
	processCmd.Flags().StringVar(&rejectsPath, "rejects", "rejects.log", "Rejects log path")
	processCmd.Flags().Float64Var(&maxGap, "max-gap", 25.0, "Trip split threshold: time gap in minutes")
	processCmd.Flags().Float64Var(&maxJump, "max-jump", 2.0, "Trip split threshold: distance jump in km")
	processCmd.Flags().BoolVar(&dropSingle, "drop-single", false, "Drop single-point trips from the GeoJSON instead of duplicating their coordinate")
	processCmd.Flags().Float64Var(&simplifyTol, "simplify", 0, "Douglas-Peucker tolerance for trip geometry (0 disables)")
	processCmd.Flags().StringVarP(&configPath, "config", "c", "", "Optional YAML config file")
	processCmd.Flags().StringVar(&indexFile, "index", "", "Also save an R-Tree snapshot of all trip points to this file")
	processCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar while reading rows")
	_ = processCmd.MarkFlagRequired("input")

	locateCmd.Flags().StringVarP(&locateFile, "file", "f", "trip_points.gob", "Index file written by 'process --index'")
	locateCmd.Flags().Float64Var(&locateLat, "lat", 0, "Query latitude")
	locateCmd.Flags().Float64Var(&locateLon, "lon", 0, "Query longitude")
	locateCmd.Flags().Float64VarP(&locateRadius, "radius", "r", 0, "Radius search in km (0 disables)")
	locateCmd.Flags().IntVarP(&locateK, "nearest", "n", 0, "Nearest neighbor count (0 disables)")

	rootCmd.AddCommand(processCmd, locateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProcess(cmd *cobra.Command, args []string) {
	cfg := pipeline.DefaultConfig()
	opts := geometry.Options{}

	if configPath != "" {
		file, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		file.Apply(&cfg, &opts)
	}

	// Flags override config file values only when set explicitly.
	if cmd.Flags().Changed("max-gap") {
		cfg.MaxTimeGapMinutes = maxGap
	}
	if cmd.Flags().Changed("max-jump") {
		cfg.MaxDistanceJumpKM = maxJump
	}
	if cmd.Flags().Changed("drop-single") {
		opts.DropSinglePointTrips = dropSingle
	}
	if cmd.Flags().Changed("simplify") {
		opts.SimplifyTolerance = simplifyTol
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// The rejects log opens first so run-level diagnostics have a home
	// even when the input turns out to be unreadable.
	rejectsFile, err := os.Create(rejectsPath)
	if err != nil {
		log.Fatalf("Failed to create rejects log '%s': %v", rejectsPath, err)
	}
	defer rejectsFile.Close()
	rejects := report.NewRejectsLog(rejectsFile)

	src, err := os.Open(inputFile)
	if err != nil {
		rejects.Criticalf("Input file '%s' not found or is not readable.", inputFile)
		log.Fatalf("Input file '%s' not found or is not readable: %v", inputFile, err)
	}
	defer src.Close()

	var onRecord func()
	if showProgress {
		bar := progressbar.Default(-1, "validating rows")
		onRecord = func() { _ = bar.Add(1) }
	}

	points, rejected, err := pipeline.Collect(src, rejects, onRecord)
	if err != nil {
		rejects.Criticalf("Error reading input file '%s': %v", inputFile, err)
		log.Fatalf("Error reading input file '%s': %v", inputFile, err)
	}

	emitter := report.Emitter{OutDir: outDir}
	sorted := pipeline.SortByTime(points)

	if len(sorted) == 0 {
		rejects.Infof("No valid GPS points found after cleaning and sorting.")
		// Still emit the collection, with an empty feature list.
		fc, _ := geometry.BuildCollection(nil, nil, opts)
		if err := emitter.WriteGeoJSON(fc); err != nil {
			rejects.Criticalf("%v", err)
			log.Fatalf("Failed to write geojson: %v", err)
		}
		fmt.Printf("Processing complete. 0 trips identified, %d rows rejected.\n", rejected)
		return
	}

	trips := pipeline.Segment(sorted, cfg)
	stats := pipeline.ComputeAllStats(trips)

	for i, trip := range trips {
		n := i + 1
		if err := emitter.WriteTripCSV(n, trip); err != nil {
			rejects.Criticalf("%v", err)
			log.Fatalf("Failed to write trip %d: %v", n, err)
		}
		if err := emitter.WriteTripStats(n, stats[i]); err != nil {
			rejects.Criticalf("%v", err)
			log.Fatalf("Failed to write trip %d stats: %v", n, err)
		}
	}

	fc, excluded := geometry.BuildCollection(trips, stats, opts)
	for _, n := range excluded {
		rejects.Infof("Trip %d has < 2 coordinates for LineString, not included in GeoJSON.", n)
	}
	if err := emitter.WriteGeoJSON(fc); err != nil {
		rejects.Criticalf("%v", err)
		log.Fatalf("Failed to write geojson: %v", err)
	}

	if indexFile != "" {
		idx := rtree.FromTrips(trips)
		if err := idx.SaveToFile(indexFile); err != nil {
			rejects.Criticalf("%v", err)
			log.Fatalf("Failed to save point index: %v", err)
		}
		fmt.Printf("Point index saved to %s (%d points)\n", indexFile, idx.Count())
	}

	fmt.Printf("Processing complete. %d trips identified, %d rows rejected.\n", len(trips), rejected)
	fmt.Printf("Output files generated in %s\n", outDir)
	fmt.Printf("Rejects (if any) logged to: %s\n", rejectsPath)
}

func runLocate(cmd *cobra.Command, args []string) {
	idx := rtree.NewIndex()
	if err := idx.LoadFromFile(locateFile); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	fmt.Printf("Loaded %d trip points from %s\n", idx.Count(), locateFile)

	var (
		results []rtree.TripPoint
		err     error
	)
	switch {
	case locateRadius > 0:
		results, err = idx.QueryRadius(locateLat, locateLon, locateRadius)
		if err != nil {
			log.Fatalf("Radius search failed: %v", err)
		}
		fmt.Printf("%d points within %.1f km of (%.5f, %.5f):\n", len(results), locateRadius, locateLat, locateLon)
	case locateK > 0:
		results = idx.NearestNeighbors(locateLat, locateLon, locateK)
		fmt.Printf("%d nearest points to (%.5f, %.5f):\n", len(results), locateLat, locateLon)
	default:
		log.Fatalf("Specify either --radius or --nearest")
	}

	for _, tp := range results {
		fmt.Printf("%s[%d] device=%s lat=%.6f lon=%.6f at %s\n",
			tp.TripID, tp.Seq, tp.Point.DeviceID, tp.Point.Lat, tp.Point.Lon,
			tp.Point.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	}
}

// Command benchmark measures query throughput against a saved trip
// index, fanning random queries across a worker pool.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/go-trip-splitter/pkg/rtree"
)

type result struct {
	queryType     string
	totalQueries  int
	totalDuration time.Duration
	totalResults  int64
}

func main() {
	var (
		indexFile  = flag.String("i", "trip_points.gob", "Index file written by 'process --index'")
		queryType  = flag.String("t", "radius", "Query type: box, radius, nearest")
		numQueries = flag.Int("n", 1000, "Number of queries to run")
		workers    = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		minLat     = flag.Float64("min-lat", 40.0, "Minimum latitude for random queries")
		maxLat     = flag.Float64("max-lat", 55.0, "Maximum latitude for random queries")
		minLon     = flag.Float64("min-lon", -5.0, "Minimum longitude for random queries")
		maxLon     = flag.Float64("max-lon", 15.0, "Maximum longitude for random queries")
		boxSize    = flag.Float64("box-size", 0.5, "Box size in degrees (box queries)")
		radius     = flag.Float64("radius", 5.0, "Radius in km (radius queries)")
		k          = flag.Int("k", 50, "Neighbor count (nearest queries)")
	)
	flag.Parse()

	index := rtree.NewIndex()
	if err := index.LoadFromFile(*indexFile); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	log.Printf("Index loaded with %d trip points", index.Count())

	// Each query draws a random location inside the configured bounds and
	// returns how many trip points it matched.
	var query func(r *rand.Rand) int
	switch *queryType {
	case "box":
		query = func(r *rand.Rand) int {
			lat := *minLat + r.Float64()*(*maxLat-*minLat-*boxSize)
			lon := *minLon + r.Float64()*(*maxLon-*minLon-*boxSize)
			hits, err := index.QueryBox(lat, lon, lat+*boxSize, lon+*boxSize)
			if err != nil {
				return 0
			}
			return len(hits)
		}
	case "radius":
		query = func(r *rand.Rand) int {
			lat := *minLat + r.Float64()*(*maxLat-*minLat)
			lon := *minLon + r.Float64()*(*maxLon-*minLon)
			hits, err := index.QueryRadius(lat, lon, *radius)
			if err != nil {
				return 0
			}
			return len(hits)
		}
	case "nearest":
		query = func(r *rand.Rand) int {
			lat := *minLat + r.Float64()*(*maxLat-*minLat)
			lon := *minLon + r.Float64()*(*maxLon-*minLon)
			return len(index.NearestNeighbors(lat, lon, *k))
		}
	default:
		log.Fatalf("Unknown query type: %s", *queryType)
	}

	log.Printf("Running %d %s queries with %d workers...", *numQueries, *queryType, *workers)
	res := run(*queryType, *numQueries, *workers, query)

	fmt.Println("\n=== Benchmark Results ===")
	fmt.Printf("Query Type: %s\n", res.queryType)
	fmt.Printf("Total Queries: %d\n", res.totalQueries)
	fmt.Printf("Total Duration: %v\n", res.totalDuration)
	fmt.Printf("Queries/Second: %.2f\n", float64(res.totalQueries)/res.totalDuration.Seconds())
	fmt.Printf("Avg Results/Query: %.2f\n", float64(res.totalResults)/float64(res.totalQueries))
	fmt.Printf("Workers Used: %d\n", *workers)
}

func run(queryType string, numQueries, workers int, query func(r *rand.Rand) int) result {
	var totalResults int64

	queryCh := make(chan struct{}, numQueries)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(rand.Int63()))
			for range queryCh {
				atomic.AddInt64(&totalResults, int64(query(r)))
			}
		}()
	}

	for i := 0; i < numQueries; i++ {
		queryCh <- struct{}{}
	}
	close(queryCh)
	wg.Wait()

	return result{
		queryType:     queryType,
		totalQueries:  numQueries,
		totalDuration: time.Since(start),
		totalResults:  totalResults,
	}
}

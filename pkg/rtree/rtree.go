// Package rtree provides an R-Tree index over cleaned trip points so a
// processed run can be queried spatially (which trips pass near a
// location) without re-reading the raw input.
package rtree

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-trip-splitter/pkg/geo"
	"github.com/kass/go-trip-splitter/pkg/models"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// TripPoint ties one cleaned GPS fix to the trip that owns it. Seq is
// the point's 0-based position inside the trip.
type TripPoint struct {
	TripID string
	Seq    int
	Point  models.GpsPoint
}

// spatialPoint wraps a TripPoint to implement rtreego.Spatial.
type spatialPoint struct {
	*TripPoint
	rect *rtreego.Rect
}

func (sp *spatialPoint) Bounds() *rtreego.Rect {
	return sp.rect
}

// lonBand is one longitude partition of the index.
type lonBand struct {
	minLon, maxLon float64
}

// Index is a thread-safe R-Tree over trip points, partitioned into
// longitude bands so queries can fan out across CPUs.
type Index struct {
	partitions []*rtreego.Rtree
	bands      []lonBand
	numBands   int
	mu         sync.RWMutex
	itemCount  atomic.Int64
}

// NewIndex creates an index with one partition per CPU.
func NewIndex() *Index {
	return NewIndexWithPartitions(runtime.NumCPU())
}

// NewIndexWithPartitions creates an index with the given partition
// count; non-positive falls back to the CPU count.
func NewIndexWithPartitions(n int) *Index {
	if n <= 0 {
		n = runtime.NumCPU()
	}

	partitions := make([]*rtreego.Rtree, n)
	bands := make([]lonBand, n)

	lonRange := 360.0 / float64(n)
	for i := 0; i < n; i++ {
		partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)

		minLon := -180.0 + float64(i)*lonRange
		maxLon := minLon + lonRange
		if i == n-1 {
			maxLon = 180.0
		}
		bands[i] = lonBand{minLon: minLon, maxLon: maxLon}
	}

	return &Index{
		partitions: partitions,
		bands:      bands,
		numBands:   n,
	}
}

// FromTrips builds an index over every point of every trip, using the
// same 1-based trip numbering as the emitted artifacts.
func FromTrips(trips []models.Trip) *Index {
	idx := NewIndex()
	entries := make([]TripPoint, 0)
	for i, trip := range trips {
		for seq, p := range trip.Points {
			entries = append(entries, TripPoint{
				TripID: tripID(i + 1),
				Seq:    seq,
				Point:  p,
			})
		}
	}
	idx.Insert(entries)
	return idx
}

// Insert adds trip points to the index, distributing them across
// longitude partitions and inserting each partition in parallel.
func (g *Index) Insert(entries []TripPoint) {
	if len(entries) == 0 {
		return
	}

	partitioned := make([][]*spatialPoint, g.numBands)
	lonRange := 360.0 / float64(g.numBands)
	for i := range entries {
		e := &entries[i]
		p := rtreego.Point{e.Point.Lat, e.Point.Lon}
		sp := &spatialPoint{e, p.ToRect(tolerance)}

		bandIdx := int((e.Point.Lon + 180.0) / lonRange)
		if bandIdx >= g.numBands {
			bandIdx = g.numBands - 1
		}
		if bandIdx < 0 {
			bandIdx = 0
		}
		partitioned[bandIdx] = append(partitioned[bandIdx], sp)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < g.numBands; i++ {
		if len(partitioned[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(bandIdx int, items []*spatialPoint) {
			defer wg.Done()
			for _, item := range items {
				g.partitions[bandIdx].Insert(item)
			}
			g.itemCount.Add(int64(len(items)))
		}(i, partitioned[i])
	}
	wg.Wait()
}

// QueryBox returns all trip points inside the bounding box defined by
// its bottom-left and top-right corners.
func (g *Index) QueryBox(latBL, lonBL, latTR, lonTR float64) ([]TripPoint, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	bounds, err := rtreego.NewRect(
		rtreego.Point{latBL, lonBL},
		[]float64{latTR - latBL, lonTR - lonBL},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	var out []TripPoint
	for _, bandIdx := range g.relevantBands(lonBL, lonTR) {
		for _, result := range g.partitions[bandIdx].SearchIntersect(bounds) {
			item, ok := result.(*spatialPoint)
			if !ok {
				continue
			}
			// The rect carries the indexing tolerance; re-check the
			// actual coordinates.
			p := item.Point
			if p.Lat >= latBL && p.Lat <= latTR && p.Lon >= lonBL && p.Lon <= lonTR {
				out = append(out, *item.TripPoint)
			}
		}
	}
	return out, nil
}

// QueryRadius returns all trip points within radiusKm of the center,
// ordered by distance ascending.
func (g *Index) QueryRadius(lat, lon, radiusKm float64) ([]TripPoint, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Widen to a degree box first, then filter by true distance.
	deg := (radiusKm / geo.EarthRadiusKM) * (180 / math.Pi)
	bounds, err := rtreego.NewRect(
		rtreego.Point{lat - deg, lon - deg},
		[]float64{2 * deg, 2 * deg},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	type hit struct {
		tp   TripPoint
		dist float64
	}
	var hits []hit
	for _, bandIdx := range g.relevantBands(lon-deg, lon+deg) {
		for _, result := range g.partitions[bandIdx].SearchIntersect(bounds) {
			item, ok := result.(*spatialPoint)
			if !ok {
				continue
			}
			dist := geo.Distance(lat, lon, item.Point.Lat, item.Point.Lon)
			if dist <= radiusKm {
				hits = append(hits, hit{*item.TripPoint, dist})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]TripPoint, len(hits))
	for i, h := range hits {
		out[i] = h.tp
	}
	return out, nil
}

// NearestNeighbors returns the n trip points closest to the location,
// merging candidates from every partition.
func (g *Index) NearestNeighbors(lat, lon float64, n int) []TripPoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type hit struct {
		tp   TripPoint
		dist float64
	}
	var hits []hit
	queryPoint := rtreego.Point{lat, lon}
	for i := 0; i < g.numBands; i++ {
		// Over-fetch per partition; the merge below trims to n.
		for _, result := range g.partitions[i].NearestNeighbors(n, queryPoint) {
			item, ok := result.(*spatialPoint)
			if !ok {
				continue
			}
			hits = append(hits, hit{
				tp:   *item.TripPoint,
				dist: geo.Distance(lat, lon, item.Point.Lat, item.Point.Lon),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if len(hits) > n {
		hits = hits[:n]
	}

	out := make([]TripPoint, len(hits))
	for i, h := range hits {
		out[i] = h.tp
	}
	return out
}

// Count returns the number of indexed trip points.
func (g *Index) Count() int64 {
	return g.itemCount.Load()
}

// Clear removes all points from the index.
func (g *Index) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < g.numBands; i++ {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	g.itemCount.Store(0)
}

// relevantBands returns the partitions whose longitude band intersects
// [minLon, maxLon].
func (g *Index) relevantBands(minLon, maxLon float64) []int {
	var relevant []int
	for i, band := range g.bands {
		if minLon <= band.maxLon && maxLon >= band.minLon {
			relevant = append(relevant, i)
		}
	}
	return relevant
}

func tripID(n int) string {
	return fmt.Sprintf("trip_%d", n)
}

// Package geoindex answers "which collection points are near me" from an
// in-memory R-tree of point coordinates.
package geoindex

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/ecoleta/ecoleta/internal/model"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50
	tolerance   = 1e-6
	earthRadius = 6371.0 // km
	kmPerDegree = earthRadius * math.Pi / 180
)

// Hit is a point found by a search and its distance from the query location.
type Hit struct {
	Point      model.Point
	DistanceKm float64
}

type entry struct {
	point model.Point
	rect  rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is a thread-safe R-tree of collection points keyed by point id.
type Index struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	entries map[int64]*entry
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree:    rtreego.NewTree(dimensions, minChildren, maxChildren),
		entries: make(map[int64]*entry),
	}
}

// Load replaces the index contents with points.
func (ix *Index) Load(points []model.Point) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	entries := make(map[int64]*entry, len(points))
	for _, p := range points {
		if old, ok := entries[p.ID]; ok {
			tree.Delete(old)
		}
		e := newEntry(p)
		entries[p.ID] = e
		tree.Insert(e)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree = tree
	ix.entries = entries
}

// Put adds p, replacing any point with the same id.
func (ix *Index) Put(p model.Point) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.entries[p.ID]; ok {
		ix.tree.Delete(old)
	}
	e := newEntry(p)
	ix.entries[p.ID] = e
	ix.tree.Insert(e)
}

// Remove drops the point with the given id, if present.
func (ix *Index) Remove(id int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if e, ok := ix.entries[id]; ok {
		ix.tree.Delete(e)
		delete(ix.entries, id)
	}
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Radius returns the points within radiusKm of (lat, lon), closest first.
// Candidates come from a bounding box in degrees; a box crossing the ±180°
// meridian is searched again shifted by 360° so both sides are covered.
func (ix *Index) Radius(lat, lon, radiusKm float64) []Hit {
	if radiusKm <= 0 {
		return []Hit{}
	}

	dLat := radiusKm / kmPerDegree
	dLon := 180.0
	if c := math.Cos(lat * math.Pi / 180); c > 1e-9 {
		dLon = math.Min(dLat/c, 180)
	}

	centers := []float64{lon}
	if lon-dLon < -180 {
		centers = append(centers, lon+360)
	}
	if lon+dLon > 180 {
		centers = append(centers, lon-360)
	}

	seen := make(map[int64]bool)
	hits := []Hit{}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, center := range centers {
		bounds, err := rtreego.NewRect(
			rtreego.Point{lat - dLat, center - dLon},
			[]float64{2 * dLat, 2 * dLon},
		)
		if err != nil {
			continue
		}
		for _, r := range ix.tree.SearchIntersect(bounds) {
			e, ok := r.(*entry)
			if !ok || seen[e.point.ID] {
				continue
			}
			seen[e.point.ID] = true
			d := Haversine(lat, lon, e.point.Latitude, e.point.Longitude)
			if d <= radiusKm {
				hits = append(hits, Hit{Point: e.point, DistanceKm: d})
			}
		}
	}
	sortHits(hits)
	return hits
}

// Nearest returns up to k points closest to (lat, lon), ordered by
// great-circle distance. The k candidates are picked by planar distance in
// degrees, so near the poles or across the ±180° meridian they may not be the
// true k nearest. Collection points sit far from both, so this does not
// matter in practice.
func (ix *Index) Nearest(lat, lon float64, k int) []Hit {
	if k <= 0 {
		return []Hit{}
	}

	ix.mu.RLock()
	results := ix.tree.NearestNeighbors(k, rtreego.Point{lat, lon})
	ix.mu.RUnlock()

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		e, ok := r.(*entry)
		if !ok || e == nil {
			continue
		}
		hits = append(hits, Hit{
			Point:      e.point,
			DistanceKm: Haversine(lat, lon, e.point.Latitude, e.point.Longitude),
		})
	}
	sortHits(hits)
	return hits
}

func newEntry(p model.Point) *entry {
	return &entry{
		point: p,
		rect:  rtreego.Point{p.Latitude, p.Longitude}.ToRect(tolerance),
	}
}

func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].Point.ID < hits[j].Point.ID
	})
}

// Haversine returns the great-circle distance in km between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

package mapdata

import (
	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/uber/h3-go/v4"
)

// fineCellResolution (H3 res 9, ~174m edge) buckets every junction into
// the fine map, which no query reads. Both nearest and within walk k-rings
// of coarseCellResolution (res 8, ~460m edge) cells and then filter the
// candidates by exact distance.
const (
	fineCellResolution   = 9
	coarseCellResolution = 8
)

// spatialIndex maps an H3 cell to the junction points that fall in it,
// a "tile key -> set of points" mapping, with H3 standing in for a
// hand-rolled lat/lon bucket grid.
type spatialIndex struct {
	fine   map[h3.Cell][]PointID
	coarse map[h3.Cell][]PointID
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{
		fine:   make(map[h3.Cell][]PointID),
		coarse: make(map[h3.Cell][]PointID),
	}
}

func (s *spatialIndex) insert(p Point) {
	ll := h3.NewLatLng(p.Lat, p.Lon)
	fc := h3.LatLngToCell(ll, fineCellResolution)
	cc := h3.LatLngToCell(ll, coarseCellResolution)
	s.fine[fc] = append(s.fine[fc], p.ID)
	s.coarse[cc] = append(s.coarse[cc], p.ID)
}

// candidatesWithinRings returns every point bucketed into the coarse cell
// containing (lat, lon) or any of its k neighboring rings.
func (s *spatialIndex) candidatesWithinRings(lat, lon float64, k int) []PointID {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), coarseCellResolution)
	cells := h3.GridDisk(origin, k)
	var out []PointID
	for _, c := range cells {
		out = append(out, s.coarse[c]...)
	}
	return out
}

// ringsForRadius picks a k-ring size generous enough to cover radiusMeters
// from the center of a coarse cell, given its approximate edge length.
func ringsForRadius(radiusMeters float64) int {
	const coarseEdgeMeters = 461.0
	k := int(radiusMeters/coarseEdgeMeters) + 1
	if k < 1 {
		k = 1
	}
	return k
}

// nearest scans expanding rings until it finds at least one candidate
// point within maxRadiusMeters, then returns the closest by exact
// haversine distance. Returns (InvalidPoint, false) if nothing is found
// within maxRadiusMeters.
func (s *spatialIndex) nearest(points []Point, lat, lon, maxRadiusMeters float64) (PointID, bool) {
	maxK := ringsForRadius(maxRadiusMeters)
	seen := make(map[PointID]bool)
	best := InvalidPoint
	bestDist := maxRadiusMeters

	for k := 1; k <= maxK; k++ {
		candidates := s.candidatesWithinRings(lat, lon, k)
		foundAny := false
		for _, pid := range candidates {
			if seen[pid] {
				continue
			}
			seen[pid] = true
			p := points[pid]
			d := geo.HaversineDistanceMeters(lat, lon, p.Lat, p.Lon)
			if d <= bestDist {
				bestDist = d
				best = pid
				foundAny = true
			} else if d <= maxRadiusMeters {
				foundAny = true
			}
		}
		// Once we have a candidate, one more ring guards against a closer
		// point sitting just across a cell boundary, then stop.
		if foundAny && best != InvalidPoint {
			candidates = s.candidatesWithinRings(lat, lon, k+1)
			for _, pid := range candidates {
				if seen[pid] {
					continue
				}
				seen[pid] = true
				p := points[pid]
				d := geo.HaversineDistanceMeters(lat, lon, p.Lat, p.Lon)
				if d < bestDist {
					bestDist = d
					best = pid
				}
			}
			break
		}
	}
	if best == InvalidPoint {
		return InvalidPoint, false
	}
	return best, true
}

// within returns every point within radiusMeters of (lat, lon), by exact
// haversine distance over the ring-filtered candidate set.
func (s *spatialIndex) within(points []Point, lat, lon, radiusMeters float64) []PointID {
	k := ringsForRadius(radiusMeters)
	candidates := s.candidatesWithinRings(lat, lon, k)
	seen := make(map[PointID]bool)
	var out []PointID
	for _, pid := range candidates {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		p := points[pid]
		if geo.HaversineDistanceMeters(lat, lon, p.Lat, p.Lon) <= radiusMeters {
			out = append(out, pid)
		}
	}
	return out
}

package routegen

import (
	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
)

// Route is a finished itinerary's walked path plus the aggregates
// attached to it: distance per highway class, distance per surface
// class, and a twistiness score.
type Route struct {
	Label               string
	Segments            []mapdata.SegmentID
	TotalDistanceMeters float64
	DistanceByHighway   map[string]float64
	DistanceBySurface   map[string]float64
	// TwistinessDegPerKm is the cumulative absolute turn-angle in degrees
	// over the route, divided by its length in kilometers, per the
	// Open Question resolution in DESIGN.md.
	TwistinessDegPerKm float64
}

// buildRoute aggregates a walked segment sequence into a Route.
func buildRoute(g *mapdata.Graph, label string, segs []mapdata.SegmentID) Route {
	r := Route{
		Label:             label,
		Segments:          segs,
		DistanceByHighway: map[string]float64{},
		DistanceBySurface: map[string]float64{},
	}

	var turnSum float64
	var prevBearing float64
	havePrev := false

	for _, sid := range segs {
		seg := g.Segment(sid)
		way := g.Way(seg.Way)
		r.TotalDistanceMeters += seg.LengthMeters
		r.DistanceByHighway[way.Highway] += seg.LengthMeters
		if way.Surface != "" {
			r.DistanceBySurface[way.Surface] += seg.LengthMeters
		}

		from := g.Point(seg.From)
		to := g.Point(seg.To)
		bearing := geo.BearingDegrees(from.Lat, from.Lon, to.Lat, to.Lon)
		if havePrev {
			turnSum += geo.TurnAngleDegrees(prevBearing, bearing)
		}
		prevBearing = bearing
		havePrev = true
	}

	if r.TotalDistanceMeters > 0 {
		r.TwistinessDegPerKm = turnSum / (r.TotalDistanceMeters / 1000.0)
	}
	return r
}

// segmentKey renders a segment sequence into a comparable value for
// exact deduplication.
func segmentKey(segs []mapdata.SegmentID) string {
	b := make([]byte, 0, len(segs)*5)
	for _, s := range segs {
		b = append(b, byte(s), byte(s>>8), byte(s>>16), byte(s>>24), ',')
	}
	return string(b)
}

// overlapRatio returns the fraction of a's length that consists of segments
// also present in b, used by the near-duplicate drop threshold.
func overlapRatio(g *mapdata.Graph, a, b []mapdata.SegmentID) float64 {
	if len(a) == 0 {
		return 0
	}
	inB := make(map[mapdata.SegmentID]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var shared, total float64
	for _, s := range a {
		length := g.Segment(s).LengthMeters
		total += length
		if inB[s] {
			shared += length
		}
	}
	if total == 0 {
		return 0
	}
	return shared / total
}

// Package mapdata implements the immutable, in-memory routable graph:
// Points (junctions), Segments (directed road pieces between junctions),
// Ways (OSM metadata), turn restrictions and a spatial index. The graph
// is built once from an osmsource.Entity stream and is read-only for the
// remainder of the process.
package mapdata

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/ridi-bike/ridi-router/pkg/osmsource"
)

// DefaultMaxSnapRadiusMeters bounds how far nearest_junction will search
// before returning SnapFailed.
const DefaultMaxSnapRadiusMeters = 2000.0

// Graph is the arena-backed routable road graph. All cross references
// between points, segments, ways and restrictions are ids into the slices
// below, not pointers, which sidesteps the cyclic-reference problem and
// keeps iteration cache-friendly.
type Graph struct {
	points     []Point
	segments   []Segment
	ways       []Way
	wayByID    map[WayID]int
	waySegs    map[WayID][]SegmentID
	pointByOSM map[int64]PointID
	restrict   map[PointID][]TurnRestriction
	index      *spatialIndex
}

// NumPoints and NumSegments expose the arena sizes, mostly useful for
// metrics and tests.
func (g *Graph) NumPoints() int   { return len(g.points) }
func (g *Graph) NumSegments() int { return len(g.segments) }

// Point returns the Point for id. Panics on an out-of-range id, matching
// the arena contract: ids handed back by this package are always valid.
func (g *Graph) Point(id PointID) Point { return g.points[id] }

// Segment returns the Segment for id.
func (g *Graph) Segment(id SegmentID) Segment { return g.segments[id] }

// Way returns the Way for id.
func (g *Graph) Way(id WayID) Way { return g.ways[g.wayByID[id]] }

// SegmentGeometry returns the full ordered polyline for a segment,
// including its endpoint coordinates, ready for output rendering.
func (g *Graph) SegmentGeometry(id SegmentID) [][2]float64 {
	seg := g.segments[id]
	from := g.points[seg.From]
	to := g.points[seg.To]

	out := make([][2]float64, 0, len(seg.Polyline)+2)
	out = append(out, [2]float64{from.Lat, from.Lon})
	out = append(out, seg.Polyline...)
	out = append(out, [2]float64{to.Lat, to.Lon})
	return out
}

// NearestJunction snaps (lat, lon) to the closest junction point within
// maxRadiusMeters. Returns SnapFailed (NoJunctionInRadius) if none exists.
func (g *Graph) NearestJunction(lat, lon, maxRadiusMeters float64) (PointID, error) {
	id, ok := g.index.nearest(g.points, lat, lon, maxRadiusMeters)
	if !ok {
		return InvalidPoint, rerrors.New(rerrors.SnapFailed,
			"no junction within %.0fm of (%.6f, %.6f)", maxRadiusMeters, lat, lon)
	}
	return id, nil
}

// JunctionsWithin returns every junction point within radiusMeters of
// (lat, lon).
func (g *Graph) JunctionsWithin(lat, lon, radiusMeters float64) []PointID {
	return g.index.within(g.points, lat, lon, radiusMeters)
}

// Outgoing returns the segments leaving point, honoring any turn
// restriction that applies given incoming (the segment the walker arrived
// on). incoming may be InvalidSegment for a trip's very first point, in
// which case no restriction can apply (restrictions always key off a real
// incoming segment).
func (g *Graph) Outgoing(point PointID, incoming SegmentID) []SegmentID {
	p := g.points[point]
	var out []SegmentID
	for _, segID := range p.IncidentSegments {
		seg := g.segments[segID]
		if seg.From != point {
			continue
		}
		out = append(out, segID)
	}
	if incoming == InvalidSegment {
		return out
	}

	rules, ok := g.restrict[point]
	if !ok {
		return out
	}

	var onlySet map[SegmentID]bool
	noSet := make(map[SegmentID]bool)
	for _, r := range rules {
		if r.FromSegment != incoming {
			continue
		}
		switch r.Kind {
		case RestrictionOnly:
			if onlySet == nil {
				onlySet = make(map[SegmentID]bool)
			}
			onlySet[r.ToSegment] = true
		case RestrictionNo:
			noSet[r.ToSegment] = true
		}
	}
	if onlySet == nil && len(noSet) == 0 {
		return out
	}

	filtered := make([]SegmentID, 0, len(out))
	for _, segID := range out {
		if onlySet != nil && !onlySet[segID] {
			continue
		}
		if noSet[segID] {
			continue
		}
		filtered = append(filtered, segID)
	}
	return filtered
}

// --- Build ---

type wayAccum struct {
	id      int64
	nodeIDs []int64
	tags    map[string]string
}

type nodeCoord struct {
	lat, lon float64
}

// Build consumes an osmsource.Entity stream and constructs a read-only
// Graph across five phases: node pass, way pass (split at junctions),
// junction pass (incidence lists), a restriction pass and a spatial
// index pass. Build fails on malformed input (a way referencing a node
// missing from the node pass).
func Build(ctx context.Context, entities <-chan osmsource.Entity, errs <-chan error) (*Graph, error) {
	nodes := make(map[int64]nodeCoord)
	var ways []wayAccum
	var relations []osmsource.Relation

	for e := range entities {
		switch e.Type {
		case osmsource.EntityNode:
			nodes[e.Node.ID] = nodeCoord{lat: e.Node.Lat, lon: e.Node.Lon}
		case osmsource.EntityWay:
			ways = append(ways, wayAccum{id: e.Way.ID, nodeIDs: e.Way.NodeIDs, tags: e.Way.Tags})
		case osmsource.EntityRelation:
			relations = append(relations, *e.Relation)
		}
		select {
		case <-ctx.Done():
			return nil, rerrors.Wrap(rerrors.Cancelled, ctx.Err(), "graph build canceled")
		default:
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return nil, err
	}

	g := &Graph{
		wayByID:    make(map[WayID]int),
		waySegs:    make(map[WayID][]SegmentID),
		pointByOSM: make(map[int64]PointID),
		restrict:   make(map[PointID][]TurnRestriction),
		index:      newSpatialIndex(),
	}

	routable, nodeUsage, err := filterRoutableWays(ways, nodes)
	if err != nil {
		return nil, err
	}

	for _, rw := range routable {
		way := buildWayMetadata(rw)
		wayIdx := len(g.ways)
		g.ways = append(g.ways, way)
		g.wayByID[way.ID] = wayIdx

		segs, err := splitWayIntoSegments(g, rw, way, nodes, nodeUsage)
		if err != nil {
			return nil, err
		}
		g.waySegs[way.ID] = append(g.waySegs[way.ID], segs...)
	}

	if err := resolveRestrictions(g, relations); err != nil {
		return nil, err
	}

	for _, p := range g.points {
		g.index.insert(p)
	}

	return g, nil
}

// filterRoutableWays drops ways without an accepted highway tag or that
// are not usable by a car, and counts how many times each node id is
// referenced across the surviving ways (a node referenced twice, whether
// across two ways or twice within one way's own node list, becomes a
// junction boundary).
func filterRoutableWays(ways []wayAccum, nodes map[int64]nodeCoord) ([]wayAccum, map[int64]int, error) {
	var routable []wayAccum
	usage := make(map[int64]int)

	for _, w := range ways {
		highway := w.tags["highway"]
		if !RoutableHighways[highway] {
			continue
		}
		if !isRoutableByCar(w.tags) {
			continue
		}
		for _, nid := range w.nodeIDs {
			if _, ok := nodes[nid]; !ok {
				return nil, nil, rerrors.New(rerrors.InputMalformed,
					"way %d references node %d missing from node pass", w.id, nid)
			}
			usage[nid]++
		}
		routable = append(routable, w)
	}
	return routable, usage, nil
}

func isRoutableByCar(tags map[string]string) bool {
	if v, ok := tags["motor_vehicle"]; ok && v == "no" {
		return false
	}
	if v, ok := tags["access"]; ok && (v == "no" || v == "private") {
		return false
	}
	if v, ok := tags["area"]; ok && v == "yes" {
		return false
	}
	return true
}

func buildWayMetadata(w wayAccum) Way {
	lanes := 0
	if v, ok := w.tags["lanes"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			lanes = n
		}
	}
	maxSpeed := 0.0
	if v, ok := w.tags["maxspeed"]; ok {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, " mph"), 64); err == nil {
			maxSpeed = n
		}
	}
	highway := w.tags["highway"]
	if maxSpeed == 0 {
		maxSpeed = RoadTypeMaxSpeedKPH(highway)
	}
	return Way{
		ID:          WayID(w.id),
		OSMID:       w.id,
		Highway:     highway,
		Surface:     w.tags["surface"],
		Smoothness:  w.tags["smoothness"],
		Name:        w.tags["name"],
		Ref:         w.tags["ref"],
		MaxSpeedKPH: maxSpeed,
		Lanes:       lanes,
	}
}

func isOneWay(tags map[string]string) (oneWay bool, reversed bool) {
	v, ok := tags["oneway"]
	if !ok || v == "no" || v == "false" || v == "0" {
		return false, false
	}
	if v == "-1" || v == "reverse" {
		return true, true
	}
	return true, false
}

// splitWayIntoSegments walks a way's node list, closing out a Segment
// whenever it reaches a junction boundary: the way's own first/last node,
// or a node referenced elsewhere (usage >= 2). Intermediate nodes are
// folded into the Segment's Polyline instead of becoming Points.
func splitWayIntoSegments(g *Graph, w wayAccum, way Way, nodes map[int64]nodeCoord, usage map[int64]int) ([]SegmentID, error) {
	if len(w.nodeIDs) < 2 {
		return nil, nil
	}
	oneWay, reversed := isOneWay(w.tags)

	getOrCreatePoint := func(osmID int64) PointID {
		if pid, ok := g.pointByOSM[osmID]; ok {
			return pid
		}
		c := nodes[osmID]
		pid := PointID(len(g.points))
		g.points = append(g.points, Point{ID: pid, OSMID: osmID, Lat: c.lat, Lon: c.lon})
		g.pointByOSM[osmID] = pid
		return pid
	}

	isBoundary := func(idx int) bool {
		if idx == 0 || idx == len(w.nodeIDs)-1 {
			return true
		}
		return usage[w.nodeIDs[idx]] >= 2
	}

	addWayToPoint := func(pid PointID) {
		p := &g.points[pid]
		for _, existing := range p.Ways {
			if existing == way.ID {
				return
			}
		}
		p.Ways = append(p.Ways, way.ID)
	}

	var created []SegmentID
	fromIdx := 0
	for i := 1; i < len(w.nodeIDs); i++ {
		if !isBoundary(i) {
			continue
		}
		fromPID := getOrCreatePoint(w.nodeIDs[fromIdx])
		toPID := getOrCreatePoint(w.nodeIDs[i])
		addWayToPoint(fromPID)
		addWayToPoint(toPID)

		var intermediate [][2]float64
		for j := fromIdx + 1; j < i; j++ {
			c := nodes[w.nodeIDs[j]]
			intermediate = append(intermediate, [2]float64{c.lat, c.lon})
		}

		fullPolyline := make([][2]float64, 0, len(intermediate)+2)
		fullPolyline = append(fullPolyline, [2]float64{nodes[w.nodeIDs[fromIdx]].lat, nodes[w.nodeIDs[fromIdx]].lon})
		fullPolyline = append(fullPolyline, intermediate...)
		fullPolyline = append(fullPolyline, [2]float64{nodes[w.nodeIDs[i]].lat, nodes[w.nodeIDs[i]].lon})
		length := geo.PolylineLengthMeters(fullPolyline)
		if length <= 0 {
			fromIdx = i
			continue
		}

		if !oneWay || !reversed {
			fwdID := SegmentID(len(g.segments))
			g.segments = append(g.segments, Segment{
				ID: fwdID, From: fromPID, To: toPID, Polyline: intermediate,
				LengthMeters: length, OneWay: oneWay, Way: way.ID,
			})
			g.points[fromPID].IncidentSegments = append(g.points[fromPID].IncidentSegments, fwdID)
			created = append(created, fwdID)
		}
		if !oneWay || reversed {
			bwdID := SegmentID(len(g.segments))
			g.segments = append(g.segments, Segment{
				ID: bwdID, From: toPID, To: fromPID, Polyline: reversePolyline(intermediate),
				LengthMeters: length, OneWay: oneWay, Way: way.ID,
			})
			g.points[toPID].IncidentSegments = append(g.points[toPID].IncidentSegments, bwdID)
			created = append(created, bwdID)
		}

		fromIdx = i
	}

	return created, nil
}

func reversePolyline(p [][2]float64) [][2]float64 {
	out := make([][2]float64, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// resolveRestrictions turns OSM type=restriction relations into
// TurnRestriction predicates attached to the via point. Relations whose
// members can't be resolved to known ways/points (because the way isn't
// part of the routable graph, for instance) are silently skipped rather
// than failing the whole build.
func resolveRestrictions(g *Graph, relations []osmsource.Relation) error {
	for _, rel := range relations {
		if rel.Tags["type"] != "restriction" {
			continue
		}
		restriction := rel.Tags["restriction"]
		if restriction == "" {
			continue
		}
		kind := RestrictionNo
		if strings.HasPrefix(restriction, "only_") {
			kind = RestrictionOnly
		}

		var fromWay, toWay osmsource.RelationMember
		var viaNode osmsource.RelationMember
		haveFrom, haveTo, haveVia := false, false, false
		for _, m := range rel.Members {
			switch m.Role {
			case "from":
				fromWay, haveFrom = m, true
			case "to":
				toWay, haveTo = m, true
			case "via":
				viaNode, haveVia = m, true
			}
		}
		if !haveFrom || !haveTo || !haveVia || viaNode.Type != "node" {
			continue
		}

		viaPID, ok := g.pointByOSM[viaNode.Ref]
		if !ok {
			continue
		}

		fromSegs := segmentsOfWayEndingAt(g, WayID(fromWay.Ref), viaPID)
		toSegs := segmentsOfWayStartingAt(g, WayID(toWay.Ref), viaPID)
		for _, fs := range fromSegs {
			for _, ts := range toSegs {
				g.restrict[viaPID] = append(g.restrict[viaPID], TurnRestriction{
					Via: viaPID, FromSegment: fs, ToSegment: ts, Kind: kind,
				})
			}
		}
	}
	return nil
}

func segmentsOfWayEndingAt(g *Graph, way WayID, point PointID) []SegmentID {
	var out []SegmentID
	for _, segID := range g.waySegs[way] {
		if g.segments[segID].To == point {
			out = append(out, segID)
		}
	}
	return out
}

func segmentsOfWayStartingAt(g *Graph, way WayID, point PointID) []SegmentID {
	var out []SegmentID
	for _, segID := range g.waySegs[way] {
		if g.segments[segID].From == point {
			out = append(out, segID)
		}
	}
	return out
}

// SortedPointIDs returns every point id in ascending order, useful for
// deterministic iteration in tests and cache serialization.
func (g *Graph) SortedPointIDs() []PointID {
	ids := make([]PointID, len(g.points))
	for i := range g.points {
		ids[i] = PointID(i)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

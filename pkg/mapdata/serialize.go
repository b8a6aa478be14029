package mapdata

// Components is the flat, gob-friendly view of a built Graph: every arena
// plus the restriction table, keyed the same way pkg/mapdatacache persists
// them. It exists so a cache layer never needs access to Graph's private
// lookup tables — those are cheap to rebuild from the arenas on load.
type Components struct {
	Points       []Point
	Segments     []Segment
	Ways         []Way
	Restrictions map[PointID][]TurnRestriction
}

// Export snapshots g's arenas for serialization. The top-level slices and
// the restriction map are copies, but slices held inside their elements
// (a Point's Ways and IncidentSegments, a Segment's Polyline) still share
// backing arrays with g.
func (g *Graph) Export() Components {
	restrict := make(map[PointID][]TurnRestriction, len(g.restrict))
	for k, v := range g.restrict {
		restrict[k] = append([]TurnRestriction(nil), v...)
	}
	return Components{
		Points:       append([]Point(nil), g.points...),
		Segments:     append([]Segment(nil), g.segments...),
		Ways:         append([]Way(nil), g.ways...),
		Restrictions: restrict,
	}
}

// FromComponents rebuilds a read-only Graph from a previously exported
// Components value, reconstructing the lookup maps and spatial index that
// Export leaves out. Used by pkg/mapdatacache to reconstitute a Graph
// without re-parsing the original OSM extract.
func FromComponents(c Components) *Graph {
	g := &Graph{
		points:     c.Points,
		segments:   c.Segments,
		wayByID:    make(map[WayID]int, len(c.Ways)),
		waySegs:    make(map[WayID][]SegmentID),
		pointByOSM: make(map[int64]PointID, len(c.Points)),
		restrict:   c.Restrictions,
		index:      newSpatialIndex(),
	}
	if g.restrict == nil {
		g.restrict = make(map[PointID][]TurnRestriction)
	}
	g.ways = c.Ways
	for i, w := range g.ways {
		g.wayByID[w.ID] = i
	}
	for _, p := range g.points {
		g.pointByOSM[p.OSMID] = p.ID
	}
	for _, s := range g.segments {
		g.waySegs[s.Way] = append(g.waySegs[s.Way], s.ID)
	}
	for _, p := range g.points {
		g.index.insert(p)
	}
	return g
}

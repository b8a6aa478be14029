package mapdata

// PointID identifies a junction point within a Graph's points arena.
type PointID int32

// SegmentID identifies a directed segment within a Graph's segments arena.
type SegmentID int32

// WayID is the originating OSM way id a segment was split from.
type WayID int64

// InvalidPoint and InvalidSegment mark "no such id" using -1 as a
// sentinel rather than a pointer nil, since both id types index flat
// arenas.
const (
	InvalidPoint   PointID   = -1
	InvalidSegment SegmentID = -1
)

// Point is a junction: a node shared by two or more ways, or the endpoint
// of a way (including dead ends), or a node visited twice by the same way.
// Purely interior nodes along an uninterrupted stretch of road are never
// promoted to a Point — they live only inside a Segment's Polyline.
type Point struct {
	ID               PointID
	OSMID            int64
	Lat, Lon         float64
	Ways             []WayID
	IncidentSegments []SegmentID
}

// Segment is the directed traversal unit between two Points.
type Segment struct {
	ID           SegmentID
	From, To     PointID
	Polyline     [][2]float64 // intermediate (lat, lon) pairs, endpoints excluded
	LengthMeters float64
	OneWay       bool
	Way          WayID
}

// Way carries the RuleEngine-relevant OSM metadata for a road, shared by
// every Segment split out of it.
type Way struct {
	ID          WayID
	OSMID       int64
	Highway     string
	Surface     string
	Smoothness  string
	Name        string
	Ref         string
	MaxSpeedKPH float64
	Lanes       int
}

// RestrictionKind distinguishes "only this turn is legal" from "this turn
// is forbidden" relations.
type RestrictionKind int

const (
	RestrictionNo RestrictionKind = iota
	RestrictionOnly
)

// TurnRestriction is a resolved (incoming segment, outgoing segment)
// predicate attached to the via Point, derived from an OSM
// type=restriction relation.
type TurnRestriction struct {
	Via         PointID
	FromSegment SegmentID
	ToSegment   SegmentID
	Kind        RestrictionKind
}

// RoadTypeMaxSpeedKPH provides a default speed for ways missing a maxspeed
// tag, keyed by highway class.
func RoadTypeMaxSpeedKPH(highway string) float64 {
	switch highway {
	case "motorway":
		return 110
	case "trunk":
		return 90
	case "primary":
		return 80
	case "secondary":
		return 70
	case "tertiary":
		return 60
	case "unclassified":
		return 50
	case "residential":
		return 40
	case "service":
		return 20
	case "motorway_link":
		return 70
	case "trunk_link":
		return 60
	case "primary_link":
		return 50
	case "secondary_link":
		return 50
	case "tertiary_link":
		return 40
	case "living_street":
		return 15
	case "track":
		return 30
	case "path", "road":
		return 20
	default:
		return 40
	}
}

// RoutableHighways is the set of highway values the graph builder accepts.
// Anything outside it is dropped during the way pass.
var RoutableHighways = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
	"living_street":  true,
	"path":           true,
	"road":           true,
	"service":        true,
	"track":          true,
}

// Package osmsource turns the two supported input shapes — OSM PBF
// extracts and Overpass JSON — into one format-agnostic entity stream so
// that pkg/mapdata's graph builder never imports an OSM parsing library
// directly. Parsing stays a collaborator of the routing core, not part
// of it.
package osmsource

// EntityType tags which union member of Entity is populated.
type EntityType int

const (
	EntityNode EntityType = iota
	EntityWay
	EntityRelation
)

// Node is the minimal shape the graph builder needs from an OSM node.
type Node struct {
	ID       int64
	Lat, Lon float64
}

// Way is the minimal shape the graph builder needs from an OSM way.
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    map[string]string
}

// RelationMember is one member of an OSM relation.
type RelationMember struct {
	Type string // "node", "way", or "relation"
	Ref  int64
	Role string
}

// Relation is the minimal shape the graph builder needs from an OSM
// relation; only type=restriction relations are meaningful downstream but
// every relation is streamed through so callers can filter.
type Relation struct {
	ID      int64
	Tags    map[string]string
	Members []RelationMember
}

// Entity is a tagged union over the three OSM element kinds, streamed in
// whatever order the underlying source delivers them (both PBF and
// Overpass conventionally emit nodes, then ways, then relations).
type Entity struct {
	Type     EntityType
	Node     *Node
	Way      *Way
	Relation *Relation
}

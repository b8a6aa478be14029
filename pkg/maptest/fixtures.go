// Package maptest provides small, hand-built OSM entity fixtures for
// exercising pkg/mapdata, pkg/rules, pkg/navigator, pkg/routegen,
// pkg/mapdatacache, pkg/ipc and pkg/routewriter without parsing a real
// extract. The default fixture graph
// mirrors a small hand-built junction layout with a straight main road
// and a dead-end side branch, carried over node-id-for-id so navigator
// test expectations (route id sequences) stay stable across changes:
//
//	      1
//	      |
//	      2
//	      |
//	5 - - 3 - - 6 - - 7
//	      |     |
//	      4 - - 8 - - 9
//
//	      11 - 12   (disconnected)
package maptest

import (
	"context"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/osmsource"
)

// Node is a (id, lat, lon) fixture node; lat and lon mirror the id for
// readability in test expectations.
type Node struct {
	ID       int64
	Lat, Lon float64
}

// Way is a fixture way: a chain of node ids sharing one highway class.
type Way struct {
	ID      int64
	NodeIDs []int64
	Highway string
	OneWay  bool
	Name    string
	Surface string
}

// Fixture bundles nodes, ways and restriction relations for BuildGraph.
type Fixture struct {
	Nodes        []Node
	Ways         []Way
	Restrictions []Restriction
}

// Restriction is a fixture turn restriction: fromWay -via node-> toWay.
type Restriction struct {
	FromWay, ToWay int64
	ViaNode        int64
	Kind           string // "no_left_turn", "no_u_turn", "only_straight_on", ...
}

func straightLineNodes() []Node {
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12}
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node{ID: id, Lat: float64(id), Lon: float64(id)}
	}
	return nodes
}

// Default returns the standard fixture graph used across this module's
// tests: a plus-shaped junction grid with one dead-end branch (6-8 closes
// a loop, so the genuine dead-end exercise comes from DeadEndBranch
// below) and a disconnected 11-12 edge to exercise "no route" cases.
func Default() Fixture {
	return Fixture{
		Nodes: straightLineNodes(),
		Ways: []Way{
			{ID: 1234, NodeIDs: []int64{1, 2, 3, 4}, Highway: "residential", Name: "Main St"},
			{ID: 5367, NodeIDs: []int64{5, 3, 6, 7}, Highway: "secondary", Name: "Cross St"},
			{ID: 489, NodeIDs: []int64{4, 8, 9}, Highway: "residential", Name: "Loop St"},
			{ID: 68, NodeIDs: []int64{6, 8}, Highway: "track", Name: "Short St"},
			{ID: 1112, NodeIDs: []int64{11, 12}, Highway: "residential", Name: "Isolated St"},
		},
	}
}

// DeadEndBranch returns a T-intersection scenario: a main road N1-N2-N3
// with a side dead-end branch N2-N4.
func DeadEndBranch() Fixture {
	return Fixture{
		Nodes: []Node{
			{ID: 1, Lat: 0.0, Lon: 0.0},
			{ID: 2, Lat: 0.0, Lon: 0.001},
			{ID: 3, Lat: 0.0, Lon: 0.002},
			{ID: 4, Lat: 0.001, Lon: 0.001},
		},
		Ways: []Way{
			{ID: 1, NodeIDs: []int64{1, 2, 3}, Highway: "residential", Name: "Main Rd"},
			{ID: 2, NodeIDs: []int64{2, 4}, Highway: "track", Name: "Dead End Branch"},
		},
	}
}

// StraightLine returns the S1 scenario: one way of 10 nodes along a line.
func StraightLine() Fixture {
	nodes := make([]Node, 10)
	ids := make([]int64, 10)
	for i := 0; i < 10; i++ {
		ids[i] = int64(i + 1)
		nodes[i] = Node{ID: ids[i], Lat: 0.0, Lon: float64(i) * 0.001}
	}
	return Fixture{
		Nodes: nodes,
		Ways:  []Way{{ID: 1, NodeIDs: ids, Highway: "residential", Name: "Long Rd"}},
	}
}

// FourWayRestriction returns the S6 scenario: a 4-way junction at N0 with
// a no_u_turn restriction on way W1.
func FourWayRestriction() Fixture {
	return Fixture{
		Nodes: []Node{
			{ID: 0, Lat: 0, Lon: 0},
			{ID: 1, Lat: 0, Lon: -0.001},
			{ID: 2, Lat: 0.001, Lon: 0},
			{ID: 3, Lat: 0, Lon: 0.001},
			{ID: 4, Lat: -0.001, Lon: 0},
		},
		Ways: []Way{
			{ID: 1, NodeIDs: []int64{1, 0}, Highway: "residential", Name: "W1"},
			{ID: 2, NodeIDs: []int64{0, 1}, Highway: "residential", Name: "W1"},
			{ID: 3, NodeIDs: []int64{0, 2}, Highway: "residential", Name: "W2"},
			{ID: 4, NodeIDs: []int64{0, 3}, Highway: "residential", Name: "W3"},
			{ID: 5, NodeIDs: []int64{0, 4}, Highway: "residential", Name: "W4"},
		},
		Restrictions: []Restriction{
			{FromWay: 1, ToWay: 2, ViaNode: 0, Kind: "no_u_turn"},
		},
	}
}

// ToEntities converts a Fixture into the osmsource.Entity stream shape
// mapdata.Build consumes.
func (f Fixture) ToEntities() []osmsource.Entity {
	var out []osmsource.Entity
	for _, n := range f.Nodes {
		out = append(out, osmsource.Entity{Type: osmsource.EntityNode, Node: &osmsource.Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon}})
	}
	for _, w := range f.Ways {
		tags := map[string]string{"highway": w.Highway}
		if w.Name != "" {
			tags["name"] = w.Name
		}
		if w.Surface != "" {
			tags["surface"] = w.Surface
		}
		if w.OneWay {
			tags["oneway"] = "yes"
		}
		out = append(out, osmsource.Entity{Type: osmsource.EntityWay, Way: &osmsource.Way{ID: w.ID, NodeIDs: w.NodeIDs, Tags: tags}})
	}
	for i, r := range f.Restrictions {
		out = append(out, osmsource.Entity{Type: osmsource.EntityRelation, Relation: &osmsource.Relation{
			ID:   int64(1000 + i),
			Tags: map[string]string{"type": "restriction", "restriction": r.Kind},
			Members: []osmsource.RelationMember{
				{Type: "way", Ref: r.FromWay, Role: "from"},
				{Type: "way", Ref: r.ToWay, Role: "to"},
				{Type: "node", Ref: r.ViaNode, Role: "via"},
			},
		}})
	}
	return out
}

// BuildGraph streams a Fixture through mapdata.Build, matching how a real
// OSM source would feed the builder.
func BuildGraph(f Fixture) (*mapdata.Graph, error) {
	entities := make(chan osmsource.Entity, len(f.Nodes)+len(f.Ways)+len(f.Restrictions))
	errs := make(chan error)
	for _, e := range f.ToEntities() {
		entities <- e
	}
	close(entities)
	close(errs)
	return mapdata.Build(context.Background(), entities, errs)
}

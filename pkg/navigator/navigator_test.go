package navigator

import (
	"context"
	"testing"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/ridi-bike/ridi-router/pkg/rules"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, f maptest.Fixture) *mapdata.Graph {
	g, err := maptest.BuildGraph(f)
	require.NoError(t, err)
	return g
}

func pointAt(t *testing.T, g *mapdata.Graph, lat, lon float64) mapdata.PointID {
	p, err := g.NearestJunction(lat, lon, 1000)
	require.NoError(t, err)
	return p
}

// routeWayNames converts a finished route into the sequence of way names it
// travels, for asserting a particular branch was never taken.
func routeWayNames(g *mapdata.Graph, route []mapdata.SegmentID) []string {
	names := make([]string, len(route))
	for i, sid := range route {
		names[i] = g.Way(g.Segment(sid).Way).Name
	}
	return names
}

func noRuleOverrides() rules.RuleFile {
	rf := rules.Defaults()
	rf.Basic.PreferSameRoad.Enabled = false
	rf.Basic.NoSharpTurns.Enabled = false
	rf.Basic.NoShortDetours.Enabled = false
	rf.Basic.ProgressionDirection.Enabled = false
	return rf
}

// pickBestFixture puts two legs at its only fork: the southward spur is a
// dead end pointing away from the target and the eastward leg points
// straight at it, so the always-on heading rule should pick the eastward
// leg on the first try without any backtracking.
func pickBestFixture() maptest.Fixture {
	return maptest.Fixture{
		Nodes: []maptest.Node{
			{ID: 1, Lat: 0, Lon: 0},
			{ID: 2, Lat: 0, Lon: 0.001},
			{ID: 4, Lat: -0.001, Lon: 0.001},
			{ID: 6, Lat: 0, Lon: 0.002},
			{ID: 3, Lat: 0, Lon: 0.003},
		},
		Ways: []maptest.Way{
			{ID: 1, NodeIDs: []int64{1, 2}, Highway: "residential", Name: "Approach Rd"},
			{ID: 2, NodeIDs: []int64{2, 4}, Highway: "track", Name: "South Spur"},
			{ID: 3, NodeIDs: []int64{2, 6}, Highway: "residential", Name: "Real Road A"},
			{ID: 4, NodeIDs: []int64{6, 3}, Highway: "residential", Name: "Real Road B"},
		},
	}
}

// deadEndLooksPromisingFixture is the mirror image of pickBestFixture: the
// dead-end spur happens to point closer to the target's own bearing than
// the real road's first leg does, so the heading rule tries the spur
// first. The spur is a true dead end (its only neighbor is the point the
// walker arrived from), so Run must backtrack before it can succeed.
func deadEndLooksPromisingFixture() maptest.Fixture {
	return maptest.Fixture{
		Nodes: []maptest.Node{
			{ID: 1, Lat: 0, Lon: 0},
			{ID: 2, Lat: 0, Lon: 0.001},
			{ID: 4, Lat: 0, Lon: 0.002},
			{ID: 6, Lat: -0.001, Lon: 0.001},
			{ID: 3, Lat: -0.001, Lon: 0.003},
		},
		Ways: []maptest.Way{
			{ID: 1, NodeIDs: []int64{1, 2}, Highway: "residential", Name: "Approach Rd"},
			{ID: 2, NodeIDs: []int64{2, 4}, Highway: "track", Name: "Dead End Spur"},
			{ID: 3, NodeIDs: []int64{2, 6}, Highway: "residential", Name: "Real Road A"},
			{ID: 4, NodeIDs: []int64{6, 3}, Highway: "residential", Name: "Real Road B"},
		},
	}
}

func TestNavigatePickBest(t *testing.T) {
	g := buildGraph(t, pickBestFixture())
	from, to := pointAt(t, g, 0, 0), pointAt(t, g, 0, 0.003)

	nav := New(g, noRuleOverrides(), []mapdata.PointID{from, to})
	res := nav.Run(context.Background())

	require.Equal(t, Finished, res.State)
	require.Equal(t, []string{"Approach Rd", "Real Road A", "Real Road B"}, routeWayNames(g, res.Route))
}

func TestNavigateBacktracksPastDeadEnd(t *testing.T) {
	g := buildGraph(t, deadEndLooksPromisingFixture())
	from, to := pointAt(t, g, 0, 0), pointAt(t, g, -0.001, 0.003)

	nav := New(g, noRuleOverrides(), []mapdata.PointID{from, to})
	res := nav.Run(context.Background())

	require.Equal(t, Finished, res.State)
	names := routeWayNames(g, res.Route)
	require.Equal(t, []string{"Approach Rd", "Real Road A", "Real Road B"}, names)
	for _, n := range names {
		require.NotEqual(t, "Dead End Spur", n)
	}
}

func TestNavigateAllStuckReturnsNoRoute(t *testing.T) {
	g := buildGraph(t, maptest.Default())
	from, to := pointAt(t, g, 1, 1), pointAt(t, g, 11, 11)

	nav := New(g, rules.Defaults(), []mapdata.PointID{from, to})
	res := nav.Run(context.Background())

	require.Equal(t, Abandoned, res.State)
	require.Equal(t, WaypointUnreachable, res.Reason)
	require.Empty(t, res.Route)
}

// TestNavigateNoRouteWithAvoidWeight avoids every "secondary" highway,
// which is the only class that ever reaches point 7 in the default
// fixture (it is exclusively served by the Cross St way), so every
// attempt must eventually exhaust every branch and abandon.
func TestNavigateNoRouteWithAvoidWeight(t *testing.T) {
	g := buildGraph(t, maptest.Default())
	from, to := pointAt(t, g, 1, 1), pointAt(t, g, 7, 7)

	rf := noRuleOverrides()
	rf.Highway = map[string]rules.TagAction{"secondary": {Action: "avoid"}}

	nav := New(g, rf, []mapdata.PointID{from, to})
	res := nav.Run(context.Background())

	require.Equal(t, Abandoned, res.State)
	require.Equal(t, WaypointUnreachable, res.Reason)
}

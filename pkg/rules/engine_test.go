package rules

import (
	"testing"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/stretchr/testify/require"
)

func TestPriorityFromHeadingsMatchesKnownTable(t *testing.T) {
	cases := []struct {
		next, fork float64
		want       uint8
	}{
		{0, 0, 255},
		{180, 0, 0},
		{90, 0, 127},
		{0, 180, 0},
		{0, 90, 127},
		{0, 45, 191},
		{0, 135, 64},
		{15, 60, 191},
		{60, 15, 191},
		{15, 330, 191},
		{330, 15, 191},
		{0, 315, 191},
		{1, 316, 191},
	}
	for _, c := range cases {
		got := priorityFromHeadings(c.next, c.fork)
		require.InDelta(t, int(c.want), int(got), 1, "next=%v fork=%v", c.next, c.fork)
	}
}

func findOutgoingTo(g *mapdata.Graph, point mapdata.PointID, incoming mapdata.SegmentID, to mapdata.PointID) mapdata.SegmentID {
	for _, sid := range g.Outgoing(point, incoming) {
		if g.Segment(sid).To == to {
			return sid
		}
	}
	return mapdata.InvalidSegment
}

func mustPoint(g *mapdata.Graph, lat, lon float64) mapdata.PointID {
	p, err := g.NearestJunction(lat, lon, 1000)
	if err != nil {
		panic(err)
	}
	return p
}

func TestPreferSameRoadRewardsMatchingName(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	p1, p3, p4, p5 := mustPoint(g, 1, 1), mustPoint(g, 3, 3), mustPoint(g, 4, 4), mustPoint(g, 5, 5)

	incoming := findOutgoingTo(g, p1, mapdata.InvalidSegment, p3)
	require.NotEqual(t, mapdata.InvalidSegment, incoming)

	rf := Defaults()
	continuesMain := findOutgoingTo(g, p3, incoming, p4)
	require.NotEqual(t, mapdata.InvalidSegment, continuesMain)

	v := weightPreferSameRoad(rf, EvalContext{Graph: g, Fork: continuesMain, Incoming: incoming})
	require.False(t, v.Avoid)
	require.Equal(t, rf.Basic.PreferSameRoad.Priority, v.Weight)

	crossesOnto := findOutgoingTo(g, p3, incoming, p5)
	require.NotEqual(t, mapdata.InvalidSegment, crossesOnto)
	v2 := weightPreferSameRoad(rf, EvalContext{Graph: g, Fork: crossesOnto, Incoming: incoming})
	require.Equal(t, uint8(0), v2.Weight)
}

func TestTagRuleAvoidVetoesCandidate(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.DeadEndBranch())
	require.NoError(t, err)

	p1, p2, p4 := mustPoint(g, 0, 0), mustPoint(g, 0, 0.001), mustPoint(g, 0.001, 0.001)

	in := findOutgoingTo(g, p1, mapdata.InvalidSegment, p2)
	require.NotEqual(t, mapdata.InvalidSegment, in)

	rf := Defaults()
	rf.Highway = map[string]TagAction{"track": {Action: "avoid"}}

	candidate := findOutgoingTo(g, p2, in, p4)
	require.NotEqual(t, mapdata.InvalidSegment, candidate)

	v := Evaluate(rf, EvalContext{
		Graph: g, Fork: candidate, Incoming: in,
		RouteSoFar: []mapdata.SegmentID{in},
		TargetLat:  0.001, TargetLon: 0.001,
	})
	require.True(t, v.Avoid)
}

func TestTagRulePriorityAddsWeight(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.DeadEndBranch())
	require.NoError(t, err)

	p1, p2, p3 := mustPoint(g, 0, 0), mustPoint(g, 0, 0.001), mustPoint(g, 0, 0.002)

	in := findOutgoingTo(g, p1, mapdata.InvalidSegment, p2)
	require.NotEqual(t, mapdata.InvalidSegment, in)

	rf := Defaults()
	rf.Basic.PreferSameRoad.Enabled = false
	rf.Basic.NoSharpTurns.Enabled = false
	rf.Basic.NoShortDetours.Enabled = false
	rf.Highway = map[string]TagAction{"residential": {Action: "priority", Value: 50}}

	candidate := findOutgoingTo(g, p2, in, p3)
	require.NotEqual(t, mapdata.InvalidSegment, candidate)

	v := weightTagRule(highwayOf, func(rf RuleFile) map[string]TagAction { return rf.Highway })(rf, EvalContext{
		Graph: g, Fork: candidate, Incoming: in, RouteSoFar: []mapdata.SegmentID{in},
	})
	require.False(t, v.Avoid)
	require.Equal(t, uint8(50), v.Weight)
}

func TestNoShortDetoursVetoesQuickReturnToSameRoad(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	p1, p3 := mustPoint(g, 1, 1), mustPoint(g, 3, 3)

	onMain := findOutgoingTo(g, p1, mapdata.InvalidSegment, p3)
	require.NotEqual(t, mapdata.InvalidSegment, onMain)

	rf := Defaults()
	rf.Basic.NoShortDetours.MinDetourLenM = 1_000_000

	// p3 -> p1 is a u-turn straight back onto the same named road.
	backToMain := findOutgoingTo(g, p3, onMain, p1)
	require.NotEqual(t, mapdata.InvalidSegment, backToMain)

	v := weightNoShortDetours(rf, EvalContext{
		Graph: g, Fork: backToMain, Incoming: onMain,
		RouteSoFar: []mapdata.SegmentID{onMain},
	})
	require.True(t, v.Avoid)
}

func TestEvaluateSumsWeightsAndSaturates(t *testing.T) {
	v := weighted(200).add(weighted(100))
	require.Equal(t, uint8(255), v.Weight)
	require.False(t, v.Avoid)

	v2 := weighted(10).add(avoid())
	require.True(t, v2.Avoid)
}

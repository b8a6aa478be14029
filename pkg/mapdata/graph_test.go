package mapdata_test

import (
	"testing"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/stretchr/testify/require"
)

func TestBuildStraightLineProducesOneSegmentChain(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.StraightLine())
	require.NoError(t, err)
	require.Equal(t, 10, g.NumPoints())
	// Bidirectional way of 10 nodes -> 9 forward + 9 backward segments.
	require.Equal(t, 18, g.NumSegments())
}

func TestBuildDeadEndBranchKeptAsSeparatePoint(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.DeadEndBranch())
	require.NoError(t, err)
	require.Equal(t, 4, g.NumPoints())
}

func TestOutgoingMatchesGraphAdjacencyNoInventedEdges(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	// Point 3 (lat/lon 3,3) is a 4-way junction: 1 (through interior node 2), 5, 4, 6.
	p3, err := g.NearestJunction(3.0, 3.0, 1000)
	require.NoError(t, err)

	out := g.Outgoing(p3, -1)
	require.Len(t, out, 4)
	for _, segID := range out {
		seg := g.Segment(segID)
		require.Equal(t, p3, seg.From)
	}
}

func TestSegmentGeometryContinuityAcrossConcatenation(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.StraightLine())
	require.NoError(t, err)

	p0, err := g.NearestJunction(0.0, 0.0, 1000)
	require.NoError(t, err)

	out := g.Outgoing(p0, -1)
	require.Len(t, out, 1)
	seg := g.Segment(out[0])
	geomFrom := g.SegmentGeometry(seg.ID)
	require.Equal(t, g.Point(seg.From).Lat, geomFrom[0][0])
	require.Equal(t, g.Point(seg.To).Lat, geomFrom[len(geomFrom)-1][0])
}

func TestNearestJunctionFailsOutsideRadius(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.StraightLine())
	require.NoError(t, err)

	_, err = g.NearestJunction(45.0, 45.0, 100)
	require.Error(t, err)
}

func TestTurnRestrictionBlocksForbiddenTransition(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.FourWayRestriction())
	require.NoError(t, err)

	via, err := g.NearestJunction(0, 0, 10)
	require.NoError(t, err)

	// Find the incoming segment that is way 1, ending at via.
	incoming := mapdata.InvalidSegment
	for sid := 0; sid < g.NumSegments(); sid++ {
		seg := g.Segment(mapdata.SegmentID(sid))
		if seg.To == via && g.Way(seg.Way).OSMID == 1 {
			incoming = mapdata.SegmentID(sid)
			break
		}
	}
	require.NotEqual(t, mapdata.InvalidSegment, incoming)

	out := g.Outgoing(via, incoming)
	for _, segID := range out {
		seg := g.Segment(segID)
		require.False(t, g.Way(seg.Way).OSMID == 2 && seg.From == via,
			"no_u_turn restriction must exclude the to-way segment")
	}
}

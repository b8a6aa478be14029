package routegen

import (
	"context"
	"testing"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/itinerary"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/ridi-bike/ridi-router/pkg/rules"
	"github.com/stretchr/testify/require"
)

func wp(lat, lon float64) itinerary.Waypoint {
	return itinerary.Waypoint{Lat: lat, Lon: lon, RadiusMeters: 50}
}

func TestGeneratorStraightLineSingleRoute(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.StraightLine())
	require.NoError(t, err)

	gen := New(g, rules.Defaults(), DefaultConfig())
	res, err := gen.Run(context.Background(), []itinerary.Itinerary{{
		Label:     "direct",
		Waypoints: []itinerary.Waypoint{wp(0, 0), wp(0, 0.009)},
		VisitAll:  true,
	}})
	require.NoError(t, err)
	require.Len(t, res.Routes, 1)
	// The line has no junction between its endpoints, so the whole
	// traversal is one segment with the intermediate nodes folded into
	// its polyline, not a chain of single-node segments.
	require.Len(t, res.Routes[0].Segments, 1)
	require.Greater(t, res.Routes[0].TotalDistanceMeters, 0.0)
}

// parallelRoadsFixture is two residential roads, one bowed north and one
// bowed south, sharing the same two endpoints, for exercising S3: distinct
// itineraries steered toward each side should return distinct routes.
func parallelRoadsFixture() maptest.Fixture {
	return maptest.Fixture{
		Nodes: []maptest.Node{
			{ID: 1, Lat: 0, Lon: 0},
			{ID: 2, Lat: 0.002, Lon: 0.01},
			{ID: 3, Lat: -0.002, Lon: 0.01},
			{ID: 4, Lat: 0, Lon: 0.02},
		},
		Ways: []maptest.Way{
			{ID: 1, NodeIDs: []int64{1, 2}, Highway: "residential", Name: "North Road"},
			{ID: 2, NodeIDs: []int64{2, 4}, Highway: "residential", Name: "North Road"},
			{ID: 3, NodeIDs: []int64{1, 3}, Highway: "residential", Name: "South Road"},
			{ID: 4, NodeIDs: []int64{3, 4}, Highway: "residential", Name: "South Road"},
		},
	}
}

func TestGeneratorFindsDistinctParallelRoutes(t *testing.T) {
	g, err := maptest.BuildGraph(parallelRoadsFixture())
	require.NoError(t, err)

	its := itinerary.PlanStartFinish(itinerary.DefaultConfig(), 0, 0, 0, 0.02)

	cfg := DefaultConfig()
	cfg.NumWorkers = 2
	gen := New(g, rules.Defaults(), cfg)
	res, err := gen.Run(context.Background(), its)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Routes), 2)

	names := map[string]bool{}
	for _, r := range res.Routes {
		for _, sid := range r.Segments {
			names[g.Way(g.Segment(sid).Way).Name] = true
		}
	}
	require.True(t, names["North Road"])
	require.True(t, names["South Road"])
}

func squareLoopFixture() maptest.Fixture {
	return maptest.Fixture{
		Nodes: []maptest.Node{
			{ID: 1, Lat: 0, Lon: 0},
			{ID: 2, Lat: 0, Lon: 0.01},
			{ID: 3, Lat: 0.01, Lon: 0.01},
			{ID: 4, Lat: 0.01, Lon: 0},
		},
		Ways: []maptest.Way{
			{ID: 1, NodeIDs: []int64{1, 2}, Highway: "residential", Name: "Loop A"},
			{ID: 2, NodeIDs: []int64{2, 3}, Highway: "residential", Name: "Loop B"},
			{ID: 3, NodeIDs: []int64{3, 4}, Highway: "residential", Name: "Loop C"},
			{ID: 4, NodeIDs: []int64{4, 1}, Highway: "residential", Name: "Loop D"},
		},
	}
}

func TestGeneratorRoundTripReturnsToStart(t *testing.T) {
	g, err := maptest.BuildGraph(squareLoopFixture())
	require.NoError(t, err)

	its := itinerary.PlanRoundTrip(itinerary.DefaultConfig(), 0, 0, 45, 4440)

	gen := New(g, rules.Defaults(), DefaultConfig())
	res, err := gen.Run(context.Background(), its)
	require.NoError(t, err)
	require.NotEmpty(t, res.Routes)

	for _, r := range res.Routes {
		require.NotEmpty(t, r.Segments)
		first := g.Segment(r.Segments[0])
		last := g.Segment(r.Segments[len(r.Segments)-1])
		require.Equal(t, first.From, last.To)
	}
}

func TestGeneratorAllItinerariesAbandonedWhenEveryHighwayAvoided(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	rf := rules.Defaults()
	rf.Highway = map[string]rules.TagAction{
		"residential": {Action: "avoid"},
		"secondary":   {Action: "avoid"},
		"track":       {Action: "avoid"},
	}

	gen := New(g, rf, DefaultConfig())
	res, err := gen.Run(context.Background(), []itinerary.Itinerary{{
		Label:     "blocked",
		Waypoints: []itinerary.Waypoint{wp(1, 1), wp(7, 7)},
		VisitAll:  true,
	}})

	require.Error(t, err)
	kind, ok := rerrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, rerrors.AllItinerariesAbandoned, kind)
	require.Empty(t, res.Routes)
	require.Len(t, res.Abandonments, 1)
}

var _ = mapdata.DefaultMaxSnapRadiusMeters

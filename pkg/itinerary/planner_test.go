package itinerary

import (
	"testing"

	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/stretchr/testify/require"
)

func TestPlanStartFinishProducesDirectPlusOffsetSchedule(t *testing.T) {
	cfg := DefaultConfig()
	its := PlanStartFinish(cfg, 50.0, 14.0, 50.1, 14.2)

	require.Len(t, its, len(cfg.StartFinishOffsetFractions)+1)
	require.Equal(t, "direct", its[0].Label)
	require.Len(t, its[0].Waypoints, 2)
	for _, it := range its {
		require.True(t, it.VisitAll)
		require.Equal(t, Waypoint{Lat: 50.0, Lon: 14.0, RadiusMeters: its[0].Start().RadiusMeters}, it.Start())
		require.Equal(t, 50.1, it.Finish().Lat)
		require.Equal(t, 14.2, it.Finish().Lon)
	}
}

func TestPlanStartFinishOffsetsPushToOppositeSides(t *testing.T) {
	cfg := DefaultConfig()
	its := PlanStartFinish(cfg, 0.0, 0.0, 0.0, 1.0)

	var plus12, minus12 Waypoint
	for _, it := range its {
		switch it.Label {
		case "offset+12%":
			plus12 = it.Waypoints[1]
		case "offset-12%":
			minus12 = it.Waypoints[1]
		}
	}
	require.NotZero(t, plus12.Lat)
	require.NotZero(t, minus12.Lat)
	// The start-finish line runs due east along the equator, so a positive
	// and a negative perpendicular offset land on opposite sides of it in
	// latitude.
	require.True(t, plus12.Lat*minus12.Lat < 0, "expected opposite-signed latitude offsets, got %+v and %+v", plus12, minus12)
}

func TestPlanRoundTripStartsAndFinishesAtCenter(t *testing.T) {
	cfg := DefaultConfig()
	its := PlanRoundTrip(cfg, 50.0, 14.0, 90, 20000)

	require.Len(t, its, len(cfg.RoundTripBearingOffsetsDeg)+1)
	for _, it := range its {
		require.True(t, it.VisitAll)
		require.True(t, it.IsRoundTrip())
		require.Equal(t, 50.0, it.Start().Lat)
		require.Equal(t, 14.0, it.Start().Lon)
		require.Len(t, it.Waypoints, len(cfg.RoundTripArcFractions)+2)
	}
	require.Equal(t, "loop-wider", its[len(its)-1].Label)
}

func TestRoundTripWaypointsSitRoughlyAtLoopRadius(t *testing.T) {
	cfg := DefaultConfig()
	distance := 20000.0
	it := roundTripLoop(cfg, 50.0, 14.0, 0, distance, "loop0")

	wantRadius := distance / (2 * 3.141592653589793)
	for _, wp := range it.Waypoints[1 : len(it.Waypoints)-1] {
		got := geo.HaversineDistanceMeters(50.0, 14.0, wp.Lat, wp.Lon)
		require.InDelta(t, wantRadius, got, 1.0)
	}
}

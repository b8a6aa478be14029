package geo_test

import (
	"math"
	"testing"

	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func TestHaversineDistanceMetersKnownCities(t *testing.T) {
	// Riga to Vilnius, roughly 260km apart.
	dist := geo.HaversineDistanceMeters(56.9496, 24.1052, 54.6872, 25.2797)
	assert.InDelta(t, 262000, dist, 15000)
}

func TestHaversineDistanceSamePointIsZero(t *testing.T) {
	dist := geo.HaversineDistanceMeters(57.1542, 24.8535, 57.1542, 24.8535)
	assert.InDelta(t, 0, dist, 1e-6)
}

func TestBearingDegreesNorth(t *testing.T) {
	b := geo.BearingDegrees(0, 0, 1, 0)
	assert.InDelta(t, 0, b, 0.5)
}

func TestBearingDegreesEast(t *testing.T) {
	b := geo.BearingDegrees(0, 0, 0, 1)
	assert.InDelta(t, 90, b, 0.5)
}

func TestAngularDifferenceWrapsAround(t *testing.T) {
	assert.InDelta(t, 20, geo.AngularDifferenceDegrees(350, 10), 1e-9)
	assert.InDelta(t, 180, geo.AngularDifferenceDegrees(0, 180), 1e-9)
	assert.InDelta(t, 0, geo.AngularDifferenceDegrees(45, 45), 1e-9)
}

func TestDestinationPointRoundTrip(t *testing.T) {
	lat, lon := geo.DestinationPoint(57.0, 24.0, 90, 10000)
	back := geo.BearingDegrees(lat, lon, 57.0, 24.0)
	assert.InDelta(t, 270, back, 1.0)
}

func TestPolylineLengthMetersSumsSegments(t *testing.T) {
	pts := [][2]float64{{0, 0}, {0, 1}, {0, 2}}
	total := geo.PolylineLengthMeters(pts)
	single := geo.HaversineDistanceMeters(0, 0, 0, 1)
	assert.InDelta(t, single*2, total, 1.0)
}

func TestTurnAngleDegreesStraightVsUTurn(t *testing.T) {
	assert.InDelta(t, 0, geo.TurnAngleDegrees(90, 90), 1e-9)
	assert.InDelta(t, 180, geo.TurnAngleDegrees(90, 270), 1e-9)
	assert.True(t, math.Abs(geo.TurnAngleDegrees(10, 200)-170) < 1e-9)
}

package itinerary

import (
	"fmt"
	"math"

	"github.com/ridi-bike/ridi-router/pkg/geo"
)

// Config controls the itinerary-count/offset schedules, resolved per the
// Open Question decision recorded in DESIGN.md: ±12%/±24%/±40%
// perpendicular offsets plus the direct line for start-finish, and a
// 0/±20/±40 degree bearing fan plus one wider loop for round trips.
type Config struct {
	// StartFinishOffsetFractions are signed fractions of the start-finish
	// distance each perpendicular-offset itinerary is pushed by. A direct
	// (zero-offset) itinerary is always produced in addition to these.
	StartFinishOffsetFractions []float64

	// RoundTripBearingOffsetsDeg are signed degree offsets from the
	// request's bearing, one loop itinerary per offset.
	RoundTripBearingOffsetsDeg []float64
	// RoundTripArcFractions place via-waypoints around the loop at these
	// fractions of its full rotation.
	RoundTripArcFractions []float64
	// WiderLoopDistanceFactor scales the requested distance for the one
	// extra wider-loop itinerary appended after the bearing fan.
	WiderLoopDistanceFactor float64

	// VisitRadiusFraction and VisitRadiusFloorMeters size a waypoint's
	// visit radius as a fraction of the itinerary's total distance,
	// clamped to a floor.
	VisitRadiusFraction   float64
	VisitRadiusFloorMeters float64
}

// DefaultConfig returns the schedule this module settled on.
func DefaultConfig() Config {
	return Config{
		StartFinishOffsetFractions: []float64{0.12, -0.12, 0.24, -0.24, 0.40, -0.40},
		RoundTripBearingOffsetsDeg: []float64{0, 20, -20, 40, -40},
		RoundTripArcFractions:      []float64{0.25, 0.5, 0.75},
		WiderLoopDistanceFactor:    1.3,
		VisitRadiusFraction:        0.03,
		VisitRadiusFloorMeters:     50,
	}
}

func (c Config) visitRadius(totalDistanceMeters float64) float64 {
	r := c.VisitRadiusFraction * totalDistanceMeters
	if r < c.VisitRadiusFloorMeters {
		return c.VisitRadiusFloorMeters
	}
	return r
}

// PlanStartFinish produces the direct start-finish itinerary plus one
// perpendicular-offset variant per cfg.StartFinishOffsetFractions, each
// visiting every waypoint (visit_all=true).
func PlanStartFinish(cfg Config, startLat, startLon, finishLat, finishLon float64) []Itinerary {
	total := geo.HaversineDistanceMeters(startLat, startLon, finishLat, finishLon)
	radius := cfg.visitRadius(total)
	start := Waypoint{Lat: startLat, Lon: startLon, RadiusMeters: radius}
	finish := Waypoint{Lat: finishLat, Lon: finishLon, RadiusMeters: radius}

	itineraries := []Itinerary{{
		Label:     "direct",
		Waypoints: []Waypoint{start, finish},
		VisitAll:  true,
	}}

	bearing := geo.BearingDegrees(startLat, startLon, finishLat, finishLon)
	midLat, midLon := geo.MidPoint(startLat, startLon, finishLat, finishLon)

	for _, frac := range cfg.StartFinishOffsetFractions {
		perpBearing := bearing + 90
		dist := frac * total
		if dist < 0 {
			perpBearing = bearing - 90
			dist = -dist
		}
		offLat, offLon := geo.DestinationPoint(midLat, midLon, perpBearing, dist)
		itineraries = append(itineraries, Itinerary{
			Label: fmt.Sprintf("offset%+.0f%%", frac*100),
			Waypoints: []Waypoint{
				start,
				{Lat: offLat, Lon: offLon, RadiusMeters: radius},
				finish,
			},
			VisitAll: true,
		})
	}
	return itineraries
}

// PlanRoundTrip produces one loop itinerary per cfg.RoundTripBearingOffsetsDeg
// plus one wider loop, each starting and finishing at center and visiting
// via-waypoints placed around an arc of circumference distanceMeters.
func PlanRoundTrip(cfg Config, centerLat, centerLon, bearingDeg, distanceMeters float64) []Itinerary {
	itineraries := make([]Itinerary, 0, len(cfg.RoundTripBearingOffsetsDeg)+1)
	for _, offset := range cfg.RoundTripBearingOffsetsDeg {
		itineraries = append(itineraries, roundTripLoop(cfg, centerLat, centerLon, bearingDeg+offset, distanceMeters,
			fmt.Sprintf("loop%+.0fdeg", offset)))
	}
	itineraries = append(itineraries, roundTripLoop(cfg, centerLat, centerLon, bearingDeg, distanceMeters*cfg.WiderLoopDistanceFactor, "loop-wider"))
	return itineraries
}

// roundTripLoop places via-waypoints around a circle of circumference
// distanceMeters centered on (centerLat, centerLon), starting the arc in
// the direction bearingDeg, and returns an itinerary that starts and
// finishes at the center.
func roundTripLoop(cfg Config, centerLat, centerLon, bearingDeg, distanceMeters float64, label string) Itinerary {
	radius := cfg.visitRadius(distanceMeters)
	center := Waypoint{Lat: centerLat, Lon: centerLon, RadiusMeters: radius}
	loopRadiusMeters := distanceMeters / (2 * math.Pi)

	waypoints := make([]Waypoint, 0, len(cfg.RoundTripArcFractions)+2)
	waypoints = append(waypoints, center)
	for _, frac := range cfg.RoundTripArcFractions {
		angle := bearingDeg + 360*frac
		lat, lon := geo.DestinationPoint(centerLat, centerLon, angle, loopRadiusMeters)
		waypoints = append(waypoints, Waypoint{Lat: lat, Lon: lon, RadiusMeters: radius})
	}
	waypoints = append(waypoints, center)

	return Itinerary{Label: label, Waypoints: waypoints, VisitAll: true}
}

// Package geo provides the small set of spherical-geometry helpers the
// routing core needs: great-circle distance, bearing, destination-point
// projection and angular deviation. Kept dependency-free aside from
// golang/geo/s2 for point projection rather than hand-rolling vector
// projection.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Location is a point in radians, ready for haversine math.
type Location struct {
	LatRad float64
	LonRad float64
}

func degToRad(d float64) float64 { return d * math.Pi / 180.0 }
func radToDeg(r float64) float64 { return 180.0 * r / math.Pi }

// NewLocation builds a Location from a (lat, lon) pair in degrees.
func NewLocation(latDeg, lonDeg float64) Location {
	return Location{LatRad: degToRad(latDeg), LonRad: degToRad(lonDeg)}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// HaversineDistanceMeters returns the great-circle distance between two
// (lat, lon) pairs in degrees, in meters.
func HaversineDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	a := NewLocation(lat1, lon1)
	b := NewLocation(lat2, lon2)

	latDiff := a.LatRad - b.LatRad
	lonDiff := a.LonRad - b.LonRad

	havLat := havFunction(latDiff)
	havLon := havFunction(lonDiff)

	havCentral := havLat + math.Cos(a.LatRad)*math.Cos(b.LatRad)*havLon
	centralAngle := 2.0 * math.Asin(math.Sqrt(havCentral))

	return earthRadiusMeters * centralAngle
}

// PolylineLengthMeters sums the great-circle distance across consecutive
// points of a polyline, [[lat, lon], ...].
func PolylineLengthMeters(points [][2]float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineDistanceMeters(points[i-1][0], points[i-1][1], points[i][0], points[i][1])
	}
	return total
}

// BearingDegrees computes the initial bearing (0..360, clockwise from
// north) from point 1 to point 2.
// https://www.movable-type.co.uk/scripts/latlong.html
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := degToRad(lon2 - lon1)
	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)

	brng := radToDeg(math.Atan2(y, x))
	return math.Mod(brng+360.0, 360.0)
}

// AngularDifferenceDegrees returns the smallest absolute difference between
// two bearings, in [0, 180].
func AngularDifferenceDegrees(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 360.0)
	if diff > 180.0 {
		diff = 360.0 - diff
	}
	return diff
}

// DestinationPoint projects forward from (lat, lon) along bearing (degrees)
// for distanceMeters, returning the resulting (lat, lon) in degrees.
func DestinationPoint(lat, lon, bearingDeg, distanceMeters float64) (float64, float64) {
	angularDist := distanceMeters / earthRadiusMeters
	bearingRad := degToRad(bearingDeg)
	lat1 := degToRad(lat)
	lon1 := degToRad(lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angularDist) + math.Cos(lat1)*math.Sin(angularDist)*math.Cos(bearingRad))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDist)*math.Cos(lat1),
		math.Cos(angularDist)-math.Sin(lat1)*math.Sin(lat2),
	)

	return radToDeg(lat2), radToDeg(lon2)
}

// MidPoint returns the geographic midpoint between two (lat, lon) pairs.
// https://www.movable-type.co.uk/scripts/latlong.html
func MidPoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	p1Lat := degToRad(lat1)
	p2Lat := degToRad(lat2)
	dLon := degToRad(lon2 - lon1)

	bx := math.Cos(p2Lat) * math.Cos(dLon)
	by := math.Cos(p2Lat) * math.Sin(dLon)

	newLon := degToRad(lon1) + math.Atan2(by, math.Cos(p1Lat)+bx)
	newLat := math.Atan2(math.Sin(p1Lat)+math.Sin(p2Lat), math.Sqrt((math.Cos(p1Lat)+bx)*(math.Cos(p1Lat)+bx)+by*by))

	return radToDeg(newLat), radToDeg(newLon)
}

// ProjectPointOntoSegment projects point p onto the great-circle segment
// a-b, returning the closest point on the segment; a projection falling
// past either end is clamped to that endpoint.
func ProjectPointOntoSegment(aLat, aLon, bLat, bLon, pLat, pLon float64) (float64, float64) {
	aPt := s2.PointFromLatLng(s2.LatLngFromDegrees(aLat, aLon))
	bPt := s2.PointFromLatLng(s2.LatLngFromDegrees(bLat, bLon))
	pPt := s2.PointFromLatLng(s2.LatLngFromDegrees(pLat, pLon))

	proj := s2.Project(pPt, aPt, bPt)
	ll := s2.LatLngFromPoint(proj)
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

// TurnAngleDegrees returns the absolute deviation from straight-ahead (0)
// for the turn at a junction: the incoming bearing is bearingIn (direction
// of travel arriving at the junction), the outgoing bearing is bearingOut.
// 0 = straight ahead, 180 = full U-turn.
func TurnAngleDegrees(bearingIn, bearingOut float64) float64 {
	return AngularDifferenceDegrees(bearingIn, bearingOut)
}

// Package itinerary implements the ItineraryPlanner: turning a
// start-finish or round-trip request into several ordered waypoint lists
// for the Navigator to walk. Itineraries are pure geometry — no MapDataGraph
// is consulted here; snapping a waypoint onto an actual graph junction is a
// Generator-level concern (pkg/routegen), which receives plain waypoints.
package itinerary

// Waypoint is one stop of an Itinerary: a coordinate plus the radius within
// which the walked path is considered to have visited it.
type Waypoint struct {
	Lat, Lon     float64
	RadiusMeters float64
}

// Itinerary is a request-scoped ordered sequence of waypoints with a start,
// a finish, and a visit_all flag. For round trips the first and last
// waypoint are the same coordinate.
type Itinerary struct {
	Label     string
	Waypoints []Waypoint
	VisitAll  bool
}

// Start and Finish return the itinerary's first and last waypoints.
func (it Itinerary) Start() Waypoint  { return it.Waypoints[0] }
func (it Itinerary) Finish() Waypoint { return it.Waypoints[len(it.Waypoints)-1] }

// IsRoundTrip reports whether this itinerary starts and finishes at the
// same coordinate, the way round-trip requests are always shaped.
func (it Itinerary) IsRoundTrip() bool {
	s, f := it.Start(), it.Finish()
	return s.Lat == f.Lat && s.Lon == f.Lon
}

// Package ipc implements the Server/Client transport: a Unix domain
// socket carrying one gob-encoded Request per connection and one
// gob-encoded Response back, so a long-running server process can hold a
// single loaded graph and serve many short-lived client invocations
// without either side re-parsing anything.
package ipc

import "github.com/ridi-bike/ridi-router/internal/routecore"

// Request is what a client sends over the socket: a fully-specified trip
// plus an optional raw rule-file body (nil means use the server's
// defaults, since the server has no filesystem path a client's rule-file
// argument would resolve against).
type Request struct {
	ID   string
	Trip routecore.TripKind

	StartLat, StartLon   float64
	FinishLat, FinishLon float64

	CenterLat, CenterLon float64
	BearingDeg           float64
	DistanceMeters       float64

	RuleFileYAML []byte
	DebugDir     string
}

// RouteDTO is one route in a Response: geometry resolved to plain
// coordinates rather than the server-local mapdata.SegmentID values a
// routegen.Route carries, since segment ids mean nothing outside the
// server's in-memory graph.
type RouteDTO struct {
	Label               string
	TotalDistanceMeters float64
	TwistinessDegPerKm  float64
	DistanceByHighway   map[string]float64
	DistanceBySurface   map[string]float64
	Coordinates         [][2]float64
}

// AbandonmentDTO mirrors routegen.Abandonment for the wire.
type AbandonmentDTO struct {
	Label  string
	Reason string
}

// Response is what the server sends back. ErrorKind is empty on success;
// when set, it names one of internal/rerrors' Kind values and ErrorMsg
// carries the human-readable detail.
type Response struct {
	Routes       []RouteDTO
	Abandonments []AbandonmentDTO
	ErrorKind    string
	ErrorMsg     string
}

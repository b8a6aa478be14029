package ipc

import (
	"context"
	"encoding/gob"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/ridi-bike/ridi-router/internal/metrics"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
	"github.com/ridi-bike/ridi-router/pkg/routewriter"
	"github.com/ridi-bike/ridi-router/pkg/rules"
)

// Server holds one loaded Graph and answers Requests arriving over a Unix
// domain socket, one connection per request. The graph is never mutated
// once Serve starts, so concurrent connections share it without locks —
// the same guarantee routegen.Generator already relies on internally.
type Server struct {
	SocketPath string
	Graph      *mapdata.Graph
	GenConfig  routegen.Config
	Log        *zap.Logger
	Metrics    *metrics.Metrics
}

// Serve listens on s.SocketPath until ctx is cancelled, spawning one
// goroutine per accepted connection. The socket file is removed before
// listening (a stale file from a prior crashed server would otherwise
// make Listen fail with "address already in use") and after Serve
// returns.
func (s *Server) Serve(ctx context.Context) error {
	_ = os.Remove(s.SocketPath)
	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "listening on socket %s", s.SocketPath)
	}
	defer os.Remove(s.SocketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return rerrors.Wrap(rerrors.InputMalformed, err, "accepting connection on %s", s.SocketPath)
			}
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := gob.NewDecoder(conn).Decode(&req); err != nil {
		s.logf("failed decoding request: %v", err)
		return
	}

	resp := s.answer(ctx, req)
	if err := gob.NewEncoder(conn).Encode(resp); err != nil {
		s.logf("failed encoding response for request %s: %v", req.ID, err)
	}
}

func (s *Server) answer(ctx context.Context, req Request) Response {
	rf := rules.Defaults()
	if len(req.RuleFileYAML) > 0 {
		parsed, err := rules.Parse(req.RuleFileYAML)
		if err != nil {
			return errorResponse(err)
		}
		rf = parsed
	}

	coreReq := routecore.Request{
		Trip:           req.Trip,
		StartLat:       req.StartLat,
		StartLon:       req.StartLon,
		FinishLat:      req.FinishLat,
		FinishLon:      req.FinishLon,
		CenterLat:      req.CenterLat,
		CenterLon:      req.CenterLon,
		BearingDeg:     req.BearingDeg,
		DistanceMeters: req.DistanceMeters,
		DebugDir:       req.DebugDir,
	}

	result, err := routecore.Run(ctx, s.Graph, rf, coreReq, s.GenConfig)
	if err != nil {
		s.observe(req.Trip, "error", result)
		return errorResponse(err)
	}
	s.observe(req.Trip, "ok", result)
	return toResponse(s.Graph, result)
}

func (s *Server) observe(trip routecore.TripKind, status string, result routegen.Result) {
	if s.Metrics == nil {
		return
	}
	tripLabel := "start-finish"
	if trip == routecore.RoundTrip {
		tripLabel = "round-trip"
	}
	s.Metrics.RequestCount.WithLabelValues(tripLabel, status).Inc()
	s.Metrics.ItinerariesFinished.Add(float64(len(result.Routes)))
	for _, a := range result.Abandonments {
		s.Metrics.ItinerariesAbandoned.WithLabelValues(a.Reason.String()).Inc()
	}
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Sugar().Warnf(format, args...)
	}
}

func toResponse(g *mapdata.Graph, result routegen.Result) Response {
	resp := Response{
		Routes:       make([]RouteDTO, 0, len(result.Routes)),
		Abandonments: make([]AbandonmentDTO, 0, len(result.Abandonments)),
	}
	for _, r := range result.Routes {
		coords := routewriter.RouteCoordinates(g, r)
		pts := make([][2]float64, len(coords))
		for i, c := range coords {
			pts[i] = [2]float64{c[0], c[1]}
		}
		resp.Routes = append(resp.Routes, RouteDTO{
			Label:               r.Label,
			TotalDistanceMeters: r.TotalDistanceMeters,
			TwistinessDegPerKm:  r.TwistinessDegPerKm,
			DistanceByHighway:   r.DistanceByHighway,
			DistanceBySurface:   r.DistanceBySurface,
			Coordinates:         pts,
		})
	}
	for _, a := range result.Abandonments {
		resp.Abandonments = append(resp.Abandonments, AbandonmentDTO{Label: a.Label, Reason: a.Reason.String()})
	}
	return resp
}

func errorResponse(err error) Response {
	kind, ok := rerrors.KindOf(err)
	if !ok {
		kind = rerrors.InputMalformed
	}
	return Response{ErrorKind: kind.String(), ErrorMsg: err.Error()}
}

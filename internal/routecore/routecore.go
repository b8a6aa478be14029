// Package routecore wires the collaborator packages (OSMSource,
// MapDataCache, ItineraryPlanner, Generator) into the two entry points
// every caller needs: load a graph once, then run a trip request against
// it. Both the synchronous CLI path and the long-running server share
// this package so the two never drift.
package routecore

import (
	"context"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/itinerary"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/mapdatacache"
	"github.com/ridi-bike/ridi-router/pkg/osmsource"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
	"github.com/ridi-bike/ridi-router/pkg/rules"
)

// LoadGraph reconstitutes a Graph from cacheDir if it holds a valid,
// current cache, otherwise parses input fresh. When cacheDir is non-empty
// and a fresh build was needed, the result is saved back to cacheDir
// before returning so the next call is a cache hit.
func LoadGraph(ctx context.Context, inputPath, cacheDir string) (*mapdata.Graph, error) {
	if cacheDir != "" {
		if g, err := mapdatacache.Load(cacheDir); err == nil {
			return g, nil
		}
	}

	entities, errs, err := osmsource.LoadFile(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	g, err := mapdata.Build(ctx, entities, errs)
	if err != nil {
		return nil, err
	}

	if cacheDir != "" {
		if err := mapdatacache.Save(g, cacheDir); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// TripKind selects which ItineraryPlanner entry point a Request drives.
type TripKind int

const (
	StartFinish TripKind = iota
	RoundTrip
)

// Request is a fully-resolved trip request: coordinates already parsed,
// rule-file already loaded. This is the shape both the synchronous CLI
// path and the IPC server pass to Run — the wire encoding used to get a
// Request across a socket lives in pkg/ipc, one layer up.
type Request struct {
	Trip TripKind

	StartLat, StartLon   float64
	FinishLat, FinishLon float64

	CenterLat, CenterLon float64
	BearingDeg           float64
	DistanceMeters       float64

	DebugDir string
}

// Run plans itineraries for req and executes them against g under rf,
// returning the surviving routes.
func Run(ctx context.Context, g *mapdata.Graph, rf rules.RuleFile, req Request, genCfg routegen.Config) (routegen.Result, error) {
	genCfg.DebugDir = req.DebugDir

	var its []itinerary.Itinerary
	switch req.Trip {
	case StartFinish:
		its = itinerary.PlanStartFinish(itinerary.DefaultConfig(), req.StartLat, req.StartLon, req.FinishLat, req.FinishLon)
	case RoundTrip:
		its = itinerary.PlanRoundTrip(itinerary.DefaultConfig(), req.CenterLat, req.CenterLon, req.BearingDeg, req.DistanceMeters)
	default:
		return routegen.Result{}, rerrors.New(rerrors.InputMalformed, "unknown trip kind %d", req.Trip)
	}

	gen := routegen.New(g, rf, genCfg)
	return gen.Run(ctx, its)
}

// Package routegen implements the Generator: it turns a planned set of
// itineraries into finished routes by running one Navigator per
// itinerary on a bounded worker pool, dropping abandoned itineraries,
// deduplicating, and ranking what is left.
package routegen

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/multierr"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/debugstream"
	"github.com/ridi-bike/ridi-router/pkg/itinerary"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/navigator"
	"github.com/ridi-bike/ridi-router/pkg/rules"
)

// Config controls the worker pool and the dedup threshold; see DESIGN.md
// for the deduplication-threshold decision.
type Config struct {
	NumWorkers   int
	JobQueueSize int
	// NearDuplicateOverlapRatio drops a later route whose shared-length
	// fraction with an earlier, already-kept route meets or exceeds this
	// value. Zero disables near-duplicate dropping (only exact
	// segment-sequence duplicates are then removed).
	NearDuplicateOverlapRatio float64
	// DebugDir, when non-empty, turns on per-itinerary DebugStream
	// tracing: one debugstream.Writer per itinerary, written under this
	// directory and closed when that itinerary's Navigator returns.
	DebugDir string
}

// DefaultConfig sizes the worker pool to the available hardware
// parallelism.
func DefaultConfig() Config {
	return Config{
		NumWorkers:                runtime.GOMAXPROCS(0),
		JobQueueSize:              16,
		NearDuplicateOverlapRatio: 0.8,
	}
}

// Generator drives multiple Navigators in parallel, one per itinerary,
// sharing one read-only Graph and one RuleFile across all of them
// without locks.
type Generator struct {
	graph *mapdata.Graph
	rules rules.RuleFile
	cfg   Config
}

func New(g *mapdata.Graph, rf rules.RuleFile, cfg Config) *Generator {
	return &Generator{graph: g, rules: rf, cfg: cfg}
}

// Abandonment records one itinerary's abandonment reason for diagnosis.
type Abandonment struct {
	Label  string
	Reason navigator.AbandonReason
}

// Result is what one Generator.Run call produces: the finished, deduped,
// ranked routes, plus a diagnosis entry for every itinerary that didn't
// finish.
type Result struct {
	Routes       []Route
	Abandonments []Abandonment
}

type outcome struct {
	label  string
	route  Route
	reason navigator.AbandonReason
	ok     bool
}

// Run snaps every itinerary's waypoints onto graph junctions, runs one
// Navigator per itinerary concurrently, and returns the surviving routes.
// If every itinerary is abandoned (including those that never got to run
// because a waypoint didn't snap to any junction), it returns an
// AllItinerariesAbandoned error carrying one cause per itinerary via
// multierr.
func (gen *Generator) Run(ctx context.Context, its []itinerary.Itinerary) (Result, error) {
	pool := newWorkerPool[itinerary.Itinerary, outcome](gen.cfg.NumWorkers, gen.cfg.JobQueueSize)
	pool.start(func(it itinerary.Itinerary) outcome {
		return gen.runOne(ctx, it)
	})

	go func() {
		for _, it := range its {
			pool.submit(it)
		}
		pool.closeJobs()
	}()
	go pool.wait()

	var finished []Route
	var abandoned []Abandonment
	for o := range pool.results {
		if o.ok {
			finished = append(finished, o.route)
		} else {
			abandoned = append(abandoned, Abandonment{Label: o.label, Reason: o.reason})
		}
	}

	if len(finished) == 0 {
		var err error
		for _, a := range abandoned {
			err = multierr.Append(err, rerrors.New(rerrors.NoRouteFound, "itinerary %q abandoned: %s", a.Label, a.Reason))
		}
		return Result{Abandonments: abandoned}, rerrors.Wrap(rerrors.AllItinerariesAbandoned, err, "every itinerary was abandoned")
	}

	return Result{Routes: rankAndDedup(gen.graph, finished, gen.cfg.NearDuplicateOverlapRatio), Abandonments: abandoned}, nil
}

func (gen *Generator) runOne(ctx context.Context, it itinerary.Itinerary) outcome {
	var rec *debugstream.Writer
	if gen.cfg.DebugDir != "" {
		w, err := debugstream.NewWriter(gen.cfg.DebugDir, 0, it.Label, len(it.Waypoints), it.VisitAll)
		if err == nil {
			rec = w
			for i, wp := range it.Waypoints {
				_ = rec.Waypoint(i, wp.Lat, wp.Lon, wp.RadiusMeters)
			}
			defer rec.Close()
		}
	}

	waypoints := make([]mapdata.PointID, 0, len(it.Waypoints))
	for _, wp := range it.Waypoints {
		p, err := gen.graph.NearestJunction(wp.Lat, wp.Lon, mapdata.DefaultMaxSnapRadiusMeters)
		if err != nil {
			return outcome{label: it.Label, reason: navigator.WaypointUnreachable}
		}
		waypoints = append(waypoints, p)
	}

	nav := navigator.New(gen.graph, gen.rules, waypoints)
	if rec != nil {
		nav.SetRecorder(rec)
	}
	res := nav.Run(ctx)
	if res.State != navigator.Finished {
		return outcome{label: it.Label, reason: res.Reason}
	}
	return outcome{label: it.Label, route: buildRoute(gen.graph, it.Label, res.Route), ok: true}
}

// rankAndDedup removes exact segment-sequence duplicates and, when ratio is
// positive, near-duplicates whose shared length meets the ratio, then
// orders the remainder shortest-distance first.
func rankAndDedup(g *mapdata.Graph, routes []Route, ratio float64) []Route {
	seen := make(map[string]bool, len(routes))
	kept := make([]Route, 0, len(routes))
	for _, r := range routes {
		key := segmentKey(r.Segments)
		if seen[key] {
			continue
		}
		if ratio > 0 {
			dup := false
			for _, k := range kept {
				if overlapRatio(g, r.Segments, k.Segments) >= ratio {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
		}
		seen[key] = true
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TotalDistanceMeters < kept[j].TotalDistanceMeters
	})
	return kept
}

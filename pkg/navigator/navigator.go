// Package navigator implements the junction-expansion walk: a step stack
// driven forward by rule-weighted fork choices, backtracking without
// recursion whenever every choice at a fork turns out to be a dead end or
// an Avoid verdict.
package navigator

import (
	"context"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/rules"
)

// State is where a Navigator's run currently sits.
type State int

const (
	Walking State = iota
	Backtracking
	Finished
	Abandoned
)

// AbandonReason records why a Navigator stopped without reaching its last
// waypoint.
type AbandonReason int

const (
	NotAbandoned AbandonReason = iota
	StepLimitExceeded
	AllForksExhausted
	WaypointUnreachable
	Cancelled
)

func (r AbandonReason) String() string {
	switch r {
	case StepLimitExceeded:
		return "step_limit_exceeded"
	case AllForksExhausted:
		return "all_forks_exhausted"
	case WaypointUnreachable:
		return "waypoint_unreachable"
	case Cancelled:
		return "cancelled"
	default:
		return "not_abandoned"
	}
}

// Result is what a completed or abandoned Navigator run produced.
type Result struct {
	State  State
	Reason AbandonReason
	Route  []mapdata.SegmentID
	Steps  int
}

// Recorder receives one call per Navigator event when DebugStream tracing
// is enabled. Every method must return quickly and never block the
// Navigator — a Recorder backed by pkg/debugstream buffers internally and
// flushes on Close.
type Recorder interface {
	// Step is called once per step, before the fork is evaluated.
	Step(stepNum int, point mapdata.PointID, incoming mapdata.SegmentID)
	// ForkChoice is called once per candidate considered at a fork,
	// after RuleEngine evaluation.
	ForkChoice(stepNum int, candidate mapdata.SegmentID, weight uint8, avoided bool)
	// StepResult is called once per step with the MoveResult taxonomy
	// outcome: "moved", "dead_end", "waypoint_reached", "finished",
	// "backtrack", or "abandoned".
	StepResult(stepNum int, result string)
}

// Navigator walks a Graph from waypoint to waypoint, picking the
// rule-weighted best fork choice at every junction and backtracking
// through an explicit step stack (never the Go call stack) when a branch
// turns out to be unusable.
type Navigator struct {
	graph     *mapdata.Graph
	ruleFile  rules.RuleFile
	waypoints []mapdata.PointID
	targetIdx int

	route     []mapdata.SegmentID
	discarded map[mapdata.PointID]map[mapdata.PointID]bool

	state    State
	reason   AbandonReason
	steps    int
	recorder Recorder
}

// SetRecorder attaches a debug Recorder. Must be called before Run; nil is
// the default (no tracing) and is always safe.
func (n *Navigator) SetRecorder(r Recorder) { n.recorder = r }

// New builds a Navigator over waypoints, which must have at least a start
// and a finish point already snapped onto graph junctions.
func New(g *mapdata.Graph, rf rules.RuleFile, waypoints []mapdata.PointID) *Navigator {
	return &Navigator{
		graph:     g,
		ruleFile:  rf,
		waypoints: waypoints,
		targetIdx: 1,
		discarded: make(map[mapdata.PointID]map[mapdata.PointID]bool),
		state:     Walking,
	}
}

func (n *Navigator) currentPoint() mapdata.PointID {
	if len(n.route) == 0 {
		return n.waypoints[0]
	}
	return n.graph.Segment(n.route[len(n.route)-1]).To
}

func (n *Navigator) incomingSegment() mapdata.SegmentID {
	if len(n.route) == 0 {
		return mapdata.InvalidSegment
	}
	return n.route[len(n.route)-1]
}

func (n *Navigator) target() mapdata.PointID {
	return n.waypoints[n.targetIdx]
}

// forkCandidates returns the segments leaving point, never offering an
// immediate U-turn back onto the point the walker just arrived from: a
// real road doesn't let you double back onto the same line you came down.
func (n *Navigator) forkCandidates(point mapdata.PointID) []mapdata.SegmentID {
	return n.forkCandidatesVia(point, n.incomingSegment())
}

func (n *Navigator) forkCandidatesVia(point mapdata.PointID, incoming mapdata.SegmentID) []mapdata.SegmentID {
	prevPoint := mapdata.InvalidPoint
	if incoming != mapdata.InvalidSegment {
		prevPoint = n.graph.Segment(incoming).From
	}
	raw := n.graph.Outgoing(point, incoming)
	out := make([]mapdata.SegmentID, 0, len(raw))
	for _, c := range raw {
		if prevPoint != mapdata.InvalidPoint && n.graph.Segment(c).To == prevPoint {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Run drives the Navigator until it finishes, is abandoned, or ctx is
// cancelled. It is safe to call exactly once per Navigator.
func (n *Navigator) Run(ctx context.Context) Result {
	stepLimit := n.ruleFile.Basic.StepLimit
	for {
		select {
		case <-ctx.Done():
			return n.abandon(Cancelled)
		default:
		}

		n.steps++
		if stepLimit > 0 && n.steps > stepLimit {
			return n.abandon(StepLimitExceeded)
		}

		point := n.currentPoint()
		if n.recorder != nil {
			n.recorder.Step(n.steps, point, n.incomingSegment())
		}

		if point == n.target() {
			if n.targetIdx < len(n.waypoints)-1 {
				n.targetIdx++
				n.recordResult("waypoint_reached")
				continue
			}
			n.state = Finished
			n.recordResult("finished")
			return Result{State: Finished, Route: n.route, Steps: n.steps}
		}

		candidates := n.forkCandidates(point)
		if len(candidates) == 0 {
			n.recordResult("dead_end")
			if !n.backtrack() {
				return n.abandonStuck()
			}
			n.recordResult("backtrack")
			continue
		}
		if len(candidates) == 1 {
			n.route = append(n.route, candidates[0])
			n.recordResult("moved")
			continue
		}

		discardedHere := n.discarded[point]
		chosen, ok := n.pickBestFork(point, candidates, discardedHere)
		if !ok {
			n.recordResult("dead_end")
			if !n.backtrack() {
				return n.abandonStuck()
			}
			n.recordResult("backtrack")
			continue
		}

		if n.discarded[point] == nil {
			n.discarded[point] = make(map[mapdata.PointID]bool)
		}
		n.discarded[point][n.graph.Segment(chosen).To] = true
		n.route = append(n.route, chosen)
		n.recordResult("moved")
	}
}

func (n *Navigator) recordResult(result string) {
	if n.recorder != nil {
		n.recorder.StepResult(n.steps, result)
	}
}

// pickBestFork evaluates every non-discarded candidate with the rule
// engine and returns the highest scoring one, ties broken by the lowest
// SegmentID, a stable, deterministic tie-break independent of map
// iteration order.
func (n *Navigator) pickBestFork(point mapdata.PointID, candidates []mapdata.SegmentID, discardedHere map[mapdata.PointID]bool) (mapdata.SegmentID, bool) {
	best := mapdata.InvalidSegment
	bestWeight := -1
	for _, c := range candidates {
		to := n.graph.Segment(c).To
		if discardedHere != nil && discardedHere[to] {
			continue
		}
		verdict := rules.Evaluate(n.ruleFile, rules.EvalContext{
			Graph:      n.graph,
			Fork:       c,
			Incoming:   n.incomingSegment(),
			RouteSoFar: n.route,
			StartLat:   n.graph.Point(n.waypoints[0]).Lat,
			StartLon:   n.graph.Point(n.waypoints[0]).Lon,
			TargetLat:  n.graph.Point(n.target()).Lat,
			TargetLon:  n.graph.Point(n.target()).Lon,
		})
		if n.recorder != nil {
			n.recorder.ForkChoice(n.steps, c, verdict.Weight, verdict.Avoid)
		}
		if verdict.Avoid {
			continue
		}
		w := int(verdict.Weight)
		if w > bestWeight || (w == bestWeight && (best == mapdata.InvalidSegment || c < best)) {
			bestWeight = w
			best = c
		}
	}
	if best == mapdata.InvalidSegment {
		return mapdata.InvalidSegment, false
	}
	return best, true
}

// backtrack pops the route's last segment, then keeps popping until the
// route ends at a point with more than one fork candidate, restoring the
// walk to the nearest earlier fork. Whether that fork's candidates are
// already discarded is not checked here; the next step's pickBestFork
// finds out. Returns false if the route empties and the start point has
// at most one candidate, meaning the whole itinerary is stuck.
func (n *Navigator) backtrack() bool {
	if len(n.route) == 0 {
		return false
	}
	n.route = n.route[:len(n.route)-1]
	for len(n.route) > 0 {
		last := n.route[len(n.route)-1]
		endPoint := n.graph.Segment(last).To
		if len(n.forkCandidatesVia(endPoint, last)) > 1 {
			return true
		}
		n.route = n.route[:len(n.route)-1]
	}
	start := n.waypoints[0]
	return len(n.forkCandidatesVia(start, mapdata.InvalidSegment)) > 1
}

func (n *Navigator) abandonStuck() Result {
	if len(n.route) == 0 {
		return n.abandon(WaypointUnreachable)
	}
	return n.abandon(AllForksExhausted)
}

func (n *Navigator) abandon(reason AbandonReason) Result {
	n.state = Abandoned
	n.reason = reason
	n.recordResult("abandoned")
	return Result{State: Abandoned, Reason: reason, Route: n.route, Steps: n.steps}
}

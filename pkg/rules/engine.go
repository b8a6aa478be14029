package rules

import (
	"github.com/ridi-bike/ridi-router/pkg/geo"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
)

// Verdict is the result of evaluating one candidate outgoing segment at a
// fork: either a veto, or a weight contribution to be summed across every
// rule that fired.
type Verdict struct {
	Avoid  bool
	Weight uint8
}

func avoid() Verdict           { return Verdict{Avoid: true} }
func weighted(w uint8) Verdict { return Verdict{Weight: w} }

// add saturates at 255, and makes any Avoid sticky: once one rule vetoes
// a candidate, further weights no longer matter.
func (v Verdict) add(other Verdict) Verdict {
	if v.Avoid || other.Avoid {
		return avoid()
	}
	sum := int(v.Weight) + int(other.Weight)
	if sum > 255 {
		sum = 255
	}
	return weighted(uint8(sum))
}

// EvalContext is everything a rule needs to judge one candidate segment at
// one fork. RouteSoFar holds every segment walked since the start of the
// itinerary (across all waypoint legs), oldest first; Incoming is
// RouteSoFar's last element (mapdata.InvalidSegment at the very first step).
type EvalContext struct {
	Graph    *mapdata.Graph
	Fork     mapdata.SegmentID
	Incoming mapdata.SegmentID
	RouteSoFar []mapdata.SegmentID

	StartLat, StartLon float64
	// WaypointSwitchLat/Lon is where the itinerary last advanced to a new
	// waypoint (start, for the first leg). No rule reads it, and the
	// Navigator leaves it zero.
	WaypointSwitchLat, WaypointSwitchLon float64
	TargetLat, TargetLon                float64
}

// Evaluate runs every enabled basic rule plus the highway/surface/smoothness
// tag maps against one candidate fork segment and sums the result, any
// Avoid verdict winning outright.
func Evaluate(rf RuleFile, ctx EvalContext) Verdict {
	v := weighted(0)
	for _, rule := range []func(RuleFile, EvalContext) Verdict{
		weightHeading,
		weightPreferSameRoad,
		weightNoSharpTurns,
		weightNoShortDetours,
		weightProgressionDirection,
		weightProgressionSpeed,
		weightTagRule(highwayOf, func(rf RuleFile) map[string]TagAction { return rf.Highway }),
		weightTagRule(surfaceOf, func(rf RuleFile) map[string]TagAction { return rf.Surface }),
		weightTagRule(smoothnessOf, func(rf RuleFile) map[string]TagAction { return rf.Smoothness }),
	} {
		v = v.add(rule(rf, ctx))
		if v.Avoid {
			return v
		}
	}
	return v
}

func highwayOf(g *mapdata.Graph, seg mapdata.Segment) string    { return g.Way(seg.Way).Highway }
func surfaceOf(g *mapdata.Graph, seg mapdata.Segment) string    { return g.Way(seg.Way).Surface }
func smoothnessOf(g *mapdata.Graph, seg mapdata.Segment) string { return g.Way(seg.Way).Smoothness }

// weightHeading walks forward from the candidate fork (through non-fork
// points only). It returns 255 if the walk comes within 15 m of the
// itinerary's current target and Avoid if it reaches a point with no
// outgoing segment at all; once it reaches another fork it scores the
// candidate by how closely its own bearing matches the bearing from that
// point toward the target.
func weightHeading(_ RuleFile, ctx EvalContext) Verdict {
	seg := ctx.Graph.Segment(ctx.Fork)
	cur := ctx.Fork
	curPoint := seg.To
	for {
		p := ctx.Graph.Point(curPoint)
		if withinFinishRadius(p.Lat, p.Lon, ctx.TargetLat, ctx.TargetLon) {
			return weighted(255)
		}
		out := ctx.Graph.Outgoing(curPoint, cur)
		if len(out) == 0 {
			return avoid()
		}
		if len(out) > 1 {
			break
		}
		cur = out[0]
		curPoint = ctx.Graph.Segment(cur).To
	}
	forkEndPoint := ctx.Graph.Point(ctx.Graph.Segment(cur).To)
	nextBearing := geo.BearingDegrees(forkEndPoint.Lat, forkEndPoint.Lon, ctx.TargetLat, ctx.TargetLon)
	forkBearing := segmentBearing(ctx.Graph, seg)
	return weighted(priorityFromHeadings(nextBearing, forkBearing))
}

const finishRadiusMeters = 15.0

func withinFinishRadius(lat1, lon1, lat2, lon2 float64) bool {
	return geo.HaversineDistanceMeters(lat1, lon1, lat2, lon2) <= finishRadiusMeters
}

func segmentBearing(g *mapdata.Graph, seg mapdata.Segment) float64 {
	from := g.Point(seg.From)
	to := g.Point(seg.To)
	return geo.BearingDegrees(from.Lat, from.Lon, to.Lat, to.Lon)
}

// priorityFromHeadings scores how closely two bearings agree: the
// closer two bearings are (mod 360, taking the short way around), the
// higher the score, maxing at 255 for an exact match and bottoming at 0
// for a 180 degree reversal.
func priorityFromHeadings(bearingNext, bearingFork float64) uint8 {
	diff := geo.AngularDifferenceDegrees(bearingNext, bearingFork)
	ratio := 255.0 / 180.0
	score := 255.0 - round(diff*ratio)
	if score < 0 {
		score = 0
	}
	if score > 255 {
		score = 255
	}
	return uint8(score)
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}

func weightPreferSameRoad(rf RuleFile, ctx EvalContext) Verdict {
	if !rf.Basic.PreferSameRoad.Enabled || ctx.Incoming == mapdata.InvalidSegment {
		return weighted(0)
	}
	prevWay := ctx.Graph.Way(ctx.Graph.Segment(ctx.Incoming).Way)
	forkWay := ctx.Graph.Way(ctx.Graph.Segment(ctx.Fork).Way)
	sameRef := prevWay.Ref != "" && forkWay.Ref != "" && prevWay.Ref == forkWay.Ref
	sameName := prevWay.Name != "" && forkWay.Name != "" && prevWay.Name == forkWay.Name
	if sameRef || sameName {
		return weighted(rf.Basic.PreferSameRoad.Priority)
	}
	return weighted(0)
}

func weightNoSharpTurns(rf RuleFile, ctx EvalContext) Verdict {
	if !rf.Basic.NoSharpTurns.Enabled || ctx.Incoming == mapdata.InvalidSegment {
		return weighted(0)
	}
	prevBearing := segmentBearing(ctx.Graph, ctx.Graph.Segment(ctx.Incoming))
	forkBearing := segmentBearing(ctx.Graph, ctx.Graph.Segment(ctx.Fork))
	degDiff := geo.AngularDifferenceDegrees(prevBearing, forkBearing)
	if degDiff <= rf.Basic.NoSharpTurns.UnderDeg {
		return weighted(rf.Basic.NoSharpTurns.Priority)
	}
	return weighted(0)
}

// weightNoShortDetours rejects a candidate that would rejoin the same
// named/ref'd road within min_detour_len_m, by scanning the route
// travelled since it last left that road.
func weightNoShortDetours(rf RuleFile, ctx EvalContext) Verdict {
	if !rf.Basic.NoShortDetours.Enabled {
		return weighted(0)
	}
	forkWay := ctx.Graph.Way(ctx.Graph.Segment(ctx.Fork).Way)
	if forkWay.Ref == "" && forkWay.Name == "" {
		return weighted(0)
	}
	var traveled float64
	for i := len(ctx.RouteSoFar) - 1; i >= 0; i-- {
		seg := ctx.Graph.Segment(ctx.RouteSoFar[i])
		way := ctx.Graph.Way(seg.Way)
		sameRef := forkWay.Ref != "" && way.Ref == forkWay.Ref
		sameName := forkWay.Name != "" && way.Name == forkWay.Name
		if sameRef || sameName {
			if traveled < rf.Basic.NoShortDetours.MinDetourLenM {
				return avoid()
			}
			return weighted(0)
		}
		traveled += seg.LengthMeters
		if traveled >= rf.Basic.NoShortDetours.MinDetourLenM {
			return weighted(0)
		}
	}
	return weighted(0)
}

// weightProgressionDirection implements progression_direction: compare the
// distance-to-target from the current point against the distance-to-target
// from check_junctions_back junctions ago, and veto the candidate when the
// current point is farther from the target than that baseline. The
// candidate's own end point is not considered, so the verdict is the same
// for every candidate at one fork.
func weightProgressionDirection(rf RuleFile, ctx EvalContext) Verdict {
	if !rf.Basic.ProgressionDirection.Enabled || len(ctx.RouteSoFar) == 0 {
		return weighted(0)
	}
	lastSeg := ctx.Graph.Segment(ctx.RouteSoFar[len(ctx.RouteSoFar)-1])
	lastPoint := ctx.Graph.Point(lastSeg.To)
	distNow := geo.HaversineDistanceMeters(lastPoint.Lat, lastPoint.Lon, ctx.TargetLat, ctx.TargetLon)

	backIdx := junctionIndexFromEnd(ctx.Graph, ctx.RouteSoFar, rf.Basic.ProgressionDirection.CheckJunctionsBack)
	if backIdx < 0 {
		return weighted(0)
	}
	backSeg := ctx.Graph.Segment(ctx.RouteSoFar[backIdx])
	backPoint := ctx.Graph.Point(backSeg.To)
	distBack := geo.HaversineDistanceMeters(backPoint.Lat, backPoint.Lon, ctx.TargetLat, ctx.TargetLon)

	if distNow > distBack {
		return avoid()
	}
	return weighted(0)
}

// junctionIndexFromEnd walks back from the end of route counting the
// junction points it passes (a point visited twice counts twice) (points where the graph has more than one outgoing
// segment), returning the route index that many junctions back, or -1 if
// the route is shorter than that.
func junctionIndexFromEnd(g *mapdata.Graph, route []mapdata.SegmentID, n int) int {
	count := 0
	for i := len(route) - 1; i >= 0; i-- {
		seg := g.Segment(route[i])
		if len(g.Outgoing(seg.To, route[i])) > 1 {
			count++
			if count >= n {
				return i
			}
		}
	}
	return -1
}

func weightProgressionSpeed(rf RuleFile, ctx EvalContext) Verdict {
	if !rf.Basic.ProgressionSpeed.Enabled {
		return weighted(0)
	}
	n := rf.Basic.ProgressionSpeed.CheckStepsBack
	if len(ctx.RouteSoFar) < n || n <= 0 {
		return weighted(0)
	}
	totalDistance := geo.HaversineDistanceMeters(ctx.StartLat, ctx.StartLon, ctx.TargetLat, ctx.TargetLon)
	avgPerSegment := totalDistance / float64(len(ctx.RouteSoFar))

	backSeg := ctx.Graph.Segment(ctx.RouteSoFar[len(ctx.RouteSoFar)-n])
	backPoint := ctx.Graph.Point(backSeg.To)
	lastSeg := ctx.Graph.Segment(ctx.RouteSoFar[len(ctx.RouteSoFar)-1])
	lastPoint := ctx.Graph.Point(lastSeg.To)
	distLastN := geo.HaversineDistanceMeters(backPoint.Lat, backPoint.Lon, lastPoint.Lat, lastPoint.Lon)
	avgLastN := distLastN / float64(n)

	if avgLastN < avgPerSegment*rf.Basic.ProgressionSpeed.LastStepDistanceBelowAvgWithRatio {
		return avoid()
	}
	return weighted(0)
}

// weightTagRule builds a rule closure over one of the highway/surface/
// smoothness tag maps: any Avoid tag encountered on the route chunk walked
// since the junction before last vetoes the candidate retroactively,
// otherwise the candidate's own tag looks itself up for an explicit
// priority or avoid verdict.
func weightTagRule(tagOf func(*mapdata.Graph, mapdata.Segment) string, mapOf func(RuleFile) map[string]TagAction) func(RuleFile, EvalContext) Verdict {
	return func(rf RuleFile, ctx EvalContext) Verdict {
		m := mapOf(rf)
		if m == nil {
			return weighted(0)
		}
		for _, sid := range chunkSinceJunctionBeforeLast(ctx.Graph, ctx.RouteSoFar) {
			seg := ctx.Graph.Segment(sid)
			if act, ok := m[tagOf(ctx.Graph, seg)]; ok && act.Action == "avoid" {
				return avoid()
			}
		}
		candidate := ctx.Graph.Segment(ctx.Fork)
		if act, ok := m[tagOf(ctx.Graph, candidate)]; ok {
			if act.Action == "avoid" {
				return avoid()
			}
			return weighted(act.Value)
		}
		return weighted(0)
	}
}

// chunkSinceJunctionBeforeLast returns the tail of route starting right
// after the second-to-last junction point, i.e. the segments that make up
// the most recent stretch of road.
func chunkSinceJunctionBeforeLast(g *mapdata.Graph, route []mapdata.SegmentID) []mapdata.SegmentID {
	junctions := 0
	for i := len(route) - 1; i >= 0; i-- {
		seg := g.Segment(route[i])
		if len(g.Outgoing(seg.To, route[i])) > 1 {
			junctions++
			if junctions >= 2 {
				return route[i+1:]
			}
		}
	}
	return route
}

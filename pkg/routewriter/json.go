package routewriter

import (
	"encoding/json"
	"io"

	"github.com/twpayne/go-polyline"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
)

// jsonRoute is one Route's JSON shape. Coordinates carries the full
// [lat, lon] list; Polyline carries the same geometry Google
// polyline-encoded when the caller asks for the compact form. Exactly one
// of the two is populated per document.
type jsonRoute struct {
	Label               string             `json:"label"`
	TotalDistanceMeters float64            `json:"total_distance_meters"`
	TwistinessDegPerKm  float64            `json:"twistiness_deg_per_km"`
	DistanceByHighway   map[string]float64 `json:"distance_by_highway"`
	DistanceBySurface   map[string]float64 `json:"distance_by_surface"`
	Coordinates         [][2]float64       `json:"coordinates,omitempty"`
	Polyline            string             `json:"polyline,omitempty"`
}

// WriteJSON renders routes as a JSON array, one object per route, with
// full [lat, lon] coordinate lists.
func WriteJSON(w io.Writer, g *mapdata.Graph, routes []routegen.Route) error {
	return writeJSON(w, g, routes, false)
}

// WriteJSONPolyline renders routes the same way as WriteJSON but replaces
// the coordinate list with a compact encoded polyline string, the format
// most web mapping SDKs decode natively.
func WriteJSONPolyline(w io.Writer, g *mapdata.Graph, routes []routegen.Route) error {
	return writeJSON(w, g, routes, true)
}

func writeJSON(w io.Writer, g *mapdata.Graph, routes []routegen.Route, compact bool) error {
	out := make([]jsonRoute, 0, len(routes))
	for _, r := range routes {
		jr := jsonRoute{
			Label:               r.Label,
			TotalDistanceMeters: r.TotalDistanceMeters,
			TwistinessDegPerKm:  r.TwistinessDegPerKm,
			DistanceByHighway:   r.DistanceByHighway,
			DistanceBySurface:   r.DistanceBySurface,
		}
		coords := routeCoords(g, r)
		if compact {
			jr.Polyline = string(polyline.EncodeCoords(coords))
		} else {
			pts := make([][2]float64, len(coords))
			for i, c := range coords {
				pts[i] = [2]float64{c[0], c[1]}
			}
			jr.Coordinates = pts
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding JSON route document")
	}
	return nil
}

// RouteCoordinates flattens a route's segment chain into an ordered
// [lat, lon] list, exported for other packages (the IPC server DTO
// conversion) that need the same geometry without a full document
// encode.
func RouteCoordinates(g *mapdata.Graph, r routegen.Route) [][]float64 {
	return routeCoords(g, r)
}

func routeCoords(g *mapdata.Graph, r routegen.Route) [][]float64 {
	coords := make([][]float64, 0, len(r.Segments)+1)
	for i, sid := range r.Segments {
		seg := g.Segment(sid)
		if i == 0 {
			from := g.Point(seg.From)
			coords = append(coords, []float64{from.Lat, from.Lon})
		}
		for _, ll := range seg.Polyline {
			coords = append(coords, []float64{ll[0], ll[1]})
		}
		to := g.Point(seg.To)
		coords = append(coords, []float64{to.Lat, to.Lon})
	}
	return coords
}

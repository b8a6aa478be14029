package cmd

import (
	"encoding/json"
	"encoding/xml"
	"io"

	"github.com/twpayne/go-polyline"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/ipc"
)

// writeResponseGPX and writeResponseJSON mirror pkg/routewriter's document
// shapes but operate on an ipc.Response's already-resolved RouteDTO
// coordinates instead of a mapdata.Graph and routegen.Route — start-client
// never holds a Graph, only what the server sent back over the socket.

type clientGpxTrkpt struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type clientGpxExtensions struct {
	TotalDistanceMeters float64 `xml:"total_distance_meters"`
	TwistinessDegPerKm  float64 `xml:"twistiness_deg_per_km"`
}

type clientGpxTrk struct {
	Name       string              `xml:"name"`
	Extensions clientGpxExtensions `xml:"extensions"`
	Segment    struct {
		Points []clientGpxTrkpt `xml:"trkpt"`
	} `xml:"trkseg"`
}

type clientGpxDoc struct {
	XMLName xml.Name       `xml:"gpx"`
	Version string         `xml:"version,attr"`
	Creator string         `xml:"creator,attr"`
	Xmlns   string         `xml:"xmlns,attr"`
	Tracks  []clientGpxTrk `xml:"trk"`
}

func writeResponseGPX(w io.Writer, resp ipc.Response) error {
	doc := clientGpxDoc{Version: "1.1", Creator: "ridi-router", Xmlns: "http://www.topografix.com/GPX/1/1"}
	for _, r := range resp.Routes {
		trk := clientGpxTrk{
			Name: r.Label,
			Extensions: clientGpxExtensions{
				TotalDistanceMeters: r.TotalDistanceMeters,
				TwistinessDegPerKm:  r.TwistinessDegPerKm,
			},
		}
		for _, c := range r.Coordinates {
			trk.Segment.Points = append(trk.Segment.Points, clientGpxTrkpt{Lat: c[0], Lon: c[1]})
		}
		doc.Tracks = append(doc.Tracks, trk)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "writing GPX header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding GPX document")
	}
	return nil
}

type clientJSONRoute struct {
	Label               string             `json:"label"`
	TotalDistanceMeters float64            `json:"total_distance_meters"`
	TwistinessDegPerKm  float64            `json:"twistiness_deg_per_km"`
	DistanceByHighway   map[string]float64 `json:"distance_by_highway"`
	DistanceBySurface   map[string]float64 `json:"distance_by_surface"`
	Coordinates         [][2]float64       `json:"coordinates,omitempty"`
	Polyline            string             `json:"polyline,omitempty"`
}

func writeResponseJSON(w io.Writer, resp ipc.Response) error {
	out := make([]clientJSONRoute, 0, len(resp.Routes))
	for _, r := range resp.Routes {
		jr := clientJSONRoute{
			Label:               r.Label,
			TotalDistanceMeters: r.TotalDistanceMeters,
			TwistinessDegPerKm:  r.TwistinessDegPerKm,
			DistanceByHighway:   r.DistanceByHighway,
			DistanceBySurface:   r.DistanceBySurface,
		}
		if scPolyline {
			coords := make([][]float64, len(r.Coordinates))
			for i, c := range r.Coordinates {
				coords[i] = []float64{c[0], c[1]}
			}
			jr.Polyline = string(polyline.EncodeCoords(coords))
		} else {
			jr.Coordinates = r.Coordinates
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding JSON response")
	}
	return nil
}

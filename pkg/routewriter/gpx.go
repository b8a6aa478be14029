// Package routewriter renders finished routes to the two output formats
// route consumers expect: GPX 1.1 for GPS devices and route-editing
// tools, and a JSON array for programmatic consumers, optionally with a
// compact encoded polyline instead of a raw coordinate list.
package routewriter

import (
	"encoding/xml"
	"io"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
)

type gpxTrkpt struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type gpxTrkseg struct {
	Points []gpxTrkpt `xml:"trkpt"`
}

type gpxExtensions struct {
	TotalDistanceMeters float64 `xml:"total_distance_meters"`
	TwistinessDegPerKm  float64 `xml:"twistiness_deg_per_km"`
}

type gpxTrk struct {
	Name       string        `xml:"name"`
	Extensions gpxExtensions `xml:"extensions"`
	Segment    gpxTrkseg     `xml:"trkseg"`
}

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Tracks  []gpxTrk `xml:"trk"`
}

// WriteGPX renders every route as one <trk>/<trkseg> in a single GPX 1.1
// document, with per-route stats carried in a <trk><extensions> block
// since GPX has no standard field for them.
func WriteGPX(w io.Writer, g *mapdata.Graph, routes []routegen.Route) error {
	doc := gpxDoc{
		Version: "1.1",
		Creator: "ridi-router",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Tracks:  make([]gpxTrk, 0, len(routes)),
	}
	for _, r := range routes {
		doc.Tracks = append(doc.Tracks, gpxTrk{
			Name: r.Label,
			Extensions: gpxExtensions{
				TotalDistanceMeters: r.TotalDistanceMeters,
				TwistinessDegPerKm:  r.TwistinessDegPerKm,
			},
			Segment: gpxTrkseg{Points: routeTrkpts(g, r)},
		})
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

func routeTrkpts(g *mapdata.Graph, r routegen.Route) []gpxTrkpt {
	pts := make([]gpxTrkpt, 0, len(r.Segments)+1)
	for i, sid := range r.Segments {
		seg := g.Segment(sid)
		if i == 0 {
			from := g.Point(seg.From)
			pts = append(pts, gpxTrkpt{Lat: from.Lat, Lon: from.Lon})
		}
		for _, ll := range seg.Polyline {
			pts = append(pts, gpxTrkpt{Lat: ll[0], Lon: ll[1]})
		}
		to := g.Point(seg.To)
		pts = append(pts, gpxTrkpt{Lat: to.Lat, Lon: to.Lon})
	}
	return pts
}

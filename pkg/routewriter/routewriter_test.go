package routewriter_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
	"github.com/ridi-bike/ridi-router/pkg/routewriter"
)

func testRoutes(t *testing.T) (*mapdata.Graph, []routegen.Route) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)
	p3, err := g.NearestJunction(3.0, 3.0, 1000)
	require.NoError(t, err)
	segs := g.Outgoing(p3, -1)
	require.NotEmpty(t, segs)
	return g, []routegen.Route{
		{
			Label:               "start-finish-0",
			Segments:            segs[:1],
			TotalDistanceMeters: g.Segment(segs[0]).LengthMeters,
			DistanceByHighway:   map[string]float64{"residential": g.Segment(segs[0]).LengthMeters},
			DistanceBySurface:   map[string]float64{},
			TwistinessDegPerKm:  0,
		},
	}
}

func TestWriteGPXProducesOneTrackPerRoute(t *testing.T) {
	g, routes := testRoutes(t)
	var buf bytes.Buffer
	require.NoError(t, routewriter.WriteGPX(&buf, g, routes))
	out := buf.String()
	require.True(t, strings.Contains(out, "<trk>"))
	require.True(t, strings.Contains(out, "start-finish-0"))
	require.True(t, strings.Contains(out, "<trkpt"))
}

func TestWriteJSONProducesCoordinateArray(t *testing.T) {
	g, routes := testRoutes(t)
	var buf bytes.Buffer
	require.NoError(t, routewriter.WriteJSON(&buf, g, routes))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "start-finish-0", decoded[0]["label"])
	require.NotEmpty(t, decoded[0]["coordinates"])
}

func TestWriteJSONPolylineEncodesCompactString(t *testing.T) {
	g, routes := testRoutes(t)
	var buf bytes.Buffer
	require.NoError(t, routewriter.WriteJSONPolyline(&buf, g, routes))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	poly, ok := decoded[0]["polyline"].(string)
	require.True(t, ok)
	require.NotEmpty(t, poly)
	require.Nil(t, decoded[0]["coordinates"])
}

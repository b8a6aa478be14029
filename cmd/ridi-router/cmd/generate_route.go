package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridi-bike/ridi-router/internal/logger"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
	"github.com/ridi-bike/ridi-router/pkg/routewriter"
	"github.com/ridi-bike/ridi-router/pkg/rules"
)

var (
	grInput    string
	grOutput   string
	grRuleFile string
	grCacheDir string
	grDebugDir string
	grPolyline bool
)

var generateRouteCmd = &cobra.Command{
	Use:   "generate-route",
	Short: "Generate one or more motorcycle routes and write them to a file",
}

var startFinishCmd = &cobra.Command{
	Use:   "start-finish <start lat,lon> <finish lat,lon>",
	Short: "Generate routes between a start and a finish coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		startLat, startLon, err := parseLatLon(args[0])
		if err != nil {
			return err
		}
		finishLat, finishLon, err := parseLatLon(args[1])
		if err != nil {
			return err
		}
		return runGenerateRoute(routecore.Request{
			Trip:      routecore.StartFinish,
			StartLat:  startLat,
			StartLon:  startLon,
			FinishLat: finishLat,
			FinishLon: finishLon,
			DebugDir:  grDebugDir,
		})
	},
}

var (
	rtBearingDeg     float64
	rtDistanceMeters float64
)

var roundTripCmd = &cobra.Command{
	Use:   "round-trip <center lat,lon>",
	Short: "Generate loop routes starting and finishing at a center coordinate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		centerLat, centerLon, err := parseLatLon(args[0])
		if err != nil {
			return err
		}
		return runGenerateRoute(routecore.Request{
			Trip:           routecore.RoundTrip,
			CenterLat:      centerLat,
			CenterLon:      centerLon,
			BearingDeg:     rtBearingDeg,
			DistanceMeters: rtDistanceMeters,
			DebugDir:       grDebugDir,
		})
	},
}

func runGenerateRoute(req routecore.Request) error {
	log := logger.Get()
	ctx := context.Background()

	rf, err := rules.Load(grRuleFile)
	if err != nil {
		return err
	}

	g, err := routecore.LoadGraph(ctx, grInput, grCacheDir)
	if err != nil {
		return err
	}
	log.Info("graph ready", zap.Int("points", g.NumPoints()), zap.Int("segments", g.NumSegments()))

	result, err := routecore.Run(ctx, g, rf, req, routegen.DefaultConfig())
	if err != nil {
		return err
	}
	for _, a := range result.Abandonments {
		log.Warn("itinerary abandoned", zap.String("label", a.Label), zap.String("reason", a.Reason.String()))
	}
	log.Info("routes generated", zap.Int("count", len(result.Routes)))

	return writeRoutes(g, grOutput, result.Routes)
}

func init() {
	rootCmd.AddCommand(generateRouteCmd)
	generateRouteCmd.AddCommand(startFinishCmd)
	generateRouteCmd.AddCommand(roundTripCmd)

	generateRouteCmd.PersistentFlags().StringVar(&grInput, "input", "", "OSM PBF or Overpass JSON input file")
	generateRouteCmd.PersistentFlags().StringVar(&grOutput, "output", "routes.gpx", "output file (.gpx or .json)")
	generateRouteCmd.PersistentFlags().StringVar(&grRuleFile, "rule-file", "", "YAML rule-file (defaults built in when omitted)")
	generateRouteCmd.PersistentFlags().StringVar(&grCacheDir, "cache-dir", "", "MapDataGraph cache directory (built and populated on first use)")
	generateRouteCmd.PersistentFlags().StringVar(&grDebugDir, "debug-dir", "", "DebugStream trace output directory (disabled when empty)")
	generateRouteCmd.PersistentFlags().BoolVar(&grPolyline, "polyline", false, "encode JSON output coordinates as a compact polyline string")
	_ = generateRouteCmd.MarkPersistentFlagRequired("input")

	roundTripCmd.Flags().Float64Var(&rtBearingDeg, "bearing", 0, "initial bearing in degrees, 0-359")
	roundTripCmd.Flags().Float64Var(&rtDistanceMeters, "distance", 0, "target loop distance in meters")
	_ = roundTripCmd.MarkFlagRequired("distance")
}

func writeRoutes(g *mapdata.Graph, path string, routes []routegen.Route) error {
	f, err := os.Create(path)
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "creating output file %s", path)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if grPolyline {
			return routewriter.WriteJSONPolyline(f, g, routes)
		}
		return routewriter.WriteJSON(f, g, routes)
	}
	return routewriter.WriteGPX(f, g, routes)
}

package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridi-bike/ridi-router/internal/logger"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/ipc"
)

var (
	scSocketName string
	scRequestID  string
	scOutput     string
	scRuleFile   string
	scDebugDir   string
	scPolyline   bool
)

var startClientCmd = &cobra.Command{
	Use:   "start-client",
	Short: "Dial a running start-server instance and write back its routes",
}

var clientStartFinishCmd = &cobra.Command{
	Use:   "start-finish <start lat,lon> <finish lat,lon>",
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
		return runClientRequest(ipc.Request{
			ID:        scRequestID,
			Trip:      routecore.StartFinish,
			StartLat:  startLat,
			StartLon:  startLon,
			FinishLat: finishLat,
			FinishLon: finishLon,
			DebugDir:  scDebugDir,
		})
	},
}

var (
	clientBearingDeg     float64
	clientDistanceMeters float64
)

var clientRoundTripCmd = &cobra.Command{
	Use:   "round-trip <center lat,lon>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		centerLat, centerLon, err := parseLatLon(args[0])
		if err != nil {
			return err
		}
		return runClientRequest(ipc.Request{
			ID:             scRequestID,
			Trip:           routecore.RoundTrip,
			CenterLat:      centerLat,
			CenterLon:      centerLon,
			BearingDeg:     clientBearingDeg,
			DistanceMeters: clientDistanceMeters,
			DebugDir:       scDebugDir,
		})
	},
}

func runClientRequest(req ipc.Request) error {
	log := logger.Get()
	if scRuleFile != "" {
		data, err := os.ReadFile(scRuleFile)
		if err != nil {
			return rerrors.Wrap(rerrors.InputMalformed, err, "reading rule-file %s", scRuleFile)
		}
		req.RuleFileYAML = data
	}

	resp, err := ipc.Send(scSocketName, req)
	if err != nil {
		return err
	}
	log.Info("response received", zap.Int("routes", len(resp.Routes)), zap.Int("abandoned", len(resp.Abandonments)))

	return writeClientResponse(scOutput, resp)
}

func writeClientResponse(path string, resp ipc.Response) error {
	f, err := os.Create(path)
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "creating output file %s", path)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return writeResponseJSON(f, resp)
	}
	return writeResponseGPX(f, resp)
}

func init() {
	rootCmd.AddCommand(startClientCmd)
	startClientCmd.AddCommand(clientStartFinishCmd)
	startClientCmd.AddCommand(clientRoundTripCmd)

	startClientCmd.PersistentFlags().StringVar(&scSocketName, "socket-name", "/tmp/ridi-router.sock", "Unix domain socket path to dial")
	startClientCmd.PersistentFlags().StringVar(&scRequestID, "request-id", "req-1", "request identifier sent with the request (the server uses it only in its log messages)")
	startClientCmd.PersistentFlags().StringVar(&scOutput, "output", "routes.gpx", "output file (.gpx or .json)")
	startClientCmd.PersistentFlags().StringVar(&scRuleFile, "rule-file", "", "YAML rule-file to send with the request (server defaults when omitted)")
	startClientCmd.PersistentFlags().StringVar(&scDebugDir, "debug-dir", "", "DebugStream trace output directory on the server (disabled when empty)")
	startClientCmd.PersistentFlags().BoolVar(&scPolyline, "polyline", false, "encode JSON output coordinates as a compact polyline string")

	clientRoundTripCmd.Flags().Float64Var(&clientBearingDeg, "bearing", 0, "initial bearing in degrees, 0-359")
	clientRoundTripCmd.Flags().Float64Var(&clientDistanceMeters, "distance", 0, "target loop distance in meters")
	_ = clientRoundTripCmd.MarkFlagRequired("distance")
}

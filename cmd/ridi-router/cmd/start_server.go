package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridi-bike/ridi-router/internal/logger"
	"github.com/ridi-bike/ridi-router/internal/metrics"
	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/ipc"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
)

var (
	ssInput      string
	ssCacheDir   string
	ssSocketName string
	ssMetricsAddr string
)

var startServerCmd = &cobra.Command{
	Use:   "start-server",
	Short: "Load one MapDataGraph and serve route requests over a Unix socket",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		start := time.Now()
		g, err := routecore.LoadGraph(ctx, ssInput, ssCacheDir)
		if err != nil {
			return err
		}
		m.BuildDuration.Observe(time.Since(start).Seconds())
		log.Info("graph ready", zap.Int("points", g.NumPoints()), zap.Int("segments", g.NumSegments()),
			zap.Duration("build_time", time.Since(start)))

		if ssMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			go func() {
				if err := http.ListenAndServe(ssMetricsAddr, mux); err != nil {
					log.Warn("metrics server stopped", zap.Error(err))
				}
			}()
			log.Info("metrics listening", zap.String("addr", ssMetricsAddr))
		}

		srv := &ipc.Server{
			SocketPath: ssSocketName,
			Graph:      g,
			GenConfig:  routegen.DefaultConfig(),
			Log:        log,
			Metrics:    m,
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info("shutting down")
			cancel()
		}()

		log.Info("serving", zap.String("socket", ssSocketName))
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringVar(&ssInput, "input", "", "OSM PBF or Overpass JSON input file")
	startServerCmd.Flags().StringVar(&ssCacheDir, "cache-dir", "", "MapDataGraph cache directory")
	startServerCmd.Flags().StringVar(&ssSocketName, "socket-name", "/tmp/ridi-router.sock", "Unix domain socket path to listen on")
	startServerCmd.Flags().StringVar(&ssMetricsAddr, "metrics-addr", "", "address to serve /metrics on, e.g. :9100 (disabled when empty)")
	_ = startServerCmd.MarkFlagRequired("input")
}

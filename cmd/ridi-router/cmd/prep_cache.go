package cmd

import (
	"context"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridi-bike/ridi-router/internal/logger"
	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/mapdatacache"
)

var (
	pcInput    string
	pcCacheDir string
)

var prepCacheCmd = &cobra.Command{
	Use:   "prep-cache",
	Short: "Build a MapDataGraph from an OSM extract and save it to a cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]building graph and writing cache...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
		defer bar.Finish()

		ctx := context.Background()
		g, err := routecore.LoadGraph(ctx, pcInput, "")
		if err != nil {
			return err
		}
		_ = bar.Add(1)

		log.Info("graph built", zap.Int("points", g.NumPoints()), zap.Int("segments", g.NumSegments()))
		return mapdatacache.Save(g, pcCacheDir)
	},
}

func init() {
	rootCmd.AddCommand(prepCacheCmd)
	prepCacheCmd.Flags().StringVar(&pcInput, "input", "", "OSM PBF or Overpass JSON input file")
	prepCacheCmd.Flags().StringVar(&pcCacheDir, "cache-dir", "", "directory to write the cache into")
	_ = prepCacheCmd.MarkFlagRequired("input")
	_ = prepCacheCmd.MarkFlagRequired("cache-dir")
}

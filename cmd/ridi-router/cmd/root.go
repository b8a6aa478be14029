// Package cmd implements the CLI surface: generate-route, prep-cache,
// start-server, start-client, debug-viewer, all sharing one cobra root
// and one internal/logger instance.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ridi-bike/ridi-router/internal/logger"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

var (
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "ridi-router",
	Short: "Motorcycle-focused, rule-weighted route generator",
	Long: `ridi-router builds motorcycle routes from an OSM extract by walking
a rule-weighted junction graph rather than solving for a globally shortest
path: it favors long, twisty, low-traffic roads over the fastest way
between two points.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logFile != "" {
			logger.InitWithFile(verbose, logFile)
		} else {
			logger.Init(verbose)
		}
	},
}

// Execute runs the command tree, returning the first error encountered.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCodeOf maps err to the process exit code the ERROR HANDLING taxonomy
// assigns its Kind, or 1 for an error that never went through rerrors.
func ExitCodeOf(err error) int {
	if kind, ok := rerrors.KindOf(err); ok {
		return rerrors.ExitCode(kind)
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "rotated JSON log file path (console logging always on)")
}

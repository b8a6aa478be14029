package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/debugstream"
)

var dvDebugDir string

var debugViewerCmd = &cobra.Command{
	Use:   "debug-viewer",
	Short: "Print a summary of every DebugStream record file under a debug directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(dvDebugDir)
		if err != nil {
			return rerrors.Wrap(rerrors.InputMalformed, err, "reading debug dir %s", dvDebugDir)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".dbg") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(dvDebugDir, name)
			records, err := debugstream.ReadRecords(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d records\n", name, len(records))
			if err := printSample(name, records); err != nil {
				return err
			}
		}
		return nil
	},
}

// printSample decodes and prints the first record of a stream file, as a
// quick sanity check that the trace actually holds the shape its kind
// promises.
func printSample(name string, records [][]byte) error {
	if len(records) == 0 {
		return nil
	}
	switch {
	case strings.Contains(name, ".itineraries."):
		var r debugstream.ItineraryRecord
		if err := debugstream.DecodeGob(records[0], &r); err != nil {
			return err
		}
		fmt.Printf("  first: %+v\n", r)
	case strings.Contains(name, ".itinerary-waypoints."):
		var r debugstream.WaypointRecord
		if err := debugstream.DecodeGob(records[0], &r); err != nil {
			return err
		}
		fmt.Printf("  first: %+v\n", r)
	case strings.Contains(name, ".steps."):
		var r debugstream.StepRecord
		if err := debugstream.DecodeGob(records[0], &r); err != nil {
			return err
		}
		fmt.Printf("  first: %+v\n", r)
	case strings.Contains(name, ".step-results."):
		var r debugstream.StepResultRecord
		if err := debugstream.DecodeGob(records[0], &r); err != nil {
			return err
		}
		fmt.Printf("  first: %+v\n", r)
	case strings.Contains(name, ".fork-choice"):
		var r debugstream.ForkChoiceRecord
		if err := debugstream.DecodeGob(records[0], &r); err != nil {
			return err
		}
		fmt.Printf("  first: %+v\n", r)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(debugViewerCmd)
	debugViewerCmd.Flags().StringVar(&dvDebugDir, "debug-dir", "", "DebugStream directory to inspect")
	_ = debugViewerCmd.MarkFlagRequired("debug-dir")
}

package debugstream_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridi-bike/ridi-router/pkg/debugstream"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
)

func TestWriterRoundTripsStepAndForkChoiceRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := debugstream.NewWriter(dir, 1, "start-finish-0", 2, false)
	require.NoError(t, err)

	require.NoError(t, w.Waypoint(0, 1.0, 2.0, 50))
	w.Step(1, mapdata.PointID(3), mapdata.InvalidSegment)
	w.ForkChoice(1, mapdata.SegmentID(7), 200, false)
	w.StepResult(1, "moved")
	require.NoError(t, w.Close())

	itins, err := debugstream.ReadRecords(filepath.Join(dir, "start-finish-0.itineraries.dbg"))
	require.NoError(t, err)
	require.Len(t, itins, 1)
	var itin debugstream.ItineraryRecord
	require.NoError(t, debugstream.DecodeGob(itins[0], &itin))
	require.Equal(t, "start-finish-0", itin.Label)
	require.Equal(t, 2, itin.NumWaypoints)

	steps, err := debugstream.ReadRecords(filepath.Join(dir, "start-finish-0.steps.dbg"))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	var step debugstream.StepRecord
	require.NoError(t, debugstream.DecodeGob(steps[0], &step))
	require.Equal(t, int64(3), step.Point)

	forks, err := debugstream.ReadRecords(filepath.Join(dir, "start-finish-0.fork-choices.dbg"))
	require.NoError(t, err)
	require.Len(t, forks, 1)
	var fork debugstream.ForkChoiceRecord
	require.NoError(t, debugstream.DecodeGob(forks[0], &fork))
	require.Equal(t, uint8(200), fork.Weight)
	require.False(t, fork.Avoided)
}

func TestReadRecordsMissingFileErrors(t *testing.T) {
	_, err := debugstream.ReadRecords(filepath.Join(t.TempDir(), "missing.dbg"))
	require.Error(t, err)
}

// Package debugstream implements the optional structured trace of an
// itinerary's Navigator run: one append-only, length-delimited record
// stream per record kind, written through a buffered per-itinerary writer
// flushed on completion. A record reaches its file during the run only
// when that stream's 4 KB buffer fills; that write is synchronous. Records
// are gob-encoded (self-describing, field names travel with the data) and
// zstd-compressed per record, mirroring the encoding choices already used
// for the on-disk graph cache.
package debugstream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
)

// Kind names one of the six record streams a Writer produces.
type Kind string

const (
	KindItinerary        Kind = "itineraries"
	KindWaypoint         Kind = "itinerary-waypoints"
	KindStep             Kind = "steps"
	KindStepResult       Kind = "step-results"
	KindForkChoice       Kind = "fork-choices"
	KindForkChoiceWeight Kind = "fork-choice-weights"
)

var allKinds = []Kind{KindItinerary, KindWaypoint, KindStep, KindStepResult, KindForkChoice, KindForkChoiceWeight}

// ItineraryRecord is the single record written to the itineraries stream
// when a Writer is opened.
type ItineraryRecord struct {
	Label        string
	NumWaypoints int
	VisitAll     bool
}

// WaypointRecord is one entry of the itinerary-waypoints stream.
type WaypointRecord struct {
	Index        int
	Lat, Lon     float64
	RadiusMeters float64
}

// StepRecord is one entry of the steps stream.
type StepRecord struct {
	StepNum  int
	Point    int64
	Incoming int64
}

// StepResultRecord is one entry of the step-results stream: the
// MoveResult taxonomy outcome of one step.
type StepResultRecord struct {
	StepNum int
	Result  string
}

// ForkChoiceRecord is one entry of the fork-choices / fork-choice-weights
// streams: a candidate segment considered at a fork, and the weight
// RuleEngine assigned it.
type ForkChoiceRecord struct {
	StepNum   int
	Candidate int64
	Weight    uint8
	Avoided   bool
}

// Writer emits one record stream file per Kind for a single itinerary,
// named "<label>.<kind>.dbg" inside dir. It implements navigator.Recorder
// so it can be attached directly to a Navigator.
type Writer struct {
	itineraryID int
	label       string
	files       map[Kind]*os.File
	bufs        map[Kind]*bufio.Writer
}

// NewWriter creates (or truncates) the six record stream files for label
// inside dir, and writes the itinerary record immediately, before the
// Navigator ever calls back. Waypoint records are added with Waypoint.
func NewWriter(dir string, itineraryID int, label string, numWaypoints int, visitAll bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, rerrors.Wrap(rerrors.InputMalformed, err, "creating debug stream dir %s", dir)
	}
	w := &Writer{
		itineraryID: itineraryID,
		label:       label,
		files:       make(map[Kind]*os.File, len(allKinds)),
		bufs:        make(map[Kind]*bufio.Writer, len(allKinds)),
	}
	for _, k := range allKinds {
		path := filepath.Join(dir, fmt.Sprintf("%s.%s.dbg", label, k))
		f, err := os.Create(path)
		if err != nil {
			w.Close()
			return nil, rerrors.Wrap(rerrors.InputMalformed, err, "creating debug stream file %s", path)
		}
		w.files[k] = f
		w.bufs[k] = bufio.NewWriter(f)
	}

	if err := writeRecord(w.bufs[KindItinerary], ItineraryRecord{Label: label, NumWaypoints: numWaypoints, VisitAll: visitAll}); err != nil {
		return nil, err
	}
	return w, nil
}

// Waypoint appends one WaypointRecord to the itinerary-waypoints stream.
func (w *Writer) Waypoint(index int, lat, lon, radiusMeters float64) error {
	return writeRecord(w.bufs[KindWaypoint], WaypointRecord{Index: index, Lat: lat, Lon: lon, RadiusMeters: radiusMeters})
}

// Step implements navigator.Recorder.
func (w *Writer) Step(stepNum int, point mapdata.PointID, incoming mapdata.SegmentID) {
	_ = writeRecord(w.bufs[KindStep], StepRecord{StepNum: stepNum, Point: int64(point), Incoming: int64(incoming)})
}

// ForkChoice implements navigator.Recorder.
func (w *Writer) ForkChoice(stepNum int, candidate mapdata.SegmentID, weight uint8, avoided bool) {
	rec := ForkChoiceRecord{StepNum: stepNum, Candidate: int64(candidate), Weight: weight, Avoided: avoided}
	_ = writeRecord(w.bufs[KindForkChoice], rec)
	_ = writeRecord(w.bufs[KindForkChoiceWeight], rec)
}

// StepResult implements navigator.Recorder.
func (w *Writer) StepResult(stepNum int, result string) {
	_ = writeRecord(w.bufs[KindStepResult], StepResultRecord{StepNum: stepNum, Result: result})
}

// Close flushes every buffered writer and closes the underlying files.
// Safe to call once, after the Navigator run this Writer traced finishes.
func (w *Writer) Close() error {
	var firstErr error
	for _, k := range allKinds {
		if buf, ok := w.bufs[k]; ok {
			if err := buf.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if f, ok := w.files[k]; ok {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func writeRecord(buf *bufio.Writer, v interface{}) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding debug record")
	}
	compressed, err := zstd.Compress(nil, raw.Bytes())
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "compressing debug record")
	}
	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(compressed)))
	if _, err := buf.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = buf.Write(compressed)
	return err
}

// ReadRecords reads every record in a length-delimited stream file back
// as decompressed gob-encoded byte slices, for offline inspection tools
// (the debug-viewer) to decode with gob into the Kind-specific struct
// they already know they're reading.
func ReadRecords(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.InputMalformed, err, "reading debug stream file %s", path)
	}
	var records [][]byte
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, rerrors.New(rerrors.InputMalformed, "truncated length prefix in %s", path)
		}
		n := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, rerrors.New(rerrors.InputMalformed, "truncated record in %s", path)
		}
		compressed := data[:n]
		data = data[n:]
		raw, err := zstd.Decompress(nil, compressed)
		if err != nil {
			return nil, rerrors.Wrap(rerrors.InputMalformed, err, "decompressing record in %s", path)
		}
		records = append(records, raw)
	}
	return records, nil
}

// DecodeGob is a small helper for debug-viewer callers: gob-decode one
// record's already-decompressed bytes into a Kind-specific struct.
func DecodeGob(raw []byte, out interface{}) error {
	return gob.NewDecoder(bytes.NewReader(raw)).Decode(out)
}

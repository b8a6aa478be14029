// Package mapdatacache serializes a built mapdata.Graph to a versioned
// on-disk directory and reconstitutes it without re-parsing the source OSM
// extract. Small, randomly-keyed components (ways, restrictions, and the
// meta header) live in a pebble instance; the two large flat arenas (points, segments) are
// written as their own gob+zstd blobs and mmap'd read-only on Load so the
// OS page cache, not the Go heap, holds them until they're decoded.
package mapdatacache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/pebble"
	"github.com/edsrzf/mmap-go"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"github.com/ridi-bike/ridi-router/pkg/mapdata"
)

// magic identifies a ridi-router cache directory; schemaVersion changes
// whenever Components' on-disk shape changes incompatibly.
const (
	magic         = "RIDIRTR1"
	schemaVersion = uint32(1)

	metaKey         = "__meta__"
	waysKey         = "ways"
	restrictionsKey = "restrictions"

	pointsFile   = "points.bin"
	segmentsFile = "segments.bin"
	pebbleDir    = "index.pebble"
)

// Save writes g's arenas to dir, creating it if needed. An existing cache
// at dir is fully overwritten.
func Save(g *mapdata.Graph, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "creating cache dir %s", dir)
	}
	c := g.Export()

	db, err := pebble.Open(filepath.Join(dir, pebbleDir), &pebble.Options{})
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "opening cache index at %s", dir)
	}
	defer db.Close()

	if err := putGobZstd(db, waysKey, c.Ways); err != nil {
		return err
	}
	if err := putGobZstd(db, restrictionsKey, c.Restrictions); err != nil {
		return err
	}

	if err := writeGobZstdFile(filepath.Join(dir, pointsFile), c.Points); err != nil {
		return err
	}
	if err := writeGobZstdFile(filepath.Join(dir, segmentsFile), c.Segments); err != nil {
		return err
	}

	meta := make([]byte, len(magic)+4)
	copy(meta, magic)
	binary.LittleEndian.PutUint32(meta[len(magic):], schemaVersion)
	if err := db.Set([]byte(metaKey), meta, pebble.Sync); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "writing cache meta header")
	}
	return nil
}

// Load reconstitutes a Graph from dir. Returns CacheVersionMismatch if the
// magic header or schema version don't match this binary's expectations,
// or if the pebble index or flat arena files are missing/corrupt — either
// way the caller should fall back to rebuilding from OSMSource.
func Load(dir string) (*mapdata.Graph, error) {
	if _, err := os.Stat(filepath.Join(dir, pebbleDir)); err != nil {
		return nil, rerrors.Wrap(rerrors.CacheVersionMismatch, err, "no cache index at %s", dir)
	}
	db, err := pebble.Open(filepath.Join(dir, pebbleDir), &pebble.Options{})
	if err != nil {
		return nil, rerrors.Wrap(rerrors.CacheVersionMismatch, err, "opening cache index at %s", dir)
	}
	defer db.Close()

	if err := checkMeta(db); err != nil {
		return nil, err
	}

	var ways []mapdata.Way
	if err := getGobZstd(db, waysKey, &ways); err != nil {
		return nil, err
	}
	var restrictions map[mapdata.PointID][]mapdata.TurnRestriction
	if err := getGobZstd(db, restrictionsKey, &restrictions); err != nil {
		return nil, err
	}

	var points []mapdata.Point
	if err := readGobZstdFile(filepath.Join(dir, pointsFile), &points); err != nil {
		return nil, err
	}
	var segments []mapdata.Segment
	if err := readGobZstdFile(filepath.Join(dir, segmentsFile), &segments); err != nil {
		return nil, err
	}

	return mapdata.FromComponents(mapdata.Components{
		Points:       points,
		Segments:     segments,
		Ways:         ways,
		Restrictions: restrictions,
	}), nil
}

func checkMeta(db *pebble.DB) error {
	val, closer, err := db.Get([]byte(metaKey))
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "reading cache meta header")
	}
	defer closer.Close()

	if len(val) != len(magic)+4 || string(val[:len(magic)]) != magic {
		return rerrors.New(rerrors.CacheVersionMismatch, "cache at index.pebble has no valid magic header")
	}
	version := binary.LittleEndian.Uint32(val[len(magic):])
	if version != schemaVersion {
		return rerrors.New(rerrors.CacheVersionMismatch,
			"cache schema version %d does not match binary's %d", version, schemaVersion)
	}
	return nil
}

func putGobZstd(db *pebble.DB, key string, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding cache component %s", key)
	}
	compressed, err := zstd.Compress(nil, buf.Bytes())
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "compressing cache component %s", key)
	}
	if err := db.Set([]byte(key), compressed, pebble.Sync); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "writing cache component %s", key)
	}
	return nil
}

func getGobZstd(db *pebble.DB, key string, out interface{}) error {
	val, closer, err := db.Get([]byte(key))
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "reading cache component %s", key)
	}
	defer closer.Close()

	raw, err := zstd.Decompress(nil, val)
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "decompressing cache component %s", key)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(out); err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "decoding cache component %s", key)
	}
	return nil
}

func writeGobZstdFile(path string, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "encoding %s", path)
	}
	compressed, err := zstd.Compress(nil, buf.Bytes())
	if err != nil {
		return rerrors.Wrap(rerrors.InputMalformed, err, "compressing %s", path)
	}
	return os.WriteFile(path, compressed, 0o644)
}

// readGobZstdFile mmaps path read-only, decompresses the mapped bytes and
// gob-decodes them into out. The mapping is unmapped before returning —
// only the decoded Go values outlive the call, not the page mapping.
func readGobZstdFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "opening %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "stat %s", path)
	}
	if info.Size() == 0 {
		return gob.NewDecoder(bytes.NewReader(nil)).Decode(out)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "mmap %s", path)
	}
	defer m.Unmap()

	raw, err := zstd.Decompress(nil, m)
	if err != nil {
		return rerrors.Wrap(rerrors.CacheVersionMismatch, err, "decompressing %s", path)
	}
	return gob.NewDecoder(bytes.NewReader(raw)).Decode(out)
}

package osmsource

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

// LoadFile opens path and streams it as Entities, picking the decoder by
// file extension: ".json" is treated as Overpass JSON, anything else
// (".pbf", ".osm.pbf", no extension) as OSM PBF. The caller owns closing
// the entity/error channels' lifetime by draining both to completion; the
// underlying file is closed once streaming finishes.
func LoadFile(ctx context.Context, path string) (<-chan Entity, <-chan error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, rerrors.Wrap(rerrors.InputMalformed, err, "opening map data file %q", path)
	}

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		entities, errs := StreamOverpassJSON(f)
		return entities, closeAfter(f, errs), nil
	}
	entities, errs := StreamPBF(ctx, f)
	return entities, closeAfter(f, errs), nil
}

// closeAfter returns an error channel that behaves exactly like errs but
// closes f once errs is closed, without the decoder itself needing to
// know how its reader was opened.
func closeAfter(f io.Closer, errs <-chan error) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		defer f.Close()
		for err := range errs {
			out <- err
		}
	}()
	return out
}

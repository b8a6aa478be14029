package mapdatacache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridi-bike/ridi-router/pkg/mapdatacache"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
)

func TestSaveLoadRoundTripsGraph(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, mapdatacache.Save(g, dir))

	loaded, err := mapdatacache.Load(dir)
	require.NoError(t, err)
	require.Equal(t, g.NumPoints(), loaded.NumPoints())
	require.Equal(t, g.NumSegments(), loaded.NumSegments())

	p3, err := loaded.NearestJunction(3.0, 3.0, 1000)
	require.NoError(t, err)
	out := loaded.Outgoing(p3, -1)
	require.Len(t, out, 4)
}

func TestLoadMissingCacheReturnsError(t *testing.T) {
	_, err := mapdatacache.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

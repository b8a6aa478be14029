package ipc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ridi-bike/ridi-router/internal/routecore"
	"github.com/ridi-bike/ridi-router/pkg/ipc"
	"github.com/ridi-bike/ridi-router/pkg/maptest"
	"github.com/ridi-bike/ridi-router/pkg/routegen"
)

func TestServeAnswersStartFinishRequest(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	sock := filepath.Join(t.TempDir(), "ridi-router.sock")
	srv := &ipc.Server{SocketPath: sock, Graph: g, GenConfig: routegen.DefaultConfig()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := ipc.Send(sock, ipc.Request{
			ID:        "t1",
			Trip:      routecore.StartFinish,
			StartLat:  1.0,
			StartLon:  1.0,
			FinishLat: 9.0,
			FinishLon: 9.0,
		})
		return err == nil && len(resp.Routes) > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestServeReturnsErrorKindOnBadRuleFile(t *testing.T) {
	g, err := maptest.BuildGraph(maptest.Default())
	require.NoError(t, err)

	sock := filepath.Join(t.TempDir(), "ridi-router.sock")
	srv := &ipc.Server{SocketPath: sock, Graph: g, GenConfig: routegen.DefaultConfig()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)
	time.Sleep(50 * time.Millisecond)

	_, err = ipc.Send(sock, ipc.Request{
		ID:           "t2",
		Trip:         routecore.StartFinish,
		RuleFileYAML: []byte("basic:\n  step_limit: -1\n"),
	})
	require.Error(t, err)
}

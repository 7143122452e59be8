package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockService fails its first fails runs, then blocks until cancelled.
type mockService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (m *mockService) Serve(ctx context.Context) error {
	if n := m.starts.Add(1); n <= m.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	assert.Equal(t, 5.0, cfg.FailureThreshold)
	assert.Equal(t, 30.0, cfg.FailureDecay)
	assert.Equal(t, 15*time.Second, cfg.FailureBackoff)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestTree_StartsAndStops(t *testing.T) {
	tree := NewTree(logging.Discard(), TreeConfig{ShutdownTimeout: time.Second})

	monitor := &mockService{name: "network-monitor"}
	api := &mockService{name: "control-api"}
	tree.AddEngineService(monitor)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return monitor.starts.Load() == 1 && api.starts.Load() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestTree_RestartsFailingService(t *testing.T) {
	tree := NewTree(logging.Discard(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := &mockService{name: "sync-coordinator", fails: 2}
	stable := &mockService{name: "control-api"}
	tree.AddEngineService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return failing.starts.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), stable.starts.Load())

	cancel()
	<-errCh
}

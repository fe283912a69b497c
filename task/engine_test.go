package task

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storycut/store"
)

func newTestEngine(t *testing.T, workers int) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := NewEngine(st, workers, zap.NewNop())
	t.Cleanup(e.Shutdown)
	return e, st
}

func waitForStatus(t *testing.T, st *store.Store, taskID string, want store.TaskStatus) *store.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := st.GetTask(taskID)
		require.NoError(t, err)
		if got.Status == want {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _ := st.GetTask(taskID)
	t.Fatalf("task %s never reached %s (stuck at %s)", taskID, want, got.Status)
	return nil
}

func TestSubmitRunsJob(t *testing.T) {
	e, st := newTestEngine(t, 2)

	tk := &store.Task{ProjectID: "p1", Type: store.TaskTypeShotImage}
	_, err := e.Submit(tk, func(ctx context.Context, report Report) (string, error) {
		report(50, "halfway")
		return "/assets/result.png", nil
	})
	require.NoError(t, err)

	got := waitForStatus(t, st, tk.ID, store.TaskStatusCompleted)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "/assets/result.png", got.ResultPath)
}

func TestSubmitRecordsFailure(t *testing.T) {
	e, st := newTestEngine(t, 2)

	tk := &store.Task{ProjectID: "p1", Type: store.TaskTypeShotVideo}
	_, err := e.Submit(tk, func(ctx context.Context, report Report) (string, error) {
		return "", fmt.Errorf("vendor said no")
	})
	require.NoError(t, err)

	got := waitForStatus(t, st, tk.ID, store.TaskStatusFailed)
	assert.Contains(t, got.Error, "vendor said no")
}

func TestCancelStopsRunningJob(t *testing.T) {
	e, st := newTestEngine(t, 2)

	started := make(chan struct{})
	tk := &store.Task{ProjectID: "p1", ShotID: "sh1", Type: store.TaskTypeShotVideo}
	_, err := e.Submit(tk, func(ctx context.Context, report Report) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.NoError(t, err)

	<-started
	assert.True(t, e.Cancel(tk.ID))
	waitForStatus(t, st, tk.ID, store.TaskStatusCanceled)
}

func TestCancelUnknownTask(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	assert.False(t, e.Cancel("no-such-task"))
}

func TestWorkerPoolBoundsParallelism(t *testing.T) {
	e, st := newTestEngine(t, 1)

	var running, peak atomic.Int32
	job := func(ctx context.Context, report Report) (string, error) {
		n := running.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return "", nil
	}

	ids := make([]string, 3)
	for i := range ids {
		tk := &store.Task{ProjectID: "p1", Type: store.TaskTypeShotImage}
		_, err := e.Submit(tk, job)
		require.NoError(t, err)
		ids[i] = tk.ID
	}

	for _, id := range ids {
		waitForStatus(t, st, id, store.TaskStatusCompleted)
	}
	assert.Equal(t, int32(1), peak.Load(), "single worker must serialize jobs")
}

func TestCancelForShot(t *testing.T) {
	e, st := newTestEngine(t, 2)

	started := make(chan struct{}, 2)
	block := func(ctx context.Context, report Report) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	}

	t1 := &store.Task{ProjectID: "p1", ShotID: "sh1", Type: store.TaskTypeShotImage}
	_, err := e.Submit(t1, block)
	require.NoError(t, err)
	t2 := &store.Task{ProjectID: "p1", ShotID: "sh1", Type: store.TaskTypeShotVideo}
	_, err = e.Submit(t2, block)
	require.NoError(t, err)

	<-started
	<-started
	// Both must be processing before cancellation so the store query
	// finds them.
	waitForStatus(t, st, t1.ID, store.TaskStatusProcessing)
	waitForStatus(t, st, t2.ID, store.TaskStatusProcessing)

	assert.Equal(t, 2, e.CancelForShot("sh1"))
	waitForStatus(t, st, t1.ID, store.TaskStatusCanceled)
	waitForStatus(t, st, t2.ID, store.TaskStatusCanceled)
}

func TestSubmitAfterShutdown(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	e := NewEngine(st, 1, zap.NewNop())
	e.Shutdown()

	_, err = e.Submit(&store.Task{ProjectID: "p1", Type: store.TaskTypeShotImage}, func(ctx context.Context, report Report) (string, error) {
		return "", nil
	})
	assert.Error(t, err)
}

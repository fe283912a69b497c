// Package task runs generation jobs off the request path: a bounded worker
// pool with per-task cancellation, persisting status through the store.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"storycut/store"
)

// Report lets a running job publish progress (0-100) and a human message.
type Report func(progress int, message string)

// Job is the work a task performs. It returns the path of whatever asset it
// produced. A job must watch ctx: cancellation via Cancel or shutdown
// arrives there.
type Job func(ctx context.Context, report Report) (resultPath string, err error)

// Engine is the worker bridge. Submit returns immediately with the task id;
// workers update the persisted task as the job proceeds.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
	sem    *semaphore.Weighted

	baseCtx  context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewEngine(st *store.Store, workers int, logger *zap.Logger) *Engine {
	if workers < 1 {
		workers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    st,
		logger:   logger.Named("task"),
		sem:      semaphore.NewWeighted(int64(workers)),
		baseCtx:  ctx,
		shutdown: cancel,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Submit persists a pending task and schedules its job. The returned task
// has its ID assigned.
func (e *Engine) Submit(t *store.Task, job Job) (*store.Task, error) {
	if err := e.baseCtx.Err(); err != nil {
		return nil, fmt.Errorf("engine is shut down")
	}
	if err := e.store.CreateTask(t); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(e.baseCtx)
	e.mu.Lock()
	e.cancels[t.ID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(ctx, t.ID, job)

	e.logger.Info("task submitted",
		zap.String("task_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.String("shot_id", t.ShotID))
	return t, nil
}

func (e *Engine) run(ctx context.Context, taskID string, job Job) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, taskID)
		e.mu.Unlock()
	}()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		// Canceled while still queued.
		e.finish(taskID, "", err)
		return
	}
	defer e.sem.Release(1)

	e.update(taskID, store.TaskStatusProcessing, 0, "started", "")

	report := func(progress int, message string) {
		e.update(taskID, store.TaskStatusProcessing, progress, message, "")
	}

	resultPath, err := job(ctx, report)
	e.finish(taskID, resultPath, err)
}

func (e *Engine) finish(taskID, resultPath string, err error) {
	switch {
	case err == nil:
		e.update(taskID, store.TaskStatusCompleted, 100, "done", resultPath)
		e.logger.Info("task completed", zap.String("task_id", taskID), zap.String("result", resultPath))
	case errors.Is(err, context.Canceled):
		t := &store.Task{ID: taskID, Status: store.TaskStatusCanceled, Message: "canceled"}
		if uerr := e.store.UpdateTask(t); uerr != nil {
			e.logger.Warn("failed to persist cancellation", zap.String("task_id", taskID), zap.Error(uerr))
		}
		e.logger.Info("task canceled", zap.String("task_id", taskID))
	default:
		t := &store.Task{ID: taskID, Status: store.TaskStatusFailed, Message: "failed", Error: err.Error()}
		if uerr := e.store.UpdateTask(t); uerr != nil {
			e.logger.Warn("failed to persist failure", zap.String("task_id", taskID), zap.Error(uerr))
		}
		e.logger.Warn("task failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (e *Engine) update(taskID string, status store.TaskStatus, progress int, message, resultPath string) {
	t := &store.Task{ID: taskID, Status: status, Progress: progress, Message: message, ResultPath: resultPath}
	if err := e.store.UpdateTask(t); err != nil {
		e.logger.Warn("failed to update task", zap.String("task_id", taskID), zap.Error(err))
	}
}

// Cancel stops a pending or in-flight task. Returns true if the task was
// still registered (the poll loop or queued job will observe the canceled
// context and stop).
func (e *Engine) Cancel(taskID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[taskID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// CancelForShot cancels every active task attached to a shot; called before
// a shot is edited or deleted so a stale generation cannot overwrite the
// new state.
func (e *Engine) CancelForShot(shotID string) int {
	tasks, err := e.store.ActiveTasksForShot(shotID)
	if err != nil {
		e.logger.Warn("failed to list active tasks for shot", zap.String("shot_id", shotID), zap.Error(err))
		return 0
	}
	n := 0
	for _, t := range tasks {
		if e.Cancel(t.ID) {
			n++
		}
	}
	if n > 0 {
		e.logger.Info("canceled active tasks for shot", zap.String("shot_id", shotID), zap.Int("count", n))
	}
	return n
}

// Shutdown cancels all running tasks and waits for workers to drain.
func (e *Engine) Shutdown() {
	e.shutdown()
	e.wg.Wait()
}

// Wait blocks until all submitted tasks have finished. Used by the CLI,
// which submits a batch and then waits instead of serving.
func (e *Engine) Wait() {
	e.wg.Wait()
}

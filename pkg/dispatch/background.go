package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// ChunkFunc receives one incremental content fragment. Fragments arrive in
// order, each delivered exactly once, all before the task's final outcome
// resolves.
type ChunkFunc func(delta string)

// RequestFunc is the work a background task runs: typically an Executor call
// or a streaming read. It must honor ctx cancellation and may emit partial
// content through emit.
type RequestFunc func(ctx context.Context, emit ChunkFunc) transport.Outcome

// Task is a handle to one background request. The final outcome resolves on
// the Outcome channel exactly once.
type Task struct {
	id        string
	cancel    context.CancelFunc
	outcome   chan transport.Outcome
	cancelled atomic.Bool
	once      sync.Once
}

// ID returns the task's unique identifier, used in logs.
func (t *Task) ID() string { return t.id }

// Cancel aborts the task. It is idempotent and safe from any goroutine.
// After Cancel, no further chunks are delivered and the task resolves to a
// Cancelled outcome even if network I/O was mid-flight.
func (t *Task) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		t.cancel()
	})
}

// Outcome returns the channel on which the final outcome is delivered.
// All chunk deliveries happen before the outcome is readable.
func (t *Task) Outcome() <-chan transport.Outcome {
	return t.outcome
}

// Wait blocks until the task resolves.
func (t *Task) Wait() transport.Outcome {
	return <-t.outcome
}

// Runner executes requests off the caller's synchronous path. The caller is
// never blocked on network I/O; it observes progress through the chunk
// callback and the task's outcome channel.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a background runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run starts fn concurrently and returns its task handle immediately.
//
// Chunks and the final outcome are reported from a single goroutine: every
// emit call completes before the outcome resolves, so a consumer can treat
// the chunk sequence as append-only and finite. A nil fn resolves
// immediately to a ConnectionError rather than silently doing nothing.
func (r *Runner) Run(ctx context.Context, fn RequestFunc, onChunk ChunkFunc) *Task {
	task := &Task{
		id:      uuid.NewString(),
		outcome: make(chan transport.Outcome, 1),
	}

	if fn == nil {
		task.cancel = func() {}
		task.outcome <- transport.ConnectionError("background task has no request to run")
		return task
	}

	runCtx, cancel := context.WithCancel(ctx)
	task.cancel = cancel

	emit := func(delta string) {
		// A cancelled task must never deliver a subsequent chunk.
		if task.cancelled.Load() || runCtx.Err() != nil {
			return
		}
		if onChunk != nil {
			onChunk(delta)
		}
	}

	r.logger.Debug("background task started", "task_id", task.id)

	go func() {
		defer cancel()

		out := fn(runCtx, emit)
		if task.cancelled.Load() || runCtx.Err() == context.Canceled {
			out = transport.Cancelled()
		}

		r.logger.Debug("background task resolved",
			"task_id", task.id,
			"outcome", out.Kind.String(),
		)
		task.outcome <- out
	}()

	return task
}

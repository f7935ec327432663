// package tasks implements the single-flight runner for long-running catalog
// operations.
//
// The application performs at most one remote operation at a time. Dispatching
// while a task is active cancels the active task and defers the new one until
// the worker has wound down, so a user who clicks through playlists quickly
// only ever pays for the last selection. Tasks observe cancellation
// cooperatively through a check predicate and report progress via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/shared"
)

const reachabilityTimeout = 2 * time.Second

// Task is a unit of work executed by the runner. Run receives a check
// predicate that returns [shared.ErrInterrupted] once the task has been
// cancelled; well-behaved tasks call it between network pages and propagate
// the error unwrapped. The progress callback never blocks.
type Task struct {
	Name string
	Run  func(ctx context.Context, check func() error, progress func(ProgressUpdate)) (any, error)
}

// Result is the terminal outcome of a dispatched task, delivered on the
// runner's results channel. An interrupted task yields a Result whose Err is
// [shared.ErrInterrupted]; consumers treat that as silence, not failure.
type Result struct {
	Name  string
	Value any
	Err   error
}

// Interrupted reports whether the result is a cancellation rather than a
// success or a failure.
func (r Result) Interrupted() bool {
	return errors.Is(r.Err, shared.ErrInterrupted)
}

// Runner executes tasks one at a time on a single worker goroutine.
type Runner struct {
	logger    *log.Logger
	reachable func() bool
	results   chan Result
	updates   chan ProgressUpdate

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending *Task
}

// NewRunner creates an idle runner. reachable gates dispatch; pass nil to
// skip the network guard (tests do).
func NewRunner(logger *log.Logger, reachable func() bool) *Runner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Runner{
		logger:    logger,
		reachable: reachable,
		results:   make(chan Result, 16),
		updates:   make(chan ProgressUpdate, 32),
	}
}

// NetworkAvailable reports whether the network looks reachable, via a short
// TCP dial to a public resolver. Used as the runner's reachability guard so
// offline dispatches fail fast instead of hanging through HTTP timeouts.
func NetworkAvailable() bool {
	conn, err := net.DialTimeout("tcp", "1.1.1.1:53", reachabilityTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Results delivers one Result per dispatched task that actually ran.
func (r *Runner) Results() <-chan Result { return r.results }

// Updates delivers progress events from the active task.
func (r *Runner) Updates() <-chan ProgressUpdate { return r.updates }

// Busy reports whether a task is currently running.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Dispatch submits a task. When the runner is idle the task starts
// immediately. When a task is active it is cancelled and the new task is
// parked until the worker exits; a parked task that is itself displaced
// never runs at all. Dispatching while offline emits an [shared.ErrOffline]
// result without starting anything.
func (r *Runner) Dispatch(task Task) {
	if r.reachable != nil && !r.reachable() {
		r.logger.Warnf("dispatch refused, offline: %s", task.Name)
		r.emit(Result{Name: task.Name, Err: shared.ErrOffline})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.logger.Debugf("displacing active task for %s", task.Name)
		r.pending = &task
		r.cancel()
		return
	}
	r.start(task)
}

// start launches the worker goroutine. Caller holds r.mu.
func (r *Runner) start(task Task) {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	done := make(chan struct{})
	r.done = done

	check := func() error {
		select {
		case <-ctx.Done():
			return shared.ErrInterrupted
		default:
			return nil
		}
	}

	go func() {
		defer close(done)
		r.logger.Debugf("task start: %s", task.Name)
		value, err := task.Run(ctx, check, r.sendUpdate)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, shared.ErrInterrupted)) {
			err = shared.ErrInterrupted
		}
		r.emit(Result{Name: task.Name, Value: value, Err: err})
		cancel()

		r.mu.Lock()
		r.cancel = nil
		if next := r.pending; next != nil {
			r.pending = nil
			r.start(*next)
		}
		r.mu.Unlock()
	}()
}

// Cancel interrupts the active task, if any, and drops any parked task.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	if r.cancel != nil {
		r.cancel()
	}
}

// Shutdown cancels the active task, drops any parked task, and blocks until
// the worker has exited.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	r.pending = nil
	if r.cancel != nil {
		r.cancel()
	}
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

// emit delivers a result without ever blocking the worker.
func (r *Runner) emit(res Result) {
	select {
	case r.results <- res:
	default:
		r.logger.Warnf("result dropped, consumer not draining: %s", res.Name)
	}
}

// sendUpdate forwards a progress event, dropping it if the consumer is
// behind. Progress is advisory; losing an event is harmless.
func (r *Runner) sendUpdate(update ProgressUpdate) {
	select {
	case r.updates <- update:
	default:
	}
}

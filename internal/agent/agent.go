// Package agent hosts the agent state machine and the task cycle that
// resolves one task request at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrStopped = errors.New("agent stopped")

type State string

const (
	StateCreated    State = "created"
	StateRunning    State = "running"
	StateWaiting    State = "waiting"
	StateExecuting  State = "executing"
	StateDraining   State = "draining"
	StateTerminated State = "terminated"
)

// Agent owns a FIFO mailbox of task requests and runs them to completion
// one at a time through its handler. The mailbox is unbounded; Enqueue
// never blocks and never drops.
type Agent struct {
	id       string
	role     string
	handler  TaskHandler
	log      zerolog.Logger
	onResult func(TaskResult)

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []TaskRequest
	state   State
	stopped bool
}

type Option func(*Agent)

func WithID(id string) Option {
	return func(a *Agent) { a.id = id }
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// WithResultFunc installs a callback invoked after every finished task.
func WithResultFunc(fn func(TaskResult)) Option {
	return func(a *Agent) { a.onResult = fn }
}

func New(role string, handler TaskHandler, opts ...Option) *Agent {
	a := &Agent{
		id:      uuid.New().String()[:8],
		role:    role,
		handler: handler,
		log:     zerolog.Nop(),
		state:   StateCreated,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cond = sync.NewCond(&a.mu)
	a.log = a.log.With().Str("agent", a.id).Logger()
	return a
}

func (a *Agent) ID() string   { return a.id }
func (a *Agent) Role() string { return a.role }

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Enqueue appends to the mailbox tail. It never blocks the caller; the only
// failure is an agent that has already been stopped.
func (a *Agent) Enqueue(req TaskRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.state == StateTerminated {
		return ErrStopped
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}
	a.queue = append(a.queue, req)
	a.cond.Signal()
	return nil
}

// Stop is idempotent. It wakes the mailbox wait so Run can exit; an
// in-flight task cycle is allowed to finish first, since interrupting
// mid-automation is unsafe.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	if a.state == StateExecuting {
		a.state = StateDraining
	}
	a.cond.Broadcast()
}

// Run is the agent's only concurrent activity: dequeue, handle, report,
// repeat. Cancellation takes effect at the mailbox wait. A panicking
// handler is logged and survived; the agent keeps serving its mailbox.
func (a *Agent) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateCreated {
		a.mu.Unlock()
		return fmt.Errorf("agent %s: run called in state %s", a.id, a.state)
	}
	a.state = StateRunning
	a.mu.Unlock()
	a.log.Info().Str("role", a.role).Msg("agent running")

	// Wake the cond wait when the context is cancelled.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			a.cond.Broadcast()
			a.mu.Unlock()
		case <-watchDone:
		}
	}()

	defer func() {
		a.mu.Lock()
		a.stopped = true
		a.state = StateTerminated
		a.mu.Unlock()
		a.log.Info().Msg("agent terminated")
	}()

	for {
		req, ok := a.dequeue(ctx)
		if !ok {
			return nil
		}
		a.setState(StateExecuting)
		a.log.Info().Str("task_id", req.ID).Str("task", req.Text).Msg("task dequeued")

		outcome := a.handle(ctx, req)
		a.log.Info().Str("task_id", req.ID).Str("outcome", string(outcome.Kind)).Str("reason", outcome.Reason).Msg("task finished")
		if a.onResult != nil {
			a.onResult(TaskResult{AgentID: a.id, Request: req, Outcome: outcome})
		}
	}
}

func (a *Agent) dequeue(ctx context.Context) (TaskRequest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		if a.stopped || ctx.Err() != nil {
			return TaskRequest{}, false
		}
		if len(a.queue) > 0 {
			break
		}
		a.state = StateWaiting
		a.cond.Wait()
	}
	req := a.queue[0]
	a.queue = a.queue[1:]
	return req, true
}

func (a *Agent) handle(ctx context.Context, req TaskRequest) (out Outcome) {
	// A handler fault is recoverable at the agent level: resolve it into an
	// aborted outcome and keep serving the mailbox.
	defer func() {
		if rec := recover(); rec != nil {
			a.log.Error().Interface("panic", rec).Str("task_id", req.ID).Msg("task handler panicked")
			out = Aborted(fmt.Sprintf("internal error: %v", rec))
		}
	}()
	return a.handler.HandleTask(ctx, req)
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateTerminated || a.state == StateDraining {
		return
	}
	a.state = s
}

// Package task runs long analyses as cancellable background units of work.
// Cancellation is cooperative: the worker observes its context between
// units of work and returns whatever it has.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"vocabmine/logger"

	"github.com/google/uuid"
)

// ErrTaskActive is returned when a task of the same kind is still running.
var ErrTaskActive = errors.New("task already running")

// State of a task.
type State int32

const (
	Running State = iota
	Cancelled
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Func is the unit of work. It must return soon after ctx is done.
type Func func(ctx context.Context, progress *Tracker) error

// Handle controls one background task.
type Handle struct {
	ID   string
	Kind string

	cancel    context.CancelFunc
	mu        sync.Mutex
	finished  bool
	cancelled atomic.Bool
	done      chan struct{}
	err       error
	tracker   *Tracker
}

// Cancel asks the task to stop. It does not wait. Cancelling a task that
// already finished leaves it Finished.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if !h.finished {
		h.cancelled.Store(true)
	}
	h.mu.Unlock()
	h.cancel()
}

// finish marks the work as returned. Later Cancel calls no longer change
// the state.
func (h *Handle) finish() {
	h.mu.Lock()
	h.finished = true
	h.mu.Unlock()
	close(h.done)
}

// State is Cancelled once cancellation was requested while the work ran,
// Finished when the work returned without it, Running otherwise.
func (h *Handle) State() State {
	if h.cancelled.Load() {
		return Cancelled
	}
	if h.IsFinished() {
		return Finished
	}
	return Running
}

// IsFinished reports whether the work has returned.
func (h *Handle) IsFinished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done is closed when the work returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Progress returns the latest progress snapshot.
func (h *Handle) Progress() Progress {
	return h.tracker.Snapshot()
}

// Wait blocks until the work returns or ctx is done and returns the
// work's error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the work's error once it has finished.
func (h *Handle) Err() error {
	if !h.IsFinished() {
		return nil
	}
	return h.err
}

// Manager allows one active task per kind.
type Manager struct {
	ctx    context.Context
	log    logger.Logger
	mu     sync.Mutex
	active map[string]*Handle
}

// NewManager returns a Manager whose tasks derive from ctx.
func NewManager(ctx context.Context) *Manager {
	return &Manager{ctx: ctx, log: logger.FromContext(ctx), active: make(map[string]*Handle)}
}

// Start runs fn on its own goroutine.
func (m *Manager) Start(kind string, fn Func) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.active[kind]; ok && !h.IsFinished() {
		return nil, fmt.Errorf("%w: %s %s", ErrTaskActive, kind, h.ID)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	h := &Handle{
		ID:      uuid.NewString(),
		Kind:    kind,
		cancel:  cancel,
		done:    make(chan struct{}),
		tracker: NewTracker(),
	}
	m.active[kind] = h
	log := m.log.With("task", kind, "id", h.ID)
	log.Debug("task started")
	go func() {
		defer h.finish()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("task %s panicked: %v", kind, r)
			}
			m.release(kind, h)
			switch {
			case h.err != nil && !errors.Is(h.err, context.Canceled):
				log.Error("task failed", "error", h.err)
			case h.cancelled.Load():
				log.Info("task cancelled")
			default:
				log.Debug("task finished")
			}
		}()
		h.err = fn(logger.ContextWithLogger(ctx, log), h.tracker)
	}()
	return h, nil
}

func (m *Manager) release(kind string, h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[kind] == h {
		delete(m.active, kind)
	}
}

// Active returns the running task of kind, if any.
func (m *Manager) Active(kind string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.active[kind]
	if !ok || h.IsFinished() {
		return nil, false
	}
	return h, true
}

package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/sdwijaya/herald/internal/pkg/stacktrace"
)

// DefaultLimit is used when NewManager receives a non-positive limit.
const DefaultLimit = 100

// Manager runs background functions with a bounded concurrency budget.
//
// Panics inside a task are recovered and logged, and errors returned by
// tasks are collected until Wait is called. All pipeline workers (bus
// consumers, scheduler tick, aggregator sweep) run under one Manager so
// shutdown can wait for them in a single place.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu   sync.Mutex
	errs []error

	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager limited to max concurrent tasks.
func NewManager(max int) *Manager {
	if max < 1 {
		max = runtime.NumCPU() * DefaultLimit
	}

	return &Manager{sema: make(chan struct{}, max)}
}

// Go schedules fn on a new goroutine when capacity allows.
//
// When the manager is closed or at its limit the task is skipped with a
// warning rather than blocking the caller.
func (m *Manager) Go(pCtx context.Context, fn func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.stateMu.RLock()
	closed := m.closed
	m.stateMu.RUnlock()
	if closed {
		slog.WarnContext(pCtx, "goroutine manager closed, task skipped")
		return
	}

	select {
	case m.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "goroutine limit reached, task skipped")
		return
	}

	m.wg.Add(1)
	go func() {
		defer func() {
			<-m.sema
			m.wg.Done()

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if frames := stacktrace.Shorten(stack); len(frames) > 0 {
					slog.ErrorContext(pCtx, "panic in goroutine", "panic", rvr, "stack", frames)
				} else {
					slog.ErrorContext(pCtx, "panic in goroutine", "panic", rvr, "stack", string(stack))
				}
			}
		}()

		select {
		case <-pCtx.Done():
			slog.WarnContext(pCtx, "goroutine canceled before start", "because", pCtx.Err())
		default:
			if err := fn(pCtx); err != nil {
				m.mu.Lock()
				m.errs = append(m.errs, err)
				m.mu.Unlock()
			}
		}
	}()
}

// Wait closes the manager to new tasks, blocks until all running tasks
// finish, and returns the joined task errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.stateMu.Lock()
	m.closed = true
	m.stateMu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}

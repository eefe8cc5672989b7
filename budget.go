package autosplit

import (
	"context"
	"fmt"
	"time"
)

// Execution carries the limits of one module entry point call. Engines poll
// Err at safe points; capabilities that block (sleep) honour the deadline.
type Execution struct {
	ctx      context.Context
	cancel   context.CancelFunc
	entry    EntryPoint
	budget   Budget
	started  time.Time
	deadline time.Time
}

func newExecution(ctx context.Context, entry EntryPoint, budget Budget) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	exec := &Execution{
		entry:   entry,
		budget:  budget,
		started: time.Now(),
	}
	if budget.Timeout > 0 {
		exec.deadline = exec.started.Add(budget.Timeout)
		exec.ctx, exec.cancel = context.WithDeadline(ctx, exec.deadline)
	} else {
		exec.ctx, exec.cancel = context.WithCancel(ctx)
	}
	return exec
}

// Context is done when the deadline passes, the caller's context is done or
// the runtime is closed mid-call.
func (e *Execution) Context() context.Context {
	return e.ctx
}

// Entry returns the entry point being executed.
func (e *Execution) Entry() EntryPoint {
	return e.entry
}

// Budget returns the limits of the call.
func (e *Execution) Budget() Budget {
	return e.budget
}

// Remaining returns the time left before the deadline, or -1 without one.
func (e *Execution) Remaining() time.Duration {
	if e.deadline.IsZero() {
		return -1
	}
	remaining := time.Until(e.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Err reports ErrBudgetExceeded past the deadline, or the context error.
func (e *Execution) Err() error {
	if !e.deadline.IsZero() && !time.Now().Before(e.deadline) {
		return fmt.Errorf("%w: %s ran longer than %s", ErrBudgetExceeded, e.entry, e.budget.Timeout)
	}
	return e.ctx.Err()
}

// CheckInstructions reports ErrBudgetExceeded once count passes the limit.
func (e *Execution) CheckInstructions(count int64) error {
	if e.budget.Instructions > 0 && count > e.budget.Instructions {
		return fmt.Errorf("%w: %s executed more than %d instructions", ErrBudgetExceeded, e.entry, e.budget.Instructions)
	}
	return nil
}

// Sleep blocks for d, but never past the deadline or the context.
func (e *Execution) Sleep(d time.Duration) error {
	if d <= 0 {
		return e.Err()
	}
	if remaining := e.Remaining(); remaining >= 0 && d > remaining {
		d = remaining
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.ctx.Done():
	}
	return e.Err()
}

// interrupt aborts the call from outside the module.
func (e *Execution) interrupt() {
	e.cancel()
}

func (e *Execution) finish() {
	e.cancel()
}

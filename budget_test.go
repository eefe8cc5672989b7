package autosplit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutionTimeout(t *testing.T) {
	exec := newExecution(context.Background(), EntryUpdate, Budget{Timeout: 20 * time.Millisecond})
	defer exec.finish()

	if err := exec.Err(); err != nil {
		t.Fatalf("fresh execution: %v", err)
	}
	if exec.Remaining() <= 0 {
		t.Fatalf("expected remaining budget")
	}
	if exec.Entry() != EntryUpdate || exec.Budget().Timeout != 20*time.Millisecond {
		t.Fatalf("unexpected accessors")
	}

	started := time.Now()
	err := exec.Sleep(time.Second)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if time.Since(started) > 500*time.Millisecond {
		t.Fatalf("sleep was not clamped to the budget")
	}
	if exec.Remaining() != 0 {
		t.Fatalf("expected no remaining budget, got %s", exec.Remaining())
	}
}

func TestExecutionWithoutTimeout(t *testing.T) {
	exec := newExecution(nil, EntryInit, Budget{})
	defer exec.finish()

	if exec.Remaining() != -1 {
		t.Fatalf("expected unlimited, got %s", exec.Remaining())
	}
	if err := exec.Sleep(time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if err := exec.CheckInstructions(1 << 40); err != nil {
		t.Fatalf("instruction cap disabled: %v", err)
	}

	exec.interrupt()
	if !errors.Is(exec.Err(), context.Canceled) {
		t.Fatalf("expected cancellation, got %v", exec.Err())
	}
	if exec.Context().Err() == nil {
		t.Fatalf("context must be cancelled")
	}
}

func TestExecutionInstructions(t *testing.T) {
	exec := newExecution(context.Background(), EntryUpdate, Budget{Instructions: 100})
	defer exec.finish()

	if err := exec.CheckInstructions(100); err != nil {
		t.Fatalf("at limit: %v", err)
	}
	if err := exec.CheckInstructions(101); !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestExecutionParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := newExecution(ctx, EntryUpdate, Budget{Timeout: time.Minute})
	defer exec.finish()

	cancel()
	if err := exec.Sleep(time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

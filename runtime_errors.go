package autosplit

import (
	"errors"
	"fmt"
)

var (
	// ErrBudgetExceeded reports a module call that ran past its Budget.
	ErrBudgetExceeded = errors.New("autosplit: execution budget exceeded")
	// ErrCapability reports a module calling a capability it may not use in
	// the current phase, or with an invalid handle or argument.
	ErrCapability = errors.New("autosplit: capability violation")
	// ErrStepInProgress is logged when Step is called re-entrantly or
	// concurrently.
	ErrStepInProgress = errors.New("autosplit: step already in progress")
	// ErrRuntimeClosed is logged when Step is called after Close.
	ErrRuntimeClosed = errors.New("autosplit: runtime closed")
	// ErrNoEngine is wrapped by a LoadError when no engine handles the path.
	ErrNoEngine = errors.New("autosplit: no engine for module")
)

// EntryPoint names a module entry point.
type EntryPoint string

const (
	EntryLoad   EntryPoint = "load"
	EntryInit   EntryPoint = "on_init"
	EntryUpdate EntryPoint = "on_update"
	EntryExit   EntryPoint = "on_exit"
)

// LoadError is returned by New when the module cannot be read, parsed or
// validated.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autosplit: load module %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InitError is returned by New when on_init faults.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autosplit: init module %q: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ModuleFault captures a trap, budget overrun or capability violation raised
// while a module entry point was running.
type ModuleFault struct {
	Module string
	Entry  EntryPoint
	Step   uint64
	Err    error
}

func (e *ModuleFault) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Entry == EntryUpdate {
		return fmt.Sprintf("autosplit: module fault in %s step=%d module=%q: %v", e.Entry, e.Step, e.Module, e.Err)
	}
	return fmt.Sprintf("autosplit: module fault in %s module=%q: %v", e.Entry, e.Module, e.Err)
}

func (e *ModuleFault) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapModuleFault(module string, entry EntryPoint, step uint64, err error) error {
	if err == nil {
		return nil
	}

	var fault *ModuleFault
	if errors.As(err, &fault) {
		if fault.Module == "" {
			fault.Module = module
		}
		if fault.Entry == "" {
			fault.Entry = entry
		}
		if fault.Step == 0 {
			fault.Step = step
		}
		return fault
	}

	return &ModuleFault{
		Module: module,
		Entry:  entry,
		Step:   step,
		Err:    err,
	}
}

func capabilityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCapability, fmt.Sprintf(format, args...))
}

package autosplit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RuntimeState is the lifecycle phase of a Runtime.
type RuntimeState int

const (
	RuntimeUninitialized RuntimeState = iota
	RuntimeReady
	RuntimeStepping
	RuntimeDropped
)

func (s RuntimeState) String() string {
	switch s {
	case RuntimeReady:
		return "ready"
	case RuntimeStepping:
		return "stepping"
	case RuntimeDropped:
		return "dropped"
	default:
		return "uninitialized"
	}
}

// Runtime owns one loaded module and steps it on behalf of the host. Step
// is not meant to be called concurrently; overlapping calls are rejected.
type Runtime struct {
	id       string
	path     string
	module   string
	cfg      runtimeConfig
	logger   *slog.Logger
	tracer   trace.Tracer
	settings *SettingsStore
	bridge   *callbackBridge
	host     *moduleHost

	mu             sync.Mutex
	state          RuntimeState
	closeRequested bool
	steps          uint64
	lastFault      error
}

// New loads the module at path, runs its on_init and returns a Ready
// runtime. It fails with *LoadError or *InitError.
func New(path string, settings *SettingsStore, timer TimerControl, opts ...Option) (*Runtime, error) {
	if settings == nil {
		return nil, errors.New("autosplit: settings store is nil")
	}
	if timer == nil {
		return nil, errors.New("autosplit: timer is nil")
	}
	cfg := applyOptions(opts)

	code, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	engine, ok := engineFor(cfg.engines, path)
	if !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrNoEngine, filepath.Ext(path))}
	}

	id := uuid.NewString()
	module := filepath.Base(path)
	r := &Runtime{
		id:       id,
		path:     path,
		module:   module,
		cfg:      cfg,
		logger:   cfg.logger.With("runtime_id", id, "module", module),
		tracer:   newTracer(cfg),
		settings: settings,
		bridge:   newCallbackBridge(timer, cfg, id, module),
	}
	r.host, err = newModuleHost(module, settings, r.bridge, cfg)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	ctx := context.Background()
	source := ModuleSource{Path: path, Code: code}
	started := time.Now()
	spanCtx, span := r.startSpan(ctx, EntryLoad, 0)
	err = r.host.load(spanCtx, engine, source, cfg.programCache, cfg.initBudget)
	endSpan(span, err)
	r.logCall(EntryLoad, 0, started, err)
	if err != nil {
		r.release()
		return nil, &LoadError{Path: path, Err: err}
	}

	if err := r.invoke(ctx, EntryInit, 0, cfg.initBudget); err != nil {
		r.logger.Warn("module init failed", "error", err)
		r.bridge.fault(EntryInit, err)
		r.release()
		return nil, &InitError{Path: path, Err: err}
	}

	r.state = RuntimeReady
	r.logger.Info("module loaded",
		"engine", engine.Name(),
		"tick_rate", r.TickRate(),
		"settings", settings.Len(),
	)
	return r, nil
}

// Step runs on_update once and reports whether it completed without fault.
func (r *Runtime) Step() bool {
	return r.StepContext(context.Background())
}

// StepContext is Step with a caller context; cancelling ctx interrupts the
// module like a budget overrun.
func (r *Runtime) StepContext(ctx context.Context) bool {
	r.mu.Lock()
	switch r.state {
	case RuntimeReady:
	case RuntimeStepping:
		r.mu.Unlock()
		r.logger.Warn("step rejected", "error", ErrStepInProgress)
		return false
	case RuntimeDropped:
		r.mu.Unlock()
		r.logger.Warn("step rejected", "error", ErrRuntimeClosed)
		return false
	default:
		r.mu.Unlock()
		r.logger.Warn("step rejected", "state", RuntimeUninitialized.String())
		return false
	}
	r.state = RuntimeStepping
	r.steps++
	step := r.steps
	r.mu.Unlock()

	err := r.invoke(ctx, EntryUpdate, step, r.cfg.stepBudget)

	r.mu.Lock()
	closing := r.closeRequested
	if !closing {
		r.state = RuntimeReady
		if err != nil {
			r.lastFault = err
		}
	}
	r.mu.Unlock()

	if closing {
		if err := r.teardown(); err != nil {
			r.logger.Warn("teardown failed", "error", err)
		}
		return false
	}
	if err != nil {
		r.logger.Warn("module fault", "entry", EntryUpdate, "step", step, "error", err)
		r.bridge.fault(EntryUpdate, err)
		return false
	}
	return true
}

// TickRate returns the module's preferred step frequency in ticks per
// second. It never fails.
func (r *Runtime) TickRate() int {
	return int(r.host.tickRate.Load())
}

// TickInterval is the time between steps at TickRate.
func (r *Runtime) TickInterval() time.Duration {
	return time.Second / time.Duration(max(r.TickRate(), 1))
}

// ID returns the runtime's unique identifier.
func (r *Runtime) ID() string {
	return r.id
}

// Module returns the module file name.
func (r *Runtime) Module() string {
	return r.module
}

// Settings returns the store shared with the module.
func (r *Runtime) Settings() *SettingsStore {
	return r.settings
}

// State returns the lifecycle phase.
func (r *Runtime) State() RuntimeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Steps returns how many steps were started.
func (r *Runtime) Steps() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps
}

// LastFault returns the most recent on_update fault, or nil.
func (r *Runtime) LastFault() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFault
}

// Close runs on_exit and releases the module. It is idempotent. Called
// while a step is running it interrupts the module, waits for a timer
// callback in flight and returns; the stepping goroutine finishes the
// teardown with the bridge already disabled, so the host sees no callback
// after Close returns.
func (r *Runtime) Close() error {
	r.mu.Lock()
	switch r.state {
	case RuntimeDropped:
		r.mu.Unlock()
		return nil
	case RuntimeStepping:
		r.closeRequested = true
		r.mu.Unlock()
		r.host.interrupt()
		r.bridge.disable()
		return nil
	}
	r.state = RuntimeDropped
	r.mu.Unlock()
	return r.teardown()
}

func (r *Runtime) teardown() error {
	r.mu.Lock()
	step := r.steps
	r.mu.Unlock()

	if err := r.invoke(context.Background(), EntryExit, step, r.cfg.initBudget); err != nil {
		r.logger.Debug("module exit failed", "error", err)
	}
	err := r.release()

	r.mu.Lock()
	r.state = RuntimeDropped
	r.mu.Unlock()
	r.logger.Info("module unloaded", "steps", step)
	return err
}

// release frees sandbox resources and disables the bridge.
func (r *Runtime) release() error {
	err := r.host.close()
	r.bridge.disable()
	return err
}

func (r *Runtime) invoke(ctx context.Context, entry EntryPoint, step uint64, budget Budget) error {
	started := time.Now()
	spanCtx, span := r.startSpan(ctx, entry, step)
	err := r.host.call(spanCtx, entry, step, budget)
	endSpan(span, err)
	r.logCall(entry, step, started, err)
	return err
}

func (r *Runtime) logCall(entry EntryPoint, step uint64, started time.Time, err error) {
	r.cfg.stepLogger.LogStep(StepLogEvent{
		RuntimeID: r.id,
		Module:    r.module,
		Entry:     entry,
		Step:      step,
		Duration:  time.Since(started),
		Err:       err,
	})
}

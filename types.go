package autosplit

//go:generate mockgen -source=types.go -destination=internal/mocks/timer_mock.go -package=mocks

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-autosplit/pkg/activity"
)

// TimerState is the host timer phase reported through TimerControl.State.
type TimerState int32

const (
	TimerNotRunning TimerState = 0
	TimerRunning    TimerState = 1
	TimerPaused     TimerState = 2
	TimerEnded      TimerState = 3
)

// String returns the lower-case phase name.
func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerEnded:
		return "ended"
	default:
		return "not_running"
	}
}

// TimerStateFromCode maps a raw host code to a TimerState. Unknown codes are
// reported as TimerNotRunning.
func TimerStateFromCode(code int32) TimerState {
	switch TimerState(code) {
	case TimerRunning, TimerPaused, TimerEnded:
		return TimerState(code)
	default:
		return TimerNotRunning
	}
}

// TimerControl is the host side of the callback bridge. Every method is
// called synchronously from within a step and must not call back into the
// Runtime. Returned errors are logged by the runtime and never reach the
// module.
type TimerControl interface {
	State() TimerState
	Start() error
	Split() error
	SkipSplit() error
	UndoSplit() error
	Reset() error
	// SetGameTime sets the absolute in-game time since the run started.
	SetGameTime(t time.Duration) error
	PauseGameTime() error
	ResumeGameTime() error
	Log(message string) error
}

// VariableSetter is implemented by timers that can display module variables.
type VariableSetter interface {
	SetVariable(key, value string) error
}

// Budget bounds a single module entry point call.
type Budget struct {
	// Timeout is the wall-clock limit for the call. Zero disables it.
	Timeout time.Duration
	// Instructions caps interpreted instructions where the engine can count
	// them. Zero disables it.
	Instructions int64
}

const (
	DefaultTickRate    = 120
	DefaultMaxReadSize = 4096
	// MaxTickRate is the highest rate runtime.set_tick_rate accepts.
	MaxTickRate = 1000
)

var (
	DefaultStepBudget = Budget{Timeout: 250 * time.Millisecond, Instructions: 10_000_000}
	DefaultInitBudget = Budget{Timeout: 5 * time.Second, Instructions: 100_000_000}
)

// Option configures a Runtime.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	logger         *slog.Logger
	stepLogger     StepLogger
	activityHooks  activity.Hooks
	tracerProvider trace.TracerProvider
	processes      ProcessProvider
	stepBudget     Budget
	initBudget     Budget
	maxReadSize    int
	tickRate       int
	engines        map[string]Engine
	programCache   ProgramCache
}

func applyOptions(opts []Option) runtimeConfig {
	cfg := runtimeConfig{
		stepBudget:  DefaultStepBudget,
		initBudget:  DefaultInitBudget,
		maxReadSize: DefaultMaxReadSize,
		tickRate:    DefaultTickRate,
		engines:     defaultEngines(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.stepLogger == nil {
		cfg.stepLogger = noopStepLogger{}
	}
	return cfg
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *runtimeConfig) {
		cfg.logger = logger
	}
}

// WithProcessProvider grants modules access to target processes through
// provider. Without one, process.attach always reports no process.
func WithProcessProvider(provider ProcessProvider) Option {
	return func(cfg *runtimeConfig) {
		cfg.processes = provider
	}
}

// WithStepBudget bounds every on_update call.
func WithStepBudget(budget Budget) Option {
	return func(cfg *runtimeConfig) {
		cfg.stepBudget = budget
	}
}

// WithInitBudget bounds module loading, on_init and on_exit.
func WithInitBudget(budget Budget) Option {
	return func(cfg *runtimeConfig) {
		cfg.initBudget = budget
	}
}

// WithMaxReadSize caps the number of bytes a single memory read may request.
func WithMaxReadSize(size int) Option {
	return func(cfg *runtimeConfig) {
		if size > 0 {
			cfg.maxReadSize = size
		}
	}
}

// WithDefaultTickRate sets the tick rate reported when the module declares none.
func WithDefaultTickRate(hz int) Option {
	return func(cfg *runtimeConfig) {
		if hz > 0 {
			cfg.tickRate = hz
		}
	}
}

// WithEngine registers engine for module files ending in ext (".js", ".lua").
// It replaces any engine already bound to ext.
func WithEngine(ext string, engine Engine) Option {
	return func(cfg *runtimeConfig) {
		if engine == nil || ext == "" {
			return
		}
		if cfg.engines == nil {
			cfg.engines = map[string]Engine{}
		}
		cfg.engines[normalizeExt(ext)] = engine
	}
}

package autosplit

import "time"

// StepLogEvent describes one module entry point call.
type StepLogEvent struct {
	RuntimeID string
	Module    string
	Entry     EntryPoint
	Step      uint64
	Duration  time.Duration
	Err       error
}

// StepLogger records module call events.
type StepLogger interface {
	LogStep(StepLogEvent)
}

// StepLoggerFunc adapts a function to StepLogger.
type StepLoggerFunc func(StepLogEvent)

// LogStep implements StepLogger.
func (f StepLoggerFunc) LogStep(event StepLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopStepLogger struct{}

func (noopStepLogger) LogStep(StepLogEvent) {}

// WithStepLogger attaches a step logger to the Runtime.
func WithStepLogger(logger StepLogger) Option {
	return func(cfg *runtimeConfig) {
		if logger == nil {
			cfg.stepLogger = noopStepLogger{}
			return
		}
		cfg.stepLogger = logger
	}
}

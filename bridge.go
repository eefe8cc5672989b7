package autosplit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-autosplit/pkg/activity"
)

// callbackBridge relays module intents to the host timer, one host call per
// invocation and in invocation order. It keeps no timer state of its own.
// Host calls run under a read lock; disable takes the write lock, so once it
// returns no host call is in flight and none will start.
type callbackBridge struct {
	timer     TimerControl
	logger    *slog.Logger
	emitter   *activity.Emitter
	runtimeID string
	module    string

	ctx  context.Context
	step uint64

	mu     sync.RWMutex
	closed bool
}

func newCallbackBridge(timer TimerControl, cfg runtimeConfig, runtimeID, module string) *callbackBridge {
	return &callbackBridge{
		timer:     timer,
		logger:    cfg.logger,
		emitter:   newActivityEmitter(cfg.activityHooks),
		runtimeID: runtimeID,
		module:    module,
		ctx:       context.Background(),
	}
}

// bind records the context and step number of the call in flight.
func (b *callbackBridge) bind(ctx context.Context, step uint64) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.ctx = ctx
	b.step = step
}

// disable stops all further host calls. It waits for a call in flight.
func (b *callbackBridge) disable() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// enter holds the read lock if the bridge is still enabled. Callers that get
// true must call b.mu.RUnlock.
func (b *callbackBridge) enter() bool {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return false
	}
	return true
}

func (b *callbackBridge) state() TimerState {
	if !b.enter() {
		return TimerNotRunning
	}
	defer b.mu.RUnlock()
	return TimerStateFromCode(int32(b.timer.State()))
}

func (b *callbackBridge) start() {
	b.relay("start", nil, b.timer.Start)
}

func (b *callbackBridge) split() {
	b.relay("split", nil, b.timer.Split)
}

func (b *callbackBridge) skipSplit() {
	b.relay("skip_split", nil, b.timer.SkipSplit)
}

func (b *callbackBridge) undoSplit() {
	b.relay("undo_split", nil, b.timer.UndoSplit)
}

func (b *callbackBridge) reset() {
	b.relay("reset", nil, b.timer.Reset)
}

func (b *callbackBridge) setGameTime(t time.Duration) {
	b.relay("set_game_time", map[string]any{"game_time": t.String()}, func() error {
		return b.timer.SetGameTime(t)
	})
}

func (b *callbackBridge) pauseGameTime() {
	b.relay("pause_game_time", nil, b.timer.PauseGameTime)
}

func (b *callbackBridge) resumeGameTime() {
	b.relay("resume_game_time", nil, b.timer.ResumeGameTime)
}

func (b *callbackBridge) setVariable(key, value string) {
	setter, ok := b.timer.(VariableSetter)
	if !ok {
		return
	}
	b.relay("set_variable", map[string]any{"key": key, "value": value}, func() error {
		return setter.SetVariable(key, value)
	})
}

func (b *callbackBridge) log(message string) {
	if !b.enter() {
		return
	}
	defer b.mu.RUnlock()
	b.writeLog(message)
}

func (b *callbackBridge) writeLog(message string) {
	if err := b.timer.Log(message); err != nil {
		b.logger.Warn("timer log callback failed", "runtime_id", b.runtimeID, "error", err)
	}
}

// fault reports a module fault through the module's own log channel and the
// activity hooks.
func (b *callbackBridge) fault(entry EntryPoint, err error) {
	if !b.enter() {
		return
	}
	defer b.mu.RUnlock()
	b.writeLog(err.Error())
	b.notify(activity.ModuleFault(string(entry), err, b.source()))
}

func (b *callbackBridge) relay(action string, metadata map[string]any, call func() error) {
	if !b.enter() {
		return
	}
	defer b.mu.RUnlock()
	if err := call(); err != nil {
		b.logger.Warn("timer callback failed",
			"runtime_id", b.runtimeID,
			"action", action,
			"step", b.step,
			"error", err,
		)
	}
	b.notify(activity.TimerAction(action, b.source(), metadata))
}

func (b *callbackBridge) notify(event activity.Event) {
	if !b.emitter.Enabled() {
		return
	}
	if err := b.emitter.Emit(b.ctx, event); err != nil {
		b.logger.Warn("activity hook failed", "runtime_id", b.runtimeID, "verb", event.Verb, "error", err)
	}
}

func (b *callbackBridge) source() activity.Source {
	return activity.Source{RuntimeID: b.runtimeID, Module: b.module, Step: b.step}
}

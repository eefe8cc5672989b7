package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	autosplit "github.com/goliatone/go-autosplit"
)

// consoleTimer is a minimal timer that prints every action it receives,
// prefixed with the step that produced it.
type consoleTimer struct {
	mu        sync.Mutex
	out       io.Writer
	step      uint64
	segments  int
	state     autosplit.TimerState
	index     int
	gameTime  time.Duration
	paused    bool
	variables map[string]string
}

var (
	_ autosplit.TimerControl   = (*consoleTimer)(nil)
	_ autosplit.VariableSetter = (*consoleTimer)(nil)
)

// newConsoleTimer returns a timer with segments splits per run. Zero means
// the run never ends on its own.
func newConsoleTimer(out io.Writer, segments int) *consoleTimer {
	return &consoleTimer{
		out:       out,
		segments:  segments,
		variables: map[string]string{},
	}
}

func (t *consoleTimer) setStep(step uint64) {
	t.mu.Lock()
	t.step = step
	t.mu.Unlock()
}

func (t *consoleTimer) printf(format string, args ...any) {
	fmt.Fprintf(t.out, "[%04d] %s\n", t.step, fmt.Sprintf(format, args...))
}

func (t *consoleTimer) State() autosplit.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *consoleTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != autosplit.TimerNotRunning {
		return nil
	}
	t.state = autosplit.TimerRunning
	t.index = 0
	t.printf("start")
	return nil
}

func (t *consoleTimer) Split() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != autosplit.TimerRunning && t.state != autosplit.TimerPaused {
		return nil
	}
	t.index++
	t.printf("split %s", t.progress())
	if t.segments > 0 && t.index >= t.segments {
		t.state = autosplit.TimerEnded
		t.printf("finished")
	}
	return nil
}

func (t *consoleTimer) SkipSplit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != autosplit.TimerRunning && t.state != autosplit.TimerPaused {
		return nil
	}
	if t.segments > 0 && t.index+1 >= t.segments {
		return nil
	}
	t.index++
	t.printf("skip_split %s", t.progress())
	return nil
}

func (t *consoleTimer) UndoSplit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == autosplit.TimerNotRunning || t.index == 0 {
		return nil
	}
	if t.state == autosplit.TimerEnded {
		t.state = autosplit.TimerRunning
	}
	t.index--
	t.printf("undo_split %s", t.progress())
	return nil
}

func (t *consoleTimer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == autosplit.TimerNotRunning {
		return nil
	}
	t.state = autosplit.TimerNotRunning
	t.index = 0
	t.gameTime = 0
	t.paused = false
	t.printf("reset")
	return nil
}

func (t *consoleTimer) SetGameTime(d time.Duration) error {
	t.mu.Lock()
	t.gameTime = d
	t.mu.Unlock()
	return nil
}

func (t *consoleTimer) PauseGameTime() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return nil
	}
	t.paused = true
	t.printf("pause_game_time")
	return nil
}

func (t *consoleTimer) ResumeGameTime() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return nil
	}
	t.paused = false
	t.printf("resume_game_time")
	return nil
}

func (t *consoleTimer) Log(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("log %s", message)
	return nil
}

func (t *consoleTimer) SetVariable(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if previous, ok := t.variables[key]; ok && previous == value {
		return nil
	}
	t.variables[key] = value
	t.printf("variable %s=%s", key, value)
	return nil
}

func (t *consoleTimer) progress() string {
	if t.segments > 0 {
		return fmt.Sprintf("%d/%d", t.index, t.segments)
	}
	return fmt.Sprintf("%d", t.index)
}

type timerSummary struct {
	state    autosplit.TimerState
	splits   int
	gameTime time.Duration
}

func (t *consoleTimer) summary() timerSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return timerSummary{state: t.state, splits: t.index, gameTime: t.gameTime}
}

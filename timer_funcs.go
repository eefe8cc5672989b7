package autosplit

import (
	"errors"
	"fmt"
	"time"
)

// GameTimeTicksPerSecond is the resolution of TimerFuncs.SetGameTime.
const GameTimeTicksPerSecond = 10_000_000

// TimerFuncs adapts a table of plain functions plus one opaque host context
// to TimerControl. Every entry is required; use Validate (or NewTimerFuncs)
// before handing it to New.
type TimerFuncs struct {
	Context any

	State          func(ctx any) int32
	Start          func(ctx any)
	Split          func(ctx any)
	SkipSplit      func(ctx any)
	UndoSplit      func(ctx any)
	Reset          func(ctx any)
	SetGameTime    func(ctx any, ticks int64)
	PauseGameTime  func(ctx any)
	ResumeGameTime func(ctx any)
	Log            func(ctx any, message string)
}

// NewTimerFuncs validates funcs and returns it as a TimerControl.
func NewTimerFuncs(funcs TimerFuncs) (TimerControl, error) {
	if err := funcs.Validate(); err != nil {
		return nil, err
	}
	return funcTimer{funcs: funcs}, nil
}

// Validate reports every missing entry.
func (f TimerFuncs) Validate() error {
	var errs []error
	check := func(name string, missing bool) {
		if missing {
			errs = append(errs, fmt.Errorf("autosplit: timer func %s is nil", name))
		}
	}
	check("State", f.State == nil)
	check("Start", f.Start == nil)
	check("Split", f.Split == nil)
	check("SkipSplit", f.SkipSplit == nil)
	check("UndoSplit", f.UndoSplit == nil)
	check("Reset", f.Reset == nil)
	check("SetGameTime", f.SetGameTime == nil)
	check("PauseGameTime", f.PauseGameTime == nil)
	check("ResumeGameTime", f.ResumeGameTime == nil)
	check("Log", f.Log == nil)
	return errors.Join(errs...)
}

type funcTimer struct {
	funcs TimerFuncs
}

func (t funcTimer) State() TimerState {
	return TimerStateFromCode(t.funcs.State(t.funcs.Context))
}

func (t funcTimer) Start() error {
	t.funcs.Start(t.funcs.Context)
	return nil
}

func (t funcTimer) Split() error {
	t.funcs.Split(t.funcs.Context)
	return nil
}

func (t funcTimer) SkipSplit() error {
	t.funcs.SkipSplit(t.funcs.Context)
	return nil
}

func (t funcTimer) UndoSplit() error {
	t.funcs.UndoSplit(t.funcs.Context)
	return nil
}

func (t funcTimer) Reset() error {
	t.funcs.Reset(t.funcs.Context)
	return nil
}

func (t funcTimer) SetGameTime(d time.Duration) error {
	t.funcs.SetGameTime(t.funcs.Context, DurationToGameTimeTicks(d))
	return nil
}

func (t funcTimer) PauseGameTime() error {
	t.funcs.PauseGameTime(t.funcs.Context)
	return nil
}

func (t funcTimer) ResumeGameTime() error {
	t.funcs.ResumeGameTime(t.funcs.Context)
	return nil
}

func (t funcTimer) Log(message string) error {
	t.funcs.Log(t.funcs.Context, message)
	return nil
}

// DurationToGameTimeTicks converts d to 100ns ticks.
func DurationToGameTimeTicks(d time.Duration) int64 {
	return int64(d / (time.Second / GameTimeTicksPerSecond))
}

// GameTimeTicksToDuration converts 100ns ticks to a duration.
func GameTimeTicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * (time.Second / GameTimeTicksPerSecond)
}

package autosplit

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-autosplit/pkg/activity"
)

func TestCallbackBridgeRelaysInOrder(t *testing.T) {
	timer := newRecordingTimer()
	capture := &activity.Recorder{}
	bridge := newCallbackBridge(timer, applyOptions([]Option{
		WithActivityHooks(activity.Hooks{capture}),
	}), "rt-1", "mod.js")
	bridge.bind(nil, 4)

	bridge.start()
	bridge.setGameTime(2 * time.Second)
	bridge.pauseGameTime()
	bridge.resumeGameTime()
	bridge.split()
	bridge.skipSplit()
	bridge.undoSplit()
	bridge.reset()
	bridge.setVariable("deaths", "3")
	bridge.log("hello")

	want := []string{
		"start", "set_game_time 2s", "pause_game_time", "resume_game_time",
		"split", "skip_split", "undo_split", "reset",
	}
	if got := timer.Events(); !equalStrings(got, want) {
		t.Fatalf("unexpected events %v", got)
	}
	if timer.vars["deaths"] != "3" || !equalStrings(timer.Logs(), []string{"hello"}) {
		t.Fatalf("unexpected variables %v or logs %v", timer.vars, timer.Logs())
	}

	verbs := capture.Verbs()
	if len(verbs) != 9 || verbs[0] != "timer.start" || verbs[8] != "timer.set_variable" {
		t.Fatalf("unexpected verbs %v", verbs)
	}
	event := capture.Events()[1]
	if event.RuntimeID != "rt-1" || event.Module != "mod.js" || event.Step != 4 {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Metadata["game_time"] != "2s" {
		t.Fatalf("unexpected metadata %v", event.Metadata)
	}
}

func TestCallbackBridgeDisable(t *testing.T) {
	timer := newRecordingTimer()
	timer.setState(TimerRunning)
	bridge := newCallbackBridge(timer, applyOptions(nil), "rt", "mod")

	bridge.disable()
	bridge.split()
	bridge.log("late")
	bridge.setVariable("k", "v")

	if len(timer.Events()) != 0 || len(timer.Logs()) != 0 || len(timer.vars) != 0 {
		t.Fatalf("disabled bridge must not reach the host")
	}
	if bridge.state() != TimerNotRunning {
		t.Fatalf("disabled bridge reports not running, got %s", bridge.state())
	}
}

func TestCallbackBridgeDisableWaitsForCallInFlight(t *testing.T) {
	timer := newRecordingTimer()
	entered := make(chan struct{})
	release := make(chan struct{})
	timer.onSplit = func() {
		close(entered)
		<-release
	}
	bridge := newCallbackBridge(timer, applyOptions(nil), "rt", "mod")

	go bridge.split()
	<-entered

	disabled := make(chan struct{})
	go func() {
		bridge.disable()
		close(disabled)
	}()
	select {
	case <-disabled:
		t.Fatalf("disable returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-disabled:
	case <-time.After(5 * time.Second):
		t.Fatalf("disable did not return")
	}
	bridge.reset()
	if got := timer.Events(); !equalStrings(got, []string{"split"}) {
		t.Fatalf("expected only the in-flight split, got %v", got)
	}
}

func TestCallbackBridgeLogsHostErrors(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	timer := newRecordingTimer()
	timer.err = errors.New("timer offline")
	capture := &activity.Recorder{Err: errors.New("hook offline")}
	bridge := newCallbackBridge(timer, applyOptions([]Option{
		WithLogger(logger),
		WithActivityHooks(activity.Hooks{capture}),
	}), "rt-2", "mod")

	bridge.split()
	bridge.fault(EntryUpdate, errors.New("boom"))

	logged := out.String()
	for _, fragment := range []string{"timer callback failed", "action=split", "timer offline", "activity hook failed"} {
		if !strings.Contains(logged, fragment) {
			t.Fatalf("expected %q in log output:\n%s", fragment, logged)
		}
	}
	if !equalStrings(capture.Verbs(), []string{"timer.split", "module.fault"}) {
		t.Fatalf("unexpected verbs %v", capture.Verbs())
	}
	if !equalStrings(timer.Logs(), []string{"boom"}) {
		t.Fatalf("fault must reach the module log channel, got %v", timer.Logs())
	}
}

func TestCallbackBridgeSkipsVariablesWithoutSetter(t *testing.T) {
	var timer TimerControl = struct{ TimerControl }{newRecordingTimer()}
	if _, ok := timer.(VariableSetter); ok {
		t.Fatalf("wrapped timer must not expose SetVariable")
	}
	bridge := newCallbackBridge(timer, applyOptions(nil), "rt", "mod")
	bridge.setVariable("k", "v")
}

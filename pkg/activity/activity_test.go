package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerActionEvent(t *testing.T) {
	metadata := map[string]any{"game_time": "1.5s"}
	event := TimerAction(" set_game_time ", Source{RuntimeID: " rt-9 ", Module: "demo.lua", Step: 12}, metadata)

	assert.Equal(t, "timer.set_game_time", event.Verb)
	assert.Equal(t, ObjectTimer, event.Object)
	assert.Equal(t, "rt-9", event.RuntimeID)
	assert.Equal(t, uint64(12), event.Step)
	assert.Equal(t, "1.5s", event.Metadata["game_time"])

	event.Metadata["game_time"] = "changed"
	assert.Equal(t, "1.5s", metadata["game_time"], "caller metadata must not be aliased")

	assert.Nil(t, TimerAction("split", Source{}, nil).Metadata)
}

func TestModuleFaultEvent(t *testing.T) {
	event := ModuleFault("on_update", errors.New("trap"), Source{RuntimeID: "rt", Step: 3})
	assert.Equal(t, VerbModuleFault, event.Verb)
	assert.Equal(t, ObjectModule, event.Object)
	assert.Equal(t, map[string]any{"entry": "on_update", "error": "trap"}, event.Metadata)

	event = ModuleFault("on_init", nil, Source{})
	assert.NotContains(t, event.Metadata, "error")
}

func TestHooksNotifyFansOutAndJoinsErrors(t *testing.T) {
	recorder := &Recorder{}
	boom := errors.New("boom")
	var sawContext bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			sawContext = ctx != nil
			return nil
		}),
		nil,
		HookFunc(func(context.Context, Event) error { return boom }),
		HookFunc(func(context.Context, Event) error { panic("hook bug") }),
		recorder,
	}

	//nolint:staticcheck // nil context falls back to Background.
	err := hooks.Notify(nil, Event{Verb: " timer.split ", Metadata: map[string]any{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panicked on timer.split")
	assert.True(t, sawContext)

	events := recorder.Events()
	require.Len(t, events, 1, "later hooks still run")
	assert.Equal(t, "timer.split", events[0].Verb)
	assert.Nil(t, events[0].Metadata)
}

func TestHooksDropEventsWithoutVerb(t *testing.T) {
	recorder := &Recorder{}
	require.NoError(t, Hooks{recorder}.Notify(context.Background(), Event{Object: ObjectTimer}))
	assert.Empty(t, recorder.Events())
}

func TestHooksCompact(t *testing.T) {
	hook := HookFunc(func(context.Context, Event) error { return nil })
	assert.Len(t, Hooks{nil, hook, nil}.Compact(), 1)
	assert.Nil(t, Hooks{nil}.Compact())
}

func TestMatchFiltersVerbs(t *testing.T) {
	recorder := &Recorder{}
	hooks := Hooks{
		Match(recorder, "timer.split", "module.*"),
	}
	ctx := context.Background()
	for _, verb := range []string{"timer.start", "timer.split", "module.fault", "modules.x", "timer.splitx"} {
		require.NoError(t, hooks.Notify(ctx, Event{Verb: verb}))
	}
	assert.Equal(t, []string{"timer.split", "module.fault"}, recorder.Verbs())

	recorder.Reset()
	assert.Empty(t, recorder.Verbs())
}

func TestEmitterStampsChannelAndTime(t *testing.T) {
	recorder := &Recorder{}
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, NewEmitter(nil).Enabled())
	assert.False(t, NewEmitter(Hooks{nil}).Enabled())
	var nilEmitter *Emitter
	assert.NoError(t, nilEmitter.Emit(context.Background(), Event{Verb: "timer.start"}))

	emitter := NewEmitter(Hooks{recorder}, WithClock(func() time.Time { return fixed }))
	require.True(t, emitter.Enabled())
	require.NoError(t, emitter.Emit(context.Background(), Event{Verb: "timer.start"}))
	require.NoError(t, emitter.Emit(context.Background(), Event{Verb: "timer.reset", Channel: "custom"}))

	events := recorder.Events()
	require.Len(t, events, 2)
	assert.Equal(t, DefaultChannel, events[0].Channel)
	assert.Equal(t, fixed, events[0].OccurredAt)
	assert.Equal(t, "custom", events[1].Channel)

	custom := NewEmitter(Hooks{recorder}, WithChannel("splits"))
	recorder.Reset()
	require.NoError(t, custom.Emit(context.Background(), Event{Verb: "timer.split"}))
	assert.Equal(t, "splits", recorder.Events()[0].Channel)
	assert.False(t, recorder.Events()[0].OccurredAt.IsZero())
}

func TestRecorderReturnsConfiguredError(t *testing.T) {
	recorder := &Recorder{Err: errors.New("offline")}
	err := recorder.Notify(context.Background(), Event{Verb: "timer.split"})
	assert.EqualError(t, err, "offline")
	assert.Equal(t, []string{"timer.split"}, recorder.Verbs())
}

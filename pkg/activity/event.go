// Package activity fans runtime occurrences (bridged timer actions and
// module faults) out to host hooks.
package activity

import (
	"maps"
	"strings"
	"time"
)

// Objects an event can be about.
const (
	ObjectTimer  = "timer"
	ObjectModule = "module"
)

// Verbs emitted by the runtime besides "timer.<action>".
const (
	VerbModuleFault = "module.fault"
)

// Event is one runtime occurrence.
type Event struct {
	Verb      string
	Object    string
	RuntimeID string
	Module    string
	Channel   string
	Step      uint64
	// Metadata carries action arguments ("game_time", "key", "value") or,
	// for faults, "entry" and "error".
	Metadata   map[string]any
	OccurredAt time.Time
}

// Source identifies the runtime and step an event originates from.
type Source struct {
	RuntimeID string
	Module    string
	Step      uint64
}

// TimerAction builds the event for a bridged timer action such as "split".
func TimerAction(action string, src Source, metadata map[string]any) Event {
	return src.event("timer."+strings.TrimSpace(action), ObjectTimer, maps.Clone(metadata))
}

// ModuleFault builds the event for a failed module entry point.
func ModuleFault(entry string, cause error, src Source) Event {
	metadata := map[string]any{"entry": entry}
	if cause != nil {
		metadata["error"] = cause.Error()
	}
	return src.event(VerbModuleFault, ObjectModule, metadata)
}

func (s Source) event(verb, object string, metadata map[string]any) Event {
	return Event{
		Verb:      verb,
		Object:    object,
		RuntimeID: strings.TrimSpace(s.RuntimeID),
		Module:    strings.TrimSpace(s.Module),
		Step:      s.Step,
		Metadata:  metadata,
	}
}

// Normalize trims identifiers and copies metadata so hooks cannot alias
// each other's view of the event.
func Normalize(event Event) Event {
	event.Verb = strings.TrimSpace(event.Verb)
	event.Object = strings.TrimSpace(event.Object)
	event.RuntimeID = strings.TrimSpace(event.RuntimeID)
	event.Module = strings.TrimSpace(event.Module)
	event.Channel = strings.TrimSpace(event.Channel)
	if len(event.Metadata) == 0 {
		event.Metadata = nil
	} else {
		event.Metadata = maps.Clone(event.Metadata)
	}
	return event
}

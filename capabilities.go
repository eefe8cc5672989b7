package autosplit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a host capability callable from a module.
type Function func(args ...any) (any, error)

// CapabilityRegistry holds the functions granted to one module, keyed by
// namespaced names such as "timer.split".
type CapabilityRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewCapabilityRegistry constructs an empty registry.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *CapabilityRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("autosplit: capability %q is nil", name)
	}
	namespace, member := splitCapabilityName(name)
	if namespace == "" || member == "" {
		return fmt.Errorf("autosplit: capability name %q must be namespace.member", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("autosplit: capability %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Call executes the capability registered for name.
func (r *CapabilityRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, capabilityError("no capabilities granted")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, capabilityError("%s is not granted", name)
	}
	return fn(args...)
}

// Names returns registered names sorted alphabetically.
func (r *CapabilityRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces groups registered member names by namespace. Engines use it to
// build one object (or table) per namespace.
func (r *CapabilityRegistry) Namespaces() map[string][]string {
	out := map[string][]string{}
	for _, name := range r.Names() {
		namespace, member := splitCapabilityName(name)
		out[namespace] = append(out[namespace], member)
	}
	return out
}

func splitCapabilityName(name string) (string, string) {
	namespace, member, ok := strings.Cut(name, ".")
	if !ok {
		return "", ""
	}
	return namespace, member
}

// registerCapabilities grants h's capability set to a fresh registry.
func registerCapabilities(h *moduleHost) (*CapabilityRegistry, error) {
	registry := NewCapabilityRegistry()
	functions := map[string]Function{
		"timer.state":            h.timerState,
		"timer.start":            h.timerAction(h.bridge.start),
		"timer.split":            h.timerAction(h.bridge.split),
		"timer.skip_split":       h.timerAction(h.bridge.skipSplit),
		"timer.undo_split":       h.timerAction(h.bridge.undoSplit),
		"timer.reset":            h.timerAction(h.bridge.reset),
		"timer.set_game_time":    h.setGameTime,
		"timer.pause_game_time":  h.timerAction(h.bridge.pauseGameTime),
		"timer.resume_game_time": h.timerAction(h.bridge.resumeGameTime),
		"timer.set_variable":     h.setVariable,

		"settings.add_bool":    h.addBool,
		"settings.add_int":     h.addInt,
		"settings.add_choice":  h.addChoice,
		"settings.get":         h.getSetting,
		"settings.set":         h.setSetting,
		"settings.set_tooltip": h.setTooltip,

		"process.attach":         h.attach,
		"process.detach":         h.detach,
		"process.is_open":        h.isOpen,
		"process.module_address": h.moduleAddress,
		"process.read_bytes":     h.readBytes,

		"runtime.set_tick_rate": h.setTickRate,
		"runtime.tick_rate":     h.currentTickRate,
		"runtime.log":           h.log,
		"runtime.sleep":         h.sleep,
		"runtime.yield":         h.yield,
	}
	for _, memoryType := range MemoryTypes {
		functions["process.read_"+string(memoryType)] = h.readValue(memoryType)
	}
	for name, fn := range functions {
		if err := registry.Register(name, h.guard(name, fn)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

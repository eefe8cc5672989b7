package autosplit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// moduleHost runs one module instance and owns everything the module may
// touch: its capabilities, its attached processes and its tick rate.
type moduleHost struct {
	module      string
	settings    *SettingsStore
	bridge      *callbackBridge
	logger      *slog.Logger
	provider    ProcessProvider
	processes   processTable
	maxReadSize int
	tickRate    atomic.Int64

	phase    EntryPoint
	current  atomic.Pointer[Execution]
	instance Instance
	caps     *CapabilityRegistry
}

func newModuleHost(module string, settings *SettingsStore, bridge *callbackBridge, cfg runtimeConfig) (*moduleHost, error) {
	h := &moduleHost{
		module:      module,
		settings:    settings,
		bridge:      bridge,
		logger:      cfg.logger,
		provider:    cfg.processes,
		maxReadSize: cfg.maxReadSize,
	}
	h.tickRate.Store(int64(cfg.tickRate))
	caps, err := registerCapabilities(h)
	if err != nil {
		return nil, err
	}
	h.caps = caps
	return h, nil
}

// load instantiates the module and evaluates its top level.
func (h *moduleHost) load(ctx context.Context, engine Engine, source ModuleSource, cache ProgramCache, budget Budget) error {
	exec := h.begin(ctx, EntryLoad, budget)
	defer h.end(exec)

	instance, err := protect(func() (Instance, error) {
		return engine.Load(exec, LoadRequest{
			Source:       source,
			Capabilities: h.caps,
			Cache:        cache,
		})
	})
	if err != nil {
		return h.normalize(exec, err)
	}
	if instance == nil {
		return fmt.Errorf("engine %s returned no instance", engine.Name())
	}
	if !instance.Has(EntryUpdate) {
		_ = instance.Close()
		return fmt.Errorf("module does not define %s", EntryUpdate)
	}
	h.instance = instance
	return nil
}

// call runs entry and converts anything that goes wrong into a ModuleFault.
func (h *moduleHost) call(ctx context.Context, entry EntryPoint, step uint64, budget Budget) error {
	if h.instance == nil {
		return wrapModuleFault(h.module, entry, step, errors.New("module not loaded"))
	}
	if !h.instance.Has(entry) {
		return nil
	}
	h.bridge.bind(ctx, step)
	exec := h.begin(ctx, entry, budget)
	defer h.end(exec)

	_, err := protect(func() (struct{}, error) {
		return struct{}{}, h.instance.Call(exec, entry)
	})
	if err != nil {
		return wrapModuleFault(h.module, entry, step, h.normalize(exec, err))
	}
	return nil
}

// normalize makes sure an error raised after the execution was stopped
// carries the reason it was stopped.
func (h *moduleHost) normalize(exec *Execution, err error) error {
	cause := exec.Err()
	if cause == nil {
		return err
	}
	if errors.Is(err, ErrBudgetExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", cause, err)
}

// interrupt stops the call in flight, if any. Safe from any goroutine.
func (h *moduleHost) interrupt() {
	if exec := h.current.Load(); exec != nil {
		exec.interrupt()
	}
}

func (h *moduleHost) close() error {
	var errs []error
	if err := h.processes.closeAll(); err != nil {
		errs = append(errs, err)
	}
	if h.instance != nil {
		if err := h.instance.Close(); err != nil {
			errs = append(errs, err)
		}
		h.instance = nil
	}
	return errors.Join(errs...)
}

func (h *moduleHost) begin(ctx context.Context, entry EntryPoint, budget Budget) *Execution {
	exec := newExecution(ctx, entry, budget)
	h.phase = entry
	h.current.Store(exec)
	return exec
}

func (h *moduleHost) end(exec *Execution) {
	exec.finish()
	h.current.CompareAndSwap(exec, nil)
}

func protect[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// guard stops capabilities once the execution is over budget and keeps Go
// panics inside capability code from unwinding through the engine.
func (h *moduleHost) guard(name string, fn Function) Function {
	return func(values ...any) (result any, err error) {
		if exec := h.current.Load(); exec != nil {
			if err := exec.Err(); err != nil {
				return nil, err
			}
		}
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, capabilityError("%s: panic: %v", name, r)
			}
		}()
		return fn(values...)
	}
}

func (h *moduleHost) requireInit(name string) error {
	if h.phase != EntryLoad && h.phase != EntryInit {
		return capabilityError("%s is only available during %s", name, EntryInit)
	}
	return nil
}

func (h *moduleHost) timerState(...any) (any, error) {
	return int64(h.bridge.state()), nil
}

func (h *moduleHost) timerAction(action func()) Function {
	return func(...any) (any, error) {
		action()
		return nil, nil
	}
}

func (h *moduleHost) setGameTime(values ...any) (any, error) {
	a := newArgs("timer.set_game_time", values)
	gameTime := a.duration(0, time.Second)
	if a.err != nil {
		return nil, a.err
	}
	h.bridge.setGameTime(gameTime)
	return nil, nil
}

func (h *moduleHost) setVariable(values ...any) (any, error) {
	a := newArgs("timer.set_variable", values)
	key := a.string(0)
	if a.err != nil {
		return nil, a.err
	}
	value := ""
	if a.present(1) {
		value = a.scalar(1)
	}
	if a.err != nil {
		return nil, a.err
	}
	h.bridge.setVariable(key, value)
	return nil, nil
}

func (h *moduleHost) addBool(values ...any) (any, error) {
	const name = "settings.add_bool"
	if err := h.requireInit(name); err != nil {
		return nil, err
	}
	a := newArgs(name, values)
	key := a.string(0)
	label := a.optString(1, key)
	def := a.bool(2)
	opts := declareOptions(a, 3)
	if a.err != nil {
		return nil, a.err
	}
	return nil, h.declare(name, key, label, BoolValue(def), opts)
}

func (h *moduleHost) addInt(values ...any) (any, error) {
	const name = "settings.add_int"
	if err := h.requireInit(name); err != nil {
		return nil, err
	}
	a := newArgs(name, values)
	key := a.string(0)
	label := a.optString(1, key)
	def := a.int(2)
	opts := declareOptions(a, 3)
	if a.err != nil {
		return nil, a.err
	}
	return nil, h.declare(name, key, label, IntValue(def), opts)
}

func (h *moduleHost) addChoice(values ...any) (any, error) {
	const name = "settings.add_choice"
	if err := h.requireInit(name); err != nil {
		return nil, err
	}
	a := newArgs(name, values)
	key := a.string(0)
	label := a.optString(1, key)
	def := a.string(2)
	choices := parseChoices(a, 3)
	opts := append(declareOptions(a, 4), WithChoices(choices...))
	if a.err != nil {
		return nil, a.err
	}
	return nil, h.declare(name, key, label, ChoiceValue(def), opts)
}

func (h *moduleHost) declare(name, key, label string, def SettingValue, opts []DeclareOption) error {
	if err := h.settings.Declare(key, label, def, opts...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func declareOptions(a *args, index int) []DeclareOption {
	table := a.table(index)
	var opts []DeclareOption
	if tooltip, ok := table["tooltip"].(string); ok {
		opts = append(opts, WithTooltip(tooltip))
	}
	if parent, ok := table["parent"].(string); ok {
		opts = append(opts, WithParent(parent))
	}
	return opts
}

func parseChoices(a *args, index int) []Choice {
	items := a.list(index)
	choices := make([]Choice, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			choices = append(choices, Choice{Key: v, Label: v})
		case map[string]any:
			key, _ := v["key"].(string)
			label, _ := v["label"].(string)
			if label == "" {
				label = key
			}
			choices = append(choices, Choice{Key: key, Label: label})
		default:
			a.fail(index, fmt.Errorf("choice must be a string or {key, label}, got %T", item))
		}
	}
	return choices
}

func (h *moduleHost) getSetting(values ...any) (any, error) {
	a := newArgs("settings.get", values)
	key := a.string(0)
	if a.err != nil {
		return nil, a.err
	}
	value, err := h.settings.Get(key)
	if err != nil {
		return nil, fmt.Errorf("settings.get: %w", err)
	}
	return value.Any(), nil
}

func (h *moduleHost) setSetting(values ...any) (any, error) {
	a := newArgs("settings.set", values)
	key := a.string(0)
	if !a.present(1) {
		a.fail(1, errors.New("missing value"))
	}
	if a.err != nil {
		return nil, a.err
	}
	var value SettingValue
	switch v := values[1].(type) {
	case bool:
		value = BoolValue(v)
	case string:
		value = ChoiceValue(v)
	default:
		i, err := toInt(v)
		if err != nil {
			return nil, capabilityError("settings.set: argument 2: %v", err)
		}
		value = IntValue(i)
	}
	if err := h.settings.Set(key, value); err != nil {
		return nil, fmt.Errorf("settings.set: %w", err)
	}
	return nil, nil
}

func (h *moduleHost) setTooltip(values ...any) (any, error) {
	a := newArgs("settings.set_tooltip", values)
	key := a.string(0)
	text := a.string(1)
	if a.err != nil {
		return nil, a.err
	}
	if err := h.settings.SetTooltip(key, text); err != nil {
		return nil, fmt.Errorf("settings.set_tooltip: %w", err)
	}
	return nil, nil
}

func (h *moduleHost) attach(values ...any) (any, error) {
	a := newArgs("process.attach", values)
	name := a.string(0)
	if a.err != nil {
		return nil, a.err
	}
	if h.provider == nil {
		return nil, nil
	}
	process, err := h.provider.Attach(name)
	if err != nil {
		if !errors.Is(err, ErrProcessNotFound) {
			h.logger.Debug("process attach failed", "module", h.module, "process", name, "error", err)
		}
		return nil, nil
	}
	if process == nil {
		return nil, nil
	}
	return int64(h.processes.insert(process, name)), nil
}

func (h *moduleHost) detach(values ...any) (any, error) {
	a := newArgs("process.detach", values)
	handle := a.handle(0)
	if a.err != nil {
		return nil, a.err
	}
	process, ok := h.processes.remove(handle)
	if !ok {
		return nil, capabilityError("process.detach: invalid handle %d", handle)
	}
	if err := process.Close(); err != nil {
		h.logger.Warn("process detach failed", "module", h.module, "error", err)
	}
	return nil, nil
}

func (h *moduleHost) process(a *args, index int) (Process, error) {
	handle := a.handle(index)
	if a.err != nil {
		return nil, a.err
	}
	process, ok := h.processes.get(handle)
	if !ok {
		return nil, capabilityError("%s: invalid handle %d", a.name, handle)
	}
	return process, nil
}

func (h *moduleHost) isOpen(values ...any) (any, error) {
	a := newArgs("process.is_open", values)
	process, err := h.process(a, 0)
	if err != nil {
		return nil, err
	}
	return process.IsOpen(), nil
}

func (h *moduleHost) moduleAddress(values ...any) (any, error) {
	a := newArgs("process.module_address", values)
	process, err := h.process(a, 0)
	name := a.string(1)
	if err != nil {
		return nil, err
	}
	if a.err != nil {
		return nil, a.err
	}
	address, err := process.ModuleAddress(name)
	if err != nil {
		return nil, nil
	}
	return int64(address), nil
}

// readValue builds the read capability for t. A failed read yields nil so
// modules can poll a process that is still starting up.
func (h *moduleHost) readValue(t MemoryType) Function {
	name := "process.read_" + string(t)
	return func(values ...any) (any, error) {
		a := newArgs(name, values)
		process, err := h.process(a, 0)
		address := a.address(1)
		if err != nil {
			return nil, err
		}
		if a.err != nil {
			return nil, a.err
		}
		buf := make([]byte, t.Size())
		if err := process.Read(address, buf); err != nil {
			return nil, nil
		}
		return t.Decode(buf)
	}
}

func (h *moduleHost) readBytes(values ...any) (any, error) {
	a := newArgs("process.read_bytes", values)
	process, err := h.process(a, 0)
	address := a.address(1)
	size := a.int(2)
	if err != nil {
		return nil, err
	}
	if a.err != nil {
		return nil, a.err
	}
	if size < 0 || size > int64(h.maxReadSize) {
		return nil, capabilityError("process.read_bytes: size %d outside [0, %d]", size, h.maxReadSize)
	}
	buf := make([]byte, size)
	if err := process.Read(address, buf); err != nil {
		return nil, nil
	}
	out := make([]any, len(buf))
	for i, b := range buf {
		out[i] = int64(b)
	}
	return out, nil
}

func (h *moduleHost) setTickRate(values ...any) (any, error) {
	a := newArgs("runtime.set_tick_rate", values)
	hz := a.float(0)
	if a.err != nil {
		return nil, a.err
	}
	if math.IsNaN(hz) || hz <= 0 || hz > MaxTickRate {
		return nil, capabilityError("runtime.set_tick_rate: rate %v outside (0, %d]", hz, MaxTickRate)
	}
	h.tickRate.Store(max(int64(math.Round(hz)), 1))
	return nil, nil
}

func (h *moduleHost) currentTickRate(...any) (any, error) {
	return h.tickRate.Load(), nil
}

func (h *moduleHost) log(values ...any) (any, error) {
	a := newArgs("runtime.log", values)
	parts := make([]string, len(values))
	for i := range values {
		parts[i] = a.scalar(i)
	}
	if a.err != nil {
		return nil, a.err
	}
	h.bridge.log(strings.Join(parts, " "))
	return nil, nil
}

func (h *moduleHost) sleep(values ...any) (any, error) {
	a := newArgs("runtime.sleep", values)
	d := a.duration(0, time.Millisecond)
	if a.err != nil {
		return nil, a.err
	}
	exec := h.current.Load()
	if exec == nil {
		return nil, nil
	}
	return nil, exec.Sleep(d)
}

func (h *moduleHost) yield(...any) (any, error) {
	if exec := h.current.Load(); exec != nil {
		return nil, exec.Err()
	}
	return nil, nil
}

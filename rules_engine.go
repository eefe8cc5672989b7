package autosplit

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-autosplit/internal/hydrate"
)

// Rule names evaluated by a rules module, in evaluation order.
const (
	RuleStart     = "start"
	RuleIsLoading = "is_loading"
	RuleGameTime  = "game_time"
	RuleReset     = "reset"
	RuleSplit     = "split"
)

var watcherNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rulesDocument is the YAML form of a declarative module.
type rulesDocument struct {
	Name      string          `json:"name"`
	Language  string          `json:"language"`
	TickRate  float64         `json:"tick_rate"`
	Process   string          `json:"process"`
	Settings  []rulesSetting  `json:"settings"`
	Watchers  []rulesWatcher  `json:"watchers"`
	Start     string          `json:"start"`
	Split     string          `json:"split"`
	Reset     string          `json:"reset"`
	IsLoading string          `json:"is_loading"`
	GameTime  string          `json:"game_time"`
	Variables []rulesVariable `json:"variables"`
}

type rulesSetting struct {
	Key     string        `json:"key"`
	Label   string        `json:"label"`
	Tooltip string        `json:"tooltip"`
	Parent  string        `json:"parent"`
	Type    string        `json:"type"`
	Default any           `json:"default"`
	Choices []rulesChoice `json:"choices"`
}

type rulesChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts a bare string as shorthand for {key: s, label: s}.
func (c *rulesChoice) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		c.Key, c.Label = key, key
		return nil
	}
	type plain rulesChoice
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*c = rulesChoice(out)
	return nil
}

type rulesWatcher struct {
	Name    string       `json:"name"`
	Module  string       `json:"module"`
	Address rulesAddress `json:"address"`
	Type    string       `json:"type"`
}

// rulesVariable publishes an expression result to the timer on every step.
type rulesVariable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// rulesAddress decodes integers and "0x" prefixed strings.
type rulesAddress uint64

func (a *rulesAddress) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	value, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid address %s", data)
	}
	*a = rulesAddress(value)
	return nil
}

func validateRulesDocument(_ hydrate.Context, doc *rulesDocument) error {
	var errs []error
	seen := map[string]bool{}
	for index, watcher := range doc.Watchers {
		switch {
		case !watcherNamePattern.MatchString(watcher.Name):
			errs = append(errs, fmt.Errorf("watcher %d: invalid name %q", index+1, watcher.Name))
		case watcher.Name == "settings" || watcher.Name == "state":
			errs = append(errs, fmt.Errorf("watcher %d: name %q is reserved", index+1, watcher.Name))
		case seen[watcher.Name]:
			errs = append(errs, fmt.Errorf("watcher %d: duplicate name %q", index+1, watcher.Name))
		}
		seen[watcher.Name] = true
		if _, err := ParseMemoryType(watcher.Type); err != nil {
			errs = append(errs, fmt.Errorf("watcher %q: %w", watcher.Name, err))
		}
	}
	if len(doc.Watchers) > 0 && strings.TrimSpace(doc.Process) == "" {
		errs = append(errs, errors.New("watchers require a process"))
	}
	for index, setting := range doc.Settings {
		if strings.TrimSpace(setting.Key) == "" {
			errs = append(errs, fmt.Errorf("setting %d: key is required", index+1))
		}
		if _, err := ParseSettingKind(setting.Type); err != nil {
			errs = append(errs, fmt.Errorf("setting %q: %w", setting.Key, err))
		}
	}
	for index, variable := range doc.Variables {
		if strings.TrimSpace(variable.Key) == "" || strings.TrimSpace(variable.Value) == "" {
			errs = append(errs, fmt.Errorf("variable %d: key and value are required", index+1))
		}
	}
	if doc.TickRate < 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %v", doc.TickRate))
	}
	return errors.Join(errs...)
}

type rulesEngine struct{}

// NewRulesEngine returns the engine for declarative ".yaml" modules.
func NewRulesEngine() Engine {
	return rulesEngine{}
}

func (rulesEngine) Name() string {
	return "rules"
}

func (rulesEngine) Load(exec *Execution, req LoadRequest) (Instance, error) {
	decoder := hydrate.NewDecoder[rulesDocument](
		hydrate.WithDisallowUnknownFields[rulesDocument](),
		hydrate.WithPostHook[rulesDocument](validateRulesDocument),
	)
	doc, err := decoder.DecodeYAML(hydrate.Context{Source: req.Source.Name()}, req.Source.Code)
	if err != nil {
		return nil, err
	}

	inst := &rulesInstance{
		doc:        doc,
		caps:       req.Capabilities,
		conditions: map[string]condition{},
		variables:  map[string]condition{},
		bases:      map[string]int64{},
	}
	names := make([]string, 0, len(doc.Watchers))
	for _, watcher := range doc.Watchers {
		memoryType, _ := ParseMemoryType(watcher.Type)
		inst.watchers = append(inst.watchers, newWatcherState(watcher, memoryType))
		names = append(names, watcher.Name)
	}

	compiler, err := newConditionCompiler(doc.Language, names, req.Cache)
	if err != nil {
		return nil, err
	}
	rules := map[string]string{
		RuleStart:     doc.Start,
		RuleIsLoading: doc.IsLoading,
		RuleGameTime:  doc.GameTime,
		RuleReset:     doc.Reset,
		RuleSplit:     doc.Split,
	}
	for name, expression := range rules {
		if err := exec.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(expression) == "" {
			continue
		}
		compiled, err := compiler.compile(expression)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		inst.conditions[name] = compiled
	}
	for _, variable := range doc.Variables {
		compiled, err := compiler.compile(variable.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", variable.Key, err)
		}
		inst.variables[variable.Key] = compiled
	}
	return inst, nil
}

type watcherState struct {
	rulesWatcher
	memoryType MemoryType
	current    any
	old        any
	seen       bool
}

func newWatcherState(watcher rulesWatcher, memoryType MemoryType) *watcherState {
	w := &watcherState{rulesWatcher: watcher, memoryType: memoryType}
	w.clear()
	return w
}

func (w *watcherState) clear() {
	var zero any = int64(0)
	if w.memoryType.IsFloat() {
		zero = float64(0)
	}
	w.current, w.old, w.seen = zero, zero, false
}

// shift moves current to old and stores value. A failed read (nil) keeps
// the last value so changed stays false.
func (w *watcherState) shift(value any) {
	switch {
	case value == nil:
		w.old = w.current
	case !w.seen:
		w.old, w.current, w.seen = value, value, true
	default:
		w.old, w.current = w.current, value
	}
}

func (w *watcherState) binding() map[string]any {
	return map[string]any{
		"current": w.current,
		"old":     w.old,
		"changed": w.current != w.old,
	}
}

type rulesInstance struct {
	doc        rulesDocument
	caps       *CapabilityRegistry
	conditions map[string]condition
	variables  map[string]condition
	watchers   []*watcherState

	handle  any
	bases   map[string]int64
	loading bool
}

func (i *rulesInstance) Has(entry EntryPoint) bool {
	switch entry {
	case EntryInit, EntryUpdate, EntryExit:
		return true
	default:
		return false
	}
}

func (i *rulesInstance) Call(exec *Execution, entry EntryPoint) error {
	switch entry {
	case EntryInit:
		return i.init()
	case EntryUpdate:
		return i.update(exec)
	case EntryExit:
		return i.detach()
	default:
		return nil
	}
}

func (i *rulesInstance) Close() error {
	i.handle = nil
	return nil
}

func (i *rulesInstance) init() error {
	if i.doc.TickRate > 0 {
		if _, err := i.caps.Call("runtime.set_tick_rate", i.doc.TickRate); err != nil {
			return err
		}
	}
	for _, setting := range i.doc.Settings {
		if err := i.declare(setting); err != nil {
			return err
		}
	}
	return nil
}

func (i *rulesInstance) declare(setting rulesSetting) error {
	label := setting.Label
	if label == "" {
		label = setting.Key
	}
	opts := map[string]any{}
	if setting.Tooltip != "" {
		opts["tooltip"] = setting.Tooltip
	}
	if setting.Parent != "" {
		opts["parent"] = setting.Parent
	}
	kind, _ := ParseSettingKind(setting.Type)
	var err error
	switch kind {
	case SettingBool:
		def, _ := setting.Default.(bool)
		_, err = i.caps.Call("settings.add_bool", setting.Key, label, def, opts)
	case SettingInt:
		def := setting.Default
		if def == nil {
			def = int64(0)
		}
		_, err = i.caps.Call("settings.add_int", setting.Key, label, def, opts)
	case SettingChoice:
		choices := make([]any, len(setting.Choices))
		for index, choice := range setting.Choices {
			choices[index] = map[string]any{"key": choice.Key, "label": choice.Label}
		}
		def, _ := setting.Default.(string)
		if def == "" && len(setting.Choices) > 0 {
			def = setting.Choices[0].Key
		}
		_, err = i.caps.Call("settings.add_choice", setting.Key, label, def, choices, opts)
	}
	return err
}

func (i *rulesInstance) update(exec *Execution) error {
	attached, err := i.attach()
	if err != nil || !attached {
		return err
	}
	if err := i.readWatchers(); err != nil {
		return err
	}
	env, err := i.environment()
	if err != nil {
		return err
	}
	state := TimerStateFromCode(int32(env["state"].(int64)))

	check := func(name string) (bool, error) {
		if err := exec.Err(); err != nil {
			return false, err
		}
		return i.evalBool(name, env)
	}
	action := func(name string) error {
		_, err := i.caps.Call("timer." + name)
		return err
	}

	if err := i.publishVariables(exec, env); err != nil {
		return err
	}

	switch state {
	case TimerNotRunning:
		fire, err := check(RuleStart)
		if err != nil || !fire {
			return err
		}
		i.loading = false
		return action("start")
	case TimerEnded:
		fire, err := check(RuleReset)
		if err != nil || !fire {
			return err
		}
		return action("reset")
	}

	if _, ok := i.conditions[RuleIsLoading]; ok {
		loading, err := check(RuleIsLoading)
		if err != nil {
			return err
		}
		if loading != i.loading {
			i.loading = loading
			if loading {
				err = action("pause_game_time")
			} else {
				err = action("resume_game_time")
			}
			if err != nil {
				return err
			}
		}
	}
	if err := i.updateGameTime(exec, env); err != nil {
		return err
	}
	if fire, err := check(RuleReset); err != nil || fire {
		if err != nil {
			return err
		}
		return action("reset")
	}
	if fire, err := check(RuleSplit); err != nil || fire {
		if err != nil {
			return err
		}
		return action("split")
	}
	return nil
}

func (i *rulesInstance) updateGameTime(exec *Execution, env map[string]any) error {
	cond, ok := i.conditions[RuleGameTime]
	if !ok {
		return nil
	}
	if err := exec.Err(); err != nil {
		return err
	}
	result, err := cond.eval(env)
	if err != nil {
		return fmt.Errorf("%s: %w", RuleGameTime, err)
	}
	if result == nil {
		return nil
	}
	seconds, err := toFloat(result)
	if err != nil {
		return fmt.Errorf("%s: %w", RuleGameTime, err)
	}
	_, err = i.caps.Call("timer.set_game_time", seconds)
	return err
}

func (i *rulesInstance) publishVariables(exec *Execution, env map[string]any) error {
	for _, variable := range i.doc.Variables {
		if err := exec.Err(); err != nil {
			return err
		}
		value, err := i.variables[variable.Key].eval(env)
		if err != nil {
			return fmt.Errorf("variable %s: %w", variable.Key, err)
		}
		if _, err := i.caps.Call("timer.set_variable", variable.Key, fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}

func (i *rulesInstance) evalBool(name string, env map[string]any) (bool, error) {
	cond, ok := i.conditions[name]
	if !ok {
		return false, nil
	}
	result, err := cond.eval(env)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	fire, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected bool, got %T", name, result)
	}
	return fire, nil
}

// attach keeps the module attached to its process. It reports false while
// the process is unavailable.
func (i *rulesInstance) attach() (bool, error) {
	if i.handle != nil {
		open, err := i.caps.Call("process.is_open", i.handle)
		if err != nil {
			return false, err
		}
		if open == true {
			return true, nil
		}
		if err := i.detach(); err != nil {
			return false, err
		}
	}
	if i.doc.Process == "" {
		return len(i.watchers) == 0, nil
	}
	handle, err := i.caps.Call("process.attach", i.doc.Process)
	if err != nil || handle == nil {
		return false, err
	}
	i.handle = handle
	return true, nil
}

func (i *rulesInstance) detach() error {
	if i.handle == nil {
		return nil
	}
	handle := i.handle
	i.handle = nil
	i.bases = map[string]int64{}
	for _, watcher := range i.watchers {
		watcher.clear()
	}
	_, err := i.caps.Call("process.detach", handle)
	return err
}

func (i *rulesInstance) readWatchers() error {
	for _, watcher := range i.watchers {
		address, ok, err := i.resolve(watcher)
		if err != nil {
			return err
		}
		if !ok {
			watcher.shift(nil)
			continue
		}
		value, err := i.caps.Call("process.read_"+string(watcher.memoryType), i.handle, address)
		if err != nil {
			return err
		}
		watcher.shift(value)
	}
	return nil
}

func (i *rulesInstance) resolve(watcher *watcherState) (int64, bool, error) {
	address := int64(watcher.Address)
	if watcher.Module == "" {
		return address, true, nil
	}
	base, ok := i.bases[watcher.Module]
	if !ok {
		value, err := i.caps.Call("process.module_address", i.handle, watcher.Module)
		if err != nil || value == nil {
			return 0, false, err
		}
		base, err = toInt(value)
		if err != nil {
			return 0, false, err
		}
		i.bases[watcher.Module] = base
	}
	return base + address, true, nil
}

func (i *rulesInstance) environment() (map[string]any, error) {
	state, err := i.caps.Call("timer.state")
	if err != nil {
		return nil, err
	}
	code, err := toInt(state)
	if err != nil {
		return nil, err
	}
	settings := make(map[string]any, len(i.doc.Settings))
	for _, setting := range i.doc.Settings {
		value, err := i.caps.Call("settings.get", setting.Key)
		if err != nil {
			return nil, err
		}
		settings[setting.Key] = value
	}
	env := map[string]any{
		"settings": settings,
		"state":    code,
	}
	for _, watcher := range i.watchers {
		env[watcher.Name] = watcher.binding()
	}
	return env, nil
}

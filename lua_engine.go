package autosplit

import (
	"fmt"
	"math"
	"strings"

	"github.com/Shopify/go-lua"
)

// luaHookInterval is how many instructions run between budget checks.
const luaHookInterval = 1000

// luaRemovedGlobals are base library functions that could load code from
// disk, escape the budget hook or swallow a budget fault.
var luaRemovedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require",
	"collectgarbage", "pcall", "xpcall",
}

type luaEngine struct{}

// NewLuaEngine returns the engine for ".lua" modules. Only the base,
// string, table, math and bit32 libraries are opened.
func NewLuaEngine() Engine {
	return luaEngine{}
}

func (luaEngine) Name() string {
	return "go-lua"
}

func (luaEngine) Load(exec *Execution, req LoadRequest) (Instance, error) {
	l := lua.NewState()
	openSandboxLibraries(l)

	inst := &luaInstance{state: l, entries: map[EntryPoint]bool{}}
	inst.install(req.Capabilities)
	lua.SetDebugHook(l, inst.hook, lua.MaskCount, luaHookInterval)

	if err := lua.LoadBuffer(l, string(req.Source.Code), "@"+req.Source.Name(), "t"); err != nil {
		return nil, err
	}
	if err := inst.run(exec, 0); err != nil {
		return nil, err
	}
	for _, entry := range []EntryPoint{EntryInit, EntryUpdate, EntryExit} {
		l.Global(string(entry))
		inst.entries[entry] = l.IsFunction(-1)
		l.Pop(1)
	}
	return inst, nil
}

func openSandboxLibraries(l *lua.State) {
	libs := []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
		{Name: "bit32", Function: lua.Bit32Open},
	}
	for _, lib := range libs {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	for _, name := range luaRemovedGlobals {
		l.PushNil()
		l.SetGlobal(name)
	}
}

type luaInstance struct {
	state   *lua.State
	entries map[EntryPoint]bool

	exec         *Execution
	instructions int64
	budgetErr    error
	lastErr      error
}

func (i *luaInstance) install(caps *CapabilityRegistry) {
	l := i.state
	for namespace, members := range caps.Namespaces() {
		l.NewTable()
		for _, member := range members {
			l.PushGoFunction(i.bind(caps, namespace+"."+member))
			l.SetField(-2, member)
		}
		l.SetGlobal(namespace)
	}
	l.PushGoFunction(i.bind(caps, "runtime.log"))
	l.SetGlobal("print")
}

func (i *luaInstance) bind(caps *CapabilityRegistry, name string) lua.Function {
	return func(l *lua.State) int {
		args := make([]any, l.Top())
		var err error
		for index := range args {
			if args[index], err = luaToGo(l, index+1, 0); err != nil {
				err = capabilityError("%s: argument %d: %v", name, index+1, err)
				break
			}
		}
		var result any
		if err == nil {
			result, err = caps.Call(name, args...)
		}
		if err != nil {
			i.lastErr = err
			lua.Errorf(l, "%s", err.Error())
			return 0
		}
		pushGo(l, result)
		return 1
	}
}

func (i *luaInstance) hook(l *lua.State, _ lua.Debug) {
	if i.exec == nil {
		return
	}
	i.instructions += luaHookInterval
	err := i.exec.Err()
	if err == nil {
		err = i.exec.CheckInstructions(i.instructions)
	}
	if err != nil {
		i.budgetErr = err
		lua.Errorf(l, "%s", err.Error())
	}
}

func (i *luaInstance) Has(entry EntryPoint) bool {
	return i.entries[entry]
}

func (i *luaInstance) Call(exec *Execution, entry EntryPoint) error {
	if !i.entries[entry] {
		return nil
	}
	i.state.Global(string(entry))
	return i.run(exec, 0)
}

// run calls the function on top of the stack with nargs arguments.
func (i *luaInstance) run(exec *Execution, nargs int) error {
	if err := exec.Err(); err != nil {
		i.state.SetTop(0)
		return err
	}
	i.exec = exec
	i.instructions = 0
	i.budgetErr = nil
	i.lastErr = nil
	defer func() {
		i.exec = nil
		i.state.SetTop(0)
	}()
	err := i.state.ProtectedCall(nargs, 0, 0)
	if err == nil {
		return nil
	}
	if i.budgetErr != nil {
		return i.budgetErr
	}
	if i.lastErr != nil && strings.Contains(err.Error(), i.lastErr.Error()) {
		return i.lastErr
	}
	return err
}

func (i *luaInstance) Close() error {
	i.entries = nil
	i.exec = nil
	return nil
}

// maxTableDepth bounds how deeply nested a table argument may be. Cyclic
// tables hit it.
const maxTableDepth = 32

func luaToGo(l *lua.State, index, depth int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value, nil
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value), nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeTable:
		if depth >= maxTableDepth {
			return nil, fmt.Errorf("table nested deeper than %d levels", maxTableDepth)
		}
		return tableToGo(l, index, depth+1)
	default:
		return nil, nil
	}
}

func tableToMap(l *lua.State, index, depth int) (map[string]any, error) {
	output := map[string]any{}
	index = l.AbsIndex(index)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			value, err := luaToGo(l, -1, depth)
			if err != nil {
				l.Pop(2)
				return nil, err
			}
			output[key] = value
		}
		l.Pop(1)
	}
	return output, nil
}

// tableToGo converts sequences to []any and everything else to a map.
func tableToGo(l *lua.State, index, depth int) (any, error) {
	index = l.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	l.PushNil()
	for l.Next(index) {
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := l.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			l.RawGetInt(index, i)
			value, err := luaToGo(l, -1, depth)
			l.Pop(1)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
		return result, nil
	}
	return tableToMap(l, index, depth)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && value >= math.MinInt64 && value < math.MaxInt64 {
		return int64(value)
	}
	return value
}

func pushGo(l *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case string:
		l.PushString(v)
	case int64:
		l.PushNumber(float64(v))
	case uint64:
		l.PushNumber(float64(v))
	case int:
		l.PushInteger(v)
	case float64:
		l.PushNumber(v)
	case []any:
		l.CreateTable(len(v), 0)
		for index, item := range v {
			pushGo(l, item)
			l.RawSetInt(-2, index+1)
		}
	case map[string]any:
		l.CreateTable(0, len(v))
		for key, item := range v {
			pushGo(l, item)
			l.SetField(-2, key)
		}
	default:
		l.PushString(fmt.Sprint(v))
	}
}

package autosplit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

const jsMaxCallStackSize = 1024

type jsEngine struct{}

// NewJSEngine returns the goja engine for ".js" modules. Modules define
// on_init, on_update and on_exit as global functions and reach the host
// through the timer, settings, process and runtime objects. Only the
// timeout part of a Budget applies.
func NewJSEngine() Engine {
	return jsEngine{}
}

func (jsEngine) Name() string {
	return "goja"
}

func (e jsEngine) Load(exec *Execution, req LoadRequest) (Instance, error) {
	program, err := e.loadOrCompile(req)
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	vm.SetMaxCallStackSize(jsMaxCallStackSize)
	inst := &jsInstance{vm: vm, entries: map[EntryPoint]goja.Callable{}}
	if err := inst.install(req.Capabilities); err != nil {
		return nil, err
	}
	if err := inst.run(exec, func() error {
		_, err := vm.RunProgram(program)
		return err
	}); err != nil {
		return nil, err
	}
	for _, entry := range []EntryPoint{EntryInit, EntryUpdate, EntryExit} {
		if fn, ok := goja.AssertFunction(vm.Get(string(entry))); ok {
			inst.entries[entry] = fn
		}
	}
	return inst, nil
}

func (jsEngine) loadOrCompile(req LoadRequest) (*goja.Program, error) {
	key := cacheKey("js", req.Source)
	if req.Cache != nil {
		if cached, ok := req.Cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile(req.Source.Name(), string(req.Source.Code), false)
	if err != nil {
		return nil, err
	}
	if req.Cache != nil {
		req.Cache.Set(key, program)
	}
	return program, nil
}

type jsInstance struct {
	vm      *goja.Runtime
	entries map[EntryPoint]goja.Callable
	// lastErr is the most recent capability failure; a thrown GoError only
	// carries its message.
	lastErr error
}

func (i *jsInstance) install(caps *CapabilityRegistry) error {
	for namespace, members := range caps.Namespaces() {
		obj := i.vm.NewObject()
		for _, member := range members {
			name := namespace + "." + member
			if err := obj.Set(member, i.bind(caps, name)); err != nil {
				return err
			}
		}
		if err := i.vm.Set(namespace, obj); err != nil {
			return err
		}
	}
	return nil
}

func (i *jsInstance) bind(caps *CapabilityRegistry, name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for index, arg := range call.Arguments {
			args[index] = arg.Export()
		}
		result, err := caps.Call(name, args...)
		if err != nil {
			i.lastErr = err
			panic(i.vm.NewGoError(err))
		}
		return i.vm.ToValue(result)
	}
}

func (i *jsInstance) Has(entry EntryPoint) bool {
	_, ok := i.entries[entry]
	return ok
}

func (i *jsInstance) Call(exec *Execution, entry EntryPoint) error {
	fn, ok := i.entries[entry]
	if !ok {
		return nil
	}
	return i.run(exec, func() error {
		_, err := fn(goja.Undefined())
		return err
	})
}

// run executes fn with the vm interrupted as soon as exec is done.
func (i *jsInstance) run(exec *Execution, fn func() error) error {
	if err := exec.Err(); err != nil {
		return err
	}
	i.lastErr = nil
	fired := make(chan struct{})
	stop := context.AfterFunc(exec.Context(), func() {
		defer close(fired)
		i.vm.Interrupt(exec.Err())
	})
	defer func() {
		if !stop() {
			<-fired
		}
		i.vm.ClearInterrupt()
	}()
	return i.convert(fn())
}

func (i *jsInstance) convert(err error) error {
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok && cause != nil {
			return cause
		}
		return fmt.Errorf("%w: interrupted", ErrBudgetExceeded)
	}
	var exception *goja.Exception
	if errors.As(err, &exception) && i.lastErr != nil && strings.Contains(exception.Error(), i.lastErr.Error()) {
		return i.lastErr
	}
	return err
}

func (i *jsInstance) Close() error {
	i.vm.ClearInterrupt()
	i.entries = nil
	return nil
}

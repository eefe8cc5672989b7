// Package replay feeds recorded or synthetic memory traces to a Runtime. A
// Replay implements autosplit.ProcessProvider over a sparse memory image that
// changes one frame per Advance.
package replay

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	autosplit "github.com/goliatone/go-autosplit"
)

// Trace is the YAML form of a replay.
type Trace struct {
	// Process is the name modules attach to.
	Process string `yaml:"process"`
	// Modules maps loaded module names to their base addresses.
	Modules map[string]uint64 `yaml:"modules"`
	Frames  []Frame           `yaml:"frames"`
}

// Frame applies its writes once and then holds for Repeat steps (at least
// one).
type Frame struct {
	Repeat int     `yaml:"repeat"`
	Write  []Write `yaml:"write"`
	// Exit closes the process when the frame is reached.
	Exit bool `yaml:"exit"`
}

// Write stores Value at Address encoded as Type.
type Write struct {
	Address uint64 `yaml:"address"`
	Type    string `yaml:"type"`
	Value   any    `yaml:"value"`
}

// Load reads and parses a trace file.
func Load(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML trace.
func Parse(data []byte) (*Replay, error) {
	var trace Trace
	if err := yaml.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("replay: parse trace: %w", err)
	}
	return New(trace)
}

type step struct {
	frame  int
	writes []encodedWrite
	exit   bool
}

type encodedWrite struct {
	address uint64
	bytes   []byte
}

// Replay is a scripted target process.
type Replay struct {
	mu       sync.Mutex
	process  string
	modules  map[string]uint64
	steps    []step
	position int
	memory   map[uint64]byte
	exited   bool
	attached int
}

// New validates trace and expands it into per-step writes.
func New(trace Trace) (*Replay, error) {
	if trace.Process == "" {
		return nil, errors.New("replay: trace has no process name")
	}
	r := &Replay{
		process: trace.Process,
		modules: trace.Modules,
		memory:  map[uint64]byte{},
	}
	var errs []error
	for index, frame := range trace.Frames {
		writes := make([]encodedWrite, 0, len(frame.Write))
		for _, write := range frame.Write {
			encoded, err := encode(write)
			if err != nil {
				errs = append(errs, fmt.Errorf("replay: frame %d: %w", index+1, err))
				continue
			}
			writes = append(writes, encoded)
		}
		repeat := max(frame.Repeat, 1)
		r.steps = append(r.steps, step{frame: index, writes: writes, exit: frame.Exit})
		for i := 1; i < repeat; i++ {
			r.steps = append(r.steps, step{frame: index})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func encode(write Write) (encodedWrite, error) {
	memoryType, err := autosplit.ParseMemoryType(write.Type)
	if err != nil {
		return encodedWrite{}, err
	}
	bytes, err := memoryType.Encode(write.Value)
	if err != nil {
		return encodedWrite{}, fmt.Errorf("address %#x: %w", write.Address, err)
	}
	return encodedWrite{address: write.Address, bytes: bytes}, nil
}

// Advance applies the next step. It reports false once the trace is
// exhausted; memory then keeps its last state.
func (r *Replay) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.position >= len(r.steps) {
		return false
	}
	current := r.steps[r.position]
	for _, write := range current.writes {
		r.store(write.address, write.bytes)
	}
	if current.exit {
		r.exited = true
	}
	r.position++
	return true
}

// Len returns the number of steps in the trace.
func (r *Replay) Len() int {
	return len(r.steps)
}

// Position returns how many steps were applied.
func (r *Replay) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Frame returns the trace frame the last applied step belongs to, or -1.
func (r *Replay) Frame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.position == 0 {
		return -1
	}
	return r.steps[r.position-1].frame
}

// Attachments returns how many processes are currently attached.
func (r *Replay) Attachments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Poke writes value directly, outside the frame sequence.
func (r *Replay) Poke(address uint64, memoryType autosplit.MemoryType, value any) error {
	bytes, err := memoryType.Encode(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(address, bytes)
	return nil
}

func (r *Replay) store(address uint64, bytes []byte) {
	for offset, b := range bytes {
		r.memory[address+uint64(offset)] = b
	}
}

// Attach implements autosplit.ProcessProvider.
func (r *Replay) Attach(name string) (autosplit.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name != r.process || r.exited {
		return nil, autosplit.ErrProcessNotFound
	}
	r.attached++
	return &process{replay: r}, nil
}

type process struct {
	replay *Replay
	closed bool
}

// Read fills buf; unwritten memory reads as zero.
func (p *process) Read(address uint64, buf []byte) error {
	r := p.replay
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.closed || r.exited {
		return errors.New("replay: process is not running")
	}
	for offset := range buf {
		buf[offset] = r.memory[address+uint64(offset)]
	}
	return nil
}

func (p *process) ModuleAddress(name string) (uint64, error) {
	r := p.replay
	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.modules[name]
	if !ok {
		return 0, fmt.Errorf("replay: module %q not loaded", name)
	}
	return base, nil
}

func (p *process) IsOpen() bool {
	r := p.replay
	r.mu.Lock()
	defer r.mu.Unlock()
	return !p.closed && !r.exited
}

func (p *process) Close() error {
	r := p.replay
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	r.attached--
	return nil
}

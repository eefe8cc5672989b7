package autosplit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingTimer is a TimerControl that records every call.
type recordingTimer struct {
	mu       sync.Mutex
	state    TimerState
	events   []string
	logs     []string
	vars     map[string]string
	gameTime time.Duration
	err      error
	onSplit  func()
	onStart  func()
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{vars: map[string]string{}}
}

func (t *recordingTimer) record(event string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
	return t.err
}

func (t *recordingTimer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *recordingTimer) setState(state TimerState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

func (t *recordingTimer) Start() error {
	if t.onStart != nil {
		t.onStart()
	}
	return t.record("start")
}

func (t *recordingTimer) Split() error {
	if t.onSplit != nil {
		t.onSplit()
	}
	return t.record("split")
}

func (t *recordingTimer) SkipSplit() error { return t.record("skip_split") }
func (t *recordingTimer) UndoSplit() error { return t.record("undo_split") }
func (t *recordingTimer) Reset() error     { return t.record("reset") }

func (t *recordingTimer) SetGameTime(d time.Duration) error {
	t.mu.Lock()
	t.gameTime = d
	t.mu.Unlock()
	return t.record("set_game_time " + d.String())
}

func (t *recordingTimer) PauseGameTime() error  { return t.record("pause_game_time") }
func (t *recordingTimer) ResumeGameTime() error { return t.record("resume_game_time") }

func (t *recordingTimer) Log(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, message)
	return nil
}

func (t *recordingTimer) SetVariable(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vars[key] = value
	return nil
}

func (t *recordingTimer) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

func (t *recordingTimer) Logs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.logs...)
}

func (t *recordingTimer) count(event string) int {
	n := 0
	for _, e := range t.Events() {
		if e == event {
			n++
		}
	}
	return n
}

// fakeProcess is an in-memory Process.
type fakeProcess struct {
	mu      sync.Mutex
	memory  map[uint64]byte
	modules map[string]uint64
	open    bool
	closed  int
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{memory: map[uint64]byte{}, modules: map[string]uint64{}, open: true}
}

func (p *fakeProcess) putU32(address uint64, value uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	for i, b := range buf {
		p.memory[address+uint64(i)] = b
	}
}

func (p *fakeProcess) setOpen(open bool) {
	p.mu.Lock()
	p.open = open
	p.mu.Unlock()
}

func (p *fakeProcess) Read(address uint64, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return errors.New("process exited")
	}
	for i := range buf {
		buf[i] = p.memory[address+uint64(i)]
	}
	return nil
}

func (p *fakeProcess) ModuleAddress(name string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	base, ok := p.modules[name]
	if !ok {
		return 0, fmt.Errorf("module %q not loaded", name)
	}
	return base, nil
}

func (p *fakeProcess) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *fakeProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// fakeProvider hands out one process under one name.
type fakeProvider struct {
	name     string
	process  *fakeProcess
	attaches int
	err      error
}

func (p *fakeProvider) Attach(name string) (Process, error) {
	if p.err != nil {
		return nil, p.err
	}
	if name != p.name || p.process == nil || !p.process.IsOpen() {
		return nil, ErrProcessNotFound
	}
	p.attaches++
	return p.process, nil
}

func writeModule(t *testing.T, name, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(code)+"\n"), 0o600); err != nil {
		t.Fatalf("write module: %v", err)
	}
	return path
}

func newTestRuntime(t *testing.T, name, code string, opts ...Option) (*Runtime, *recordingTimer, *SettingsStore) {
	t.Helper()
	timer := newRecordingTimer()
	settings := NewSettingsStore()
	rt, err := New(writeModule(t, name, code), settings, timer, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt, timer, settings
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

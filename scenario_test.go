package autosplit_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	autosplit "github.com/goliatone/go-autosplit"
	"github.com/goliatone/go-autosplit/internal/mocks"
	"github.com/goliatone/go-autosplit/pkg/replay"
)

// countingTimer is a minimal host timer: start moves to running and every
// start and split is stamped with the step the test is driving.
type countingTimer struct {
	state      autosplit.TimerState
	step       int
	startSteps []int
	splitSteps []int
	logs       []string
}

func (c *countingTimer) State() autosplit.TimerState { return c.state }
func (c *countingTimer) Start() error {
	if c.state == autosplit.TimerNotRunning {
		c.state = autosplit.TimerRunning
		c.startSteps = append(c.startSteps, c.step)
	}
	return nil
}
func (c *countingTimer) Split() error { c.splitSteps = append(c.splitSteps, c.step); return nil }
func (c *countingTimer) SkipSplit() error { return nil }
func (c *countingTimer) UndoSplit() error { return nil }
func (c *countingTimer) Reset() error { c.state = autosplit.TimerNotRunning; return nil }
func (c *countingTimer) SetGameTime(time.Duration) error { return nil }
func (c *countingTimer) PauseGameTime() error { return nil }
func (c *countingTimer) ResumeGameTime() error { return nil }
func (c *countingTimer) Log(message string) error { c.logs = append(c.logs, message); return nil }

// thresholdTrace holds a u32 at 0x10 that rises through 500 three times
// (steps 101, 501 and 801) and falls back below it twice, over 1000 steps.
const thresholdTrace = `
process: game.exe
frames:
  - {repeat: 100, write: [{address: 0x10, type: u32, value: 100}]}
  - {repeat: 200, write: [{address: 0x10, type: u32, value: 600}]}
  - {repeat: 200, write: [{address: 0x10, type: u32, value: 200}]}
  - {repeat: 200, write: [{address: 0x10, type: u32, value: 600}]}
  - {repeat: 100, write: [{address: 0x10, type: u32, value: 200}]}
  - {repeat: 200, write: [{address: 0x10, type: u32, value: 700}]}
`

var scenarioModules = map[string]string{
	"threshold.js": `
var h = null;
var old = null;
function on_update() {
  if (h === null) {
    h = process.attach("game.exe");
    if (h === null) return;
  }
  var value = process.read_u32(h, 0x10);
  if (value === null) return;
  if (timer.state() === 0) {
    if (value > 0) timer.start();
  } else if (old !== null && old < 500 && value >= 500) {
    timer.split();
  }
  old = value;
}
`,
	"threshold.lua": `
local h = nil
local old = nil
function on_update()
  if h == nil then
    h = process.attach("game.exe")
    if h == nil then return end
  end
  local value = process.read_u32(h, 0x10)
  if value == nil then return end
  if timer.state() == 0 then
    if value > 0 then timer.start() end
  elseif old ~= nil and old < 500 and value >= 500 then
    timer.split()
  end
  old = value
end
`,
	"threshold.yaml": `
name: Threshold
process: game.exe
watchers:
  - {name: value, address: 0x10, type: u32}
start: "value.current > 0"
split: "value.old < 500 && value.current >= 500"
`,
}

func writeScenario(t *testing.T, name, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		t.Fatalf("write module: %v", err)
	}
	return path
}

func TestReplayScenarioAcrossEngines(t *testing.T) {
	for name, code := range scenarioModules {
		t.Run(name, func(t *testing.T) {
			game, err := replay.Parse([]byte(thresholdTrace))
			if err != nil {
				t.Fatalf("replay: %v", err)
			}
			if game.Len() != 1000 {
				t.Fatalf("expected a 1000 step trace, got %d", game.Len())
			}
			timer := &countingTimer{}
			rt, err := autosplit.New(writeScenario(t, name, code), autosplit.NewSettingsStore(), timer,
				autosplit.WithProcessProvider(game))
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			defer rt.Close()

			for game.Advance() {
				timer.step = game.Position()
				if !rt.Step() {
					t.Fatalf("step %d faulted: %v", timer.step, rt.LastFault())
				}
			}
			if !slices.Equal(timer.startSteps, []int{1}) {
				t.Fatalf("expected one start at step 1, got %v", timer.startSteps)
			}
			if !slices.Equal(timer.splitSteps, []int{101, 501, 801}) {
				t.Fatalf("expected splits at steps 101, 501 and 801, got %v", timer.splitSteps)
			}
			if timer.state != autosplit.TimerRunning {
				t.Fatalf("expected running, got %s", timer.state)
			}
			if rt.Steps() != 1000 || rt.TickRate() != autosplit.DefaultTickRate {
				t.Fatalf("unexpected steps %d or tick rate %d", rt.Steps(), rt.TickRate())
			}
			if err := rt.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if game.Attachments() != 0 {
				t.Fatalf("expected processes released, got %d", game.Attachments())
			}
		})
	}
}

func TestRuntimeDrivesMockedHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	timer := mocks.NewMockTimerControl(ctrl)
	provider := mocks.NewMockProcessProvider(ctrl)
	process := mocks.NewMockProcess(ctrl)

	provider.EXPECT().Attach("game.exe").Return(process, nil).Times(1)
	process.EXPECT().Read(uint64(0x20), gomock.Len(1)).DoAndReturn(func(_ uint64, buf []byte) error {
		buf[0] = 7
		return nil
	}).Times(2)
	process.EXPECT().IsOpen().Return(true).AnyTimes()
	process.EXPECT().Close().Return(nil).Times(1)

	gomock.InOrder(
		timer.EXPECT().State().Return(autosplit.TimerNotRunning),
		timer.EXPECT().Start().Return(nil),
		timer.EXPECT().State().Return(autosplit.TimerRunning),
		timer.EXPECT().Split().Return(nil),
	)

	path := writeScenario(t, "mocked.js", `
var h = null;
function on_update() {
  if (h === null) h = process.attach("game.exe");
  var v = process.read_u8(h, 0x20);
  if (timer.state() === 0) {
    timer.start();
    return;
  }
  if (v === 7) timer.split();
}
function on_exit() {
  process.detach(h);
}
`)
	rt, err := autosplit.New(path, autosplit.NewSettingsStore(), timer, autosplit.WithProcessProvider(provider))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for range 2 {
		if !rt.Step() {
			t.Fatalf("step faulted: %v", rt.LastFault())
		}
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

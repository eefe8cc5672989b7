package autosplit

//go:generate mockgen -source=process.go -destination=internal/mocks/process_mock.go -package=mocks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrProcessNotFound is returned by a ProcessProvider when no process with
// the requested name is running.
var ErrProcessNotFound = errors.New("autosplit: process not found")

// ProcessProvider attaches to target processes on behalf of a module. The
// host implements it; the runtime never touches the OS directly.
type ProcessProvider interface {
	Attach(name string) (Process, error)
}

// Process is a read-only view of an attached target process.
type Process interface {
	// Read fills buf from the target's address space starting at address.
	Read(address uint64, buf []byte) error
	// ModuleAddress returns the base address of a loaded module.
	ModuleAddress(name string) (uint64, error)
	IsOpen() bool
	Close() error
}

// MemoryType is a fixed-size little-endian value a module may read.
type MemoryType string

const (
	MemoryU8  MemoryType = "u8"
	MemoryU16 MemoryType = "u16"
	MemoryU32 MemoryType = "u32"
	MemoryU64 MemoryType = "u64"
	MemoryI8  MemoryType = "i8"
	MemoryI16 MemoryType = "i16"
	MemoryI32 MemoryType = "i32"
	MemoryI64 MemoryType = "i64"
	MemoryF32 MemoryType = "f32"
	MemoryF64 MemoryType = "f64"
)

// MemoryTypes lists every supported type in capability order.
var MemoryTypes = []MemoryType{
	MemoryU8, MemoryU16, MemoryU32, MemoryU64,
	MemoryI8, MemoryI16, MemoryI32, MemoryI64,
	MemoryF32, MemoryF64,
}

// ParseMemoryType validates name.
func ParseMemoryType(name string) (MemoryType, error) {
	t := MemoryType(strings.ToLower(strings.TrimSpace(name)))
	if t.Size() == 0 {
		return "", fmt.Errorf("autosplit: unknown memory type %q", name)
	}
	return t, nil
}

// Size returns the width in bytes, or 0 for an unknown type.
func (t MemoryType) Size() int {
	switch t {
	case MemoryU8, MemoryI8:
		return 1
	case MemoryU16, MemoryI16:
		return 2
	case MemoryU32, MemoryI32, MemoryF32:
		return 4
	case MemoryU64, MemoryI64, MemoryF64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether t decodes to float64.
func (t MemoryType) IsFloat() bool {
	return t == MemoryF32 || t == MemoryF64
}

// Decode interprets buf as t. Integers decode to int64 (unsigned 64-bit
// values above math.MaxInt64 decode to uint64) and floats to float64.
func (t MemoryType) Decode(buf []byte) (any, error) {
	if len(buf) < t.Size() || t.Size() == 0 {
		return nil, fmt.Errorf("autosplit: cannot decode %d bytes as %q", len(buf), t)
	}
	le := binary.LittleEndian
	switch t {
	case MemoryU8:
		return int64(buf[0]), nil
	case MemoryU16:
		return int64(le.Uint16(buf)), nil
	case MemoryU32:
		return int64(le.Uint32(buf)), nil
	case MemoryU64:
		v := le.Uint64(buf)
		if v > math.MaxInt64 {
			return v, nil
		}
		return int64(v), nil
	case MemoryI8:
		return int64(int8(buf[0])), nil
	case MemoryI16:
		return int64(int16(le.Uint16(buf))), nil
	case MemoryI32:
		return int64(int32(le.Uint32(buf))), nil
	case MemoryI64:
		return int64(le.Uint64(buf)), nil
	case MemoryF32:
		return float64(math.Float32frombits(le.Uint32(buf))), nil
	default:
		return math.Float64frombits(le.Uint64(buf)), nil
	}
}

// Encode is the inverse of Decode. value may be any Go integer or float.
func (t MemoryType) Encode(value any) ([]byte, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("autosplit: unknown memory type %q", t)
	}
	buf := make([]byte, 8)
	le := binary.LittleEndian
	if t.IsFloat() {
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		if t == MemoryF32 {
			le.PutUint32(buf, math.Float32bits(float32(f)))
		} else {
			le.PutUint64(buf, math.Float64bits(f))
		}
		return buf[:size], nil
	}
	i, err := toInt(value)
	if err != nil {
		return nil, err
	}
	le.PutUint64(buf, uint64(i))
	return buf[:size], nil
}

// ProcessHandle is an arena handle for an attached process. The zero handle
// is never valid.
type ProcessHandle int64

type processSlot struct {
	process    Process
	name       string
	generation uint32
	live       bool
}

// processTable owns every process a module attached to. Handles carry a
// generation so a detached handle never aliases a later attachment.
type processTable struct {
	slots []processSlot
	free  []int
}

func (t *processTable) insert(process Process, name string) ProcessHandle {
	var index int
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, processSlot{})
		index = len(t.slots) - 1
	}
	slot := &t.slots[index]
	slot.generation++
	slot.process = process
	slot.name = name
	slot.live = true
	return ProcessHandle(int64(slot.generation)<<32 | int64(index+1))
}

func (t *processTable) lookup(handle ProcessHandle) (*processSlot, int, bool) {
	index := int(int64(handle)&0xffffffff) - 1
	generation := uint32(int64(handle) >> 32)
	if index < 0 || index >= len(t.slots) {
		return nil, 0, false
	}
	slot := &t.slots[index]
	if !slot.live || slot.generation != generation {
		return nil, 0, false
	}
	return slot, index, true
}

func (t *processTable) get(handle ProcessHandle) (Process, bool) {
	slot, _, ok := t.lookup(handle)
	if !ok {
		return nil, false
	}
	return slot.process, true
}

func (t *processTable) remove(handle ProcessHandle) (Process, bool) {
	slot, index, ok := t.lookup(handle)
	if !ok {
		return nil, false
	}
	process := slot.process
	slot.process = nil
	slot.name = ""
	slot.live = false
	t.free = append(t.free, index)
	return process, true
}

func (t *processTable) len() int {
	return len(t.slots) - len(t.free)
}

// closeAll detaches every live process.
func (t *processTable) closeAll() error {
	var errs []error
	for index := range t.slots {
		slot := &t.slots[index]
		if !slot.live {
			continue
		}
		if err := slot.process.Close(); err != nil {
			errs = append(errs, fmt.Errorf("autosplit: detach %q: %w", slot.name, err))
		}
		slot.process = nil
		slot.live = false
		t.free = append(t.free, index)
	}
	return errors.Join(errs...)
}

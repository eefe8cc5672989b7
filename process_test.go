package autosplit

import (
	"errors"
	"math"
	"testing"
)

func TestMemoryTypeRoundTrip(t *testing.T) {
	cases := []struct {
		memoryType MemoryType
		in         any
		want       any
	}{
		{MemoryU8, 255, int64(255)},
		{MemoryI8, -1, int64(-1)},
		{MemoryU16, 0xbeef, int64(0xbeef)},
		{MemoryI16, -2, int64(-2)},
		{MemoryU32, uint32(math.MaxUint32), int64(math.MaxUint32)},
		{MemoryI32, int32(math.MinInt32), int64(math.MinInt32)},
		{MemoryU64, uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{MemoryI64, int64(math.MinInt64), int64(math.MinInt64)},
		{MemoryF32, 1.5, 1.5},
		{MemoryF64, -0.25, -0.25},
	}
	for _, tc := range cases {
		buf, err := tc.memoryType.Encode(tc.in)
		if err != nil {
			t.Fatalf("%s encode: %v", tc.memoryType, err)
		}
		if len(buf) != tc.memoryType.Size() {
			t.Fatalf("%s: expected %d bytes, got %d", tc.memoryType, tc.memoryType.Size(), len(buf))
		}
		got, err := tc.memoryType.Decode(buf)
		if err != nil {
			t.Fatalf("%s decode: %v", tc.memoryType, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %#v, got %#v", tc.memoryType, tc.want, got)
		}
	}
}

func TestMemoryTypeErrors(t *testing.T) {
	if _, err := ParseMemoryType("u128"); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if got, err := ParseMemoryType(" F32 "); err != nil || got != MemoryF32 {
		t.Fatalf("expected f32, got %q (%v)", got, err)
	}
	if _, err := MemoryU32.Decode([]byte{1, 2}); err == nil {
		t.Fatalf("expected short buffer error")
	}
	if _, err := MemoryU8.Encode("seven"); err == nil {
		t.Fatalf("expected encode error")
	}
	if _, err := MemoryType("bogus").Encode(1); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if len(MemoryTypes) != 10 {
		t.Fatalf("expected 10 memory types, got %d", len(MemoryTypes))
	}
}

func TestProcessTableHandles(t *testing.T) {
	var table processTable
	first := newFakeProcess()
	second := newFakeProcess()

	h1 := table.insert(first, "first")
	h2 := table.insert(second, "second")
	if h1 == 0 || h2 == 0 || h1 == h2 {
		t.Fatalf("unexpected handles %d %d", h1, h2)
	}
	if got, ok := table.get(h1); !ok || got != first {
		t.Fatalf("lookup of h1 failed")
	}

	if _, ok := table.remove(h1); !ok {
		t.Fatalf("remove failed")
	}
	if _, ok := table.get(h1); ok {
		t.Fatalf("removed handle must not resolve")
	}
	if _, ok := table.remove(h1); ok {
		t.Fatalf("double remove must fail")
	}

	h3 := table.insert(first, "again")
	if h3 == h1 {
		t.Fatalf("reused slot must get a new generation")
	}
	if _, ok := table.get(h1); ok {
		t.Fatalf("stale handle aliases a new attachment")
	}
	if table.len() != 2 {
		t.Fatalf("expected 2 live processes, got %d", table.len())
	}
	for _, bogus := range []ProcessHandle{0, -1, 1 << 40} {
		if _, ok := table.get(bogus); ok {
			t.Fatalf("handle %d must not resolve", bogus)
		}
	}
}

type failingProcess struct {
	*fakeProcess
}

func (p *failingProcess) Close() error {
	return errors.New("close failed")
}

func TestProcessTableCloseAll(t *testing.T) {
	var table processTable
	ok := newFakeProcess()
	bad := &failingProcess{fakeProcess: newFakeProcess()}
	table.insert(ok, "ok")
	table.insert(bad, "bad")

	err := table.closeAll()
	if err == nil {
		t.Fatalf("expected close error")
	}
	if ok.closed != 1 {
		t.Fatalf("expected ok process closed once, got %d", ok.closed)
	}
	if table.len() != 0 {
		t.Fatalf("expected empty table, got %d", table.len())
	}
	if err := table.closeAll(); err != nil {
		t.Fatalf("second closeAll: %v", err)
	}
}

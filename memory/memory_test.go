package memory

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/wippyai/cstruct/errors"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

var outOfBounds = &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}

func TestBuffer_ReadWrite(t *testing.T) {
	buf := NewBuffer(8)
	if buf.Size() != 8 {
		t.Fatalf("size: got %d, want 8", buf.Size())
	}
	if err := buf.Write(2, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := buf.Read(0, 6)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if want := []byte{0, 0, 1, 2, 3, 0}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := buf.Read(6, 3); !stderrors.Is(err, outOfBounds) {
		t.Errorf("read past end: got %v", err)
	}
	if err := buf.Write(7, []byte{1, 2}); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOutOfBounds}) {
		t.Errorf("write past end: got %v", err)
	}
	if _, err := buf.Read(0xffffffff, 2); err == nil {
		t.Error("offset overflow: expected error")
	}
}

func TestBuffer_Resize(t *testing.T) {
	buf := NewBuffer(4)
	_ = buf.Write(0, []byte{9, 8, 7, 6})

	if err := buf.Resize(2); err != nil {
		t.Fatal(err)
	}
	if err := buf.Resize(6); err != nil {
		t.Fatal(err)
	}
	if want := []byte{9, 8, 0, 0, 0, 0}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
	if err := buf.Resize(64); err != nil {
		t.Fatal(err)
	}
	if buf.Size() != 64 || buf.Bytes()[0] != 9 {
		t.Errorf("grow lost data: size %d first %d", buf.Size(), buf.Bytes()[0])
	}
}

func TestView(t *testing.T) {
	raw := make([]byte, 4)
	v := Wrap(raw)
	if err := v.Write(1, []byte{0xaa}); err != nil {
		t.Fatal(err)
	}
	if raw[1] != 0xaa {
		t.Errorf("write not visible in caller slice: %v", raw)
	}
	if _, ok := any(v).(Resizer); ok {
		t.Error("view must not be resizable")
	}
	if err := v.Write(3, []byte{1, 2}); err == nil {
		t.Error("expected out of bounds")
	}
}

func TestArena(t *testing.T) {
	buf := NewBuffer(16)
	a := NewArena(buf, 1)

	p1, err := a.Alloc(3, 1)
	if err != nil || p1 != 1 {
		t.Fatalf("first alloc: got %d, %v", p1, err)
	}
	p2, err := a.Alloc(8, 4)
	if err != nil || p2 != 4 {
		t.Fatalf("aligned alloc: got %d, %v", p2, err)
	}
	a.Free(p2, 8, 4)
	if a.Used() != 3 {
		t.Errorf("used after free: got %d, want 3", a.Used())
	}

	// growing past the end resizes the buffer
	p3, err := a.Alloc(32, 8)
	if err != nil || p3 != 8 {
		t.Fatalf("grow alloc: got %d, %v", p3, err)
	}
	if buf.Size() != 40 {
		t.Errorf("buffer size: got %d, want 40", buf.Size())
	}

	fixed := NewArena(Wrap(make([]byte, 4)), 0)
	if _, err := fixed.Alloc(8, 1); err == nil {
		t.Error("expected arena exhaustion on fixed view")
	}
}

func TestWrapWazero_Nil(t *testing.T) {
	if WrapWazero(nil) != nil {
		t.Error("expected nil for nil memory")
	}
}

func TestWrapAllocator_Nil(t *testing.T) {
	if WrapAllocator(context.Background(), nil) != nil {
		t.Error("expected nil for nil function")
	}
}

func instantiate(t *testing.T) *Wazero {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	compiled, err := rt.CompileModule(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}

	mem := WrapWazero(mod.ExportedMemory("memory"))
	if mem == nil {
		t.Fatal("expected non-nil wrapped memory")
	}
	return mem
}

func TestWazero_ReadWrite(t *testing.T) {
	mem := instantiate(t)
	if mem.Size() != wasmPageSize {
		t.Fatalf("size: got %d, want %d", mem.Size(), wasmPageSize)
	}

	data := []byte{1, 2, 3, 4}
	if err := mem.Write(100, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	read, err := mem.Read(100, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(read, data) {
		t.Errorf("got %v, want %v", read, data)
	}

	if _, err := mem.Read(wasmPageSize-2, 4); !stderrors.Is(err, outOfBounds) {
		t.Errorf("read past end: got %v", err)
	}
	if err := mem.Write(wasmPageSize, []byte{1}); err == nil {
		t.Error("write past end: expected error")
	}
}

func TestWazero_Resize(t *testing.T) {
	mem := instantiate(t)
	if err := mem.Resize(wasmPageSize + 1); err != nil {
		t.Fatal(err)
	}
	if mem.Size() != 2*wasmPageSize {
		t.Errorf("size: got %d, want %d", mem.Size(), 2*wasmPageSize)
	}
	if err := mem.Resize(10); err != nil {
		t.Errorf("shrink should be a no-op: %v", err)
	}
	if mem.Size() != 2*wasmPageSize {
		t.Errorf("size after shrink: got %d", mem.Size())
	}
}

package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/cstruct/errors"
)

const wasmPageSize = 65536

// WrapWazero adapts a wazero linear memory.
func WrapWazero(mem api.Memory) *Wazero {
	if mem == nil {
		return nil
	}
	return &Wazero{Mem: mem}
}

// WrapAllocator wraps a guest allocation export with the cabi_realloc
// signature (old_ptr, old_size, align, new_size) -> ptr.
func WrapAllocator(ctx context.Context, fn api.Function) *AllocatorWrapper {
	if fn == nil {
		return nil
	}
	return &AllocatorWrapper{Ctx: ctx, Fn: fn}
}

// Wazero adapts wazero api.Memory to Memory. Resize grows by whole pages
// and never shrinks.
type Wazero struct {
	Mem api.Memory
}

func (m *Wazero) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, int(offset), int(length), int(m.Mem.Size()))
	}
	return data, nil
}

func (m *Wazero) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, int(offset), len(data), int(m.Mem.Size()))
	}
	return nil
}

func (m *Wazero) Size() uint32 { return m.Mem.Size() }

func (m *Wazero) Resize(size uint32) error {
	current := m.Mem.Size()
	if size <= current {
		return nil
	}
	pages := (size - current + wasmPageSize - 1) / wasmPageSize
	if _, ok := m.Mem.Grow(pages); !ok {
		return errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
			Value(size).
			Detail("cannot grow linear memory by %d pages", pages).
			Build()
	}
	return nil
}

// AllocatorWrapper adapts a guest cabi_realloc export to Allocator.
type AllocatorWrapper struct {
	Ctx context.Context
	Fn  api.Function
}

func (a *AllocatorWrapper) Alloc(size, align uint32) (uint32, error) {
	results, err := a.Fn.Call(a.Ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return uint32(results[0]), nil
}

func (a *AllocatorWrapper) Free(ptr, size, align uint32) {
	_, _ = a.Fn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align), 0)
}

package memory

import (
	"github.com/wippyai/cstruct/errors"
)

// Memory is a flat byte-addressed region that live instances read and
// write through. Slices returned by Read may alias the region; callers
// copy what they keep.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}

// Resizer is implemented by memories that can change size in place.
type Resizer interface {
	Resize(size uint32) error
}

// Allocator hands out regions of a Memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

func checkRead(offset, length, limit uint32) error {
	if uint64(offset)+uint64(length) > uint64(limit) {
		return errors.OutOfBounds(errors.PhaseDecode, nil, int(offset), int(length), int(limit))
	}
	return nil
}

func checkWrite(offset uint32, length int, limit uint32) error {
	if uint64(offset)+uint64(length) > uint64(limit) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, int(offset), length, int(limit))
	}
	return nil
}

// Buffer is an owned, growable Memory.
type Buffer struct {
	data []byte
}

// NewBuffer allocates a zeroed buffer of size bytes.
func NewBuffer(size uint32) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

func (b *Buffer) Read(offset uint32, length uint32) ([]byte, error) {
	if err := checkRead(offset, length, b.Size()); err != nil {
		return nil, err
	}
	return b.data[offset : offset+length], nil
}

func (b *Buffer) Write(offset uint32, data []byte) error {
	if err := checkWrite(offset, len(data), b.Size()); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	return nil
}

func (b *Buffer) Size() uint32 { return uint32(len(b.data)) }

// Resize grows or shrinks the buffer, keeping the common prefix. Grown
// bytes are zero.
func (b *Buffer) Resize(size uint32) error {
	switch {
	case int(size) <= len(b.data):
		clear(b.data[size:])
		b.data = b.data[:size]
	case int(size) <= cap(b.data):
		b.data = b.data[:size]
	default:
		grown := make([]byte, size)
		copy(grown, b.data)
		b.data = grown
	}
	return nil
}

// Bytes returns the buffer contents without copying.
func (b *Buffer) Bytes() []byte { return b.data }

// View is a Memory over a caller-owned slice. It never resizes.
type View struct {
	data []byte
}

// Wrap returns a View over data. Writes land in data.
func Wrap(data []byte) *View {
	return &View{data: data}
}

func (v *View) Read(offset uint32, length uint32) ([]byte, error) {
	if err := checkRead(offset, length, v.Size()); err != nil {
		return nil, err
	}
	return v.data[offset : offset+length], nil
}

func (v *View) Write(offset uint32, data []byte) error {
	if err := checkWrite(offset, len(data), v.Size()); err != nil {
		return err
	}
	copy(v.data[offset:], data)
	return nil
}

func (v *View) Size() uint32 { return uint32(len(v.data)) }

// Arena is a bump allocator over a region of a Memory. Free only
// reclaims the most recent allocation.
type Arena struct {
	mem   Memory
	start uint32
	next  uint32
}

// NewArena allocates from mem starting at start.
func NewArena(mem Memory, start uint32) *Arena {
	return &Arena{mem: mem, start: start, next: start}
}

func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	ptr := (a.next + align - 1) / align * align
	if uint64(ptr)+uint64(size) > uint64(a.mem.Size()) {
		if r, ok := a.mem.(Resizer); ok {
			if err := r.Resize(ptr + size); err != nil {
				return 0, err
			}
		} else {
			return 0, errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
				Value(size).
				Detail("arena exhausted: %d bytes at %d, memory size %d", size, ptr, a.mem.Size()).
				Build()
		}
	}
	a.next = ptr + size
	return ptr, nil
}

func (a *Arena) Free(ptr, size, align uint32) {
	if ptr+size == a.next && ptr >= a.start {
		a.next = ptr
	}
}

// Used returns the number of bytes handed out, alignment gaps included.
func (a *Arena) Used() uint32 { return a.next - a.start }

package codec

import (
	"bytes"
	"testing"

	"github.com/wippyai/cstruct/ctype"
)

func TestBinaryMarshal(t *testing.T) {
	def := parse(t, nil, `
		struct Frame {
			uint16_t kind;
			int32_t  vals[2];
			char     data[];
		};`, ctype.LittleEndian)

	v := New(def)
	mustSet(t, v, "kind", 7)
	mustSet(t, v, "vals", []int{-1, 2})
	mustSet(t, v, "data", "abc")

	b, err := v.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(b) != 14 || b[0] != 3 {
		t.Fatalf("got % x, want length prefix 3 and 14 bytes", b)
	}

	w := New(def)
	if err := w.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !v.Equal(w) {
		t.Errorf("round trip: got %s, want %s", w, v)
	}
	if w.FlexibleLength() != 3 {
		t.Errorf("flexible length: got %d, want 3", w.FlexibleLength())
	}

	inst := NewInstance(def)
	if err := inst.UnmarshalBinary(b); err != nil {
		t.Fatalf("Instance.UnmarshalBinary: %v", err)
	}
	if inst.Size() != 13 {
		t.Errorf("instance size: got %d, want 13", inst.Size())
	}
	ib, err := inst.MarshalBinary()
	if err != nil {
		t.Fatalf("Instance.MarshalBinary: %v", err)
	}
	if !bytes.Equal(ib, b) {
		t.Errorf("instance bytes: got % x, want % x", ib, b)
	}

	bad := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad prefix", []byte{0xff}},
		{"truncated", b[:len(b)-1]},
		{"trailing", append(append([]byte(nil), b...), 0)},
		{"huge length", []byte{0x80, 0x01, 0, 0}},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if err := w.UnmarshalBinary(tc.data); err == nil {
				t.Error("expected error")
			}
			if w.FlexibleLength() != 3 {
				t.Errorf("flexible length changed to %d", w.FlexibleLength())
			}
			if err := inst.UnmarshalBinary(tc.data); err == nil {
				t.Error("instance: expected error")
			}
			if inst.FlexibleLength() != 3 {
				t.Errorf("instance flexible length changed to %d", inst.FlexibleLength())
			}
		})
	}

	t.Run("fixed layout", func(t *testing.T) {
		fixed := parse(t, nil, `struct Fixed { uint8_t a; uint8_t b; };`, ctype.LittleEndian)
		f := New(fixed)
		mustSet(t, f, "b", 9)
		fb, err := f.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(fb, []byte{0, 0, 9}) {
			t.Errorf("got % x, want 00 00 09", fb)
		}
		if err := New(fixed).UnmarshalBinary([]byte{2, 0, 9, 1, 1}); err == nil {
			t.Error("expected error for a flexible length on a fixed layout")
		}
	})
}

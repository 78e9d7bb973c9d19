package cstruct

import (
	"testing"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl"
	"github.com/wippyai/cstruct/errors"
)

func TestDefine(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"FacadeInt", 42, "42"},
		{"FacadeUint8", uint8(7), "7"},
		{"FacadeFloat", 1.5, "1.5"},
		{"FacadeBool", true, "1"},
		{"FacadeExpr", "FacadeInt * 2", "84"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Define(tt.name, tt.value); err != nil {
				t.Fatalf("Define: %v", err)
			}
			got, err := GetDef(tt.name)
			if err != nil {
				t.Fatalf("GetDef: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if err := Define("FacadeBad", []int{1}); err == nil {
		t.Error("expected error for slice constant")
	}
	if err := Define("FacadeHuge", uint64(1<<63)); err == nil {
		t.Error("expected error for uint64 beyond int64")
	}

	if err := Undef("FacadeInt"); err != nil {
		t.Fatalf("Undef: %v", err)
	}
	if _, err := GetDef("FacadeInt"); err == nil {
		t.Error("expected error after Undef")
	}
}

func TestParseAndNew(t *testing.T) {
	def, err := ParseComposite(`
		#define FACADE_LEN 4
		struct facade_rec {
			uint16_t id;
			char     tag[FACADE_LEN];
		};`, &decl.Config{ByteOrder: ctype.LittleEndian})
	if err != nil {
		t.Fatalf("ParseComposite: %v", err)
	}
	if def.Size() != 6 {
		t.Errorf("size: got %d, want 6", def.Size())
	}

	size, err := Sizeof("struct facade_rec")
	if err != nil {
		t.Fatalf("Sizeof: %v", err)
	}
	if size != 6 {
		t.Errorf("Sizeof: got %d, want 6", size)
	}

	typ, err := GetType("struct facade_rec")
	if err != nil {
		t.Fatalf("GetType: %v", err)
	}
	if typ != def {
		t.Error("GetType returned a different definition")
	}

	v, err := New("facade_rec")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Set("id", 0x0102); err != nil {
		t.Fatalf("Set: %v", err)
	}
	packed, err := v.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if packed[0] != 0x02 || packed[1] != 0x01 {
		t.Errorf("got % x, want 02 01 prefix", packed[:2])
	}

	inst, err := NewInstance("facade_rec")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	if err := inst.Unpack(packed); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	id, err := inst.Get("id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != uint64(0x0102) {
		t.Errorf("got %v, want 258", id)
	}
}

func TestTypedef(t *testing.T) {
	Typedef("unsigned int", "facade_word")
	size, err := Sizeof("facade_word")
	if err != nil {
		t.Fatalf("Sizeof: %v", err)
	}
	if size != 4 {
		t.Errorf("got %d, want 4", size)
	}
}

func TestNotFound(t *testing.T) {
	if _, err := New("facade_missing"); err == nil {
		t.Fatal("expected error")
	}
	_, err := NewInstance("facade_missing")
	phase, ok := errors.PhaseOf(err)
	if !ok || phase != errors.PhaseRegistry {
		t.Errorf("got phase %v, want %v", phase, errors.PhaseRegistry)
	}
	if _, err := Parse("struct {"); err == nil {
		t.Error("expected parse error")
	}
}

func TestEval(t *testing.T) {
	if err := Define("FACADE_BASE", 3); err != nil {
		t.Fatalf("Define: %v", err)
	}
	got, err := Eval("FACADE_BASE << 2 | sizeof(uint16_t)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int64() != 14 {
		t.Errorf("got %d, want 14", got.Int64())
	}
}

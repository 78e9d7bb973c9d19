package registry

import (
	"sync"
	"testing"

	"github.com/wippyai/cstruct/cexpr"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
)

func partition(t *testing.T) *ctype.Composite {
	t.Helper()
	b := ctype.NewBuilder("Partition", false, ctype.LittleEndian)
	for _, name := range []string{"status", "start", "end"} {
		n, _ := ctype.LookupNative("unsigned int", ctype.LittleEndian)
		if _, err := b.Add(ctype.Field{Name: name, CType: n.Name, Native: n, VLen: 1}); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build()
}

func TestDefines(t *testing.T) {
	r := New()
	r.Define("A1", cexpr.Int(10))
	v, err := r.DefineExpr("A2", "10 + A1")
	if err != nil {
		t.Fatalf("DefineExpr: %v", err)
	}
	if v.Int64() != 20 {
		t.Errorf("A2: got %d, want 20", v.Int64())
	}

	got, err := r.GetDef("A2")
	if err != nil || got.Int64() != 20 {
		t.Errorf("GetDef(A2): got %v, %v", got, err)
	}

	if err := r.Undef("A2"); err != nil {
		t.Fatalf("Undef: %v", err)
	}
	if _, err := r.GetDef("A2"); !errors.IsLayoutError(err) {
		t.Errorf("GetDef after Undef: got %v", err)
	}
	if err := r.Undef("A2"); err == nil {
		t.Error("Undef of missing constant should fail")
	}
	if _, err := r.DefineExpr("BAD", "MISSING * 2"); !errors.IsEvalError(err) {
		t.Errorf("DefineExpr with unknown name: got %v", err)
	}

	names := r.Defines()
	if len(names) != 1 || names[0] != "A1" {
		t.Errorf("Defines: got %v", names)
	}
}

func TestResolve(t *testing.T) {
	r := New()
	r.Typedef("unsigned   int", "UINT")
	r.Typedef("UINT", "DWORD")
	r.Typedef("struct Partition", "Partition_t")

	tests := []struct {
		in, want string
	}{
		{"DWORD", "unsigned int"},
		{"UINT", "unsigned int"},
		{"uint16_t", "uint16"},
		{"unsigned short int", "unsigned short"},
		{"long  int", "long"},
		{"Partition_t", "struct Partition"},
		{"double", "double"},
	}
	for _, tc := range tests {
		if got := r.Resolve(tc.in); got != tc.want {
			t.Errorf("Resolve(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetType(t *testing.T) {
	r := New()
	p := partition(t)
	if err := r.RegisterComposite(p); err != nil {
		t.Fatal(err)
	}
	r.Typedef("struct Partition", "P1")

	storage, _ := ctype.SizedInt(4)
	eb := ctype.NewEnumBuilder("htmlfont", storage)
	eb.Add("HTMLFONT_NONE", nil)
	if err := r.RegisterEnum(eb.Build()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		found bool
		size  int
	}{
		{"struct Partition", true, 12},
		{"P1", true, 12},
		{"enum htmlfont", true, 4},
		{"int", true, 4},
		{"uint8_t", true, 1},
		{"char *", true, ctype.Host.PointerSize},
		{"Partition", false, 0},
		{"union Partition", true, 12},
		{"struct X", false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			typ, err := r.GetType(tc.name, ctype.NativeOrder)
			if !tc.found {
				if err == nil {
					t.Fatalf("expected not found, got %v", typ)
				}
				if !errors.IsLayoutError(err) {
					t.Errorf("error phase: got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetType: %v", err)
			}
			if typ.Size() != tc.size {
				t.Errorf("size: got %d, want %d", typ.Size(), tc.size)
			}
		})
	}

	if typ, _ := r.GetType("P1", ctype.NativeOrder); typ != p {
		t.Error("typedef should resolve to the registered composite")
	}
}

func TestSizeof(t *testing.T) {
	r := New()
	if err := r.RegisterComposite(partition(t)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want int
	}{
		{"Partition", 12},
		{"struct Partition", 12},
		{"long", ctype.Host.LongSize},
		{"unsigned long long", 8},
		{"void *", ctype.Host.PointerSize},
	}
	for _, tc := range tests {
		got, err := r.Sizeof(tc.name)
		if err != nil {
			t.Fatalf("Sizeof(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("Sizeof(%q): got %d, want %d", tc.name, got, tc.want)
		}
	}
	if _, err := r.Sizeof("struct Missing"); err == nil {
		t.Error("expected error for unknown type")
	}

	v, err := cexpr.EvalInt("sizeof(struct Partition) * 4", r)
	if err != nil || v != 48 {
		t.Errorf("sizeof expression: got %d, %v", v, err)
	}
}

func TestRegisterUnnamed(t *testing.T) {
	r := New()
	c := ctype.NewBuilder("", false, ctype.NativeOrder).Build()
	if err := r.RegisterComposite(c); err == nil {
		t.Error("expected error registering unnamed composite")
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Serialize(func() error {
				r.Define("N", cexpr.Int(int64(i)))
				_, err := r.GetDef("N")
				return err
			})
			_, _ = r.Sizeof("int")
		}(i)
	}
	wg.Wait()
	if _, err := r.GetDef("N"); err != nil {
		t.Errorf("GetDef: %v", err)
	}
}

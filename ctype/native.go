package ctype

import (
	"runtime"
	"sort"
	"strconv"
)

// Kind is the encoding class of a native scalar.
type Kind uint8

const (
	KindChar Kind = iota // byte string, one byte per element
	KindInt
	KindUint
	KindFloat
	KindPointer
)

var kindNames = [...]string{
	KindChar:    "char",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindPointer: "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ABI holds the platform dependent sizes used in native mode.
type ABI struct {
	PointerSize int
	LongSize    int
}

// Host is the ABI of the running process.
var Host = hostABI()

func hostABI() ABI {
	ptr := strconv.IntSize / 8
	long := ptr
	if runtime.GOOS == "windows" {
		long = 4
	}
	return ABI{PointerSize: ptr, LongSize: long}
}

// Native is a primitive C type resolved for a particular byte order.
type Native struct {
	Name  string
	Kind  Kind
	Width int
}

// Size returns the scalar width in bytes.
func (n Native) Size() int { return n.Width }

// String returns the C name of the type.
func (n Native) String() string { return n.Name }

// Signed reports whether values are sign extended on decode.
func (n Native) Signed() bool { return n.Kind == KindInt }

// Valid reports whether n names a known native type.
func (n Native) Valid() bool { return n.Name != "" }

type nativeSpec struct {
	kind Kind
	size int
	// host overrides size in native mode
	host func(ABI) int
}

func longSize(a ABI) int    { return a.LongSize }
func pointerSize(a ABI) int { return a.PointerSize }

// PointerType is the canonical name pointer members resolve to.
const PointerType = "void *"

var nativeTypes = map[string]nativeSpec{
	"char":               {kind: KindChar, size: 1},
	"signed char":        {kind: KindInt, size: 1},
	"unsigned char":      {kind: KindUint, size: 1},
	"short":              {kind: KindInt, size: 2},
	"unsigned short":     {kind: KindUint, size: 2},
	"int":                {kind: KindInt, size: 4},
	"unsigned int":       {kind: KindUint, size: 4},
	"long":               {kind: KindInt, size: 4, host: longSize},
	"unsigned long":      {kind: KindUint, size: 4, host: longSize},
	"long long":          {kind: KindInt, size: 8},
	"unsigned long long": {kind: KindUint, size: 8},
	"float":              {kind: KindFloat, size: 4},
	"double":             {kind: KindFloat, size: 8},
	PointerType:          {kind: KindPointer, size: 8, host: pointerSize},
	"int8":               {kind: KindInt, size: 1},
	"uint8":              {kind: KindUint, size: 1},
	"int16":              {kind: KindInt, size: 2},
	"uint16":             {kind: KindUint, size: 2},
	"int32":              {kind: KindInt, size: 4},
	"uint32":             {kind: KindUint, size: 4},
	"int64":              {kind: KindInt, size: 8},
	"uint64":             {kind: KindUint, size: 8},
}

// LookupNative resolves a canonical native type name. Packed byte orders
// use standard sizes (long is 4 bytes); native order uses Host sizes.
// Pointers are always Host.PointerSize wide.
func LookupNative(name string, order ByteOrder) (Native, bool) {
	spec, ok := nativeTypes[name]
	if !ok {
		return Native{}, false
	}
	size := spec.size
	if spec.host != nil && (order == NativeOrder || spec.kind == KindPointer) {
		size = spec.host(Host)
	}
	return Native{Name: name, Kind: spec.kind, Width: size}, true
}

// IsNative reports whether name is a canonical native type name.
func IsNative(name string) bool {
	_, ok := nativeTypes[name]
	return ok
}

// NativeNames returns the canonical native type names, sorted.
func NativeNames() []string {
	names := make([]string, 0, len(nativeTypes))
	for name := range nativeTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SizedInt returns the signed native type with the given width.
func SizedInt(size int) (Native, bool) {
	switch size {
	case 1:
		return LookupNative("int8", NativeOrder)
	case 2:
		return LookupNative("int16", NativeOrder)
	case 4:
		return LookupNative("int32", NativeOrder)
	case 8:
		return LookupNative("int64", NativeOrder)
	}
	return Native{}, false
}

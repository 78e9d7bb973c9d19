// Package ctype describes C types and their memory layout.
//
// Native scalars, enums, structs and unions are modelled as plain values:
// a Native resolved for a byte order, an *Enum with ordered constants, and
// an immutable *Composite whose members carry their offset, padding and
// size. Composites are assembled with a Builder that runs the layout
// incrementally as members are added.
//
// Two layout modes are supported through ByteOrder:
//
//	NativeOrder   host ABI sizes, alignment and padding, host endianness
//	LittleEndian  standard sizes, no padding
//	BigEndian     standard sizes, no padding
//
// Anonymous nested composites are added as synthetic members named
// "__anonymous0", "__anonymous1", ... whose own members are promoted into
// the enclosing composite and resolved by Lookup.
package ctype

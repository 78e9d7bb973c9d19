// Package layout computes member offsets and aggregate sizes for C structs
// and unions.
//
// # Layout Rules
//
// Two modes exist:
//   - Aligned (host ABI): each member is padded to a multiple of its own
//     alignment, byte strings excepted; a struct's size is rounded up to
//     its largest member alignment.
//   - Packed (explicit byte order): members are laid out back to back and
//     no padding is ever inserted.
//
// Union members all start at offset 0; the union size is its largest member.
//
// This package is internal to ctype.
package layout

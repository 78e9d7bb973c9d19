// Package codec converts between composite layouts and bytes.
//
// Two representations are provided. Value is a decoded copy: Unpack fills
// it from a byte slice or stream and Pack produces a fresh encoding.
//
//	v := codec.New(def)
//	v.Set("magic", uint64(0xcafe))
//	data, _ := v.Pack()
//
// Instance is a live view over a memory.Memory. Every Get decodes straight
// from memory and every Set encodes straight into it, so nested handles,
// array views and other instances over the same memory all see the same
// bytes.
//
//	inst := codec.NewInstance(def)
//	inner, _ := inst.Get("u1")
//	inner.(*codec.Instance).Set("a", 2022) // lands in inst's buffer
//
// Both accept dotted member paths ("u1.a_op.a", "bval[2].c") and promoted
// names of anonymous members. Scalars use the composite's byte order;
// values that do not fit their C type fail with an overflow error.
package codec

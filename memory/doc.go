// Package memory provides the byte regions live instances are bound to.
//
// Three implementations of Memory are provided:
//
//	buf := memory.NewBuffer(64)      // owned and resizable
//	view := memory.Wrap(raw)         // caller-owned slice, fixed size
//	mem := memory.WrapWazero(m)      // WebAssembly linear memory
//
// Accesses outside the region fail with an out_of_bounds error instead of
// panicking. Regions inside a memory can be handed out by an Arena or, for
// guest memory, by the module's own cabi_realloc export via WrapAllocator.
package memory

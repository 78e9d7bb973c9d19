// Package cstruct converts between C struct, union and enum declarations
// and their binary layout.
//
// A declaration string is parsed into a layout description once, then
// used to pack and unpack bytes any number of times:
//
//	def, err := cstruct.ParseComposite(`
//		#define UT_LINESIZE 32
//		struct utmp {
//			short ut_type;
//			int   ut_pid;
//			char  ut_line[UT_LINESIZE];
//		};`, nil)
//
//	v := codec.New(def)         // decoded copy
//	ok, err := v.UnpackReader(f)
//
//	inst := codec.NewInstance(def) // live view over memory
//	inst.Set("ut_pid", 42)
//
// # Architecture Overview
//
//	cstruct/          Facade over a process-wide registry
//	├── registry/     Constants, typedefs, composites and enums
//	├── cexpr/        C constant expression evaluator
//	├── decl/         Declaration tokenizer and parser
//	├── ctype/        Native types, fields, layout computation
//	├── codec/        Buffer and live-memory codecs
//	├── memory/       Backing stores, including wazero linear memory
//	├── witmap/       WIT type export
//	├── errors/       Structured error types
//	└── cmd/cstruct/  Record dump, layout table, editor and shell
//
// # Byte Orders
//
// Layouts are either packed little or big endian, with no padding, or
// native, following the host ABI's alignment rules and sizes.
//
// # Thread Safety
//
// Registry operations are individually safe for concurrent use and each
// parse holds the registry's declaration lock. Values and instances are
// not safe for concurrent use; instances over the same memory
// alias each other.
package cstruct

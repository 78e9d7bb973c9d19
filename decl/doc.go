// Package decl parses C-style declarations into ctype layouts.
//
// A definition may mix, in any order:
//
//	#define NAME EXPR                    object-like macros, one per line
//	typedef TYPE [*]ALIAS;                aliases, inline bodies allowed
//	struct|union [TAG] { members };      composites
//	enum [TAG] [: TYPE] { A, B = 2 };    enums
//
// or consist of a bare member list, which declares a struct (or a union,
// see Config.Union) tagged Config.Name.
//
// Members support nested named, unnamed and anonymous composites,
// pointers (stored as opaque pointer-sized integers), fixed arrays whose
// length is a constant expression, comma separated declarators, and one
// trailing flexible array member.
//
// Parsing mutates the registry: constants, typedefs and named types are
// visible to later definitions. Each call holds the registry's
// declaration lock for its whole duration.
//
//	reg := registry.New()
//	t, err := decl.Parse(reg, `
//		#define MAX 16
//		struct Pkg {
//			uint16_t cmd;
//			uint16_t length;
//			uint8_t  data[];
//		};`, &decl.Config{ByteOrder: ctype.LittleEndian})
package decl

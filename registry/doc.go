// Package registry stores the named entities declarations refer to:
// #define constants, typedef aliases, and named structs, unions and enums.
//
// A Registry also resolves sizeof operands and identifiers for constant
// expressions (it implements cexpr.Resolver). Entries accumulate for the
// registry's lifetime; only constants can be removed.
package registry

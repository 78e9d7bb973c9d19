// Package cexpr evaluates C constant expressions as they appear in
// #define values, array lengths and enum initializers.
//
// Supported: integer literals (decimal, hex, octal, binary, with u/l
// suffixes), floating literals, character literals, identifiers resolved
// through a Resolver, sizeof(TYPE), parentheses, and the operators
//
//	unary   - + ! ~
//	binary  * / % + - << >> < > <= >= == != & ^ | && ||
//
// with C precedence. Integer division truncates toward zero; any float
// operand makes the operation floating point. Logical and comparison
// operators yield 1 or 0. Comparisons chain: 1 < 2 <= 3 evaluates as
// (1 < 2) && (2 <= 3).
//
// Failures are reported as *errors.Error values in errors.PhaseEval.
package cexpr

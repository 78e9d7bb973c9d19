// Package errors provides structured error types for the cstruct module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, C type name, source line and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindFlexibleArray).
//		Path("pkg", "data").
//		Line(4).
//		Detail("flexible array must be the last member").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Syntax(line, "expected %q, got %q", ";", tok)
//	err := errors.NotFound(errors.PhaseRegistry, "constant", "MAX")
//
// Parse, evaluation and layout failures are distinguished by phase;
// see IsParseError, IsEvalError and IsLayoutError.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

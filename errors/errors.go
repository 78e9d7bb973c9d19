package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // declaration tokenizing and grammar
	PhaseEval     Phase = "eval"     // constant expressions
	PhaseLayout   Phase = "layout"   // offsets, sizes, flexible arrays
	PhaseRegistry Phase = "registry" // constant and type lookups
	PhaseEncode   Phase = "encode"   // Go value to bytes
	PhaseDecode   Phase = "decode"   // bytes to Go value
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax            Kind = "syntax"
	KindUnknownType       Kind = "unknown_type"
	KindDuplicate         Kind = "duplicate"
	KindReservedName      Kind = "reserved_name"
	KindFlexibleArray     Kind = "flexible_array"
	KindInvalidSize       Kind = "invalid_size"
	KindUnresolved        Kind = "unresolved"
	KindInvalidExpression Kind = "invalid_expression"
	KindDivisionByZero    Kind = "division_by_zero"
	KindNotFound          Kind = "not_found"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindUnsupported       Kind = "unsupported"
	KindInvalidData       Kind = "invalid_data"
	KindOverflow          Kind = "overflow"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string // C type involved, if any
	Detail string
	Path   []string
	Line   int // 1-based source line, 0 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Line > 0 {
		b.WriteString(" on line ")
		b.WriteString(strconv.Itoa(e.Line))
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the C type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a declaration syntax error
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnknownType creates an unknown type error
func UnknownType(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownType,
		Type:   name,
		Detail: "unknown type " + name,
	}
}

// Duplicate creates a duplicate name error
func Duplicate(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Path:   path,
		Detail: fmt.Sprintf("duplicate name %q", name),
	}
}

// Reserved creates a reserved name error
func Reserved(path []string, name string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindReservedName,
		Path:   path,
		Detail: fmt.Sprintf("reserved name %q", name),
	}
}

// Unresolved creates an unresolved identifier error
func Unresolved(name string) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindUnresolved,
		Detail: fmt.Sprintf("cannot resolve %q", name),
		Value:  name,
	}
}

// InvalidExpression creates an expression evaluation error
func InvalidExpression(expr string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindInvalidExpression,
		Detail: fmt.Sprintf(format, args...),
		Value:  expr,
	}
}

// NotFound creates a not found error for registry lookups
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// TypeMismatch creates a value shape error
func TypeMismatch(phase Phase, path []string, cType string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Type:   cType,
		Detail: fmt.Sprintf("cannot use %T", value),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, offset, length, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("range [%d:%d] exceeds %d bytes", offset, offset+length, limit),
		Value:  offset,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, cType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Type:   cType,
		Detail: fmt.Sprintf("value %v overflows %s", value, cType),
		Value:  value,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// PhaseOf returns the phase of the outermost *Error in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase, true
	}
	return "", false
}

// IsParseError reports whether err was raised while parsing a declaration.
func IsParseError(err error) bool {
	p, ok := PhaseOf(err)
	return ok && p == PhaseParse
}

// IsEvalError reports whether err was raised by the expression evaluator.
// Parse errors wrapping an evaluation failure also match.
func IsEvalError(err error) bool {
	for err != nil {
		if p, ok := PhaseOf(err); ok && p == PhaseEval {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsLayoutError reports whether err was raised by layout or registry lookups.
func IsLayoutError(err error) bool {
	p, ok := PhaseOf(err)
	return ok && (p == PhaseLayout || p == PhaseRegistry)
}

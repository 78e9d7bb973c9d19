package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindTypeMismatch,
				Path:   []string{"op", "u1", "magic"},
				Type:   "uint64_t",
				Detail: "cannot use string",
			},
			contains: []string{"[encode]", "type_mismatch", "op.u1.magic", "uint64_t", "cannot use string"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name:     "with line",
			err:      Syntax(7, "expected %q, got %q", ";", "}"),
			contains: []string{"[parse]", "syntax", "line 7", `expected ";"`},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindInvalidSize,
				Detail: "array length",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[parse]", "invalid_size", "array length", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseLayout,
		Kind:  KindFlexibleArray,
		Path:  []string{"pkg"},
	}

	if !err.Is(&Error{Phase: PhaseLayout, Kind: KindFlexibleArray}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseParse, Kind: KindFlexibleArray}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseLayout, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseLayout, Kind: KindFlexibleArray}
	if !errors.Is(fmt.Errorf("wrapped: %w", err), target) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseParse, KindDuplicate).
		Path("Foo", "x").
		Type("int").
		Line(3).
		Value(42).
		Cause(cause).
		Detail("member %s declared twice", "x").
		Build()

	if err.Phase != PhaseParse {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
	}
	if err.Kind != KindDuplicate {
		t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicate)
	}
	if len(err.Path) != 2 || err.Path[0] != "Foo" || err.Path[1] != "x" {
		t.Errorf("Path = %v, want [Foo x]", err.Path)
	}
	if err.Type != "int" {
		t.Errorf("Type = %v, want 'int'", err.Type)
	}
	if err.Line != 3 {
		t.Errorf("Line = %d, want 3", err.Line)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "member x declared twice" {
		t.Errorf("Detail = %v, want 'member x declared twice'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"Syntax", Syntax(1, "bad"), PhaseParse, KindSyntax},
		{"UnknownType", UnknownType(PhaseParse, "struct X"), PhaseParse, KindUnknownType},
		{"Duplicate", Duplicate(PhaseParse, []string{"E"}, "A"), PhaseParse, KindDuplicate},
		{"Reserved", Reserved([]string{"S"}, "int"), PhaseParse, KindReservedName},
		{"Unresolved", Unresolved("FOO"), PhaseEval, KindUnresolved},
		{"InvalidExpression", InvalidExpression("1 +", "unexpected end"), PhaseEval, KindInvalidExpression},
		{"NotFound", NotFound(PhaseRegistry, "constant", "MAX"), PhaseRegistry, KindNotFound},
		{"TypeMismatch", TypeMismatch(PhaseEncode, []string{"a"}, "int", "x"), PhaseEncode, KindTypeMismatch},
		{"OutOfBounds", OutOfBounds(PhaseDecode, nil, 10, 4, 12), PhaseDecode, KindOutOfBounds},
		{"Unsupported", Unsupported(PhaseLayout, "flexible array in union"), PhaseLayout, KindUnsupported},
		{"Overflow", Overflow(PhaseEncode, nil, 300, "uint8_t"), PhaseEncode, KindOverflow},
		{"Wrap", Wrap(PhaseParse, KindInvalidSize, errors.New("x"), "len"), PhaseParse, KindInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}

	t.Run("NotFound detail", func(t *testing.T) {
		err := NotFound(PhaseRegistry, "constant", "MAX")
		if !containsSubstring(err.Detail, `"MAX"`) {
			t.Errorf("Detail = %v, should contain name", err.Detail)
		}
	})

	t.Run("OutOfBounds value", func(t *testing.T) {
		err := OutOfBounds(PhaseDecode, nil, 10, 4, 12)
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
		if !containsSubstring(err.Detail, "[10:14]") {
			t.Errorf("Detail = %v, should contain range", err.Detail)
		}
	})
}

func TestPhasePredicates(t *testing.T) {
	eval := Unresolved("X")
	parse := New(PhaseParse, KindInvalidSize).Cause(eval).Build()
	layout := New(PhaseLayout, KindFlexibleArray).Build()
	lookup := NotFound(PhaseRegistry, "type", "struct X")

	if !IsParseError(parse) || IsParseError(eval) {
		t.Error("IsParseError mismatch")
	}
	if !IsEvalError(eval) {
		t.Error("IsEvalError should match eval error")
	}
	if !IsEvalError(parse) {
		t.Error("IsEvalError should match parse error caused by eval error")
	}
	if IsEvalError(layout) {
		t.Error("IsEvalError should not match layout error")
	}
	if !IsLayoutError(layout) || !IsLayoutError(lookup) {
		t.Error("IsLayoutError should match layout and registry errors")
	}
	if IsLayoutError(errors.New("plain")) {
		t.Error("IsLayoutError should not match plain errors")
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FaultKind names a user-visible failure class.
type FaultKind string

const (
	// FaultPropertyNotFound is raised for an unknown command name, unknown
	// long option or unknown short-flag character.
	FaultPropertyNotFound FaultKind = "PropertyNotFound"
	// FaultPropertyTypeMismatch is raised when an operand has the wrong type
	// for an operator, or on a write through a deferred intermediate.
	FaultPropertyTypeMismatch FaultKind = "PropertyTypeMismatch"
	// FaultPropertyRequired is raised when a required positional, or a
	// required variadic with zero collected values, is missing.
	FaultPropertyRequired FaultKind = "PropertyRequired"
	// FaultParameterTypeInvalid is raised when an internal helper receives a
	// parameter failing its type check.
	FaultParameterTypeInvalid FaultKind = "ParameterTypeInvalid"
	// FaultVariableTypeInvalid is raised when a type-rule entry is neither a
	// name nor a checker.
	FaultVariableTypeInvalid FaultKind = "VariableTypeInvalid"
	// FaultAssertFailed is raised when a value matches none of the expected
	// types.
	FaultAssertFailed FaultKind = "AssertFailed"
	// FaultArgumentsLengthInvalid is raised when a command with no declared
	// arguments receives any, or a length check fails.
	FaultArgumentsLengthInvalid FaultKind = "ArgumentsLengthInvalid"
	// FaultWrongArgumentPosition is raised for a positional after an option,
	// an option after a variadic started collecting, or a variadic that is
	// not last.
	FaultWrongArgumentPosition FaultKind = "WrongArgumentPosition"
	// FaultMathResultInvalid is raised when a math fold yields undefined.
	FaultMathResultInvalid FaultKind = "MathResultInvalid"
)

// Fault is a structured engine failure. The payload is embedded in the error
// message as JSON for diagnostics.
type Fault struct {
	Kind    FaultKind
	Payload map[string]any
}

func (f *Fault) Error() string {
	if len(f.Payload) == 0 {
		return string(f.Kind)
	}
	data, err := json.Marshal(f.Payload)
	if err != nil {
		return fmt.Sprintf("%s: %v", f.Kind, f.Payload)
	}
	return fmt.Sprintf("%s: %s", f.Kind, data)
}

func newFault(kind FaultKind, payload map[string]any) *Fault {
	return &Fault{Kind: kind, Payload: payload}
}

// IsFault reports whether err is (or wraps) a Fault of the given kind.
func IsFault(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}

// Outcome is the result of one rule in a converter or math ladder. A skipped
// outcome lets the next rule try; it never escapes the engine boundary.
type Outcome struct {
	Value any
	Skip  bool
}

// Tried wraps a produced value.
func Tried(v any) Outcome { return Outcome{Value: v} }

// Skipped signals "not me" to the ladder.
var Skipped = Outcome{Skip: true}

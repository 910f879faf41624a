package engine

import "github.com/fyrsmithlabs/xsh/pkg/value"

// CheckType asserts that v matches one of the expected type entries. An
// entry is either a kind name (as reported by value.KindName) or a checker
// function; anything else is itself invalid.
func CheckType(name string, v any, expected ...any) error {
	if len(expected) == 0 {
		return newFault(FaultParameterTypeInvalid, map[string]any{
			"parameter": "expected",
			"reason":    "no expected types",
		})
	}
	names := make([]string, 0, len(expected))
	for _, exp := range expected {
		switch t := exp.(type) {
		case string:
			if value.KindName(v) == t {
				return nil
			}
			names = append(names, t)
		case func(any) bool:
			if t(v) {
				return nil
			}
			names = append(names, "func")
		default:
			return newFault(FaultVariableTypeInvalid, map[string]any{
				"name":  name,
				"entry": value.KindName(exp),
			})
		}
	}
	return newFault(FaultAssertFailed, map[string]any{
		"name":     name,
		"type":     value.KindName(v),
		"expected": names,
	})
}

// CheckLength asserts an exact argument count.
func CheckLength(name string, args []any, n int) error {
	if len(args) != n {
		return newFault(FaultArgumentsLengthInvalid, map[string]any{
			"command": name,
			"length":  len(args),
			"message": "must be equal to " + value.ToString(int64(n)),
		})
	}
	return nil
}

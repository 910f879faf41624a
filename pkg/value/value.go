// Package value defines the dynamic value domain of the xsh engine.
//
// Values travel through the engine as `any`, restricted to a closed set of
// representations:
//
//   - value.Null, value.Undefined (distinct singletons)
//   - bool, int64, float64, string
//   - []any (sequence), map[string]any (keyed mapping)
//   - value.Func (native callable), value.Bound (receiver-bound callable)
//   - *value.Deferred (an asynchronous result)
//
// The null/undefined distinction is preserved: loose equality treats them as
// equal, strict equality does not.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// nullType is the type of the Null singleton.
type nullType struct{}

func (nullType) String() string { return "null" }

// undefinedType is the type of the Undefined singleton.
type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Null is the explicit null value.
var Null = nullType{}

// Undefined is the absent value. A nil interface is treated as Undefined.
var Undefined = undefinedType{}

// IsNull reports whether v is the explicit null value.
func IsNull(v any) bool {
	_, ok := v.(nullType)
	return ok
}

// IsUndefined reports whether v is undefined (or a nil interface).
func IsUndefined(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(undefinedType)
	return ok
}

// IsNullish reports whether v is null or undefined.
func IsNullish(v any) bool {
	return IsNull(v) || IsUndefined(v)
}

// KindName returns a short name for the value's kind.
func KindName(v any) string {
	switch v.(type) {
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	case Func, Bound:
		return "function"
	case *Deferred:
		return "deferred"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Truthy reports the truthiness of v. Sequences and mappings are always
// truthy regardless of length, matching object semantics.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil, nullType, undefinedType:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// ToFloat coerces v to a float64. Numbers, booleans and numeric strings
// coerce; everything else reports false.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToIndex coerces v to a sequence index.
func ToIndex(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// IsInteger reports whether v is an integral number.
func IsInteger(v any) bool {
	switch t := v.(type) {
	case int64:
		return true
	case float64:
		return t == float64(int64(t))
	default:
		return false
	}
}

// ToString renders v as a plain string.
func ToString(v any) string {
	switch t := v.(type) {
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = ToString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + ToString(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsNumber reports whether v is an int64 or float64.
func IsNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

// Export converts v into plain Go values suitable for encoding/json: the
// Null and Undefined singletons become nil, sequences and mappings are
// converted recursively, callables and deferred values become nil.
func Export(v any) any {
	switch t := v.(type) {
	case nil, nullType, undefinedType:
		return nil
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = Export(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = Export(el)
		}
		return out
	case Func, Bound, *Deferred:
		return nil
	default:
		return v
	}
}

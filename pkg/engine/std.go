package engine

import (
	"context"
	"math"
	"math/rand"
	"strings"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// Mode bits accepted by concat.
const (
	concatSkipNullish  = 1 << 0 // a
	concatSkipEmpty    = 1 << 1 // b
	concatTrimStrings  = 1 << 2 // c
	concatFlattenItems = 1 << 3 // D
)

// Std returns the standard command set plugin.
func Std() Config {
	return Config{
		Commands: []*Command{
			{
				Name: "concat",
				Flags: map[string]int64{
					"a": concatSkipNullish,
					"b": concatSkipEmpty,
					"c": concatTrimStrings,
					"D": concatFlattenItems,
				},
				Args: []Arg{
					{Name: "delim", Default: ","},
					{Name: "mode"},
					{Name: "args", Variadic: true, Required: true},
				},
				Callback: cmdConcat,
			},
			{
				Name:  "async",
				Flags: map[string]int64{},
				Args: []Arg{
					{Name: "value", Required: true},
					{Name: "asArray", Default: false},
					{Name: "mode"},
				},
				Callback: cmdAsync,
			},
			{
				Name:     "min",
				Args:     []Arg{{Name: "values", Variadic: true, Required: true}},
				Callback: foldNumbers("min", func(a, b float64) bool { return a < b }),
			},
			{
				Name:     "max",
				Args:     []Arg{{Name: "values", Variadic: true, Required: true}},
				Callback: foldNumbers("max", func(a, b float64) bool { return a > b }),
			},
			{
				Name:     "random",
				Callback: cmdRandom,
			},
			{
				Name:     "len",
				Args:     []Arg{{Name: "value", Required: true}},
				Callback: cmdLen,
			},
			{
				Name:     "type",
				Args:     []Arg{{Name: "value", Required: true}},
				Callback: cmdType,
			},
			{
				Name: "get",
				Args: []Arg{
					{Name: "scope"},
					{Name: "path", Required: true},
					{Name: "from", Variadic: true},
				},
				Callback: cmdGet,
			},
		},
	}
}

// StdGlobals returns the ambient `$global` name table shipped with the
// standard set.
func StdGlobals() map[string]any {
	return map[string]any{
		"Math": map[string]any{
			"floor": mathUnary(math.Floor),
			"ceil":  mathUnary(math.Ceil),
			"abs":   mathUnary(math.Abs),
			"pow": value.Func(func(_ context.Context, args ...any) (any, error) {
				a, b, err := twoFloats("pow", args)
				if err != nil {
					return value.Undefined, err
				}
				out := math.Pow(a, b)
				if out == math.Trunc(out) && !math.IsInf(out, 0) {
					return int64(out), nil
				}
				return out, nil
			}),
		},
	}
}

func mathUnary(fn func(float64) float64) value.Func {
	return func(_ context.Context, args ...any) (any, error) {
		// A bound call carries the Math table as its receiver; skip it.
		args = withoutReceiver(args)
		if len(args) == 0 {
			return value.Undefined, newFault(FaultPropertyRequired, map[string]any{"property": "value"})
		}
		f, ok := value.ToFloat(args[0])
		if !ok {
			return value.Undefined, newFault(FaultPropertyTypeMismatch, map[string]any{
				"property": "value",
				"type":     value.KindName(args[0]),
			})
		}
		out := fn(f)
		if out == math.Trunc(out) {
			return int64(out), nil
		}
		return out, nil
	}
}

func twoFloats(name string, args []any) (float64, float64, error) {
	args = withoutReceiver(args)
	if len(args) < 2 {
		return 0, 0, newFault(FaultArgumentsLengthInvalid, map[string]any{
			"command": name,
			"length":  len(args),
		})
	}
	a, aOK := value.ToFloat(args[0])
	b, bOK := value.ToFloat(args[1])
	if !aOK || !bOK {
		return 0, 0, newFault(FaultPropertyTypeMismatch, map[string]any{"command": name})
	}
	return a, b, nil
}

func withoutReceiver(args []any) []any {
	if len(args) > 0 {
		if _, ok := args[0].(map[string]any); ok {
			return args[1:]
		}
	}
	return args
}

func cmdConcat(_ context.Context, args ...any) (any, error) {
	delim := value.ToString(args[0])
	mode, _ := args[1].(int64)
	parts := make([]string, 0, len(args)-2)
	var add func(item any)
	add = func(item any) {
		if mode&concatFlattenItems != 0 {
			if seq, ok := item.([]any); ok {
				for _, el := range seq {
					add(el)
				}
				return
			}
		}
		if mode&concatSkipNullish != 0 && value.IsNullish(item) {
			return
		}
		s := value.ToString(item)
		if mode&concatTrimStrings != 0 {
			s = strings.TrimSpace(s)
		}
		if mode&concatSkipEmpty != 0 && s == "" {
			return
		}
		parts = append(parts, s)
	}
	for _, item := range args[2:] {
		add(item)
	}
	return strings.Join(parts, delim), nil
}

// cmdAsync defers its value, optionally wrapping it in a sequence.
func cmdAsync(_ context.Context, args ...any) (any, error) {
	v := args[0]
	asArray := value.Truthy(args[1])
	return value.Defer(func() (any, error) {
		if asArray {
			return []any{v}, nil
		}
		return v, nil
	}), nil
}

func foldNumbers(name string, better func(a, b float64) bool) CommandFunc {
	return func(_ context.Context, args ...any) (any, error) {
		best := args[0]
		bestF, ok := value.ToFloat(best)
		if !ok {
			return value.Undefined, numberFault(name, best)
		}
		for _, item := range args[1:] {
			f, ok := value.ToFloat(item)
			if !ok {
				return value.Undefined, numberFault(name, item)
			}
			if better(f, bestF) {
				best, bestF = item, f
			}
		}
		return best, nil
	}
}

func numberFault(name string, v any) error {
	return newFault(FaultPropertyTypeMismatch, map[string]any{
		"command": name,
		"type":    value.KindName(v),
	})
}

func cmdRandom(_ context.Context, _ ...any) (any, error) {
	return rand.Float64(), nil
}

func cmdLen(_ context.Context, args ...any) (any, error) {
	if err := CheckType("value", args[0], "string", "sequence", "mapping"); err != nil {
		return value.Undefined, err
	}
	switch t := args[0].(type) {
	case string:
		return int64(len(t)), nil
	case []any:
		return int64(len(t)), nil
	default:
		return int64(len(t.(map[string]any))), nil
	}
}

func cmdType(_ context.Context, args ...any) (any, error) {
	return value.KindName(args[0]), nil
}

// cmdGet walks a dotted path against an explicit root value, or against the
// current scope when no root is given.
func cmdGet(ctx context.Context, args ...any) (any, error) {
	sc, _ := args[0].(Scope)
	path := args[1]
	var keys []any
	switch t := path.(type) {
	case []any:
		keys = t
	case string:
		for _, seg := range strings.Split(t, ".") {
			keys = append(keys, seg)
		}
	default:
		keys = []any{path}
	}
	if len(args) > 2 {
		root := args[2]
		e := engineless{}
		return e.walk(root, keys)
	}
	if sc == nil {
		return value.Undefined, nil
	}
	if v, ok := sc[value.ToString(keys[0])]; ok {
		return engineless{}.walk(v, keys[1:])
	}
	return value.Undefined, nil
}

// engineless walks members without deferred transparency; get is a plain
// structural accessor.
type engineless struct{}

func (engineless) walk(cur any, keys []any) (any, error) {
	for _, k := range keys {
		if value.IsNullish(cur) {
			return value.Undefined, nil
		}
		cur = member(cur, k)
	}
	return cur, nil
}

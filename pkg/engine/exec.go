package engine

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// ExecFn dispatches a command invocation. When native is set, nameOrFn is a
// foreign callable (obtained through $global) and args are passed verbatim.
// Otherwise nameOrFn names a registered command and args are bound per the
// positional / variadic / long-option / short-flag protocol.
func (e *Engine) ExecFn(ctx context.Context, nameOrFn any, args []any, sc Scope, native bool) (any, error) {
	if native || value.IsCallable(nameOrFn) {
		return value.Call(ctx, nameOrFn, args...)
	}
	name := value.ToString(nameOrFn)
	cmd, ok := e.commands.lookup(name)
	if !ok {
		return nil, newFault(FaultPropertyNotFound, map[string]any{"command": name})
	}
	e.log.Debug("dispatch", zap.String("command", name), zap.Int("args", len(args)))
	bound, err := e.bind(cmd, args, sc)
	if err != nil {
		return nil, err
	}
	return cmd.Callback(ctx, bound...)
}

// bind applies the argument protocol: plain tokens fill positional slots in
// declared order, "--name" tokens open long options (kebab-case converted to
// camelCase), "-abc" runs OR-combine flag weights into mode. Once an option
// has appeared plain positionals are forbidden, and once the positional
// variadic tail has begun collecting no further options may appear.
func (e *Engine) bind(cmd *compiledCommand, args []any, sc Scope) ([]any, error) {
	slots := make([]any, len(cmd.Args))
	set := make([]bool, len(cmd.Args))
	var tail []any

	var (
		mode            int64
		modeSeen        bool
		seenOpt         bool
		variadicStarted bool
		currentLong     = -1
		longBound       bool
		nextPos         int
	)
	wrongPosition := func() error {
		return newFault(FaultWrongArgumentPosition, map[string]any{
			"command": cmd.Name,
			"message": "Required argument before optional argument, or in the variadic argument",
		})
	}
	bindTrueOpenLong := func() {
		if currentLong >= 0 && !longBound {
			slots[currentLong] = true
			set[currentLong] = true
		}
		currentLong = -1
	}

	for _, tok := range args {
		if s, ok := tok.(string); ok && isOptionToken(s) {
			if variadicStarted {
				return nil, wrongPosition()
			}
			if strings.HasPrefix(s, "--") {
				key := kebabToCamel(s[2:])
				idx, found := cmd.index[key]
				if !found {
					return nil, newFault(FaultPropertyNotFound, map[string]any{
						"command":  cmd.Name,
						"property": key,
					})
				}
				bindTrueOpenLong()
				currentLong = idx
				longBound = false
				seenOpt = true
				continue
			}
			// Short-flag run: each character indexes the flag table.
			for _, ch := range s[1:] {
				w, found := cmd.Flags[string(ch)]
				if !found {
					return nil, newFault(FaultPropertyNotFound, map[string]any{
						"command":  cmd.Name,
						"property": string(ch),
					})
				}
				mode |= w
			}
			if cmd.modeAt < 0 {
				return nil, newFault(FaultPropertyNotFound, map[string]any{
					"command":  cmd.Name,
					"property": "mode",
				})
			}
			modeSeen = true
			bindTrueOpenLong()
			seenOpt = true
			continue
		}

		// Plain token.
		if currentLong >= 0 {
			if cmd.Args[currentLong].Variadic {
				tail = append(tail, tok)
				longBound = true
				continue
			}
			slots[currentLong] = tok
			set[currentLong] = true
			longBound = true
			currentLong = -1
			continue
		}
		if seenOpt {
			return nil, wrongPosition()
		}
		for nextPos < len(cmd.Args) {
			name := cmd.Args[nextPos].Name
			if name == "scope" || (name == "mode" && nextPos != len(cmd.Args)-1) || set[nextPos] {
				nextPos++
				continue
			}
			break
		}
		switch {
		case nextPos < len(cmd.Args) && cmd.Args[nextPos].Variadic:
			tail = append(tail, tok)
			variadicStarted = true
		case nextPos < len(cmd.Args):
			slots[nextPos] = tok
			set[nextPos] = true
			nextPos++
		default:
			return nil, newFault(FaultArgumentsLengthInvalid, map[string]any{
				"command": cmd.Name,
				"length":  len(cmd.Args),
				"message": "must be equal to " + strconv.Itoa(countPositional(cmd)),
			})
		}
	}
	bindTrueOpenLong()

	// Defaults, reserved slots and required checks.
	for i, arg := range cmd.Args {
		switch {
		case arg.Name == "scope":
			slots[i] = sc
			set[i] = true
		case arg.Name == "mode":
			if modeSeen {
				slots[i] = mode
			} else if !set[i] {
				if arg.Default != nil {
					slots[i] = arg.Default
				} else {
					slots[i] = int64(0)
				}
			}
			set[i] = true
		case arg.Variadic:
			if arg.Required && len(tail) == 0 {
				return nil, newFault(FaultPropertyRequired, map[string]any{
					"command":  cmd.Name,
					"property": arg.Name,
				})
			}
		case !set[i]:
			if arg.Default != nil {
				slots[i] = arg.Default
				set[i] = true
			} else if arg.Required {
				return nil, newFault(FaultPropertyRequired, map[string]any{
					"command":  cmd.Name,
					"property": arg.Name,
				})
			} else {
				slots[i] = value.Undefined
			}
		}
	}

	out := make([]any, 0, len(cmd.Args)+len(tail))
	for i, arg := range cmd.Args {
		if arg.Variadic {
			out = append(out, tail...)
			continue
		}
		out = append(out, slots[i])
	}
	return out, nil
}

func countPositional(cmd *compiledCommand) int {
	n := 0
	for _, arg := range cmd.Args {
		if arg.Name != "scope" && arg.Name != "mode" {
			n++
		}
	}
	return n
}

// isOptionToken reports whether s is a long option or a short-flag run.
// Negative numerics are plain values.
func isOptionToken(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	return true
}

func kebabToCamel(s string) string {
	parts := strings.Split(s, "-")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// forceEval applies the `$$` directive to a resolved value: a string is
// evaluated as a sub-expression in the same scope, a callable is invoked with
// no arguments, a deferred value is resolved first.
func (e *Engine) forceEval(ctx context.Context, v any, sc Scope, await bool) (any, error) {
	if d, ok := v.(*value.Deferred); ok {
		if await {
			inner, err := d.Await(ctx)
			if err != nil {
				return value.Undefined, err
			}
			return e.forceEval(ctx, inner, sc, true)
		}
		return d.Then(ctx, func(inner any) (any, error) {
			return e.forceEval(ctx, inner, sc, false)
		}), nil
	}
	switch t := v.(type) {
	case string:
		// A brace-group placeholder body goes straight to the converter;
		// re-parsing it would only hide it behind the same placeholder again.
		if isGroupToken(t) {
			return e.convert(ctx, t, sc, true, await)
		}
		return e.eval(ctx, t, sc, await)
	case value.Func, value.Bound:
		return value.Call(ctx, t)
	default:
		return v, nil
	}
}

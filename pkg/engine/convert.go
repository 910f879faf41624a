package engine

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// convert classifies and evaluates one scalar token by trying each
// convert-category rule in order; a rule may skip to let the next one try.
func (e *Engine) convert(ctx context.Context, raw any, sc Scope, invoke, await bool) (any, error) {
	in := &ConvertInput{Engine: e, Scope: sc, Raw: raw, Invoke: invoke, Await: await}
	for _, r := range e.rules.rules(CategoryConvert) {
		out, err := r.Convert(ctx, in)
		if err != nil {
			return value.Undefined, err
		}
		if !out.Skip {
			return out.Value, nil
		}
	}
	return raw, nil
}

var (
	reInteger = regexp.MustCompile(`^-?\d+$`)
	reFloat   = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// convertRules returns the converter ladder.
func convertRules() []*Rule {
	return []*Rule{
		{Name: "passthrough", Order: -1000, Convert: convertPassthrough},
		{Name: "keywords", Order: -900, Convert: convertKeywords},
		{Name: "numbers", Order: -800, Convert: convertNumbers},
		{Name: "flags", Order: -700, Convert: convertFlags},
		{Name: "math", Order: -600, Convert: convertMath},
		{Name: "variables", Order: -500, Convert: convertVariable},
		{Name: "parens", Order: -400, Convert: convertParen},
		{Name: "arrays", Order: -300, Convert: convertArray},
		{Name: "objects", Order: -200, Convert: convertObject},
		{Name: "commands", Order: -100, Convert: convertCommand},
		{Name: "callables", Order: 0, Convert: convertCallable},
		{Name: "strings", Order: 100, Convert: convertDefault},
	}
}

// convertPassthrough returns already-converted values unchanged.
func convertPassthrough(_ context.Context, in *ConvertInput) (Outcome, error) {
	if _, ok := in.Raw.(string); ok {
		return Skipped, nil
	}
	return Tried(in.Raw), nil
}

func convertKeywords(_ context.Context, in *ConvertInput) (Outcome, error) {
	switch in.Raw.(string) {
	case "null":
		return Tried(value.Null), nil
	case "undefined":
		return Tried(value.Undefined), nil
	case "":
		return Tried(""), nil
	case "true":
		return Tried(true), nil
	case "false":
		return Tried(false), nil
	}
	return Skipped, nil
}

func convertNumbers(_ context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if reInteger.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Skipped, nil
		}
		return Tried(n), nil
	}
	if reFloat.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Skipped, nil
		}
		return Tried(f), nil
	}
	return Skipped, nil
}

// convertFlags passes `-x` / `--name` tokens through for the command binder.
func convertFlags(_ context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if strings.HasPrefix(s, "-") {
		return Tried(s), nil
	}
	return Skipped, nil
}

// convertMath splits on the first operator of the math-category list that
// occurs in the token, converts the operands recursively and left-folds them
// under the operator's callback. A token that is one whole bracket group is
// left to the parens, arrays and objects rungs.
func convertMath(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if isGroupToken(s) {
		return Skipped, nil
	}
	e := in.Engine
	for _, op := range e.rules.rules(CategoryMath) {
		if !op.Applies(s) {
			continue
		}
		operands := strings.Split(s, op.Key)
		values := make([]any, len(operands))
		for i, operand := range operands {
			v, err := e.convert(ctx, operand, in.Scope, true, in.Await)
			if err != nil {
				return Skipped, err
			}
			values[i] = v
		}
		result, err := e.foldMath(ctx, op, values, in.Scope, in.Await)
		if err != nil {
			return Skipped, err
		}
		if value.IsUndefined(result) {
			return Skipped, newFault(FaultMathResultInvalid, map[string]any{
				"expression": s,
			})
		}
		return Tried(result), nil
	}
	return Skipped, nil
}

// isGroupToken reports whether s is a single bracket group with no brackets
// inside: the shape the normalizer stores for a brace-group placeholder.
func isGroupToken(s string) bool {
	loc := reInnerGroup.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// convertVariable resolves `$path` and `$$path` tokens. Each dot segment is
// itself converted, so computed segments work.
func convertVariable(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !IsVariable(s) {
		return Skipped, nil
	}
	e := in.Engine
	runnable := IsRunnableVariable(s)
	path := strings.TrimPrefix(strings.TrimPrefix(s, "$"), "$")
	segments := strings.Split(path, ".")
	keys := make([]any, len(segments))
	for i, seg := range segments {
		k, err := e.convert(ctx, seg, in.Scope, false, in.Await)
		if err != nil {
			return Skipped, err
		}
		keys[i] = k
	}
	v, err := e.getPath(ctx, keys, in.Scope, value.Undefined, in.Await)
	if err != nil {
		return Skipped, err
	}
	if runnable {
		v, err = e.forceEval(ctx, v, in.Scope, in.Await)
		if err != nil {
			return Skipped, err
		}
	}
	return Tried(v), nil
}

// convertParen re-enters evaluation on the inner text of a parenthesized
// expression.
func convertParen(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return Skipped, nil
	}
	v, err := in.Engine.eval(ctx, s[1:len(s)-1], in.Scope, in.Await)
	if err != nil {
		return Skipped, err
	}
	return Tried(v), nil
}

func convertArray(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Skipped, nil
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return Tried([]any{}), nil
	}
	e := in.Engine
	parts := strings.Split(inner, ",")
	items := make([]any, len(parts))
	for i, part := range parts {
		v, err := e.convert(ctx, part, in.Scope, true, in.Await)
		if err != nil {
			return Skipped, err
		}
		items[i] = v
	}
	if in.Await {
		settled, err := value.AwaitAll(ctx, items)
		if err != nil {
			return Skipped, err
		}
		items = settled
	}
	return Tried(items), nil
}

func convertObject(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return Skipped, nil
	}
	inner := s[1 : len(s)-1]
	out := make(map[string]any)
	if inner == "" {
		return Tried(out), nil
	}
	e := in.Engine
	index := 0
	for _, part := range strings.Split(inner, ",") {
		var rawKey, rawVal string
		if k, v, found := strings.Cut(part, ":"); found {
			rawKey, rawVal = k, v
		} else {
			rawKey, rawVal = strconv.Itoa(index), part
			index++
		}
		key, err := e.convert(ctx, rawKey, in.Scope, false, in.Await)
		if err != nil {
			return Skipped, err
		}
		val, err := e.convert(ctx, rawVal, in.Scope, true, in.Await)
		if err != nil {
			return Skipped, err
		}
		if in.Await {
			val, err = value.Await(ctx, val)
			if err != nil {
				return Skipped, err
			}
		}
		out[value.ToString(key)] = val
	}
	return Tried(out), nil
}

// convertCommand re-enters evaluation for the common `name arg arg` shape of
// a de-quoted or force-evaluated string.
func convertCommand(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !in.Invoke || !strings.Contains(s, " ") {
		return Skipped, nil
	}
	v, err := in.Engine.eval(ctx, s, in.Scope, in.Await)
	if err != nil {
		return Skipped, err
	}
	return Tried(v), nil
}

// convertCallable invokes a bare registered command name with no arguments.
func convertCallable(ctx context.Context, in *ConvertInput) (Outcome, error) {
	s := in.Raw.(string)
	if !in.Invoke || !in.Engine.IsCommand(s) {
		return Skipped, nil
	}
	v, err := in.Engine.ExecFn(ctx, s, nil, in.Scope, false)
	if err != nil {
		return Skipped, err
	}
	return Tried(v), nil
}

func convertDefault(_ context.Context, in *ConvertInput) (Outcome, error) {
	return Tried(in.Raw), nil
}

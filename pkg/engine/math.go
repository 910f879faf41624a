package engine

import (
	"context"
	"math"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// foldMath left-folds the operand list under one operator rule: the
// accumulator starts at the first operand and each callback result replaces
// it. A skipped outcome keeps the accumulator and proceeds.
func (e *Engine) foldMath(ctx context.Context, op *Rule, operands []any, sc Scope, await bool) (any, error) {
	if len(operands) == 0 {
		return value.Undefined, nil
	}
	acc := operands[0]
	if await {
		var err error
		if acc, err = value.Await(ctx, acc); err != nil {
			return value.Undefined, err
		}
	}
	for _, next := range operands[1:] {
		if await {
			var err error
			if next, err = value.Await(ctx, next); err != nil {
				return value.Undefined, err
			}
		}
		out, err := op.Math(ctx, &MathInput{
			Engine:   e,
			Scope:    sc,
			Operand1: acc,
			Operand2: next,
			Rule:     op,
			Await:    await,
		})
		if err != nil {
			return value.Undefined, err
		}
		if out.Skip {
			continue
		}
		acc = out.Value
	}
	return acc, nil
}

// mathRules returns the operator rules in precedence order, lowest first:
// the converter splits a token on the first listed operator it contains.
func mathRules() []*Rule {
	return []*Rule{
		{Name: "strict-equal", Key: "===", Order: -1300, Math: mathStrictEqual},
		{Name: "strict-not-equal", Key: "!==", Order: -1250, Math: mathStrictNotEqual},
		{Name: "equal", Key: "==", Order: -1200, Math: mathLooseEqual},
		{Name: "not-equal", Key: "!=", Order: -1150, Math: mathLooseNotEqual},
		{Name: "greater-or-equal", Key: ">=", Order: -1100, Math: compareRule(func(a, b float64) bool { return a >= b })},
		{Name: "less-or-equal", Key: "<=", Order: -1050, Math: compareRule(func(a, b float64) bool { return a <= b })},
		{Name: "greater", Key: ">", Order: -1000, Math: compareRule(func(a, b float64) bool { return a > b })},
		{Name: "less", Key: "<", Order: -950, Math: compareRule(func(a, b float64) bool { return a < b })},
		{Name: "add", Key: "+", Order: -900, Math: mathAdd},
		{Name: "subtract", Key: "-", Order: -850, Math: arithmeticRule("-", func(a, b float64) float64 { return a - b })},
		{Name: "multiply", Key: "*", Order: -800, Math: arithmeticRule("*", func(a, b float64) float64 { return a * b })},
		{Name: "divide", Key: "/", Order: -750, Math: arithmeticRule("/", func(a, b float64) float64 { return a / b })},
		{Name: "modulo", Key: "%", Order: -700, Math: arithmeticRule("%", math.Mod)},
	}
}

func mathStrictEqual(_ context.Context, in *MathInput) (Outcome, error) {
	return Tried(value.StrictEqual(in.Operand1, in.Operand2)), nil
}

func mathStrictNotEqual(_ context.Context, in *MathInput) (Outcome, error) {
	return Tried(!value.StrictEqual(in.Operand1, in.Operand2)), nil
}

func mathLooseEqual(_ context.Context, in *MathInput) (Outcome, error) {
	return Tried(value.LooseEqual(in.Operand1, in.Operand2)), nil
}

func mathLooseNotEqual(_ context.Context, in *MathInput) (Outcome, error) {
	return Tried(!value.LooseEqual(in.Operand1, in.Operand2)), nil
}

func compareRule(cmp func(a, b float64) bool) MathFunc {
	return func(_ context.Context, in *MathInput) (Outcome, error) {
		a, aOK := value.ToFloat(in.Operand1)
		b, bOK := value.ToFloat(in.Operand2)
		if !aOK || !bOK {
			return Skipped, operandFault(in)
		}
		return Tried(cmp(a, b)), nil
	}
}

// mathAdd handles numeric addition, sequence and mapping merge, and string
// concatenation.
func mathAdd(_ context.Context, in *MathInput) (Outcome, error) {
	a, b := in.Operand1, in.Operand2
	if as, ok := a.([]any); ok {
		if bs, ok := b.([]any); ok {
			merged := make([]any, 0, len(as)+len(bs))
			merged = append(merged, as...)
			merged = append(merged, bs...)
			return Tried(merged), nil
		}
	}
	if am, ok := a.(map[string]any); ok {
		if bm, ok := b.(map[string]any); ok {
			merged := make(map[string]any, len(am)+len(bm))
			for k, v := range am {
				merged[k] = v
			}
			for k, v := range bm {
				merged[k] = v
			}
			return Tried(merged), nil
		}
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr || bStr {
		return Tried(value.ToString(a) + value.ToString(b)), nil
	}
	if af, ok := value.ToFloat(a); ok {
		if bf, ok := value.ToFloat(b); ok {
			return Tried(numericResult(a, b, af+bf)), nil
		}
	}
	return Skipped, operandFault(in)
}

func arithmeticRule(op string, apply func(a, b float64) float64) MathFunc {
	return func(_ context.Context, in *MathInput) (Outcome, error) {
		a, aOK := value.ToFloat(in.Operand1)
		b, bOK := value.ToFloat(in.Operand2)
		if !aOK || !bOK {
			return Skipped, operandFault(in)
		}
		return Tried(numericResult(in.Operand1, in.Operand2, apply(a, b))), nil
	}
}

// numericResult keeps integral arithmetic on integral operands integral.
func numericResult(a, b any, f float64) any {
	if value.IsInteger(a) && value.IsInteger(b) && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return f
}

func operandFault(in *MathInput) error {
	return newFault(FaultPropertyTypeMismatch, map[string]any{
		"operator": in.Rule.Key,
		"operand1": value.KindName(in.Operand1),
		"operand2": value.KindName(in.Operand2),
	})
}

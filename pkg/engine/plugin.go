package engine

import (
	"context"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// Config carries an installable set of plugins, commands and rules. Plugins
// are installed first (recursively), then commands, then rules.
type Config struct {
	Plugins  []Plugin
	Commands []*Command
	Rules    map[Category][]*Rule
}

// Plugin produces a Config; plugins compose by returning further plugins.
type Plugin func() Config

// CorePlugin returns the built-in configuration: the normalizer chain, the
// command operators, the converter ladder and the math operators.
func CorePlugin() Config {
	return Config{
		Rules: map[Category][]*Rule{
			CategoryParse:   parseRules(),
			CategoryConvert: convertRules(),
			CategoryMath:    mathRules(),
			CategoryCommand: operatorRules(),
		},
	}
}

// operatorRules returns the command operators in priority order, lowest
// binding first: the splitter tries them in ascending order, so the first
// occurring operator lands nearest the root.
func operatorRules() []*Rule {
	return []*Rule{
		{Name: "sequence", Key: ";", Order: -700, Fold: foldSequence},
		{Name: "fail", Key: "||", Order: -600, Fold: foldFail},
		{Name: "success", Key: "&&", Order: -500, Fold: foldSuccess},
		{Name: "nullish", Key: "??", Order: -400, Fold: foldNullish},
		{Name: "pipe", Key: "|", Order: -300, Fold: foldPipe},
		{Name: "assign", Key: ">>", Order: -200, Fold: foldAssign},
		{Name: "param", Key: " ", Order: -100, Fold: foldParam},
	}
}

func (e *Engine) execChild(ctx context.Context, child *Node, sc Scope, await bool) (any, error) {
	v, err := e.execNode(ctx, child, sc, await)
	if err != nil {
		return value.Undefined, err
	}
	if await {
		return value.Await(ctx, v)
	}
	return v, nil
}

// foldSequence executes each child in order; the result is the last
// non-empty child's result.
func foldSequence(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	var last any = value.Undefined
	for _, child := range in.Node.Children {
		if child.Leaf() && child.Text == "" {
			continue
		}
		v, err := e.execChild(ctx, child, in.Scope, in.Await)
		if err != nil {
			return value.Undefined, err
		}
		if !value.IsUndefined(v) {
			last = v
		}
	}
	return last, nil
}

// foldFail returns the first truthy child result, else the last.
func foldFail(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	var last any = value.Undefined
	for _, child := range in.Node.Children {
		v, err := e.execChild(ctx, child, in.Scope, in.Await)
		if err != nil {
			return value.Undefined, err
		}
		if value.Truthy(v) {
			return v, nil
		}
		last = v
	}
	return last, nil
}

// foldSuccess returns the first falsy child result, else the last.
func foldSuccess(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	var last any = value.Undefined
	for _, child := range in.Node.Children {
		v, err := e.execChild(ctx, child, in.Scope, in.Await)
		if err != nil {
			return value.Undefined, err
		}
		if !value.Truthy(v) {
			return v, nil
		}
		last = v
	}
	return last, nil
}

// foldNullish returns the first non-null-ish child result, else the last.
func foldNullish(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	var last any = value.Undefined
	for _, child := range in.Node.Children {
		v, err := e.execChild(ctx, child, in.Scope, in.Await)
		if err != nil {
			return value.Undefined, err
		}
		if !value.IsNullish(v) {
			return v, nil
		}
		last = v
	}
	return last, nil
}

// foldPipe threads each child's result into the next child's scope as
// `context`, saving and restoring the previous value around each step.
func foldPipe(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	children := in.Node.Children
	v, err := e.execChild(ctx, children[0], in.Scope, in.Await)
	if err != nil {
		return value.Undefined, err
	}
	for _, child := range children[1:] {
		saved, had := in.Scope[ScopeContext]
		in.Scope[ScopeContext] = v
		v, err = e.execChild(ctx, child, in.Scope, in.Await)
		if had {
			in.Scope[ScopeContext] = saved
		} else {
			delete(in.Scope, ScopeContext)
		}
		if err != nil {
			return value.Undefined, err
		}
	}
	return v, nil
}

// foldAssign evaluates the first child and assigns the result to each name
// produced by the remaining children; the result is passed through. A name
// may be a sequence, addressing a nested path.
func foldAssign(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	children := in.Node.Children
	v, err := e.execChild(ctx, children[0], in.Scope, in.Await)
	if err != nil {
		return value.Undefined, err
	}
	for _, child := range children[1:] {
		name, err := e.execChild(ctx, child, in.Scope, in.Await)
		if err != nil {
			return value.Undefined, err
		}
		var keys []any
		if seq, ok := name.([]any); ok {
			keys = seq
		} else {
			keys = []any{name}
		}
		if err := e.assign(keys, v, in.Scope); err != nil {
			return value.Undefined, err
		}
	}
	return v, nil
}

// foldParam converts each child as a value. If the first is a registered or
// native callable it is invoked with the rest as arguments; otherwise a
// multi-element list is returned as a sequence and a single element as
// itself.
func foldParam(ctx context.Context, in *FoldInput) (any, error) {
	e := in.Engine
	children := in.Node.Children
	values := make([]any, 0, len(children))
	for _, child := range children {
		if child.Leaf() && child.Text == "" {
			continue
		}
		var (
			v   any
			err error
		)
		if child.Leaf() {
			v, err = e.convert(ctx, child.Text, in.Scope, false, in.Await)
		} else {
			v, err = e.execNode(ctx, child, in.Scope, in.Await)
		}
		if err != nil {
			return value.Undefined, err
		}
		values = append(values, v)
	}
	if in.Await {
		settled, err := value.AwaitAll(ctx, values)
		if err != nil {
			return value.Undefined, err
		}
		values = settled
	}
	if len(values) == 0 {
		return value.Undefined, nil
	}
	first := values[0]
	if name, ok := first.(string); ok && e.IsCommand(name) {
		return e.ExecFn(ctx, name, values[1:], in.Scope, false)
	}
	if value.IsCallable(first) {
		return e.ExecFn(ctx, first, values[1:], in.Scope, true)
	}
	if len(values) > 1 {
		return values, nil
	}
	return first, nil
}

// Package engine implements the xsh expression engine: a lexical normalizer
// that hides literals and brace groups behind scope-bound placeholders, a
// recursive split-by-operator parser, a converter rule ladder, a command
// dispatcher and a unified sync/async execution model.
package engine

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// defaultCacheSize bounds the normalized-program cache.
const defaultCacheSize = 256

// program is a cached normalization result: the subcommand tree plus the
// placeholder bindings to merge into each evaluation scope. Placeholder
// names are deterministic content hashes, so a cached tree re-binds cleanly.
type program struct {
	tree  *Node
	binds Scope
}

// Engine is a configured interpreter instance. The rule and command
// registries are built at configuration time and read-only during
// evaluation; only the variable store is mutable.
type Engine struct {
	rules    *ruleSet
	commands *commandSet
	vars     *varStore
	global   map[string]any
	log      *zap.Logger
	cache    *lru.Cache[string, *program]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithGlobals installs the ambient name table reachable through `$global`.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) { e.global = globals }
}

// WithCacheSize overrides the parse-cache capacity.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		cache, err := lru.New[string, *program](n)
		if err == nil {
			e.cache = cache
		}
	}
}

// New builds an engine with the core plugin installed.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:    newRuleSet(),
		commands: newCommandSet(),
		vars:     newVarStore(),
		global:   map[string]any{},
		log:      zap.NewNop(),
	}
	e.cache, _ = lru.New[string, *program](defaultCacheSize)
	for _, opt := range opts {
		opt(e)
	}
	// The core plugin cannot fail to install.
	_ = e.SetConfig(Config{Plugins: []Plugin{CorePlugin}})
	return e
}

// SetConfig installs plugins first (recursively), then commands, then rules.
func (e *Engine) SetConfig(cfg Config) error {
	for _, p := range cfg.Plugins {
		if err := e.SetConfig(p()); err != nil {
			return err
		}
	}
	for _, cmd := range cfg.Commands {
		if err := e.commands.register(cmd); err != nil {
			return err
		}
	}
	for cat, rules := range cfg.Rules {
		e.rules.register(cat, rules...)
	}
	return nil
}

// Rules returns the registered rules of a category in order.
func (e *Engine) Rules(cat Category) []*Rule {
	return e.rules.rules(cat)
}

// RulesForType returns the rules of a category applicable to a file type.
func (e *Engine) RulesForType(cat Category, typ string) []*Rule {
	return e.rules.rulesForType(cat, typ)
}

// Parse evaluates source in the given scope. A nil scope allocates a fresh
// one; contextValue, when non-nil, seeds the piped `context` name. In async
// mode the result is a *value.Deferred.
func (e *Engine) Parse(ctx context.Context, source string, sc Scope, contextValue any, async bool) (any, error) {
	if sc == nil {
		sc = Scope{}
	}
	if contextValue != nil {
		sc[ScopeContext] = contextValue
	}
	if async {
		return value.Defer(func() (any, error) {
			return e.eval(ctx, source, sc, true)
		}), nil
	}
	return e.eval(ctx, source, sc, false)
}

// eval runs the full pipeline: normalize (cached), split (cached), execute.
func (e *Engine) eval(ctx context.Context, source string, sc Scope, await bool) (any, error) {
	prog, err := e.load(source)
	if err != nil {
		return value.Undefined, err
	}
	for k, v := range prog.binds {
		sc[k] = v
	}
	return e.execNode(ctx, prog.tree, sc, await)
}

func (e *Engine) load(source string) (*program, error) {
	if prog, ok := e.cache.Get(source); ok {
		return prog, nil
	}
	binds := Scope{}
	tree, err := e.parseCommand(source, binds)
	if err != nil {
		return nil, err
	}
	prog := &program{tree: tree, binds: binds}
	e.cache.Add(source, prog)
	return prog, nil
}

// execNode folds the subcommand tree bottom-up, delegating scalar leaves to
// the converter.
func (e *Engine) execNode(ctx context.Context, node *Node, sc Scope, await bool) (any, error) {
	if node.Leaf() {
		return e.convert(ctx, node.Text, sc, true, await)
	}
	return node.Rule.Fold(ctx, &FoldInput{
		Engine: e,
		Scope:  sc,
		Node:   node,
		Rule:   node.Rule,
		Await:  await,
	})
}

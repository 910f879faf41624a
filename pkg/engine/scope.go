package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// Scope is a per-evaluation variable mapping, overlaying the engine's global
// variable store. Scopes are created per top-level Parse call (or supplied by
// the caller), mutated during evaluation, and discarded on return.
type Scope map[string]any

// Reserved scope names.
const (
	ScopeContext        = "context"
	ScopeTemplate       = "template"
	ScopeOffset         = "offset"
	ScopeTemplateOffset = "templateOffset"
	ScopeGlobal         = "global"
)

// varStore is the engine-wide variable store. SetVar writes it, and a `>>`
// path whose root lives here writes through it during evaluation, so it is
// interior-mutable. Normalizer placeholders are bound in the scope instead.
type varStore struct {
	mu   sync.RWMutex
	vars map[string]any
}

func newVarStore() *varStore {
	return &varStore{vars: make(map[string]any)}
}

func (s *varStore) get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

func (s *varStore) set(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = v
}

// IsVariable reports whether s is a variable reference.
func IsVariable(s string) bool {
	return strings.HasPrefix(s, "$")
}

// IsRunnableVariable reports whether s forces execution of the referenced
// value.
func IsRunnableVariable(s string) bool {
	return strings.HasPrefix(s, "$$")
}

// GetVar resolves a simple name: the scope wins over the global store, and
// def is returned when neither holds the name.
func (e *Engine) GetVar(name string, sc Scope, def ...any) any {
	fallback := any(value.Undefined)
	if len(def) > 0 {
		fallback = def[0]
	}
	v, err := e.getPath(context.Background(), []any{name}, sc, fallback, false)
	if err != nil {
		return fallback
	}
	return v
}

// SetVar assigns into the engine's global variable store.
func (e *Engine) SetVar(name string, v any) {
	e.vars.set(name, v)
}

// getPath resolves a key path against the scope and global store. Reads are
// transparent to deferred intermediates: the continuation defers and the
// remaining keys are applied inside it. A null-ish link short-circuits to
// def.
func (e *Engine) getPath(ctx context.Context, keys []any, sc Scope, def any, await bool) (any, error) {
	if len(keys) == 0 {
		return def, nil
	}
	head := value.ToString(keys[0])
	var cur any = value.Undefined
	switch {
	case head == ScopeGlobal:
		cur = e.global
	default:
		if v, ok := sc[head]; ok {
			cur = v
		} else if v, ok := e.vars.get(head); ok {
			cur = v
		}
	}
	return e.walkPath(ctx, cur, keys[1:], def, await)
}

func (e *Engine) walkPath(ctx context.Context, cur any, keys []any, def any, await bool) (any, error) {
	for i, key := range keys {
		if value.IsNullish(cur) {
			return def, nil
		}
		if d, ok := cur.(*value.Deferred); ok {
			rest := keys[i:]
			if await {
				v, err := d.Await(ctx)
				if err != nil {
					return value.Undefined, err
				}
				return e.walkPath(ctx, v, rest, def, true)
			}
			return d.Then(ctx, func(v any) (any, error) {
				return e.walkPath(ctx, v, rest, def, false)
			}), nil
		}
		cur = member(cur, key)
	}
	if value.IsUndefined(cur) {
		return def, nil
	}
	return cur, nil
}

// member resolves one path step. A callable found on a mapping is returned
// bound to that mapping as its receiver.
func member(cur, key any) any {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[value.ToString(key)]
		if !ok {
			return value.Undefined
		}
		if fn, ok := v.(value.Func); ok {
			return value.Bound{Receiver: t, Fn: fn}
		}
		return v
	case []any:
		idx, ok := value.ToIndex(key)
		if !ok || idx < 0 || idx >= len(t) {
			return value.Undefined
		}
		return t[idx]
	case string:
		idx, ok := value.ToIndex(key)
		if !ok || idx < 0 || idx >= len(t) {
			return value.Undefined
		}
		return string(t[idx])
	default:
		return value.Undefined
	}
}

// assign writes v at the key path. The root is resolved in the scope first,
// then the global store; a missing root is created in the scope. Missing
// intermediates become mappings (never sequence slots). Deferred
// intermediates are a hard error for writes.
func (e *Engine) assign(keys []any, v any, sc Scope) error {
	if len(keys) == 0 {
		return newFault(FaultParameterTypeInvalid, map[string]any{
			"parameter": "path",
			"reason":    "empty path",
		})
	}
	head := value.ToString(keys[0])
	if len(keys) == 1 {
		if sc != nil {
			sc[head] = v
			return nil
		}
		e.vars.set(head, v)
		return nil
	}

	var cur any
	if root, ok := sc[head]; ok {
		cur = root
	} else if root, ok := e.vars.get(head); ok {
		cur = root
	} else {
		root := make(map[string]any)
		sc[head] = root
		cur = root
	}

	for i := 1; i < len(keys)-1; i++ {
		key := keys[i]
		if _, ok := cur.(*value.Deferred); ok {
			return deferredWriteFault(keys)
		}
		next := member(cur, key)
		if value.IsNullish(next) {
			created := make(map[string]any)
			if err := setMember(cur, key, created, keys); err != nil {
				return err
			}
			next = created
		}
		cur = next
	}
	if _, ok := cur.(*value.Deferred); ok {
		return deferredWriteFault(keys)
	}
	return setMember(cur, keys[len(keys)-1], v, keys)
}

func setMember(container, key, v any, path []any) error {
	switch t := container.(type) {
	case map[string]any:
		t[value.ToString(key)] = v
		return nil
	case []any:
		idx, ok := value.ToIndex(key)
		if !ok || idx < 0 || idx >= len(t) {
			return newFault(FaultPropertyTypeMismatch, map[string]any{
				"path":   pathStrings(path),
				"key":    value.ToString(key),
				"reason": "sequence index out of range",
			})
		}
		t[idx] = v
		return nil
	default:
		return newFault(FaultPropertyTypeMismatch, map[string]any{
			"path":   pathStrings(path),
			"key":    value.ToString(key),
			"reason": "not a container",
			"type":   value.KindName(container),
		})
	}
}

func deferredWriteFault(path []any) error {
	return newFault(FaultPropertyTypeMismatch, map[string]any{
		"path":   pathStrings(path),
		"reason": "cannot write through a deferred value",
	})
}

func pathStrings(path []any) []string {
	out := make([]string, len(path))
	for i, k := range path {
		out[i] = value.ToString(k)
	}
	return out
}

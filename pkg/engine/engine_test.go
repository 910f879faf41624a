package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

func parseAsync(t *testing.T, e *Engine, src string, sc Scope) any {
	t.Helper()
	got, err := e.Parse(context.Background(), src, sc, nil, true)
	require.NoError(t, err, "source %q", src)
	settled, err := value.Await(context.Background(), got)
	require.NoError(t, err, "source %q", src)
	return settled
}

func TestScenarioNestedArithmetic(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, int64(1), parseSync(t, e, "((1+2)*3-4)/5", nil))
}

func TestScenarioPipeAndLogic(t *testing.T) {
	e := stdEngine(t)
	src := "{foo: {bar: {baz: 5}}} | $context.foo.bar.baz && (1 && 1) && (0 || 0) || 1 || 2"
	assert.Equal(t, int64(1), parseSync(t, e, src, nil))
}

func TestScenarioPipeNullish(t *testing.T) {
	e := stdEngine(t)
	sc := Scope{"var1": map[string]any{
		"foo": map[string]any{
			"bar": map[string]any{
				"baz": []any{int64(1), int64(2)},
			},
		},
	}}
	assert.Equal(t, int64(2), parseSync(t, e, "$var1 | $context.foo.bar.baz.1 ?? 3", sc))
}

func TestScenarioAssignPath(t *testing.T) {
	e := stdEngine(t)
	src := "4 >> [var1, foo, bar, baz, 4]; $var1.foo.bar.baz.4"
	assert.Equal(t, int64(4), parseSync(t, e, src, nil))
}

func TestScenarioConcatFlags(t *testing.T) {
	e := stdEngine(t)
	src := `concat -ab -c -D --args 1 2 3 --delim "|"`
	assert.Equal(t, "1|2|3", parseSync(t, e, src, nil))
}

func TestScenarioAsyncNested(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, int64(4), parseAsync(t, e, "async (async 2)*2", nil))
}

func TestScenarioDeferredPathPipe(t *testing.T) {
	e := stdEngine(t)
	sc := Scope{"var5": []any{
		int64(1),
		value.Resolved([]any{
			value.Func(func(context.Context, ...any) (any, error) { return int64(2), nil }),
			int64(3),
		}),
		value.Resolved(value.Null),
	}}
	assert.Equal(t, int64(2), parseAsync(t, e, "$var5.1.0 | $$context", sc))
}

func TestPropertyParenthesesNeutral(t *testing.T) {
	e := stdEngine(t)
	for _, src := range []string{"1+2", "min 3 1 2", "[1, 2]"} {
		plain := parseSync(t, e, src, nil)
		wrapped := parseSync(t, e, "("+src+")", nil)
		assert.Equal(t, plain, wrapped, "source %q", src)
	}
}

func TestPropertyPipeContextInvariance(t *testing.T) {
	e := stdEngine(t)
	for _, src := range []string{"5", "[1, 2]", `"text"`} {
		assert.Equal(t,
			parseSync(t, e, src, nil),
			parseSync(t, e, src+" | $context", nil),
			"source %q", src)
	}
}

func TestPropertyPipeRestoresContext(t *testing.T) {
	e := stdEngine(t)
	sc := Scope{ScopeContext: "outer"}
	parseSync(t, e, "5 | $context", sc)
	assert.Equal(t, "outer", sc[ScopeContext])
}

func TestPropertySequenceDiscards(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, int64(2), parseSync(t, e, "1; 2", nil))
	assert.Equal(t, int64(1), parseSync(t, e, "1;", nil))
}

func TestPropertyNullishShortCircuit(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, int64(5), parseSync(t, e, "null ?? 5", nil))
	assert.Equal(t, int64(0), parseSync(t, e, "0 ?? 5", nil))
	assert.Equal(t, int64(7), parseSync(t, e, "$missing ?? 7", nil))

	// The right side must not run when the left is non-nullish.
	var ran bool
	require.NoError(t, e.SetConfig(Config{Commands: []*Command{{
		Name: "mark",
		Callback: func(context.Context, ...any) (any, error) {
			ran = true
			return int64(1), nil
		},
	}}}))
	assert.Equal(t, int64(3), parseSync(t, e, "3 ?? mark", nil))
	assert.False(t, ran)
}

func TestPropertyAssignRoundTrip(t *testing.T) {
	e := stdEngine(t)
	for _, src := range []string{"42", `"text"`, "[1, 2]"} {
		want := parseSync(t, e, src, nil)
		got := parseSync(t, e, src+" >> x; $x", Scope{})
		assert.Equal(t, want, got, "source %q", src)
	}
}

func TestPropertyAssignReturnsValue(t *testing.T) {
	e := stdEngine(t)
	sc := Scope{}
	assert.Equal(t, int64(9), parseSync(t, e, "9 >> target", sc))
	assert.Equal(t, int64(9), sc["target"])
}

func TestPropertyVariadicCollection(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, "1,2,3,4", parseSync(t, e, "concat --args 1 2 3 4", nil))
}

func TestPropertySyncAsyncAgreement(t *testing.T) {
	e := stdEngine(t)
	sources := []string{
		"((1+2)*3-4)/5",
		"{foo: 1} | $context.foo ?? 9",
		"min 4 2 8",
		`concat -ab -c -D --args 1 2 3 --delim "|"`,
		"7 >> x; $x",
	}
	for _, src := range sources {
		assert.Equal(t,
			parseSync(t, e, src, Scope{}),
			parseAsync(t, e, src, Scope{}),
			"source %q", src)
	}
}

func TestFailAndSuccessOperators(t *testing.T) {
	e := stdEngine(t)
	assert.Equal(t, int64(1), parseSync(t, e, "0 || 1", nil))
	assert.Equal(t, int64(0), parseSync(t, e, "0 || 0", nil))
	assert.Equal(t, int64(2), parseSync(t, e, "1 && 2", nil))
	assert.Equal(t, int64(0), parseSync(t, e, "0 && 2", nil))
}

func TestBareCommandInvocation(t *testing.T) {
	e := stdEngine(t)
	got := parseSync(t, e, "random", nil)
	f, ok := got.(float64)
	require.True(t, ok, "random should produce a float, got %T", got)
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
}

func TestParseSeedsContext(t *testing.T) {
	e := stdEngine(t)
	got, err := e.Parse(context.Background(), "$context", Scope{}, int64(11), false)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)
}

func TestParseCacheReusesPrograms(t *testing.T) {
	e := stdEngine(t)
	// Two scopes through the same source must each see the placeholder
	// bindings.
	assert.Equal(t, "a|b", parseSync(t, e, `concat --args a b --delim "|"`, Scope{}))
	assert.Equal(t, "a|b", parseSync(t, e, `concat --args a b --delim "|"`, Scope{}))
	assert.Equal(t, 1, e.cache.Len())
}

func TestSetConfigInstallsPluginsFirst(t *testing.T) {
	e := New()
	var order []string
	p := Plugin(func() Config {
		order = append(order, "plugin")
		return Config{}
	})
	require.NoError(t, e.SetConfig(Config{
		Plugins: []Plugin{p},
		Commands: []*Command{{
			Name:     "late",
			Callback: func(context.Context, ...any) (any, error) { return nil, nil },
		}},
	}))
	require.Equal(t, []string{"plugin"}, order)
	assert.True(t, e.IsCommand("late"))
}

func TestRuleOrderStable(t *testing.T) {
	rs := newRuleSet()
	a := &Rule{Name: "a", Order: 0}
	b := &Rule{Name: "b", Order: -1}
	c := &Rule{Name: "c", Order: 0}
	rs.register(CategoryConvert, a, b)
	rs.register(CategoryConvert, c)
	got := rs.rules(CategoryConvert)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "a", got[1].Name)
	assert.Equal(t, "c", got[2].Name)
}

func TestRulesForType(t *testing.T) {
	rs := newRuleSet()
	rs.register(CategoryTemplate,
		&Rule{Name: "all"},
		&Rule{Name: "js-only", Types: []string{"js"}},
		&Rule{Name: "json-only", Types: []string{"json"}},
	)
	names := func(rules []*Rule) []string {
		var out []string
		for _, r := range rules {
			out = append(out, r.Name)
		}
		return out
	}
	assert.Equal(t, []string{"all", "js-only"}, names(rs.rulesForType(CategoryTemplate, "js")))
	assert.Equal(t, []string{"all", "json-only"}, names(rs.rulesForType(CategoryTemplate, "json")))
}

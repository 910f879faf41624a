package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

func parseSync(t *testing.T, e *Engine, src string, sc Scope) any {
	t.Helper()
	got, err := e.Parse(context.Background(), src, sc, nil, false)
	require.NoError(t, err, "source %q", src)
	return got
}

func TestConvertLiterals(t *testing.T) {
	e := New()
	tests := []struct {
		src  string
		want any
	}{
		{"null", value.Null},
		{"undefined", value.Undefined},
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"4.5", 4.5},
		{"hello", "hello"},
		{`"quoted text"`, "quoted text"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSync(t, e, tt.src, nil))
		})
	}
}

func TestConvertNegativeNumbers(t *testing.T) {
	e := New()
	assert.Equal(t, int64(-5), parseSync(t, e, "(-5)", nil))
	assert.Equal(t, int64(-2), parseSync(t, e, "(-5)+3", nil))
}

func TestConvertArrayLiteral(t *testing.T) {
	e := New()
	got := parseSync(t, e, "[1, 2.5, x, true]", nil)
	assert.Equal(t, []any{int64(1), 2.5, "x", true}, got)
	assert.Equal(t, []any{}, parseSync(t, e, "[]", nil))
}

func TestConvertObjectLiteral(t *testing.T) {
	e := New()
	got := parseSync(t, e, "{foo: 1, bar: baz, qux, quux}", nil)
	assert.Equal(t, map[string]any{
		"foo": int64(1),
		"bar": "baz",
		"0":   "qux",
		"1":   "quux",
	}, got)
}

func TestConvertNestedContainers(t *testing.T) {
	e := New()
	got := parseSync(t, e, "{foo: [1, {bar: 2}]}", nil)
	want := map[string]any{
		"foo": []any{int64(1), map[string]any{"bar": int64(2)}},
	}
	assert.Equal(t, want, got)
}

func TestConvertMathPrecedence(t *testing.T) {
	e := New()
	tests := []struct {
		src  string
		want any
	}{
		{"1+2*3", int64(7)},
		{"2*3+1", int64(7)},
		{"2-3*4", int64(-10)},
		{"7/2", 3.5},
		{"7%4", int64(3)},
		{"1+2==3", true},
		{"2>1", true},
		{"1>=2", false},
		{"1==1.0", true},
		{"1===1", true},
		{"null==undefined", true},
		{"null===undefined", false},
		{"1!=2", true},
		{"1!==1", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSync(t, e, tt.src, nil))
		})
	}
}

func TestConvertMathStringConcat(t *testing.T) {
	e := New()
	assert.Equal(t, "ab1", parseSync(t, e, "ab+1", nil))
}

func TestConvertMathContainerMerge(t *testing.T) {
	e := New()
	assert.Equal(t,
		[]any{int64(1), int64(2)},
		parseSync(t, e, "([1])+([2])", nil))
	assert.Equal(t,
		map[string]any{"a": int64(1), "b": int64(3)},
		parseSync(t, e, "({a: 1, b: 2})+({b: 3})", nil))
}

func TestConvertMathTypeMismatch(t *testing.T) {
	e := New()
	_, err := e.Parse(context.Background(), "1*a", nil, nil, false)
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultPropertyTypeMismatch), "got %v", err)
}

func TestConvertFlagPassthrough(t *testing.T) {
	e := New()
	got, err := e.convert(context.Background(), "-ab", Scope{}, true, false)
	require.NoError(t, err)
	assert.Equal(t, "-ab", got)
}

func TestConvertVariablePath(t *testing.T) {
	e := New()
	sc := Scope{"a": map[string]any{"b": []any{int64(10), int64(20)}}}
	assert.Equal(t, int64(20), parseSync(t, e, "$a.b.1", sc))
	assert.Equal(t, value.Undefined, parseSync(t, e, "$a.missing.deep", sc))
}

func TestConvertComputedSegment(t *testing.T) {
	e := New()
	sc := Scope{"a": []any{"zero", "one", "two"}}
	assert.Equal(t, "two", parseSync(t, e, "$a.(1+1)", sc))
}

func TestConvertForceEvalString(t *testing.T) {
	e := New()
	sc := Scope{"expr": "2*2"}
	assert.Equal(t, "2*2", parseSync(t, e, "$expr", sc))
	assert.Equal(t, int64(4), parseSync(t, e, "$$expr", sc))
}

func TestConvertGlobalBridge(t *testing.T) {
	e := New(WithGlobals(StdGlobals()))
	assert.Equal(t, int64(2), parseSync(t, e, "$global.Math.floor 2.7", nil))
	assert.Equal(t, int64(8), parseSync(t, e, "$global.Math.pow 2 3", nil))
}

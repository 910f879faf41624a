package value

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullUndefinedDistinction(t *testing.T) {
	assert.True(t, IsNull(Null))
	assert.False(t, IsNull(Undefined))
	assert.True(t, IsUndefined(Undefined))
	assert.True(t, IsUndefined(nil))
	assert.True(t, IsNullish(Null))
	assert.True(t, IsNullish(Undefined))
	assert.False(t, IsNullish(int64(0)))

	assert.True(t, LooseEqual(Null, Undefined))
	assert.False(t, StrictEqual(Null, Undefined))
	assert.True(t, StrictEqual(Null, Null))
	assert.True(t, StrictEqual(Undefined, Undefined))
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"null", Null, false},
		{"undefined", Undefined, false},
		{"zero", int64(0), false},
		{"number", int64(3), true},
		{"zero float", float64(0), false},
		{"empty string", "", false},
		{"string", "x", true},
		{"false", false, false},
		{"empty sequence", []any{}, true},
		{"empty mapping", map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.v))
		})
	}
}

func TestLooseEqualCoercion(t *testing.T) {
	assert.True(t, LooseEqual(int64(1), "1"))
	assert.True(t, LooseEqual(true, int64(1)))
	assert.True(t, LooseEqual(int64(2), float64(2)))
	assert.True(t, LooseEqual("a", "a"))
	assert.False(t, LooseEqual(Null, int64(0)))
	assert.False(t, LooseEqual("a", "b"))
}

func TestStrictEqual(t *testing.T) {
	assert.True(t, StrictEqual(int64(1), float64(1)))
	assert.False(t, StrictEqual(int64(1), "1"))
	assert.False(t, StrictEqual(true, int64(1)))
	assert.True(t, StrictEqual([]any{int64(1)}, []any{int64(1)}))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "42", ToString(int64(42)))
	assert.Equal(t, "null", ToString(Null))
	assert.Equal(t, "undefined", ToString(Undefined))
	assert.Equal(t, "[1, 2]", ToString([]any{int64(1), int64(2)}))
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat("2.5")
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
	_, ok = ToFloat("abc")
	assert.False(t, ok)
	f, ok = ToFloat(true)
	require.True(t, ok)
	assert.Equal(t, 1.0, f)
}

func TestCallBound(t *testing.T) {
	recv := map[string]any{"base": int64(10)}
	fn := Func(func(_ context.Context, args ...any) (any, error) {
		self := args[0].(map[string]any)
		return self["base"], nil
	})
	got, err := Call(context.Background(), Bound{Receiver: recv, Fn: fn})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)
}

func TestExport(t *testing.T) {
	in := map[string]any{"a": Null, "b": []any{Undefined, int64(1)}}
	out := Export(in).(map[string]any)
	assert.Nil(t, out["a"])
	assert.Equal(t, []any{nil, int64(1)}, out["b"])
}

func TestDeferredAwait(t *testing.T) {
	d := Defer(func() (any, error) { return int64(7), nil })
	got, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	// Await is repeatable.
	got, err = d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestDeferredFlattens(t *testing.T) {
	d := Defer(func() (any, error) {
		return Resolved(Resolved("deep")), nil
	})
	got, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deep", got)
}

func TestDeferredError(t *testing.T) {
	boom := errors.New("boom")
	d := Failed(boom)
	_, err := d.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDeferredThen(t *testing.T) {
	d := Resolved(int64(2)).Then(context.Background(), func(v any) (any, error) {
		return v.(int64) * 3, nil
	})
	got, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}

func TestAwaitAll(t *testing.T) {
	items := []any{int64(1), Resolved(int64(2)), "x", Defer(func() (any, error) { return int64(4), nil })}
	got, err := AwaitAll(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), "x", int64(4)}, got)
}

func TestAwaitAllPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := AwaitAll(context.Background(), []any{Failed(boom)})
	assert.ErrorIs(t, err, boom)
}

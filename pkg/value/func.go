package value

import "context"

// Func is a native callable value.
type Func func(ctx context.Context, args ...any) (any, error)

// Bound is a callable resolved through a dotted path, carrying the mapping it
// was found on as its receiver. The receiver is prepended to the call
// arguments.
type Bound struct {
	Receiver any
	Fn       Func
}

// IsCallable reports whether v can be invoked with Call.
func IsCallable(v any) bool {
	switch v.(type) {
	case Func, Bound:
		return true
	default:
		return false
	}
}

// Call invokes a Func or Bound value.
func Call(ctx context.Context, v any, args ...any) (any, error) {
	switch fn := v.(type) {
	case Func:
		return fn(ctx, args...)
	case Bound:
		bound := make([]any, 0, len(args)+1)
		bound = append(bound, fn.Receiver)
		bound = append(bound, args...)
		return fn.Fn(ctx, bound...)
	default:
		return Undefined, nil
	}
}

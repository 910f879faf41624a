package value

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Deferred is an asynchronous result backed by a goroutine. It resolves
// exactly once; Await may be called any number of times from any goroutine.
type Deferred struct {
	done chan struct{}
	val  any
	err  error
}

// Defer runs fn in a new goroutine and returns the pending result.
func Defer(fn func() (any, error)) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		d.val, d.err = fn()
	}()
	return d
}

// Resolved returns an already-settled deferred.
func Resolved(v any) *Deferred {
	d := &Deferred{done: make(chan struct{}), val: v}
	close(d.done)
	return d
}

// Failed returns an already-failed deferred.
func Failed(err error) *Deferred {
	d := &Deferred{done: make(chan struct{}), err: err}
	close(d.done)
	return d
}

// Await blocks until the deferred settles or ctx is done. Nested deferred
// results are flattened.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return Undefined, ctx.Err()
	case <-d.done:
	}
	if d.err != nil {
		return Undefined, d.err
	}
	if inner, ok := d.val.(*Deferred); ok {
		return inner.Await(ctx)
	}
	return d.val, nil
}

// Then chains fn onto the deferred, returning a new pending result.
func (d *Deferred) Then(ctx context.Context, fn func(any) (any, error)) *Deferred {
	return Defer(func() (any, error) {
		v, err := d.Await(ctx)
		if err != nil {
			return Undefined, err
		}
		return fn(v)
	})
}

// Await resolves v if it is deferred, and returns it unchanged otherwise.
func Await(ctx context.Context, v any) (any, error) {
	if d, ok := v.(*Deferred); ok {
		return d.Await(ctx)
	}
	return v, nil
}

// AwaitAll resolves every deferred element of items in parallel, returning a
// new slice with settled values in the original order.
func AwaitAll(ctx context.Context, items []any) ([]any, error) {
	out := make([]any, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		out[i] = item
		if d, ok := item.(*Deferred); ok {
			g.Go(func() error {
				v, err := d.Await(gctx)
				if err != nil {
					return err
				}
				out[i] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

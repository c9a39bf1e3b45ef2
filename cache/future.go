package cache

import "context"

// Future is a result that settles exactly once and is shared by every caller
// waiting on the same key.
type Future[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// NewFuture returns a pending future
func NewFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

func (f *Future[V]) settle(v V, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the future has settled
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. Giving up does not
// cancel the work behind the future.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

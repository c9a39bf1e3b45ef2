package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Func is the lookup a Memo wraps
type Func[V any] func(ctx context.Context, arg string) (V, error)

// Memo guarantees at most one concurrent call of its Func per key.
//
// The pending future is stored before the call starts, so callers arriving
// while it is in flight wait on the same future instead of calling again.
type Memo[V any] struct {
	ns           Namespace
	store        Store[V]
	fn           Func[V]
	timeout      time.Duration
	keepFailures bool
	absent       func(V) bool
}

// MemoOption configures a Memo
type MemoOption[V any] func(*Memo[V])

// WithTimeout bounds each call of the wrapped Func
func WithTimeout[V any](d time.Duration) MemoOption[V] {
	return func(m *Memo[V]) { m.timeout = d }
}

// KeepFailures controls whether errors and absent values stay cached.
// When false they are dropped once settled so the next call retries.
func KeepFailures[V any](keep bool) MemoOption[V] {
	return func(m *Memo[V]) { m.keepFailures = keep }
}

// WithAbsent marks values that count as failures for KeepFailures
func WithAbsent[V any](absent func(V) bool) MemoOption[V] {
	return func(m *Memo[V]) { m.absent = absent }
}

// NewMemo wraps fn with a store. Failures are kept by default.
func NewMemo[V any](ns Namespace, store Store[V], fn Func[V], opts ...MemoOption[V]) *Memo[V] {
	m := &Memo[V]{
		ns:           ns,
		store:        store,
		fn:           fn,
		keepFailures: true,
		absent:       func(V) bool { return false },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get returns the cached result for arg, calling the wrapped Func only if no
// live entry exists. If ctx ends first Get returns ctx.Err() and the call
// keeps running for whoever asks next.
func (m *Memo[V]) Get(ctx context.Context, arg string) (V, error) {
	key := m.ns.Key(arg)
	f, loaded := m.store.GetOrAdd(key, NewFuture[V]())
	if !loaded {
		go m.run(context.WithoutCancel(ctx), key, arg, f)
	} else {
		zerolog.Ctx(ctx).Debug().Str("key", key).Msg("cache hit")
	}
	return f.Wait(ctx)
}

func (m *Memo[V]) run(ctx context.Context, key, arg string, f *Future[V]) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	var (
		v   V
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache: lookup %q panicked: %v", key, r)
		}
		if !m.keepFailures && (err != nil || m.absent(v)) {
			m.store.Remove(key, f)
		}
		f.settle(v, err)
	}()

	v, err = m.fn(ctx, arg)
}

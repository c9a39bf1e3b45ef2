// Package cache memoizes expensive lookups as shared in-flight-or-completed
// futures, backed by either a time-bounded or a capacity-bounded store.
package cache

// Store holds at most one future per key.
//
// Implementations must make GetOrAdd atomic: two callers racing on the same
// key both get the same future, and only one of them sees loaded == false.
type Store[V any] interface {
	// GetOrAdd returns the live future for key if there is one (loaded is
	// true); otherwise it stores f under key and returns it.
	GetOrAdd(key string, f *Future[V]) (actual *Future[V], loaded bool)

	// Remove deletes key only if it still maps to f.
	Remove(key string, f *Future[V])

	Clearer
}

// Clearer is the administrative view of a store
type Clearer interface {
	// Clear drops every entry and returns how many live entries were dropped.
	Clear() int

	// Len returns the number of live entries.
	Len() int
}

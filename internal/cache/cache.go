// Package cache holds computed reports between ledger mutations.
package cache

// Cache is the report cache used by the ledger service. Entries are only
// ever dropped all at once, when the ledger changes.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)

	// Clear drops every entry
	Clear()

	// Size returns the current number of entries
	Size() int
}

// Nop is a Cache that never stores anything. Used when caching is disabled.
type Nop[T any] struct{}

func (Nop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Set(string, T) {}
func (Nop[T]) Clear()        {}
func (Nop[T]) Size() int     { return 0 }

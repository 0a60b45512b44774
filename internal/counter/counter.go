// Package counter provides a generic frequency multiset.
package counter

import (
	"iter"
	"maps"
)

// Counter maps keys to non-negative occurrence counts.
// The zero value is not usable; construct with New.
type Counter[K comparable] struct {
	counts map[K]int
}

// New returns an empty counter.
func New[K comparable]() *Counter[K] {
	return &Counter[K]{counts: make(map[K]int)}
}

// Insert counts one occurrence of key.
func (c *Counter[K]) Insert(key K) {
	c.Increment(key, 1)
}

// Increment adds amount to the count of key, creating the entry at 0 if absent.
func (c *Counter[K]) Increment(key K, amount int) {
	c.counts[key] += amount
}

// Count returns the count of key, 0 if it was never inserted.
func (c *Counter[K]) Count(key K) int {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counter[K]) Len() int {
	return len(c.counts)
}

// Merge adds every count of other into c.
func (c *Counter[K]) Merge(other *Counter[K]) {
	for k, n := range other.counts {
		c.counts[k] += n
	}
}

// MostCommon returns a key with the maximum count, or false if the counter is empty.
//
// When several keys share the maximum count the one returned is unspecified: it
// depends on map iteration order and may differ between calls. Use MostCommonFunc
// when a reproducible choice is required.
func (c *Counter[K]) MostCommon() (K, bool) {
	var (
		best  K
		count int
		found bool
	)
	for k, n := range c.counts {
		if !found || n > count {
			best, count, found = k, n, true
		}
	}
	return best, found
}

// MostCommonFunc returns the key with the maximum count, breaking ties by the
// smallest key according to cmp. It returns false if the counter is empty.
func (c *Counter[K]) MostCommonFunc(cmp func(a, b K) int) (K, bool) {
	var (
		best  K
		count int
		found bool
	)
	for k, n := range c.counts {
		if !found || n > count || (n == count && cmp(k, best) < 0) {
			best, count, found = k, n, true
		}
	}
	return best, found
}

// All yields every (key, count) pair in unspecified order.
func (c *Counter[K]) All() iter.Seq2[K, int] {
	return maps.All(c.counts)
}

// Keys yields every distinct key in unspecified order.
func (c *Counter[K]) Keys() iter.Seq[K] {
	return maps.Keys(c.counts)
}

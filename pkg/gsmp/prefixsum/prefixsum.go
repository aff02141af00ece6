// Package prefixsum implements an ordered sequence of nonnegative
// weights supporting push, point update, total, and "find the index
// whose cumulative weight covers v". Two implementations share the
// PrefixSum contract: a binary segment tree for O(log n) updates, and an
// O(n)-recompute cumulative-sum array that wins for small n.
package prefixsum

// PrefixSum is the weighted-selection contract. Slot indices are
// 0-indexed and stable:
// Set/Get/Find never renumber a slot that Push already assigned.
type PrefixSum interface {
	// Push appends a new slot with weight w and returns its index.
	Push(w float64) int
	// Set replaces the weight at slot i. i must be < Len().
	Set(i int, w float64)
	// Get returns the weight at slot i.
	Get(i int) float64
	// Total returns the sum of all weights.
	Total() float64
	// Find returns the smallest index whose cumulative weight (through
	// that index) exceeds v, and the residual weight[index] - (v -
	// cumulative weight before index). Precondition: 0 <= v < Total().
	Find(v float64) (index int, residual float64)
	// Clear resets the structure to empty.
	Clear()
	// Len returns the number of slots (including any zero-weight ones).
	Len() int
}

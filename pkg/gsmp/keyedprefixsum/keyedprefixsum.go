// Package keyedprefixsum lifts prefixsum.PrefixSum to arbitrary clock
// keys, with two slot-reuse policies: Keep, which never frees a slot
// once assigned, and Remove, which recycles vacated slots off a free
// list before extending the underlying sequence.
package keyedprefixsum

import "github.com/jihwankim/gsmpsampler/pkg/gsmp/prefixsum"

// Policy selects how a disabled key's slot is handled.
type Policy int

const (
	// Keep never frees a slot: disabling zeros its weight but the slot
	// index is retained forever, so re-enabling the same key after a
	// disable gets a fresh slot rather than reusing the old one. Fastest
	// when the key set is bounded and stable.
	Keep Policy = iota
	// Remove frees a disabled key's slot onto a free list; subsequent
	// Set on a new key pops from the free list before extending the
	// underlying PrefixSum.
	Remove
)

// KeyedPrefixSum lifts a prefixsum.PrefixSum to arbitrary comparable keys.
// For every enabled key there is exactly one slot with strictly positive
// weight; under Remove, zeroed slots on the free list are
// disjoint from live keys.
type KeyedPrefixSum[K comparable] struct {
	sums     prefixsum.PrefixSum
	slots    map[K]int
	keyOf    map[int]K
	free     []int
	policy   Policy
	newSums  func() prefixsum.PrefixSum
}

// New builds a KeyedPrefixSum over a fresh instance of the PrefixSum
// implementation newSums produces (prefixsum.NewTree or
// prefixsum.NewCumsum), with the given slot-reuse policy.
func New[K comparable](policy Policy, newSums func() prefixsum.PrefixSum) *KeyedPrefixSum[K] {
	return &KeyedPrefixSum[K]{
		sums:    newSums(),
		slots:   make(map[K]int),
		keyOf:   make(map[int]K),
		policy:  policy,
		newSums: newSums,
	}
}

// Set assigns weight w to key, allocating a new slot (or reusing one from
// the free list, under Remove) if key is not already present.
func (k *KeyedPrefixSum[K]) Set(key K, w float64) {
	if i, ok := k.slots[key]; ok {
		k.sums.Set(i, w)
		return
	}
	var i int
	if k.policy == Remove && len(k.free) > 0 {
		i = k.free[len(k.free)-1]
		k.free = k.free[:len(k.free)-1]
		k.sums.Set(i, w)
	} else {
		i = k.sums.Push(w)
	}
	k.slots[key] = i
	k.keyOf[i] = key
}

// Get returns key's current weight, or 0 if key has no slot.
func (k *KeyedPrefixSum[K]) Get(key K) float64 {
	i, ok := k.slots[key]
	if !ok {
		return 0
	}
	return k.sums.Get(i)
}

// Delete removes key. Under Keep the slot's weight is zeroed but the slot
// itself is never reused. Under Remove the slot is zeroed and pushed onto
// the free list for the next Set of an unseen key.
func (k *KeyedPrefixSum[K]) Delete(key K) {
	i, ok := k.slots[key]
	if !ok {
		return
	}
	k.sums.Set(i, 0)
	delete(k.slots, key)
	delete(k.keyOf, i)
	if k.policy == Remove {
		k.free = append(k.free, i)
	}
}

// Total returns the sum of all weights (live and zeroed slots alike — the
// zeroed ones simply contribute 0).
func (k *KeyedPrefixSum[K]) Total() float64 { return k.sums.Total() }

// Choose draws the key whose slot covers v, per prefixsum.Find.
// Precondition: 0 <= v < Total().
func (k *KeyedPrefixSum[K]) Choose(v float64) (key K, residual float64) {
	i, residual := k.sums.Find(v)
	return k.keyOf[i], residual
}

// Len returns the number of currently enabled keys.
func (k *KeyedPrefixSum[K]) Len() int { return len(k.slots) }

// Keys returns the currently enabled keys in unspecified order.
func (k *KeyedPrefixSum[K]) Keys() []K {
	keys := make([]K, 0, len(k.slots))
	for key := range k.slots {
		keys = append(keys, key)
	}
	return keys
}

// IsEnabled reports whether key currently holds a slot.
func (k *KeyedPrefixSum[K]) IsEnabled(key K) bool {
	_, ok := k.slots[key]
	return ok
}

// Clear resets to empty, discarding the underlying PrefixSum and free
// list entirely (a fresh one is allocated via the constructor's newSums).
func (k *KeyedPrefixSum[K]) Clear() {
	k.sums = k.newSums()
	k.slots = make(map[K]int)
	k.keyOf = make(map[int]K)
	k.free = nil
}

package prefixsum

// Tree is the binary segment tree implementation of PrefixSum: a complete
// binary tree in a flat array, leaves holding weights and internal nodes
// holding the sum of their children. Capacity doubles on overflow; Total
// is O(1) (the root), Set/Find are O(log n).
type Tree struct {
	nodes    []float64 // len == 2*capacity-1 once allocated
	capacity int       // number of leaf slots currently allocated
	n        int       // number of slots actually in use (<= capacity)
}

// NewTree returns an empty binary-tree PrefixSum.
func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) Len() int { return t.n }

func (t *Tree) Total() float64 {
	if t.capacity == 0 {
		return 0
	}
	return t.nodes[0]
}

func (t *Tree) Push(w float64) int {
	if t.n == t.capacity {
		t.grow()
	}
	i := t.n
	t.n++
	t.setLeaf(i, w)
	return i
}

func (t *Tree) Set(i int, w float64) {
	if i < 0 || i >= t.n {
		panic("prefixsum: Set index out of range")
	}
	t.setLeaf(i, w)
}

func (t *Tree) Get(i int) float64 {
	if i < 0 || i >= t.n {
		panic("prefixsum: Get index out of range")
	}
	return t.nodes[t.capacity-1+i]
}

func (t *Tree) Clear() {
	t.nodes = nil
	t.capacity = 0
	t.n = 0
}

// grow doubles capacity (from 0 to 1 the first time), copying the
// existing leaf range into the new layout and recomputing every internal
// sum bottom-up exactly once, rather than replaying each Set.
func (t *Tree) grow() {
	newCap := t.capacity * 2
	if newCap == 0 {
		newCap = 1
	}
	old := t.nodes
	oldCap := t.capacity
	t.nodes = make([]float64, 2*newCap-1)
	t.capacity = newCap
	if old != nil {
		for i := 0; i < oldCap; i++ {
			t.nodes[newCap-1+i] = old[oldCap-1+i]
		}
	}
	for i := newCap - 2; i >= 0; i-- {
		t.nodes[i] = t.nodes[2*i+1] + t.nodes[2*i+2]
	}
}

func (t *Tree) setLeaf(i int, w float64) {
	idx := t.capacity - 1 + i
	t.nodes[idx] = w
	for idx > 0 {
		idx = (idx - 1) / 2
		t.nodes[idx] = t.nodes[2*idx+1] + t.nodes[2*idx+2]
	}
}

// Find descends from the root, going left whenever the left child's sum
// strictly exceeds the remaining v, right (subtracting the left sum)
// otherwise.
func (t *Tree) Find(v float64) (index int, residual float64) {
	idx := 0
	for idx < t.capacity-1 {
		left := 2*idx + 1
		leftSum := t.nodes[left]
		if leftSum > v {
			idx = left
		} else {
			v -= leftSum
			idx = left + 1
		}
	}
	leaf := idx - (t.capacity - 1)
	return leaf, t.nodes[idx] - v
}

// SetMultiple applies several weight updates at once, coalescing
// sibling updates by depth rather than recomputing ancestor
// sums once per call to Set: every touched leaf's immediate ancestors are
// recomputed, but each distinct ancestor is recomputed only once even
// when two updates share it.
func (t *Tree) SetMultiple(updates map[int]float64) {
	dirty := make(map[int]bool, len(updates)*2)
	for i, w := range updates {
		if i < 0 || i >= t.n {
			panic("prefixsum: SetMultiple index out of range")
		}
		leaf := t.capacity - 1 + i
		t.nodes[leaf] = w
		dirty[leaf] = true
	}
	// Walk up one level at a time; at each level recompute every dirty
	// parent exactly once, then mark it dirty for the next level up.
	level := dirty
	for len(level) > 0 {
		next := make(map[int]bool, len(level))
		for idx := range level {
			if idx == 0 {
				continue
			}
			parent := (idx - 1) / 2
			if next[parent] {
				continue
			}
			t.nodes[parent] = t.nodes[2*parent+1] + t.nodes[2*parent+2]
			next[parent] = true
		}
		level = next
	}
}

var _ PrefixSum = (*Tree)(nil)

package prefixsum

import "sort"

// Cumsum is the array-based PrefixSum implementation: weights stored flat, a
// lazily-recomputed cumulative array, and a dirty flag. Mutations are
// O(1); Total/Find trigger an O(n) recompute only when dirty, then Find
// binary-searches the cumulative array. This wins over Tree for small n
// because it is cache-friendly and has none of the tree's pointer-chasing.
type Cumsum struct {
	w     []float64
	c     []float64 // cumulative; c[i] = sum(w[0..i])
	dirty bool
}

func NewCumsum() *Cumsum { return &Cumsum{} }

func (s *Cumsum) Len() int { return len(s.w) }

func (s *Cumsum) Push(w float64) int {
	s.w = append(s.w, w)
	s.dirty = true
	return len(s.w) - 1
}

func (s *Cumsum) Set(i int, w float64) {
	if i < 0 || i >= len(s.w) {
		panic("prefixsum: Set index out of range")
	}
	s.w[i] = w
	s.dirty = true
}

func (s *Cumsum) Get(i int) float64 {
	if i < 0 || i >= len(s.w) {
		panic("prefixsum: Get index out of range")
	}
	return s.w[i]
}

func (s *Cumsum) Clear() {
	s.w = nil
	s.c = nil
	s.dirty = false
}

func (s *Cumsum) recompute() {
	if !s.dirty {
		return
	}
	if cap(s.c) < len(s.w) {
		s.c = make([]float64, len(s.w))
	} else {
		s.c = s.c[:len(s.w)]
	}
	running := 0.0
	for i, w := range s.w {
		running += w
		s.c[i] = running
	}
	s.dirty = false
}

func (s *Cumsum) Total() float64 {
	s.recompute()
	if len(s.c) == 0 {
		return 0
	}
	return s.c[len(s.c)-1]
}

// Find binary-searches the cumulative array for the smallest index whose
// cumulative weight strictly exceeds v.
func (s *Cumsum) Find(v float64) (index int, residual float64) {
	s.recompute()
	i := sort.Search(len(s.c), func(i int) bool { return s.c[i] > v })
	before := 0.0
	if i > 0 {
		before = s.c[i-1]
	}
	return i, s.w[i] - (v - before)
}

var _ PrefixSum = (*Cumsum)(nil)

package completion

import (
	"container/heap"
	"sort"
	"strings"
)

// topK is a bounded min-heap of size k (§4.7's top-k heap): Offer pushes
// while under capacity, else replaces the current minimum when the
// incoming candidate outranks it. Ordering: A ranks below B when
// A.Score < B.Score, or scores tie and name(A) compares lexicographically
// greater (case-insensitive) than name(B) — so Finish's descending drain
// breaks score ties by ascending case-insensitive name.
type topK struct {
	k int
	h candidateHeap
}

func newTopK(k int) *topK {
	return &topK{k: k}
}

func (t *topK) Offer(c Candidate) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if less(t.h[0], c) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// finish drains the heap into a score-descending list, ties broken by
// ascending case-insensitive name.
func (t *topK) finish() []Candidate {
	out := make([]Candidate, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return strings.ToLower(a.Name) > strings.ToLower(b.Name)
}

type candidateHeap []Candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(Candidate))
}
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

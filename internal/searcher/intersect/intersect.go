// Package intersect combines ascending postings lists for query evaluation.
// Inputs must be strictly ascending; outputs are strictly ascending and never
// alias an input.
package intersect

import (
	"container/heap"
	"sort"
)

// Intersect returns the postings present in both a and b.
func Intersect(a, b []uint64) []uint64 {
	out := make([]uint64, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// IntersectAll intersects every list, starting from the shortest so the
// working set shrinks as fast as possible.
func IntersectAll(lists ...[]uint64) []uint64 {
	if len(lists) == 0 {
		return nil
	}
	sorted := make([][]uint64, len(lists))
	copy(sorted, lists)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i]) < len(sorted[j])
	})
	result := append([]uint64(nil), sorted[0]...)
	for _, l := range sorted[1:] {
		if len(result) == 0 {
			break
		}
		result = Intersect(result, l)
	}
	return result
}

// Union merges the lists into one ascending list without duplicates.
func Union(lists ...[]uint64) []uint64 {
	h := &cursorHeap{}
	total := 0
	for _, l := range lists {
		if len(l) > 0 {
			*h = append(*h, cursor{list: l})
			total += len(l)
		}
	}
	heap.Init(h)
	out := make([]uint64, 0, total)
	for h.Len() > 0 {
		c := &(*h)[0]
		v := c.list[c.pos]
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
		c.pos++
		if c.pos == len(c.list) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}

type cursor struct {
	list []uint64
	pos  int
}

type cursorHeap []cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	return h[i].list[h[i].pos] < h[j].list[h[j].pos]
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

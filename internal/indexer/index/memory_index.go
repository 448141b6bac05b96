package index

import (
	"slices"
	"sort"
	"sync"
)

// MemoryIndex is the mutable inverted index documents are added to before a
// flush turns it into a segment.
type MemoryIndex struct {
	mu       sync.RWMutex
	index    map[string][]uint64
	docCount int
	size     int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string][]uint64),
	}
}

// Add records that docID contains every term in terms. Postings stay
// ascending even if docID is lower than IDs already present, and re-adding a
// document is a no-op for terms it already has.
func (m *MemoryIndex) Add(docID uint64, terms []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := false
	for _, term := range terms {
		postings := m.index[term]
		i, found := slices.BinarySearch(postings, docID)
		if found {
			continue
		}
		if len(postings) == 0 {
			m.size += int64(len(term) + 32)
		}
		m.index[term] = slices.Insert(postings, i, docID)
		m.size += 8
		added = true
	}
	if added {
		m.docCount++
	}
}

// Search returns a copy of the postings for term.
func (m *MemoryIndex) Search(term string) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	postings, exists := m.index[term]
	if !exists {
		return nil
	}
	return slices.Clone(postings)
}

// Snapshot returns every term with a copy of its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.index))
	for term, postings := range m.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: slices.Clone(postings),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (m *MemoryIndex) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docCount
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string][]uint64)
	m.docCount = 0
	m.size = 0
}

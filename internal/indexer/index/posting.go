package index

// TermEntry is one term and its ascending document IDs.
type TermEntry struct {
	Term     string
	Postings []uint64
}

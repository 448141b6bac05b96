package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Indexing of postings, and the searching!")
	assert.Equal(t, []Token{
		{Term: "index", Position: 0},
		{Term: "posting", Position: 1},
		{Term: "search", Position: 2},
	}, tokens)
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"search", "engine"}, Terms("search engine, Search"))
	assert.Empty(t, Terms("the a of x"))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"relational": "relate",
		"documents":  "document",
		"queries":    "query",
		"running":    "runn",
		"class":      "class",
		"go":         "go",
	}
	for word, want := range tests {
		assert.Equal(t, want, stem(word), word)
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. The inverted index maps each term to the documents containing it. `, 20)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}

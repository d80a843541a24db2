package corpus

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lorecheck/lorecheck/internal/model"
)

// Index answers nearest-neighbor queries over the chunks of indexed books.
type Index interface {
	// IndexBook embeds and stores the chunks of one book. Indexing the
	// same book again replaces the previous entry.
	IndexBook(ctx context.Context, book string, chunks []Chunk) error

	// Query returns the top-K chunks most similar to the query text,
	// best match first. An indexed book with no matches yields an empty
	// result, not an error.
	Query(ctx context.Context, book, query string, topK int) ([]model.Passage, error)

	// HasBook reports whether a book has been indexed.
	HasBook(book string) bool
}

type indexedChunk struct {
	chunk  Chunk
	vector []float32
}

// MemoryIndex is an in-process Index holding embedded chunks per book.
// The store is ephemeral and rebuilt each run; the Index interface is the
// seam where a networked vector store would plug in.
type MemoryIndex struct {
	embedder Embedder

	mu    sync.RWMutex
	books map[string][]indexedChunk
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		books:    make(map[string][]indexedChunk),
	}
}

// IndexBook embeds all chunks and stores them under the book title.
func (m *MemoryIndex) IndexBook(ctx context.Context, book string, chunks []Chunk) error {
	if book == "" {
		return fmt.Errorf("book title is empty")
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index for book %q", book)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks for %q: %w", book, err)
	}

	entries := make([]indexedChunk, len(chunks))
	for i := range chunks {
		entries[i] = indexedChunk{chunk: chunks[i], vector: vectors[i]}
	}

	m.mu.Lock()
	m.books[book] = entries
	m.mu.Unlock()
	return nil
}

// Query embeds the query text and ranks the book's chunks by cosine
// similarity.
func (m *MemoryIndex) Query(ctx context.Context, book, query string, topK int) ([]model.Passage, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	m.mu.RLock()
	entries, ok := m.books[book]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("book %q is not indexed", book)
	}

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := vectors[0]

	type scored struct {
		chunk Chunk
		score float64
	}
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		results = append(results, scored{chunk: e.chunk, score: cosineSimilarity(queryVec, e.vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	passages := make([]model.Passage, len(results))
	for i, r := range results {
		passages[i] = model.Passage{
			Book:     r.chunk.Book,
			Position: r.chunk.Position,
			Rank:     i + 1,
			Score:    r.score,
			Text:     r.chunk.Text,
		}
	}
	return passages, nil
}

// HasBook reports whether the book has been indexed.
func (m *MemoryIndex) HasBook(book string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.books[book]
	return ok
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

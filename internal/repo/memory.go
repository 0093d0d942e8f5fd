package repo

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/model"
)

// MemoryStore is a linear-scan implementation of the chunk, document and
// lexical stores. It backs tests and deployments without a pgvector
// database; the scoring is deliberately simple but the interfaces match
// the Postgres repos.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]model.DocumentMeta // ownerID -> documentID -> meta
	items map[string][]model.Chunk                 // ownerID -> chunks
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string]model.DocumentMeta),
		items: make(map[string][]model.Chunk),
	}
}

func (s *MemoryStore) Save(ctx context.Context, ownerID string, meta *model.DocumentMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[ownerID] == nil {
		s.docs[ownerID] = make(map[string]model.DocumentMeta)
	}
	s.docs[ownerID][meta.DocumentID] = *meta
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, documentID string) (*model.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.docs[ownerID][documentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &meta, nil
}

func (s *MemoryStore) ReplaceDocumentChunks(ctx context.Context, ownerID, documentID string, chunks []model.Chunk) ([]model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[ownerID][:0]
	for _, ch := range s.items[ownerID] {
		if ch.DocumentID != documentID {
			kept = append(kept, ch)
		}
	}
	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	for i := range out {
		out[i].ID = uuid.NewString()
		kept = append(kept, out[i])
	}
	s.items[ownerID] = kept
	return out, nil
}

func (s *MemoryStore) ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Chunk
	for _, ch := range s.items[ownerID] {
		if ch.DocumentID == documentID {
			out = append(out, ch)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (s *MemoryStore) QueryByVector(ctx context.Context, ownerID string, vector []float32, limit int, minSimilarity float64) ([]model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []model.SearchResult
	for _, ch := range s.items[ownerID] {
		if len(ch.Embedding) == 0 {
			continue
		}
		sim := ai.CosineSimilarity(vector, ch.Embedding)
		if sim < minSimilarity {
			continue
		}
		results = append(results, model.SearchResult{
			Chunk:      ch,
			Meta:       s.docs[ownerID][ch.DocumentID],
			Similarity: sim,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchChunks scores chunks by query-term frequency. Not BM25, but it
// ranks well enough for tests and small corpora.
func (s *MemoryStore) SearchChunks(ctx context.Context, ownerID, query string, limit int) ([]model.SearchResult, error) {
	terms := strings.Fields(strings.ToLower(sanitizeQuery(query)))
	if len(terms) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []model.SearchResult
	for _, ch := range s.items[ownerID] {
		content := strings.ToLower(ch.Content)
		score := 0.0
		for _, term := range terms {
			score += float64(strings.Count(content, term))
		}
		if score == 0 {
			continue
		}
		results = append(results, model.SearchResult{
			Chunk:        ch,
			Meta:         s.docs[ownerID][ch.DocumentID],
			LexicalScore: score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].LexicalScore > results[j].LexicalScore
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

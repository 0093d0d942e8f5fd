package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragcore/internal/model"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "owner1", &model.DocumentMeta{
		DocumentID: "docA",
		Title:      "Retrieval Systems",
		DocType:    model.DocTypePaper,
	}))
	_, err := s.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "hybrid retrieval with rank fusion", Embedding: []float32{1, 0}},
		{DocumentID: "docA", ChunkIndex: 1, Content: "vector embeddings capture semantics", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	return s
}

func TestMemoryStore_ReplaceAssignsIDs(t *testing.T) {
	s := seedStore(t)
	chunks, err := s.ListByDocument(context.Background(), "owner1", "docA")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.NotEmpty(t, chunks[0].ID)
	require.NotEqual(t, chunks[0].ID, chunks[1].ID)
	require.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestMemoryStore_ReplaceIsReplaceAll(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	_, err := s.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "fresh content only"},
	})
	require.NoError(t, err)
	chunks, err := s.ListByDocument(ctx, "owner1", "docA")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "fresh content only", chunks[0].Content)
}

func TestMemoryStore_QueryByVector(t *testing.T) {
	s := seedStore(t)
	results, err := s.QueryByVector(context.Background(), "owner1", []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, results[0].Chunk.Content, "rank fusion")
	require.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	require.Equal(t, "Retrieval Systems", results[0].Meta.Title)
}

func TestMemoryStore_QueryByVectorScoped(t *testing.T) {
	s := seedStore(t)
	results, err := s.QueryByVector(context.Background(), "other-owner", []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestMemoryStore_SearchChunks(t *testing.T) {
	s := seedStore(t)
	results, err := s.SearchChunks(context.Background(), "owner1", "rank fusion", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Greater(t, results[0].LexicalScore, 0.0)
}

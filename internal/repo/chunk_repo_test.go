package repo

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragcore/internal/db"
	"github.com/ragstack/ragcore/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(db.Config{
		Host:     host,
		Port:     5432,
		User:     "ragcore",
		Password: "ragcore_pass",
		DBName:   "ragcore_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		_, _ = conn.Exec("DELETE FROM chunks")
		_, _ = conn.Exec("DELETE FROM documents")
		_ = conn.Close()
	})
	return conn
}

func testEmbedding(dim int, hot int) []float32 {
	vec := make([]float32, dim)
	vec[hot%dim] = 1
	return vec
}

func TestChunkRepo_ReplaceAndList(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(conn)
	chunksRepo := NewChunkRepo(conn)

	require.NoError(t, docs.Save(ctx, "owner1", &model.DocumentMeta{
		DocumentID: "docA",
		Title:      "Hybrid Retrieval",
		DocType:    model.DocTypePaper,
		Authors:    []string{"A. Author"},
	}))

	saved, err := chunksRepo.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "fusion of ranked lists", ContentHash: "h0", TokenCount: 6, ChunkType: model.ChunkTypeContent, Embedding: testEmbedding(768, 0)},
		{DocumentID: "docA", ChunkIndex: 1, Content: "dense vector similarity", ContentHash: "h1", TokenCount: 5, ChunkType: model.ChunkTypeContent, Embedding: testEmbedding(768, 1)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved[0].ID)

	listed, err := chunksRepo.ListByDocument(ctx, "owner1", "docA")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "fusion of ranked lists", listed[0].Content)

	// Replace-all on re-ingestion.
	_, err = chunksRepo.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "second ingestion", ContentHash: "h2", TokenCount: 3, ChunkType: model.ChunkTypeContent},
	})
	require.NoError(t, err)
	listed, err = chunksRepo.ListByDocument(ctx, "owner1", "docA")
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestChunkRepo_QueryByVector(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(conn)
	chunksRepo := NewChunkRepo(conn)

	require.NoError(t, docs.Save(ctx, "owner1", &model.DocumentMeta{
		DocumentID: "docA", Title: "T", DocType: model.DocTypeNote,
	}))
	_, err := chunksRepo.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "close match", ContentHash: "h0", TokenCount: 2, ChunkType: model.ChunkTypeContent, Embedding: testEmbedding(768, 0)},
		{DocumentID: "docA", ChunkIndex: 1, Content: "orthogonal", ContentHash: "h1", TokenCount: 1, ChunkType: model.ChunkTypeContent, Embedding: testEmbedding(768, 5)},
	})
	require.NoError(t, err)

	results, err := chunksRepo.QueryByVector(ctx, "owner1", testEmbedding(768, 0), 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "close match", results[0].Chunk.Content)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestFTSRepo_SearchChunks(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(conn)
	chunksRepo := NewChunkRepo(conn)
	fts := NewFTSRepo(conn)

	require.NoError(t, docs.Save(ctx, "owner1", &model.DocumentMeta{
		DocumentID: "docA", Title: "T", DocType: model.DocTypeNote,
	}))
	_, err := chunksRepo.ReplaceDocumentChunks(ctx, "owner1", "docA", []model.Chunk{
		{DocumentID: "docA", ChunkIndex: 0, Content: "reciprocal rank fusion merges ranked lists", ContentHash: "h0", TokenCount: 8, ChunkType: model.ChunkTypeContent},
		{DocumentID: "docA", ChunkIndex: 1, Content: "unrelated gardening tips", ContentHash: "h1", TokenCount: 4, ChunkType: model.ChunkTypeContent},
	})
	require.NoError(t, err)

	results, err := fts.SearchChunks(ctx, "owner1", "rank fusion", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, results[0].Chunk.Content, "reciprocal")
	require.Greater(t, results[0].LexicalScore, 0.0)
}

func TestSanitizeQuery(t *testing.T) {
	require.Equal(t, "rank fusion k 60", sanitizeQuery(`rank & fusion! (k=60)`))
	require.Equal(t, "", sanitizeQuery("   "))
}

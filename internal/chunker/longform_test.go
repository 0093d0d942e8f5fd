package chunker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragcore/internal/model"
)

const paperMarkdown = `# Deep Retrieval at Scale

## Abstract

We present a hybrid retrieval system combining dense and lexical signals.
Experiments show consistent gains on three benchmarks.

## Introduction

Retrieval quality depends on more than one signal.

Figure 1: Architecture of the hybrid retrieval engine.

Table 2: Benchmark results across corpora.

## References

Smith et al., Dense Passage Retrieval, 2020.
`

func paperMeta() model.DocumentMeta {
	return model.DocumentMeta{
		DocumentID:    "doc1",
		DocType:       model.DocTypePaper,
		Authors:       []string{"A. Smith", "B. Jones"},
		PublishedDate: "2020-06-01",
		Identifiers:   []string{"doi:10.1000/xyz"},
	}
}

func chunksByType(chunks []model.Chunk) map[model.ChunkType][]model.Chunk {
	out := map[model.ChunkType][]model.Chunk{}
	for _, ch := range chunks {
		out[ch.ChunkType] = append(out[ch.ChunkType], ch)
	}
	return out
}

func TestSpecialChunks_Paper(t *testing.T) {
	chunks := SpecialChunks(context.Background(), paperMarkdown, paperMeta())
	byType := chunksByType(chunks)

	require.Len(t, byType[model.ChunkTypeTitle], 1)
	require.Equal(t, "Deep Retrieval at Scale", byType[model.ChunkTypeTitle][0].Content)

	require.Len(t, byType[model.ChunkTypeAbstract], 1)
	require.Contains(t, byType[model.ChunkTypeAbstract][0].Content, "hybrid retrieval system")

	require.Len(t, byType[model.ChunkTypeFigureCaption], 1)
	require.Contains(t, byType[model.ChunkTypeFigureCaption][0].Content, "Figure 1")

	require.Len(t, byType[model.ChunkTypeTableCaption], 1)
	require.Contains(t, byType[model.ChunkTypeTableCaption][0].Content, "Table 2")

	require.Len(t, byType[model.ChunkTypeReferences], 1)
	require.Contains(t, byType[model.ChunkTypeReferences][0].Content, "Smith et al.")

	require.Len(t, byType[model.ChunkTypeMetadata], 1)
	require.Contains(t, byType[model.ChunkTypeMetadata][0].Content, "A. Smith")
	require.Contains(t, byType[model.ChunkTypeMetadata][0].Content, "doi:10.1000/xyz")
}

func TestSpecialChunks_SkipsShortFormDocs(t *testing.T) {
	meta := paperMeta()
	meta.DocType = model.DocTypeNote
	require.Empty(t, SpecialChunks(context.Background(), paperMarkdown, meta))
}

func TestSpecialChunks_MetaTitleWinsOverHeading(t *testing.T) {
	meta := paperMeta()
	meta.Title = "Official Record Title"
	chunks := SpecialChunks(context.Background(), paperMarkdown, meta)
	byType := chunksByType(chunks)
	require.Len(t, byType[model.ChunkTypeTitle], 1)
	require.Equal(t, "Official Record Title", byType[model.ChunkTypeTitle][0].Content)
}

func TestSpecialChunks_HashesAndTokens(t *testing.T) {
	chunks := SpecialChunks(context.Background(), paperMarkdown, paperMeta())
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		require.Equal(t, "doc1", ch.DocumentID)
		require.Equal(t, HashContent(ch.Content), ch.ContentHash)
		require.Greater(t, ch.TokenCount, 0)
	}
}

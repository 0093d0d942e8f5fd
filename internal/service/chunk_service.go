package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/chunker"
	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/errs"
)

// DocumentStore persists document-level metadata.
type DocumentStore interface {
	Save(ctx context.Context, ownerID string, meta *model.DocumentMeta) error
	Get(ctx context.Context, ownerID, documentID string) (*model.DocumentMeta, error)
}

// ChunkStore persists a document's chunk set.
type ChunkStore interface {
	ReplaceDocumentChunks(ctx context.Context, ownerID, documentID string, chunks []model.Chunk) ([]model.Chunk, error)
	ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Chunk, error)
}

// ChunkService runs the full ingestion path for one document: special
// chunks for long-form material, semantic or structural content
// chunking, batched embedding and a replace-all persist.
type ChunkService struct {
	semantic *chunker.SemanticChunker
	batch    *ai.BatchEmbedder
	docs     DocumentStore
	chunks   ChunkStore
}

func NewChunkService(semantic *chunker.SemanticChunker, batch *ai.BatchEmbedder, docs DocumentStore, chunks ChunkStore) *ChunkService {
	return &ChunkService{semantic: semantic, batch: batch, docs: docs, chunks: chunks}
}

// ChunkDocument chunks, embeds and persists one document. Chunks whose
// embedding failed are stored without a vector; they stay reachable
// through lexical search and can be refreshed later.
func (s *ChunkService) ChunkDocument(ctx context.Context, ownerID string, meta *model.DocumentMeta, text string) ([]model.Chunk, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("owner_id", ownerID),
		zap.String("document_id", meta.DocumentID),
	)
	if strings.TrimSpace(text) == "" {
		return nil, errs.ErrEmptyContent
	}

	var chunks []model.Chunk
	if chunker.IsLongForm(meta.DocType) {
		chunks = chunker.SpecialChunks(ctx, text, *meta)
	}

	content, err := s.semantic.ChunkDocument(ctx, text, meta.DocumentID, meta.DocType)
	if err != nil {
		return nil, err
	}
	for _, ch := range content {
		ch.ChunkIndex = len(chunks)
		chunks = append(chunks, ch)
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := s.docs.Save(ctx, ownerID, meta); err != nil {
		return nil, err
	}
	saved, err := s.chunks.ReplaceDocumentChunks(ctx, ownerID, meta.DocumentID, chunks)
	if err != nil {
		return nil, err
	}
	logger.Info("document ingested", zap.Int("chunks", len(saved)))
	return saved, nil
}

// ResyncEmbeddings re-embeds every chunk of a document in place, for
// model upgrades or earlier partial embedding failures.
func (s *ChunkService) ResyncEmbeddings(ctx context.Context, ownerID, documentID string) (int, error) {
	chunks, err := s.chunks.ListByDocument(ctx, ownerID, documentID)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := s.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}
	if _, err := s.chunks.ReplaceDocumentChunks(ctx, ownerID, documentID, chunks); err != nil {
		return 0, err
	}
	embedded := 0
	for _, ch := range chunks {
		if len(ch.Embedding) > 0 {
			embedded++
		}
	}
	return embedded, nil
}

func (s *ChunkService) embedChunks(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	items, err := s.batch.EmbedBatch(ctx, texts, ai.TaskTypeDocument)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Err != nil {
			logutil.GetLogger(ctx).Warn("chunk embedding failed, storing without vector",
				zap.Int("chunk_index", chunks[item.Index].ChunkIndex),
				zap.Error(item.Err),
			)
			continue
		}
		chunks[item.Index].Embedding = item.Vector
	}
	return nil
}

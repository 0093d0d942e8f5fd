package service

import (
	"context"

	"github.com/ragstack/ragcore/internal/contextproc"
	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/retrieval"
)

// SearchService glues the hybrid engine to the context post-processor:
// one call from query text to a citation-annotated context.
type SearchService struct {
	engine    *retrieval.Engine
	processor *contextproc.Processor
}

func NewSearchService(engine *retrieval.Engine, processor *contextproc.Processor) *SearchService {
	return &SearchService{engine: engine, processor: processor}
}

func (s *SearchService) HybridSearch(ctx context.Context, ownerID, query string) *retrieval.Response {
	return s.engine.Search(ctx, ownerID, query)
}

func (s *SearchService) ProcessContext(ctx context.Context, query string, results []model.RankedChunk, intent contextproc.Intent, maxTokens int) *model.ProcessedContext {
	return s.processor.Process(ctx, query, results, intent, maxTokens)
}

// Answer context for a query in one shot: retrieve, fuse, post-process.
func (s *SearchService) QueryContext(ctx context.Context, ownerID, query string, maxTokens int) (*model.ProcessedContext, *model.SearchStats) {
	resp := s.engine.Search(ctx, ownerID, query)
	processed := s.processor.Process(ctx, query, resp.Results, "", maxTokens)
	return processed, &resp.Stats
}

package chunker

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/errs"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// SentenceEmbedder is the slice of the embedding layer the semantic
// chunker needs: batched sentence vectors with per-item failures.
type SentenceEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([]ai.BatchItem, error)
}

// SemanticChunker aligns chunk boundaries to topical coherence by
// embedding every sentence and cutting where adjacent similarity dips.
// Whenever the document does not qualify, or embedding fails, it hands
// the document to a structural chunker picked for the document type.
type SemanticChunker struct {
	cfg      Config
	embedder SentenceEmbedder
}

func NewSemanticChunker(cfg Config, embedder SentenceEmbedder) *SemanticChunker {
	return &SemanticChunker{cfg: cfg, embedder: embedder}
}

func (c *SemanticChunker) ChunkDocument(ctx context.Context, text string, documentID string, docType string) ([]model.Chunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", documentID))
	if strings.TrimSpace(text) == "" {
		return nil, errs.ErrEmptyContent
	}

	if !c.Applicable(text) {
		logger.Debug("semantic chunking not applicable, using structural")
		return c.fallback(ctx, text, documentID, docType)
	}

	sentences := SplitSentences(text)
	if len(sentences) < 3 {
		logger.Debug("too few sentences for semantic boundaries", zap.Int("sentences", len(sentences)))
		return c.fallback(ctx, text, documentID, docType)
	}

	items, err := c.embedSentences(ctx, sentences)
	if err != nil {
		logger.Warn("sentence embedding failed, falling back to structural", zap.Error(err))
		return c.fallback(ctx, text, documentID, docType)
	}

	similarities := adjacentSimilarities(items)
	boundaries := detectBoundaries(sentences, similarities, c.cfg.SemanticThreshold, c.cfg.SimilarityFloor)
	logger.Debug("semantic boundaries detected",
		zap.Int("sentences", len(sentences)),
		zap.Int("boundaries", len(boundaries)),
	)

	chunks := c.assemble(sentences, boundaries, documentID)
	chunks = c.validate(ctx, chunks)
	if len(chunks) == 0 {
		logger.Warn("semantic chunking produced no valid chunks, falling back to structural")
		return c.fallback(ctx, text, documentID, docType)
	}
	logger.Info("semantic chunking completed", zap.Int("chunks", len(chunks)))
	return chunks, nil
}

// Applicable gates semantic chunking to long-form prose: not tiny
// documents and not code-like or heavily enumerated text.
func (c *SemanticChunker) Applicable(text string) bool {
	if tokenest.Estimate(text) < c.cfg.SemanticMinDocTokens {
		return false
	}
	return !looksLikeCode(text)
}

// looksLikeCode flags text whose lines are mostly code or list entries.
func looksLikeCode(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return false
	}
	codeLike := 0
	nonEmpty := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		switch {
		case strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t"):
			codeLike++
		case strings.HasPrefix(trimmed, "```"):
			codeLike++
		case strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}"):
			codeLike++
		case listMarkerRe.MatchString(line):
			codeLike++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(codeLike)/float64(nonEmpty) > 0.3
}

func (c *SemanticChunker) fallback(ctx context.Context, text, documentID, docType string) ([]model.Chunk, error) {
	structural := NewStructuralChunker(StrategyForDocType(docType))
	return structural.ChunkDocument(ctx, text, documentID)
}

// embedSentences batches sentences through the embedder. Any per-item
// failure aborts semantic chunking: a missing vector breaks the adjacency
// chain the boundary detector depends on.
func (c *SemanticChunker) embedSentences(ctx context.Context, sentences []string) ([]ai.BatchItem, error) {
	batchSize := c.cfg.SentenceBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	items := make([]ai.BatchItem, 0, len(sentences))
	for start := 0; start < len(sentences); start += batchSize {
		end := start + batchSize
		if end > len(sentences) {
			end = len(sentences)
		}
		batch, err := c.embedder.EmbedBatch(ctx, sentences[start:end], ai.TaskTypeDocument)
		if err != nil {
			return nil, err
		}
		for _, item := range batch {
			if item.Err != nil {
				return nil, item.Err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// assemble turns boundary positions into chunk candidates. Position 0 and
// the sentence count act as implicit boundaries; spans below the minimum
// are dropped unless a section break raised them, spans above the maximum
// are split by greedy sentence packing.
func (c *SemanticChunker) assemble(sentences []string, boundaries []Boundary, documentID string) []model.Chunk {
	minSize := min(c.cfg.MinSemanticChunkSize, 150)
	kinds := make(map[int]BoundaryKind, len(boundaries))
	positions := []int{0}
	for _, b := range boundaries {
		if b.Pos > 0 && b.Pos < len(sentences) {
			positions = append(positions, b.Pos)
			kinds[b.Pos] = b.Kind
		}
	}
	positions = append(positions, len(sentences))

	var chunks []model.Chunk
	emit := func(span []string) {
		content := strings.Join(span, " ")
		chunks = append(chunks, model.Chunk{
			DocumentID:  documentID,
			Content:     content,
			ContentHash: HashContent(content),
			TokenCount:  tokenest.Estimate(content),
			ChunkIndex:  len(chunks),
			ChunkType:   model.ChunkTypeContent,
		})
	}

	for i := 0; i+1 < len(positions); i++ {
		start, end := positions[i], positions[i+1]
		if start >= end {
			continue
		}
		span := sentences[start:end]
		tokens := tokenest.Estimate(strings.Join(span, " "))
		if tokens < minSize && kinds[start] != BoundarySectionBreak {
			continue
		}
		if tokens <= c.cfg.MaxSemanticChunkSize {
			emit(span)
			continue
		}
		for _, packed := range c.packSentences(span) {
			emit(packed)
		}
	}
	return chunks
}

// packSentences splits an oversized span by greedily packing sentences up
// to the max chunk size. With overlap enabled, each new pack is seeded
// with the previous pack's last sentence.
func (c *SemanticChunker) packSentences(span []string) [][]string {
	var packs [][]string
	var current []string
	currentTokens := 0
	for _, sentence := range span {
		tokens := tokenest.Estimate(sentence)
		if len(current) > 0 && currentTokens+tokens > c.cfg.MaxSemanticChunkSize {
			packs = append(packs, current)
			if c.cfg.EnableOverlap {
				seed := current[len(current)-1]
				current = []string{seed}
				currentTokens = tokenest.Estimate(seed)
			} else {
				current = nil
				currentTokens = 0
			}
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	if len(current) > 0 {
		packs = append(packs, current)
	}
	return packs
}

// validate drops chunks failing the size and content invariants and
// renumbers the survivors.
func (c *SemanticChunker) validate(ctx context.Context, chunks []model.Chunk) []model.Chunk {
	minSize := min(c.cfg.MinSemanticChunkSize, 100)
	out := make([]model.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		switch {
		case ch.TokenCount < minSize,
			ch.TokenCount > c.cfg.MaxSemanticChunkSize,
			len(strings.TrimSpace(ch.Content)) < 25,
			len(SplitSentences(ch.Content)) == 0:
			logutil.GetLogger(ctx).Debug("dropping invalid semantic chunk",
				zap.Int("tokens", ch.TokenCount),
				zap.Error(errs.ErrValidation),
			)
		default:
			ch.ChunkIndex = len(out)
			out = append(out, ch)
		}
	}
	return out
}

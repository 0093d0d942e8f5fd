package chunker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/errs"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// sentenceLookback is how far the window-end snapping searches backward
// for a sentence boundary before trying paragraph and word boundaries.
const sentenceLookback = 200

// StructuralChunker turns raw text into token-bounded chunks aligned to
// natural boundaries: detected sections first, sentence-snapped sliding
// windows inside them.
type StructuralChunker struct {
	cfg Config
}

func NewStructuralChunker(cfg Config) *StructuralChunker {
	return &StructuralChunker{cfg: cfg}
}

func (c *StructuralChunker) ChunkDocument(ctx context.Context, text string, documentID string) ([]model.Chunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", documentID))
	if strings.TrimSpace(text) == "" {
		return nil, errs.ErrEmptyContent
	}

	totalTokens := tokenest.Estimate(text)
	if totalTokens < c.cfg.SingleChunkThreshold {
		logger.Debug("document under single-chunk threshold", zap.Int("tokens", totalTokens))
		chunk := c.buildChunk(documentID, text, 0, "")
		return c.postProcess(ctx, []model.Chunk{chunk}), nil
	}

	sections := DetectSections(text)
	var chunks []model.Chunk
	if len(sections) > 1 && !shouldAvoidSectionChunking(text, sections) {
		logger.Debug("chunking by section", zap.Int("sections", len(sections)))
		for _, sec := range sections {
			body := text[sec.Start:sec.End]
			if strings.TrimSpace(body) == "" {
				continue
			}
			chunks = append(chunks, c.slideWindow(body, sec.Title)...)
		}
		chunks = c.spliceSectionOverlap(chunks)
	} else {
		logger.Debug("chunking by token window", zap.Int("sections", len(sections)), zap.Int("tokens", totalTokens))
		chunks = c.slideWindow(text, "")
	}

	for i := range chunks {
		chunks[i].DocumentID = documentID
	}
	out := c.postProcess(ctx, chunks)
	logger.Info("structural chunking completed",
		zap.Int("tokens", totalTokens),
		zap.Int("chunks", len(out)),
	)
	return out, nil
}

// slideWindow walks text from position 0, cutting windows of roughly
// TargetTokens and snapping each cut to a sentence, paragraph or word
// boundary. Consecutive windows share OverlapPercent of the target size.
func (c *StructuralChunker) slideWindow(text string, sectionTitle string) []model.Chunk {
	targetChars := c.cfg.TargetTokens * 4
	overlapChars := int(c.cfg.OverlapPercent / 100.0 * float64(targetChars))

	var chunks []model.Chunk
	position := 0
	prevOverlapTokens := 0
	for position < len(text) {
		end := position + targetChars
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapToBoundary(text, position, end)
		}
		content := text[position:end]
		chunk := c.buildChunk("", content, len(chunks), sectionTitle)
		chunk.OverlapStart = prevOverlapTokens

		if end >= len(text) {
			chunks = append(chunks, chunk)
			break
		}

		next := end - overlapChars
		if next <= position {
			next = position + 1
		}
		next = snapToWord(text, next)
		if next <= position {
			next = end
		}
		overlapText := text[next:end]
		prevOverlapTokens = tokenest.Estimate(overlapText)
		chunk.OverlapEnd = prevOverlapTokens
		chunks = append(chunks, chunk)
		position = next
	}
	return chunks
}

// snapToBoundary pulls a window end backward to the nearest sentence end,
// then to a paragraph break, then to a word boundary.
func snapToBoundary(text string, start, end int) int {
	low := end - sentenceLookback
	if low < start+1 {
		low = start + 1
	}
	// Sentence end: [.!?] followed by whitespace.
	for i := end - 1; i >= low; i-- {
		ch := text[i]
		if (ch == '.' || ch == '!' || ch == '?') && i+1 < len(text) && isSpaceByte(text[i+1]) {
			return i + 1
		}
	}
	// Paragraph break.
	if idx := strings.LastIndex(text[low:end], "\n\n"); idx >= 0 {
		return low + idx + 2
	}
	// Word boundary.
	if w := snapToWord(text, end); w > start {
		return w
	}
	return end
}

// snapToWord moves pos backward to the start of the current word so a cut
// never splits a word in half.
func snapToWord(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !isSpaceByte(text[pos-1]) {
		pos--
	}
	return pos
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// spliceSectionOverlap copies the trailing overlap span of each chunk into
// the head of the first chunk of the following section, so section
// boundaries do not create hard discontinuities. Token counts and hashes
// are recomputed for the modified chunks.
func (c *StructuralChunker) spliceSectionOverlap(chunks []model.Chunk) []model.Chunk {
	targetChars := c.cfg.TargetTokens * 4
	overlapChars := int(c.cfg.OverlapPercent / 100.0 * float64(targetChars))

	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	for i := 1; i < len(out); i++ {
		if out[i].OverlapStart > 0 || out[i].SectionTitle == out[i-1].SectionTitle {
			continue
		}
		prev := out[i-1].Content
		cut := len(prev) - overlapChars
		if cut < 0 {
			cut = 0
		}
		cut = snapToWord(prev, cut)
		tail := prev[cut:]
		if strings.TrimSpace(tail) == "" {
			continue
		}
		overlapTokens := tokenest.Estimate(tail)
		out[i-1].OverlapEnd = overlapTokens
		rebuilt := c.buildChunk(out[i].DocumentID, tail+out[i].Content, out[i].ChunkIndex, out[i].SectionTitle)
		rebuilt.OverlapStart = overlapTokens
		rebuilt.OverlapEnd = out[i].OverlapEnd
		out[i] = rebuilt
	}
	return out
}

// postProcess drops chunks outside the token bounds or with empty content
// and renumbers the survivors contiguously.
func (c *StructuralChunker) postProcess(ctx context.Context, chunks []model.Chunk) []model.Chunk {
	out := make([]model.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Content) == "" {
			continue
		}
		// A single-chunk document is kept whole even when it is tiny.
		if len(chunks) > 1 && (ch.TokenCount < c.cfg.MinChunkTokens || ch.TokenCount > c.cfg.MaxChunkTokens) {
			logutil.GetLogger(ctx).Debug("dropping out-of-bounds chunk",
				zap.Int("chunk_index", ch.ChunkIndex),
				zap.Int("tokens", ch.TokenCount),
				zap.Error(errs.ErrValidation),
			)
			continue
		}
		ch.ChunkIndex = len(out)
		out = append(out, ch)
	}
	return out
}

func (c *StructuralChunker) buildChunk(documentID, content string, index int, sectionTitle string) model.Chunk {
	return model.Chunk{
		DocumentID:   documentID,
		Content:      content,
		ContentHash:  HashContent(content),
		TokenCount:   tokenest.Estimate(content),
		ChunkIndex:   index,
		SectionTitle: sectionTitle,
		ChunkType:    model.ChunkTypeContent,
	}
}

// HashContent returns the content-addressed identity of a chunk body.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

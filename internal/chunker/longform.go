package chunker

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

var (
	captionRe   = regexp.MustCompile(`(?i)^(figure|fig\.|table)\s+\d+[.:]?\s+`)
	abstractRe  = regexp.MustCompile(`(?i)^(abstract|summary)$`)
	referenceRe = regexp.MustCompile(`(?i)^(references|bibliography)$`)
)

// longFormDocTypes are the document families that get short high-precision
// special chunks (title, abstract, captions) next to their content chunks.
var longFormDocTypes = map[string]bool{
	model.DocTypePaper:    true,
	model.DocTypePatent:   true,
	model.DocTypeAcademic: true,
	model.DocTypeArticle:  true,
	model.DocTypeBook:     true,
}

// IsLongForm reports whether a document type gets special chunks.
func IsLongForm(docType string) bool {
	return longFormDocTypes[docType]
}

// SpecialChunks walks the markdown AST of a long-form document and emits
// title, abstract, caption, references and metadata chunks. These are
// deliberately small: they exist as high-precision retrieval targets, not
// as context material, and they do not take part in the coverage
// invariant of the content chunks.
func SpecialChunks(ctx context.Context, text string, meta model.DocumentMeta) []model.Chunk {
	if !IsLongForm(meta.DocType) {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", meta.DocumentID))

	md := goldmark.New()
	reader := gtext.NewReader([]byte(text))
	doc := md.Parser().Parse(reader)
	source := []byte(text)

	var chunks []model.Chunk
	add := func(chunkType model.ChunkType, title, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		chunks = append(chunks, model.Chunk{
			DocumentID:   meta.DocumentID,
			Content:      content,
			ContentHash:  HashContent(content),
			TokenCount:   tokenest.Estimate(content),
			SectionTitle: title,
			ChunkType:    chunkType,
		})
	}

	docTitle := meta.Title
	var pendingSection model.ChunkType
	var sectionBody []string
	flushSection := func() {
		if pendingSection == "" || len(sectionBody) == 0 {
			pendingSection = ""
			sectionBody = nil
			return
		}
		title := "Abstract"
		if pendingSection == model.ChunkTypeReferences {
			title = "References"
		}
		add(pendingSection, title, strings.Join(sectionBody, "\n\n"))
		pendingSection = ""
		sectionBody = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			flushSection()
			heading := string(n.Text(source))
			if n.Level == 1 && docTitle == "" {
				docTitle = heading
			}
			switch {
			case abstractRe.MatchString(heading):
				pendingSection = model.ChunkTypeAbstract
			case referenceRe.MatchString(heading):
				pendingSection = model.ChunkTypeReferences
			}
		case *ast.Paragraph:
			body := blockText(n, source)
			if pendingSection != "" {
				sectionBody = append(sectionBody, body)
				continue
			}
			if m := captionRe.FindString(body); m != "" {
				chunkType := model.ChunkTypeFigureCaption
				if strings.HasPrefix(strings.ToLower(m), "table") {
					chunkType = model.ChunkTypeTableCaption
				}
				add(chunkType, "", body)
			}
		default:
			if pendingSection != "" {
				if body := blockText(node, source); body != "" {
					sectionBody = append(sectionBody, body)
				}
			}
		}
	}
	flushSection()

	if docTitle != "" {
		add(model.ChunkTypeTitle, "", docTitle)
	}
	if metaText := renderMetadata(meta); metaText != "" {
		add(model.ChunkTypeMetadata, "", metaText)
	}

	logger.Debug("special chunks extracted",
		zap.String("doc_type", meta.DocType),
		zap.Int("count", len(chunks)),
	)
	return chunks
}

// renderMetadata turns the structured document facts into free text so
// lexical search can hit identifiers, actors and dates directly.
func renderMetadata(meta model.DocumentMeta) string {
	var lines []string
	if meta.Title != "" {
		lines = append(lines, fmt.Sprintf("Title: %s", meta.Title))
	}
	if len(meta.Authors) > 0 {
		lines = append(lines, fmt.Sprintf("Authors: %s", strings.Join(meta.Authors, ", ")))
	}
	if meta.PublishedDate != "" {
		lines = append(lines, fmt.Sprintf("Published: %s", meta.PublishedDate))
	}
	if len(meta.Identifiers) > 0 {
		lines = append(lines, fmt.Sprintf("Identifiers: %s", strings.Join(meta.Identifiers, ", ")))
	}
	if meta.URL != "" {
		lines = append(lines, fmt.Sprintf("URL: %s", meta.URL))
	}
	extraKeys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, meta.Extra[k]))
	}
	if len(lines) <= 1 {
		// A lone title duplicates the title chunk.
		return ""
	}
	return strings.Join(lines, "\n")
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).HardLineBreak() || node.(*ast.Text).SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

package model

// Document types recognized by the ranking heuristics. Anything else is
// treated as generic content with a neutral authority weight.
const (
	DocTypePaper    = "paper"
	DocTypeBook     = "book"
	DocTypePatent   = "patent"
	DocTypePDF      = "pdf"
	DocTypeNote     = "note"
	DocTypeURL      = "url"
	DocTypeArticle  = "article"
	DocTypeAcademic = "academic"
)

// DocumentMeta carries the document-level facts the ranking stages need.
// Upstream extraction produces loosely shaped metadata; everything with a
// known meaning gets a named field here and the rest rides along in Extra,
// so no untyped maps cross stage boundaries.
type DocumentMeta struct {
	DocumentID    string            `json:"document_id"`
	Title         string            `json:"title"`
	DocType       string            `json:"doc_type"`
	URL           string            `json:"url,omitempty"`
	Authors       []string          `json:"authors,omitempty"`
	PublishedDate string            `json:"published_date,omitempty"`
	Identifiers   []string          `json:"identifiers,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

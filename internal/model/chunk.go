package model

type ChunkType string

const (
	ChunkTypeContent       ChunkType = "content"
	ChunkTypeMetadata      ChunkType = "metadata"
	ChunkTypeTitle         ChunkType = "title"
	ChunkTypeAbstract      ChunkType = "abstract"
	ChunkTypeFigureCaption ChunkType = "figure_caption"
	ChunkTypeTableCaption  ChunkType = "table_caption"
	ChunkTypeReferences    ChunkType = "references"
)

// Chunk is the atomic retrieval unit. ID stays empty until the store
// assigns one. Chunks are immutable after ingestion; re-ingesting a
// document replaces its full chunk set.
type Chunk struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	Content      string    `json:"content"`
	ContentHash  string    `json:"content_hash"`
	TokenCount   int       `json:"token_count"`
	ChunkIndex   int       `json:"chunk_index"`
	SectionTitle string    `json:"section_title,omitempty"`
	OverlapStart int       `json:"overlap_start"`
	OverlapEnd   int       `json:"overlap_end"`
	ChunkType    ChunkType `json:"chunk_type"`
	Embedding    []float32 `json:"-"`
}

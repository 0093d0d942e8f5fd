package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/dbutil"
	"github.com/ragstack/ragcore/internal/pkg/errs"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceDocumentChunks swaps the full chunk set of a document in one
// transaction. Re-ingestion is replace-all, never merge. IDs are assigned
// here; the returned slice carries them.
func (r *ChunkRepo) ReplaceDocumentChunks(ctx context.Context, ownerID, documentID string, chunks []model.Chunk) ([]model.Chunk, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE owner_id = $1 AND document_id = $2`, ownerID, documentID); err != nil {
		return nil, err
	}

	const insert = `
		INSERT INTO chunks (id, owner_id, document_id, chunk_index, content, content_hash,
			token_count, section_title, overlap_start, overlap_end, chunk_type, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now().UnixMilli()
	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	for i := range out {
		out[i].ID = uuid.NewString()
		var embedding interface{}
		if len(out[i].Embedding) > 0 {
			embedding = pgvector.NewVector(out[i].Embedding)
		}
		if _, err := tx.ExecContext(ctx, insert,
			out[i].ID,
			ownerID,
			documentID,
			out[i].ChunkIndex,
			out[i].Content,
			out[i].ContentHash,
			out[i].TokenCount,
			out[i].SectionTitle,
			out[i].OverlapStart,
			out[i].OverlapEnd,
			string(out[i].ChunkType),
			embedding,
			now,
		); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"owner_id":    ownerID,
		"document_id": documentID,
		"_orderby":    "chunk_index asc",
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, []string{
		"id", "document_id", "chunk_index", "content", "content_hash",
		"token_count", "section_title", "overlap_start", "overlap_end", "chunk_type",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.Chunk
	for rows.Next() {
		var ch model.Chunk
		var chunkType string
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &ch.ContentHash,
			&ch.TokenCount, &ch.SectionTitle, &ch.OverlapStart, &ch.OverlapEnd, &chunkType); err != nil {
			return nil, err
		}
		ch.ChunkType = model.ChunkType(chunkType)
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// QueryByVector runs a cosine-distance scan over the owner's chunks,
// keeping hits at or above minSimilarity, best first.
func (r *ChunkRepo) QueryByVector(ctx context.Context, ownerID string, vector []float32, limit int, minSimilarity float64) ([]model.SearchResult, error) {
	const query = `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.content_hash, c.token_count,
			c.section_title, c.chunk_type,
			1 - (c.embedding <=> $1) AS similarity,
			d.id, d.title, d.doc_type, d.url, d.authors, d.published_date, d.identifiers, d.extra
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.owner_id = $2
			AND c.embedding IS NOT NULL
			AND 1 - (c.embedding <=> $1) >= $3
		ORDER BY c.embedding <=> $1 ASC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), ownerID, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", errs.ErrSearchBackend, err)
	}
	defer rows.Close()
	var results []model.SearchResult
	for rows.Next() {
		res, err := scanSearchResult(rows, true)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

type chunkRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSearchResult(row chunkRowScanner, vectorScore bool) (*model.SearchResult, error) {
	var res model.SearchResult
	var chunkType string
	var score float64
	var authors, identifiers, extra string
	if err := row.Scan(
		&res.Chunk.ID, &res.Chunk.DocumentID, &res.Chunk.ChunkIndex, &res.Chunk.Content,
		&res.Chunk.ContentHash, &res.Chunk.TokenCount, &res.Chunk.SectionTitle, &chunkType,
		&score,
		&res.Meta.DocumentID, &res.Meta.Title, &res.Meta.DocType, &res.Meta.URL,
		&authors, &res.Meta.PublishedDate, &identifiers, &extra,
	); err != nil {
		return nil, err
	}
	res.Chunk.ChunkType = model.ChunkType(chunkType)
	if vectorScore {
		res.Similarity = score
	} else {
		res.LexicalScore = score
	}
	unmarshalMetaLists(&res.Meta, authors, identifiers, extra)
	return &res, nil
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/errs"
)

// FTSRepo runs ranked full-text search over chunk content. The primary
// mode uses websearch_to_tsquery; when it errors (operators in the raw
// query can produce invalid tsquery syntax) the repo degrades to
// plainto_tsquery over a sanitized query.
type FTSRepo struct {
	db *sql.DB
}

func NewFTSRepo(db *sql.DB) *FTSRepo {
	return &FTSRepo{db: db}
}

const ftsQueryTemplate = `
	SELECT c.id, c.document_id, c.chunk_index, c.content, c.content_hash, c.token_count,
		c.section_title, c.chunk_type,
		ts_rank(c.tsv, %s('english', $1)) AS score,
		d.id, d.title, d.doc_type, d.url, d.authors, d.published_date, d.identifiers, d.extra
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE c.owner_id = $2
		AND c.tsv @@ %s('english', $1)
	ORDER BY score DESC
	LIMIT $3
`

// SearchChunks tries the websearch mode first and falls back to the plain
// mode before reporting a backend error.
func (r *FTSRepo) SearchChunks(ctx context.Context, ownerID, query string, limit int) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	results, err := r.searchMode(ctx, "websearch_to_tsquery", ownerID, query, limit)
	if err == nil {
		return results, nil
	}
	logutil.GetLogger(ctx).Warn("websearch text query failed, degrading to plain mode", zap.Error(err))
	cleaned := sanitizeQuery(query)
	if cleaned == "" {
		return nil, nil
	}
	results, err = r.searchMode(ctx, "plainto_tsquery", ownerID, cleaned, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fts: %v", errs.ErrSearchBackend, err)
	}
	return results, nil
}

func (r *FTSRepo) searchMode(ctx context.Context, tsqueryFn, ownerID, query string, limit int) ([]model.SearchResult, error) {
	sqlStr := fmt.Sprintf(ftsQueryTemplate, tsqueryFn, tsqueryFn)
	rows, err := r.db.QueryContext(ctx, sqlStr, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SearchResult
	for rows.Next() {
		res, err := scanSearchResult(rows, false)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

func sanitizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var sb strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func unmarshalMetaLists(meta *model.DocumentMeta, authors, identifiers, extra string) {
	// Best effort: malformed metadata JSON degrades to empty fields
	// rather than failing the search row.
	_ = json.Unmarshal([]byte(authors), &meta.Authors)
	_ = json.Unmarshal([]byte(identifiers), &meta.Identifiers)
	_ = json.Unmarshal([]byte(extra), &meta.Extra)
}

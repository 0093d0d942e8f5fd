package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/dbutil"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Save(ctx context.Context, ownerID string, meta *model.DocumentMeta) error {
	authors, err := json.Marshal(meta.Authors)
	if err != nil {
		return err
	}
	identifiers, err := json.Marshal(meta.Identifiers)
	if err != nil {
		return err
	}
	extra, err := json.Marshal(meta.Extra)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO documents (id, owner_id, title, doc_type, url, authors, published_date, identifiers, extra, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			doc_type = EXCLUDED.doc_type,
			url = EXCLUDED.url,
			authors = EXCLUDED.authors,
			published_date = EXCLUDED.published_date,
			identifiers = EXCLUDED.identifiers,
			extra = EXCLUDED.extra
	`
	_, err = r.db.ExecContext(ctx, query,
		meta.DocumentID,
		ownerID,
		meta.Title,
		meta.DocType,
		meta.URL,
		string(authors),
		meta.PublishedDate,
		string(identifiers),
		string(extra),
		time.Now().UnixMilli(),
	)
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, ownerID, documentID string) (*model.DocumentMeta, error) {
	where := map[string]interface{}{
		"id":       documentID,
		"owner_id": ownerID,
	}
	sqlStr, args, err := builder.BuildSelect("documents",
		where, []string{"id", "title", "doc_type", "url", "authors", "published_date", "identifiers", "extra"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	return scanMeta(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeta(row rowScanner) (*model.DocumentMeta, error) {
	var meta model.DocumentMeta
	var authors, identifiers, extra string
	if err := row.Scan(&meta.DocumentID, &meta.Title, &meta.DocType, &meta.URL,
		&authors, &meta.PublishedDate, &identifiers, &extra); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authors), &meta.Authors); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(identifiers), &meta.Identifiers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(extra), &meta.Extra); err != nil {
		return nil, err
	}
	return &meta, nil
}

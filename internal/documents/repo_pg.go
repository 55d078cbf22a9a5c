package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectDocumentColumns = `SELECT id, user_id, name, url, uploaded_at, summary FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var summary sql.NullString
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.URL, &doc.UploadedAt, &summary); err != nil {
		return Document{}, err
	}
	if summary.Valid {
		doc.Summary = summary.String
	}
	return doc, nil
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, user_id, name, url, uploaded_at, summary)
VALUES ($1, $2, $3, $4, $5, $6)`

	var summary sql.NullString
	if doc.Summary != "" {
		summary = sql.NullString{String: doc.Summary, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, doc.ID, doc.UserID, doc.Name, doc.URL, doc.UploadedAt, summary)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, selectDocumentColumns+`
WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first. LIMIT NULL means no limit.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if offset < 0 {
		offset = 0
	}
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := r.DB.QueryContext(ctx, selectDocumentColumns+`
WHERE user_id = $1
ORDER BY uploaded_at DESC, id DESC
LIMIT $2 OFFSET $3`, userID, lim, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateSummary stores the generated summary.
func (r *PGRepo) UpdateSummary(ctx context.Context, id, summary string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE documents SET summary = $1 WHERE id = $2`, summary, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes the record.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentsRepo = (*PGRepo)(nil)

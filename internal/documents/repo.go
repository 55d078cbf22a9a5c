package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
// GetByID, UpdateSummary and Delete return ErrNotFound for unknown ids.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// ListByUser returns newest first. A non-positive limit means no limit.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	UpdateSummary(ctx context.Context, id, summary string) error
	Delete(ctx context.Context, id string) error
}

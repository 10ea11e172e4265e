package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

type DocumentFilter struct {
	CaseID int64
	Limit  int
	Offset int
}

type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) (*domain.Document, error)
	FindByID(ctx context.Context, id int64) (*domain.Document, error)
	ListByCase(ctx context.Context, filter DocumentFilter) ([]*domain.Document, int64, error)
	// Update changes only the document type and description.
	Update(ctx context.Context, id int64, docType domain.DocumentType, description string) (*domain.Document, error)
	SoftDelete(ctx context.Context, id int64) error
}

package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// AddDocumentInput describes a file already stored elsewhere.
type AddDocumentInput struct {
	CaseID       int64
	DocumentType domain.DocumentType // defaults to "other"
	FileName     string
	FileURL      string
	FileSize     int64
	Description  string
}

type UpdateDocumentInput struct {
	DocumentType domain.DocumentType
	Description  string
}

type DocumentPage struct {
	Items      []*domain.Document
	Pagination Pagination
}

type DocumentService interface {
	AddDocument(ctx context.Context, p domain.Principal, in AddDocumentInput) (*domain.Document, error)
	GetDocument(ctx context.Context, p domain.Principal, id int64) (*domain.Document, error)
	ListDocuments(ctx context.Context, p domain.Principal, caseID int64, page Page) (*DocumentPage, error)
	UpdateDocument(ctx context.Context, p domain.Principal, id int64, in UpdateDocumentInput) (*domain.Document, error)
	RemoveDocument(ctx context.Context, p domain.Principal, id int64) error
}

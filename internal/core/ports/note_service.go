package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

type CreateNoteInput struct {
	CaseID    int64
	Title     string
	Content   string
	IsPrivate bool
}

type UpdateNoteInput struct {
	Title     string
	Content   string
	IsPrivate bool
}

type NotePage struct {
	Items      []*domain.Note
	Pagination Pagination
}

type NoteService interface {
	CreateNote(ctx context.Context, p domain.Principal, in CreateNoteInput) (*domain.Note, error)
	GetNote(ctx context.Context, p domain.Principal, id int64) (*domain.Note, error)
	ListNotes(ctx context.Context, p domain.Principal, caseID int64, page Page) (*NotePage, error)
	UpdateNote(ctx context.Context, p domain.Principal, id int64, in UpdateNoteInput) (*domain.Note, error)
	DeleteNote(ctx context.Context, p domain.Principal, id int64) error
}

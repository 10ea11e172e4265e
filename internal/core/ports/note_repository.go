package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// NoteFilter lists the notes of one case. Private notes written by someone
// other than ViewerID are skipped unless IncludePrivate is set.
type NoteFilter struct {
	CaseID         int64
	ViewerID       int64
	IncludePrivate bool
	Limit          int
	Offset         int
}

type NoteRepository interface {
	Create(ctx context.Context, n *domain.Note) (*domain.Note, error)
	FindByID(ctx context.Context, id int64) (*domain.Note, error)
	ListByCase(ctx context.Context, filter NoteFilter) ([]*domain.Note, int64, error)
	Update(ctx context.Context, n *domain.Note) (*domain.Note, error)
	SoftDelete(ctx context.Context, id int64) error
}

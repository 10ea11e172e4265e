package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// CaseFilter carries all query parameters for listing cases.
// CaseManagerID is always set by the service layer, never by the request.
type CaseFilter struct {
	CaseManagerID int64 // 0 = unscoped; non-zero = only cases managed by this user
	Status        domain.CaseStatus
	Priority      domain.CasePriority
	Search        string // partial, case-insensitive match on case_number or title
	Limit         int
	Offset        int
}

// CaseUpdate is a full replacement of the mutable case fields.
// A nil CaseManagerID keeps the current manager.
type CaseUpdate struct {
	Status        domain.CaseStatus
	Priority      domain.CasePriority
	Title         string
	Description   string
	Tags          []string
	CaseManagerID *int64
}

// CaseRepository defines persistence operations for cases.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) (*domain.Case, error)
	FindByID(ctx context.Context, id int64) (*domain.Case, error)
	// List returns a page of cases matching filter and the total count of
	// matching rows, both computed from the same predicate.
	List(ctx context.Context, filter CaseFilter) ([]*domain.Case, int64, error)
	Update(ctx context.Context, id int64, upd CaseUpdate) (*domain.Case, error)
	// SoftDelete returns domain.ErrCaseNotFound if the case is missing or
	// already deleted.
	SoftDelete(ctx context.Context, id int64) error
	// CountByStatus groups non-deleted cases by status. caseManagerID = 0 is unscoped.
	CountByStatus(ctx context.Context, caseManagerID int64) ([]domain.StatusCount, error)
}

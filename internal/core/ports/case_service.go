package ports

import (
	"context"
	"math"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// Page is the pagination window requested at the HTTP boundary. Both fields
// are already validated (>= 1, PageSize clamped) when they reach a service.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows to skip for this page. It saturates at
// math.MaxInt instead of wrapping.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Pagination describes where a result window sits in the full result set.
type Pagination struct {
	TotalItems int64 `json:"totalItems"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination derives TotalPages from total and the page size.
func NewPagination(total int64, p Page) Pagination {
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Pagination{TotalItems: total, Page: p.Number, PageSize: p.Size, TotalPages: pages}
}

// CaseQuery carries the caller-controlled list parameters.
type CaseQuery struct {
	Status   domain.CaseStatus
	Priority domain.CasePriority
	Search   string
	Page     Page
}

// CasePage is one page of cases plus pagination metadata.
type CasePage struct {
	Items      []*domain.Case
	Pagination Pagination
}

// CreateCaseInput carries the fields of a new case.
type CreateCaseInput struct {
	ClientID       int64
	Title          string
	Description    string
	Priority       domain.CasePriority
	Tags           []string
	CaseManagerID  int64 // honoured only for admins
	IdempotencyKey string
}

// CreateCaseResult wraps the created case. Replayed is true when the
// Idempotency-Key matched an earlier creation by the same user.
type CreateCaseResult struct {
	Case     *domain.Case
	Replayed bool
}

// UpdateCaseInput is a full replacement of the mutable case fields.
type UpdateCaseInput struct {
	Status        domain.CaseStatus
	Priority      domain.CasePriority
	Title         string
	Description   string
	Tags          []string
	CaseManagerID *int64 // honoured only for admins
}

type CaseService interface {
	CreateCase(ctx context.Context, p domain.Principal, in CreateCaseInput) (*CreateCaseResult, error)
	GetCase(ctx context.Context, p domain.Principal, id int64) (*domain.Case, error)
	ListCases(ctx context.Context, p domain.Principal, q CaseQuery) (*CasePage, error)
	UpdateCase(ctx context.Context, p domain.Principal, id int64, in UpdateCaseInput) (*domain.Case, error)
	DeleteCase(ctx context.Context, p domain.Principal, id int64) error
	Statistics(ctx context.Context, p domain.Principal) ([]domain.StatusCount, error)
	Activity(ctx context.Context, p domain.Principal, id int64, limit int) ([]domain.ActivityEvent, error)
}

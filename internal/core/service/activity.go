package service

import (
	"context"
	"time"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

type noopPublisher struct{}

func (noopPublisher) Publish(domain.ActivityEvent) {}

func publisherOrNoop(p ports.ActivityPublisher) ports.ActivityPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func activityEvent(c *domain.Case, p domain.Principal, action domain.ActivityAction, meta map[string]string) domain.ActivityEvent {
	return domain.ActivityEvent{
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		Action:     action,
		OccurredAt: time.Now().UTC(),
		Metadata:   meta,
	}
}

func validPage(p ports.Page) error {
	if p.Number < 1 || p.Size < 1 {
		return domain.ValidationError("page and pageSize must be positive integers")
	}
	return nil
}

// visibleCase loads a parent case and applies the manager scoping rule.
func visibleCase(ctx context.Context, cases ports.CaseRepository, p domain.Principal, id int64) (*domain.Case, error) {
	c, err := cases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(p) {
		return nil, domain.ErrCaseNotFound
	}
	return c, nil
}

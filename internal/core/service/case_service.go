package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const defaultActivityLimit = 50

type CaseService struct {
	cases    ports.CaseRepository
	users    ports.UserRepository
	activity ports.ActivityPublisher
	trail    ports.ActivityRepository
	idem     ports.IdempotencyStore
	log      zerolog.Logger
	now      func() time.Time
}

// NewCaseService wires the case use cases. idem and trail may be nil, which
// disables idempotent replays and the activity listing respectively.
func NewCaseService(
	cases ports.CaseRepository,
	users ports.UserRepository,
	activity ports.ActivityPublisher,
	trail ports.ActivityRepository,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *CaseService {
	return &CaseService{
		cases:    cases,
		users:    users,
		activity: publisherOrNoop(activity),
		trail:    trail,
		idem:     idem,
		log:      log,
		now:      time.Now,
	}
}

// CreateCase opens a new case managed by the caller. Admins may assign
// another existing user as manager. A repeated Idempotency-Key from the same
// user returns the case created the first time.
func (s *CaseService) CreateCase(ctx context.Context, p domain.Principal, in ports.CreateCaseInput) (*ports.CreateCaseResult, error) {
	title := strings.TrimSpace(in.Title)
	if in.ClientID <= 0 || title == "" {
		return nil, domain.ValidationError("missing required fields: clientId, title")
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, domain.ValidationError("unknown priority %q", priority)
	}

	managerID, err := s.resolveManager(ctx, p, in.CaseManagerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	number, err := newCaseNumber(now)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	holdsKey, existing, err := s.reserveKey(ctx, p, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.CreateCaseResult{Case: existing, Replayed: true}, nil
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	created, err := s.cases.Create(ctx, &domain.Case{
		CaseNumber:    number,
		ClientID:      in.ClientID,
		CaseManagerID: managerID,
		Status:        domain.StatusOpen,
		Priority:      priority,
		Title:         title,
		Description:   in.Description,
		Tags:          tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if holdsKey {
			if relErr := s.idem.Release(context.WithoutCancel(ctx), p.UserID, key); relErr != nil {
				s.log.Warn().Err(relErr).Msg("idempotency key not released")
			}
		}
		return nil, err
	}

	if holdsKey {
		if err := s.idem.Complete(ctx, p.UserID, key, created.ID); err != nil {
			s.log.Warn().Err(err).Str("case_number", created.CaseNumber).Msg("idempotency key not stored")
		}
	}

	s.log.Info().
		Str("case_number", created.CaseNumber).
		Int64("case_manager_id", created.CaseManagerID).
		Int64("actor_id", p.UserID).
		Msg("case created")
	s.activity.Publish(activityEvent(created, p, domain.ActionCaseCreated, map[string]string{
		"priority": string(created.Priority),
	}))

	return &ports.CreateCaseResult{Case: created}, nil
}

// reserveKey claims key for this create. It returns the case to replay when
// an earlier request with the same key produced one, and
// ErrRequestInProgress while that request is still running. Store failures
// degrade to a normal create that does not hold the key.
func (s *CaseService) reserveKey(ctx context.Context, p domain.Principal, key string) (bool, *domain.Case, error) {
	if key == "" || s.idem == nil {
		return false, nil, nil
	}

	caseID, reserved, err := s.idem.Reserve(ctx, p.UserID, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency reserve failed, creating anyway")
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}
	if caseID == 0 {
		return false, nil, domain.ErrRequestInProgress
	}

	existing, err := s.cases.FindByID(ctx, caseID)
	if errors.Is(err, domain.ErrCaseNotFound) {
		// deleted since; the new case takes the key over
		return true, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	s.log.Info().Str("case_number", existing.CaseNumber).Msg("idempotent replay")
	return false, existing, nil
}

func (s *CaseService) resolveManager(ctx context.Context, p domain.Principal, requested int64) (int64, error) {
	if requested == 0 || requested == p.UserID {
		return p.UserID, nil
	}
	if !p.IsAdmin() {
		return 0, fmt.Errorf("%w: only admins may assign a case manager", domain.ErrForbidden)
	}
	if _, err := s.users.FindByID(ctx, requested); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return 0, domain.ValidationError("caseManagerId %d does not reference an existing user", requested)
		}
		return 0, err
	}
	return requested, nil
}

// GetCase returns a case by id. Case managers get ErrCaseNotFound for cases
// they do not manage.
func (s *CaseService) GetCase(ctx context.Context, p domain.Principal, id int64) (*domain.Case, error) {
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(p) {
		return nil, domain.ErrCaseNotFound
	}
	return c, nil
}

// ListCases returns one page of cases. The manager scope comes from the
// principal and cannot be widened by the query.
func (s *CaseService) ListCases(ctx context.Context, p domain.Principal, q ports.CaseQuery) (*ports.CasePage, error) {
	if err := validPage(q.Page); err != nil {
		return nil, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, domain.ValidationError("unknown status %q", q.Status)
	}
	if q.Priority != "" && !q.Priority.Valid() {
		return nil, domain.ValidationError("unknown priority %q", q.Priority)
	}

	filter := ports.CaseFilter{
		Status:   q.Status,
		Priority: q.Priority,
		Search:   strings.TrimSpace(q.Search),
		Limit:    q.Page.Size,
		Offset:   q.Page.Offset(),
	}
	if p.Role == domain.RoleCaseManager {
		filter.CaseManagerID = p.UserID
	}

	items, total, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Case{}
	}
	return &ports.CasePage{Items: items, Pagination: ports.NewPagination(total, q.Page)}, nil
}

// UpdateCase replaces status, priority, title, description and tags in a
// single write. Concurrent updates are last-write-wins.
func (s *CaseService) UpdateCase(ctx context.Context, p domain.Principal, id int64, in ports.UpdateCaseInput) (*domain.Case, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ValidationError("title is required")
	}
	if !in.Status.Valid() {
		return nil, domain.ValidationError("unknown status %q", in.Status)
	}
	if !in.Priority.Valid() {
		return nil, domain.ValidationError("unknown priority %q", in.Priority)
	}

	current, err := s.GetCase(ctx, p, id)
	if err != nil {
		return nil, err
	}

	upd := ports.CaseUpdate{
		Status:      in.Status,
		Priority:    in.Priority,
		Title:       title,
		Description: in.Description,
		Tags:        in.Tags,
	}
	if upd.Tags == nil {
		upd.Tags = []string{}
	}
	if in.CaseManagerID != nil && *in.CaseManagerID != current.CaseManagerID {
		managerID, err := s.resolveManager(ctx, p, *in.CaseManagerID)
		if err != nil {
			return nil, err
		}
		upd.CaseManagerID = &managerID
	}

	updated, err := s.cases.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"status": string(updated.Status), "priority": string(updated.Priority)}
	if current.Status != updated.Status {
		meta["previous_status"] = string(current.Status)
	}
	if current.CaseManagerID != updated.CaseManagerID {
		meta["case_manager_id"] = strconv.FormatInt(updated.CaseManagerID, 10)
	}
	s.activity.Publish(activityEvent(updated, p, domain.ActionCaseUpdated, meta))

	return updated, nil
}

// DeleteCase soft-deletes a case. Deleting an already deleted case returns
// ErrCaseNotFound.
func (s *CaseService) DeleteCase(ctx context.Context, p domain.Principal, id int64) error {
	current, err := s.GetCase(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.cases.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("case_number", current.CaseNumber).Int64("actor_id", p.UserID).Msg("case deleted")
	s.activity.Publish(activityEvent(current, p, domain.ActionCaseDeleted, nil))
	return nil
}

// Statistics counts visible cases per status.
func (s *CaseService) Statistics(ctx context.Context, p domain.Principal) ([]domain.StatusCount, error) {
	var managerID int64
	if p.Role == domain.RoleCaseManager {
		managerID = p.UserID
	}
	counts, err := s.cases.CountByStatus(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []domain.StatusCount{}
	}
	return counts, nil
}

// Activity lists the most recent trail entries of a visible case.
func (s *CaseService) Activity(ctx context.Context, p domain.Principal, id int64, limit int) ([]domain.ActivityEvent, error) {
	if _, err := s.GetCase(ctx, p, id); err != nil {
		return nil, err
	}
	if s.trail == nil {
		return []domain.ActivityEvent{}, nil
	}
	if limit <= 0 || limit > defaultActivityLimit {
		limit = defaultActivityLimit
	}

	events, err := s.trail.ListByCase(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if events == nil {
		events = []domain.ActivityEvent{}
	}
	return events, nil
}

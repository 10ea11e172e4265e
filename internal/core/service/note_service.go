package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// NoteService manages free-text notes on cases. Notes inherit the visibility
// of their case; private notes are additionally limited to their author and
// admins.
type NoteService struct {
	notes    ports.NoteRepository
	cases    ports.CaseRepository
	activity ports.ActivityPublisher
	log      zerolog.Logger
}

func NewNoteService(notes ports.NoteRepository, cases ports.CaseRepository, activity ports.ActivityPublisher, log zerolog.Logger) *NoteService {
	return &NoteService{notes: notes, cases: cases, activity: publisherOrNoop(activity), log: log}
}

func (s *NoteService) CreateNote(ctx context.Context, p domain.Principal, in ports.CreateNoteInput) (*domain.Note, error) {
	title := strings.TrimSpace(in.Title)
	if in.CaseID <= 0 || title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, domain.ValidationError("missing required fields: caseId, title, content")
	}

	c, err := visibleCase(ctx, s.cases, p, in.CaseID)
	if err != nil {
		return nil, err
	}

	n, err := s.notes.Create(ctx, &domain.Note{
		CaseID:    c.ID,
		UserID:    p.UserID,
		Title:     title,
		Content:   in.Content,
		IsPrivate: in.IsPrivate,
	})
	if err != nil {
		return nil, err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionNoteCreated, noteMeta(n)))
	return n, nil
}

func (s *NoteService) GetNote(ctx context.Context, p domain.Principal, id int64) (*domain.Note, error) {
	n, _, err := s.load(ctx, p, id)
	return n, err
}

// load returns the note and its case, hiding notes the caller may not see
// behind ErrNoteNotFound.
func (s *NoteService) load(ctx context.Context, p domain.Principal, id int64) (*domain.Note, *domain.Case, error) {
	n, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := visibleCase(ctx, s.cases, p, n.CaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNoteNotFound
		}
		return nil, nil, err
	}
	if n.IsPrivate && !n.EditableBy(p) {
		return nil, nil, domain.ErrNoteNotFound
	}
	return n, c, nil
}

func (s *NoteService) ListNotes(ctx context.Context, p domain.Principal, caseID int64, page ports.Page) (*ports.NotePage, error) {
	if err := validPage(page); err != nil {
		return nil, err
	}
	if _, err := visibleCase(ctx, s.cases, p, caseID); err != nil {
		return nil, err
	}

	items, total, err := s.notes.ListByCase(ctx, ports.NoteFilter{
		CaseID:         caseID,
		ViewerID:       p.UserID,
		IncludePrivate: p.IsAdmin(),
		Limit:          page.Size,
		Offset:         page.Offset(),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Note{}
	}
	return &ports.NotePage{Items: items, Pagination: ports.NewPagination(total, page)}, nil
}

// UpdateNote is allowed for the note's author and admins.
func (s *NoteService) UpdateNote(ctx context.Context, p domain.Principal, id int64, in ports.UpdateNoteInput) (*domain.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, domain.ValidationError("missing required fields: title, content")
	}

	n, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !n.EditableBy(p) {
		return nil, fmt.Errorf("%w: you do not have permission to update this note", domain.ErrForbidden)
	}

	n.Title = title
	n.Content = in.Content
	n.IsPrivate = in.IsPrivate
	updated, err := s.notes.Update(ctx, n)
	if err != nil {
		return nil, err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionNoteUpdated, noteMeta(updated)))
	return updated, nil
}

// DeleteNote is allowed for the note's author and admins.
func (s *NoteService) DeleteNote(ctx context.Context, p domain.Principal, id int64) error {
	n, c, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if !n.EditableBy(p) {
		return fmt.Errorf("%w: you do not have permission to delete this note", domain.ErrForbidden)
	}
	if err := s.notes.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionNoteDeleted, noteMeta(n)))
	return nil
}

func noteMeta(n *domain.Note) map[string]string {
	return map[string]string{"note_id": strconv.FormatInt(n.ID, 10)}
}

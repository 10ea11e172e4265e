package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// DocumentService manages document metadata. The file itself lives wherever
// FileURL points; this service never touches file bytes.
type DocumentService struct {
	docs     ports.DocumentRepository
	cases    ports.CaseRepository
	activity ports.ActivityPublisher
	log      zerolog.Logger
}

func NewDocumentService(docs ports.DocumentRepository, cases ports.CaseRepository, activity ports.ActivityPublisher, log zerolog.Logger) *DocumentService {
	return &DocumentService{docs: docs, cases: cases, activity: publisherOrNoop(activity), log: log}
}

func (s *DocumentService) AddDocument(ctx context.Context, p domain.Principal, in ports.AddDocumentInput) (*domain.Document, error) {
	fileName := strings.TrimSpace(in.FileName)
	fileURL := strings.TrimSpace(in.FileURL)
	if in.CaseID <= 0 || fileName == "" || fileURL == "" {
		return nil, domain.ValidationError("missing required fields: caseId, fileName, fileUrl")
	}
	if in.FileSize < 0 {
		return nil, domain.ValidationError("fileSize must not be negative")
	}

	docType := in.DocumentType
	if docType == "" {
		docType = domain.DocumentOther
	}
	if !docType.Valid() {
		return nil, domain.ValidationError("unknown document type %q", docType)
	}

	c, err := visibleCase(ctx, s.cases, p, in.CaseID)
	if err != nil {
		return nil, err
	}

	d, err := s.docs.Create(ctx, &domain.Document{
		CaseID:       c.ID,
		DocumentType: docType,
		FileName:     fileName,
		FileURL:      fileURL,
		FileSize:     in.FileSize,
		UploadedBy:   p.UserID,
		Description:  in.Description,
	})
	if err != nil {
		return nil, err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionDocumentAdded, documentMeta(d)))
	return d, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, p domain.Principal, id int64) (*domain.Document, error) {
	d, _, err := s.load(ctx, p, id)
	return d, err
}

func (s *DocumentService) load(ctx context.Context, p domain.Principal, id int64) (*domain.Document, *domain.Case, error) {
	d, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := visibleCase(ctx, s.cases, p, d.CaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return d, c, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, p domain.Principal, caseID int64, page ports.Page) (*ports.DocumentPage, error) {
	if err := validPage(page); err != nil {
		return nil, err
	}
	if _, err := visibleCase(ctx, s.cases, p, caseID); err != nil {
		return nil, err
	}

	items, total, err := s.docs.ListByCase(ctx, ports.DocumentFilter{
		CaseID: caseID,
		Limit:  page.Size,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Document{}
	}
	return &ports.DocumentPage{Items: items, Pagination: ports.NewPagination(total, page)}, nil
}

func (s *DocumentService) UpdateDocument(ctx context.Context, p domain.Principal, id int64, in ports.UpdateDocumentInput) (*domain.Document, error) {
	docType := in.DocumentType
	if docType == "" {
		docType = domain.DocumentOther
	}
	if !docType.Valid() {
		return nil, domain.ValidationError("unknown document type %q", docType)
	}

	_, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.docs.Update(ctx, id, docType, in.Description)
	if err != nil {
		return nil, err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionDocumentUpdated, documentMeta(updated)))
	return updated, nil
}

func (s *DocumentService) RemoveDocument(ctx context.Context, p domain.Principal, id int64) error {
	d, c, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.docs.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.activity.Publish(activityEvent(c, p, domain.ActionDocumentRemoved, documentMeta(d)))
	return nil
}

func documentMeta(d *domain.Document) map[string]string {
	return map[string]string{
		"document_id":   strconv.FormatInt(d.ID, 10),
		"document_type": string(d.DocumentType),
		"file_name":     d.FileName,
	}
}

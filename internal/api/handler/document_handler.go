package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// DocumentHandler handles HTTP requests for document metadata. File bytes are
// stored elsewhere; requests carry their URL.
type DocumentHandler struct {
	service ports.DocumentService
}

func NewDocumentHandler(service ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

type addDocumentRequest struct {
	CaseID       int64  `json:"caseId" validate:"required,gt=0"`
	DocumentType string `json:"documentType,omitempty" validate:"omitempty,document_type"`
	FileName     string `json:"fileName" validate:"required"`
	FileURL      string `json:"fileUrl" validate:"required"`
	FileSize     int64  `json:"fileSize" validate:"gte=0"`
	Description  string `json:"description"`
}

type updateDocumentRequest struct {
	DocumentType string `json:"documentType" validate:"required,document_type"`
	Description  string `json:"description"`
}

// Create handles POST /api/documents.
//
// @Summary      Attach a document to a case
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addDocumentRequest  true  "Document metadata"
// @Success      201   {object}  response.Success{data=domain.Document}
// @Failure      400   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /documents [post]
func (h *DocumentHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req addDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doc, err := h.service.AddDocument(c.Request().Context(), p, ports.AddDocumentInput{
		CaseID:       req.CaseID,
		DocumentType: domain.DocumentType(req.DocumentType),
		FileName:     req.FileName,
		FileURL:      req.FileURL,
		FileSize:     req.FileSize,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Document uploaded successfully", doc)
}

// ListByCase handles GET /api/documents/case/:caseId.
//
// @Summary      List the documents of a case
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        caseId    path      int  true   "Case ID"
// @Param        page      query     int  false  "Page number (default 1)"
// @Param        pageSize  query     int  false  "Page size (default 20, max 100)"
// @Success      200       {object}  response.Success{data=[]domain.Document}
// @Failure      404       {object}  response.Failure
// @Router       /documents/case/{caseId} [get]
func (h *DocumentHandler) ListByCase(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	caseID, err := pathID(c, "caseId")
	if err != nil {
		return err
	}
	page, err := pageParams(c, defaultChildSize)
	if err != nil {
		return err
	}

	result, err := h.service.ListDocuments(c.Request().Context(), p, caseID, page)
	if err != nil {
		return err
	}
	return response.Paged(c, "Documents retrieved successfully", result.Items, result.Pagination)
}

// Get handles GET /api/documents/:id.
//
// @Summary      Get a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Success{data=domain.Document}
// @Failure      404  {object}  response.Failure
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	doc, err := h.service.GetDocument(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "", doc)
}

// Update handles PUT /api/documents/:id.
//
// @Summary      Update document metadata
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Document ID"
// @Param        body  body      updateDocumentRequest  true  "Type and description"
// @Success      200   {object}  response.Success{data=domain.Document}
// @Failure      400   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doc, err := h.service.UpdateDocument(c.Request().Context(), p, id, ports.UpdateDocumentInput{
		DocumentType: domain.DocumentType(req.DocumentType),
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "Document updated successfully", doc)
}

// Delete handles DELETE /api/documents/:id.
//
// @Summary      Remove a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Success
// @Failure      404  {object}  response.Failure
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.RemoveDocument(c.Request().Context(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Document deleted successfully", nil)
}

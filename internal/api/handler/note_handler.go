package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// NoteHandler handles HTTP requests for case notes.
type NoteHandler struct {
	service ports.NoteService
}

func NewNoteHandler(service ports.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

type createNoteRequest struct {
	CaseID    int64  `json:"caseId" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
	IsPrivate bool   `json:"isPrivate"`
}

type updateNoteRequest struct {
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
	IsPrivate bool   `json:"isPrivate"`
}

// Create handles POST /api/notes.
//
// @Summary      Add a note to a case
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createNoteRequest  true  "Note"
// @Success      201   {object}  response.Success{data=domain.Note}
// @Failure      400   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.service.CreateNote(c.Request().Context(), p, ports.CreateNoteInput{
		CaseID:    req.CaseID,
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Note created successfully", note)
}

// ListByCase handles GET /api/notes/case/:caseId.
//
// @Summary      List the notes of a case
// @Description  Private notes are only listed for their author and admins.
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        caseId    path      int  true   "Case ID"
// @Param        page      query     int  false  "Page number (default 1)"
// @Param        pageSize  query     int  false  "Page size (default 20, max 100)"
// @Success      200       {object}  response.Success{data=[]domain.Note}
// @Failure      404       {object}  response.Failure
// @Router       /notes/case/{caseId} [get]
func (h *NoteHandler) ListByCase(c echo.Context) error {
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

	result, err := h.service.ListNotes(c.Request().Context(), p, caseID, page)
	if err != nil {
		return err
	}
	return response.Paged(c, "Notes retrieved successfully", result.Items, result.Pagination)
}

// Get handles GET /api/notes/:id.
//
// @Summary      Get a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  response.Success{data=domain.Note}
// @Failure      404  {object}  response.Failure
// @Router       /notes/{id} [get]
func (h *NoteHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	note, err := h.service.GetNote(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "", note)
}

// Update handles PUT /api/notes/:id. Only the author or an admin may update.
//
// @Summary      Update a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Note ID"
// @Param        body  body      updateNoteRequest  true  "Note"
// @Success      200   {object}  response.Success{data=domain.Note}
// @Failure      403   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /notes/{id} [put]
func (h *NoteHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.service.UpdateNote(c.Request().Context(), p, id, ports.UpdateNoteInput{
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "Note updated successfully", note)
}

// Delete handles DELETE /api/notes/:id. Only the author or an admin may delete.
//
// @Summary      Delete a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  response.Success
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteNote(c.Request().Context(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Note deleted successfully", nil)
}

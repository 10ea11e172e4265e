package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/metrics"
	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 128
)

// CaseHandler handles HTTP requests for case operations.
type CaseHandler struct {
	service ports.CaseService
}

func NewCaseHandler(service ports.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

type createCaseRequest struct {
	ClientID      int64    `json:"clientId" validate:"required,gt=0"`
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority,omitempty" validate:"omitempty,case_priority"`
	Tags          []string `json:"tags"`
	CaseManagerID int64    `json:"caseManagerId,omitempty" validate:"omitempty,gt=0"`
}

type updateCaseRequest struct {
	Status        string   `json:"status" validate:"required,case_status"`
	Priority      string   `json:"priority" validate:"required,case_priority"`
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CaseManagerID *int64   `json:"caseManagerId,omitempty" validate:"omitempty,gt=0"`
}

// Create handles POST /api/cases.
//
// @Summary      Create a case
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays the case created by an earlier request with the same key"
// @Param        body             body      createCaseRequest  true   "Case details"
// @Success      201              {object}  response.Success{data=domain.Case}
// @Success      200              {object}  response.Success{data=domain.Case}  "Idempotent replay"
// @Failure      400              {object}  response.Failure
// @Failure      401              {object}  response.Failure
// @Failure      403              {object}  response.Failure
// @Failure      409              {object}  response.Failure  "Idempotency-Key still in progress"
// @Router       /cases [post]
func (h *CaseHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createCaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return domain.ValidationError("%s must be at most %d characters", headerIdempotencyKey, maxIdempotencyKeyLen)
	}

	result, err := h.service.CreateCase(c.Request().Context(), p, ports.CreateCaseInput{
		ClientID:       req.ClientID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.CasePriority(req.Priority),
		Tags:           req.Tags,
		CaseManagerID:  req.CaseManagerID,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	if result.Replayed {
		metrics.CaseReplaysTotal.Inc()
		c.Response().Header().Set(headerReplayed, "true")
		return response.OK(c, "Case already created", result.Case)
	}
	metrics.CasesCreatedTotal.WithLabelValues(string(result.Case.Priority)).Inc()
	return response.Created(c, "Case created successfully", result.Case)
}

// List handles GET /api/cases.
//
// @Summary      List cases
// @Description  Case managers only see the cases they manage.
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Filter by status"
// @Param        priority  query     string  false  "Filter by priority"
// @Param        search    query     string  false  "Substring of case number or title"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        pageSize  query     int     false  "Page size (default 10, max 100)"
// @Success      200       {object}  response.Success{data=[]domain.Case}
// @Failure      400       {object}  response.Failure
// @Failure      401       {object}  response.Failure
// @Router       /cases [get]
func (h *CaseHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, err := pageParams(c, defaultCaseSize)
	if err != nil {
		return err
	}

	result, err := h.service.ListCases(c.Request().Context(), p, ports.CaseQuery{
		Status:   domain.CaseStatus(strings.TrimSpace(c.QueryParam("status"))),
		Priority: domain.CasePriority(strings.TrimSpace(c.QueryParam("priority"))),
		Search:   c.QueryParam("search"),
		Page:     page,
	})
	if err != nil {
		return err
	}
	return response.Paged(c, "Cases retrieved successfully", result.Items, result.Pagination)
}

// Get handles GET /api/cases/:id.
//
// @Summary      Get a case
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Case ID"
// @Success      200  {object}  response.Success{data=domain.Case}
// @Failure      404  {object}  response.Failure
// @Router       /cases/{id} [get]
func (h *CaseHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	found, err := h.service.GetCase(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "", found)
}

// Update handles PUT /api/cases/:id. The body replaces every mutable field.
//
// @Summary      Update a case
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Case ID"
// @Param        body  body      updateCaseRequest  true  "Full case state"
// @Success      200   {object}  response.Success{data=domain.Case}
// @Failure      400   {object}  response.Failure
// @Failure      403   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /cases/{id} [put]
func (h *CaseHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateCaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.UpdateCase(c.Request().Context(), p, id, ports.UpdateCaseInput{
		Status:        domain.CaseStatus(req.Status),
		Priority:      domain.CasePriority(req.Priority),
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		CaseManagerID: req.CaseManagerID,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "Case updated successfully", updated)
}

// Delete handles DELETE /api/cases/:id.
//
// @Summary      Delete a case
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Case ID"
// @Success      200  {object}  response.Success
// @Failure      404  {object}  response.Failure
// @Router       /cases/{id} [delete]
func (h *CaseHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteCase(c.Request().Context(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Case deleted successfully", nil)
}

// Statistics handles GET /api/cases/stats/summary.
//
// @Summary      Case counts per status
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success{data=[]domain.StatusCount}
// @Router       /cases/stats/summary [get]
func (h *CaseHandler) Statistics(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	counts, err := h.service.Statistics(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Statistics retrieved successfully", counts)
}

// Activity handles GET /api/cases/:id/activity.
//
// @Summary      Case activity trail
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int  true   "Case ID"
// @Param        limit  query     int  false  "Maximum number of events (default and max 50)"
// @Success      200    {object}  response.Success{data=[]domain.ActivityEvent}
// @Failure      404    {object}  response.Failure
// @Router       /cases/{id}/activity [get]
func (h *CaseHandler) Activity(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return domain.ValidationError("limit must be an integer >= 1")
		}
		limit = n
	}

	events, err := h.service.Activity(c.Request().Context(), p, id, limit)
	if err != nil {
		return err
	}
	return response.OK(c, "Activity retrieved successfully", events)
}

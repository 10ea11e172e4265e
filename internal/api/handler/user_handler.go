package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// UserHandler handles user administration. Every route is admin-only.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateUserRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"required,role"`
	IsActive  *bool  `json:"isActive" validate:"required"`
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role      query     string  false  "Filter by role"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        pageSize  query     int     false  "Page size (default 10, max 100)"
// @Success      200       {object}  response.Success{data=[]domain.User}
// @Failure      400       {object}  response.Failure
// @Failure      403       {object}  response.Failure
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := pageParams(c, defaultCaseSize)
	if err != nil {
		return err
	}

	var role domain.Role
	if raw := c.QueryParam("role"); raw != "" {
		r, ok := domain.ParseRole(raw)
		if !ok {
			return domain.ValidationError("unknown role %q", strings.TrimSpace(raw))
		}
		role = r
	}

	result, err := h.service.ListUsers(c.Request().Context(), role, page)
	if err != nil {
		return err
	}
	return response.Paged(c, "Users retrieved successfully", result.Items, result.Pagination)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Success{data=domain.User}
// @Failure      404  {object}  response.Failure
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", user)
}

// Update handles PUT /api/users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "Profile, role and active flag"
// @Success      200   {object}  response.Success{data=domain.User}
// @Failure      400   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), id, ports.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      domain.Role(req.Role),
		IsActive:  *req.IsActive,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "User updated successfully", user)
}

// Delete handles DELETE /api/users/:id. Admins cannot delete themselves.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Success
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteUser(c.Request().Context(), p, id); err != nil {
		return err
	}
	return response.OK(c, "User deleted successfully", nil)
}

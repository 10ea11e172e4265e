package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/metrics"
	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,role"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{User: r.User, AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  response.Success{data=authResponse}
// @Failure      400   {object}  response.Failure
// @Failure      409   {object}  response.Failure
// @Failure      500   {object}  response.Failure
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "User registered successfully", toAuthResponse(result))
}

// Login authenticates a user and returns an access and a refresh token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  response.Success{data=authResponse}
// @Failure      400   {object}  response.Failure
// @Failure      401   {object}  response.Failure
// @Failure      403   {object}  response.Failure
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	metrics.AuthAttemptsTotal.WithLabelValues("login", authOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return response.OK(c, "Login successful", toAuthResponse(result))
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  response.Success{data=authResponse}
// @Failure      400   {object}  response.Failure
// @Failure      401   {object}  response.Failure
// @Failure      403   {object}  response.Failure
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	metrics.AuthAttemptsTotal.WithLabelValues("refresh", authOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return response.OK(c, "Token refreshed successfully", toAuthResponse(result))
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success{data=domain.User}
// @Failure      401  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "", user)
}

// Logout acknowledges a logout. Tokens stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	return response.OK(c, "Logged out successfully", nil)
}

func authOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

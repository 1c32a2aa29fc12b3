package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
)

// AuthHandler maneja login y la identidad actual.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.Envelope
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if r := validation.DecodeJSON(c.Body(), &in); !r.Valid {
		return respondError(c, r.Err())
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Invalid email or password")
		}
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, out, "")
}

// Me godoc
// @Summary      Identidad actual
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.Envelope
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, auth.ToUserResponse(GetUser(c)), "")
}

// Permissions devuelve los pares (recurso, acción) concedidos al rol actual.
// GET /api/auth/permissions
func (h *AuthHandler) Permissions(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, auth.Permissions(GetUser(c)), "")
}

package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/domain"
)

// Códigos estables del campo "code" del envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeDuplicate    = "DUPLICATE"
	CodeDependents   = "HAS_DEPENDENTS"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL"
)

// retryAfterSeconds valor de Retry-After en respuestas 503.
const retryAfterSeconds = "1"

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(dto.Envelope{Success: true, Data: data, Message: message})
}

func respondReport(c *fiber.Ctx, data any, meta dto.ListMetadata) error {
	return c.JSON(dto.Envelope{Success: true, Data: data, Metadata: &meta})
}

func fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.Envelope{Success: false, Error: msg, Code: code})
}

// respondError traduce un error de dominio al envelope. Es el único punto de mapeo error -> status.
// El texto interno del error nunca sale en la respuesta.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		dup  *domain.DuplicateError
		dep  *domain.DependentsError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Envelope{
			Error: "Validation failed", Code: CodeValidation, Errors: verr.Fields,
		})
	case errors.As(err, &dup):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Envelope{
			Error:  fmt.Sprintf("A record with this %s already exists", dup.Field),
			Code:   CodeDuplicate,
			Errors: map[string]string{dup.Field: "Must be unique"},
		})
	case errors.As(err, &dep):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Envelope{
			Error: "Record is referenced by other records and cannot be deleted",
			Code:  CodeDependents,
			Errors: map[string]string{
				"constraint": dep.Constraint,
			},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, CodeValidation, "Validation failed")
	case errors.Is(err, domain.ErrProductNotFound):
		return fail(c, fiber.StatusNotFound, CodeNotFound, "Product not found")
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, CodeNotFound, "Record not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, CodeForbidden, "Insufficient permissions")
	case errors.Is(err, domain.ErrTransient):
		log.Warn().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).Msg("fallo transitorio")
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return fail(c, fiber.StatusServiceUnavailable, CodeUnavailable, "Service temporarily unavailable, retry later")
	default:
		log.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).Msg("error interno")
		return fail(c, fiber.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

// ErrorHandler handler de errores de la app fiber: rutas inexistentes, body demasiado grande, panics recuperados.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code := CodeInternal
		switch ferr.Code {
		case fiber.StatusNotFound:
			code = CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
			code = CodeValidation
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		if ferr.Code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", requestID(c)).Msg("error de fiber")
			return fail(c, ferr.Code, CodeInternal, "Internal server error")
		}
		return fail(c, ferr.Code, code, ferr.Message)
	}
	return respondError(c, err)
}

func requestID(c *fiber.Ctx) string {
	s, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return s
}

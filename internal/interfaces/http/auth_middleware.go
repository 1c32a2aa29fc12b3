package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// Locals keys para la identidad resuelta en Fiber.
const (
	LocalUser   = "user"
	LocalUserID = "user_id"
)

// IdentityResolver resuelve la credencial bearer a una identidad.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*entity.User, error)
}

// AuthObserver recibe los fallos de autenticación y las denegaciones (métricas).
type AuthObserver interface {
	AuthFailure(reason string)
	AuthzDenied(role, resource, action string)
}

type nopObserver struct{}

func (nopObserver) AuthFailure(string)                 {}
func (nopObserver) AuthzDenied(string, string, string) {}

// AccessControl compone autenticación y autorización delante de los handlers.
type AccessControl struct {
	resolver IdentityResolver
	observer AuthObserver
}

// NewAccessControl construye el middleware. observer puede ser nil.
func NewAccessControl(resolver IdentityResolver, observer AuthObserver) *AccessControl {
	if observer == nil {
		observer = nopObserver{}
	}
	return &AccessControl{resolver: resolver, observer: observer}
}

// Protect envuelve next: primero autentica (401), luego evalúa el permiso (403).
// next corre exactamente una vez y solo si ambos pasos aprueban.
func (ac *AccessControl) Protect(resource access.Resource, action access.Action) func(fiber.Handler) fiber.Handler {
	return func(next fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			user, err := ac.authenticate(c)
			if err != nil {
				return ac.reject(c, err)
			}
			if !access.Allows(user.Role, action, resource) {
				ac.observer.AuthzDenied(string(user.Role), string(resource), string(action))
				log.Warn().
					Str("request_id", requestID(c)).
					Str("user_id", user.ID).
					Str("role", string(user.Role)).
					Str("resource", string(resource)).
					Str("action", string(action)).
					Msg("acceso denegado")
				return fail(c, fiber.StatusForbidden, CodeForbidden, "Insufficient permissions")
			}
			setIdentity(c, user)
			return next(c)
		}
	}
}

// Authenticated solo exige identidad válida; lo usan las rutas de /auth.
func (ac *AccessControl) Authenticated() func(fiber.Handler) fiber.Handler {
	return func(next fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			user, err := ac.authenticate(c)
			if err != nil {
				return ac.reject(c, err)
			}
			setIdentity(c, user)
			return next(c)
		}
	}
}

func (ac *AccessControl) authenticate(c *fiber.Ctx) (*entity.User, error) {
	credential, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return ac.resolver.Resolve(c.UserContext(), credential)
}

// reject responde 401 uniforme para cualquier causa de autenticación; el resto (store caído) sigue respondError.
func (ac *AccessControl) reject(c *fiber.Ctx, err error) error {
	if !errors.Is(err, domain.ErrUnauthorized) {
		return respondError(c, err)
	}
	reason := auth.FailureReason(err)
	ac.observer.AuthFailure(reason)
	log.Warn().
		Str("request_id", requestID(c)).
		Str("reason", reason).
		Str("path", c.Path()).
		Msg("autenticación fallida")
	return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

// bearerToken extrae el token de "Bearer <token>". Header o token vacío -> credencial vacía (el resolver la reporta ausente).
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrInvalidCredential
	}
	return strings.TrimSpace(parts[1]), nil
}

func setIdentity(c *fiber.Ctx, user *entity.User) {
	c.Locals(LocalUser, user)
	c.Locals(LocalUserID, user.ID)
}

// GetUser devuelve la identidad del contexto (después de Protect o Authenticated).
func GetUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

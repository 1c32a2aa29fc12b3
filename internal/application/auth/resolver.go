package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
	"github.com/jhoicas/costtrack-api/pkg/jwt"
)

// Causas de fallo de autenticación; todas envuelven domain.ErrUnauthorized.
// Al usuario final se le responde igual; la causa va a logs y métricas.
var (
	ErrMissingCredential = fmt.Errorf("credencial ausente: %w", domain.ErrUnauthorized)
	ErrInvalidCredential = fmt.Errorf("credencial inválida: %w", domain.ErrUnauthorized)
	ErrExpiredCredential = fmt.Errorf("credencial expirada: %w", domain.ErrUnauthorized)
	ErrUnknownSubject    = fmt.Errorf("sujeto desconocido: %w", domain.ErrUnauthorized)
)

// FailureReason devuelve la etiqueta estable de la causa para logs y métricas.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing"
	case errors.Is(err, ErrExpiredCredential):
		return "expired"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "error"
	}
}

// JWTConfig configuración para generar y verificar tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// IdentityResolver verifica una credencial bearer y resuelve la identidad actual.
// Es de solo lectura.
type IdentityResolver struct {
	users  repository.UserRepository
	jwtCfg JWTConfig
}

// NewIdentityResolver construye el resolver.
func NewIdentityResolver(users repository.UserRepository, jwtCfg JWTConfig) *IdentityResolver {
	return &IdentityResolver{users: users, jwtCfg: jwtCfg}
}

// Resolve valida firma, emisor y expiración del token y busca al sujeto en el store.
// El rol devuelto es el persistido, no el del token.
// Un fallo de lectura que no sea "no existe" se devuelve tal cual (no es 401).
func (r *IdentityResolver) Resolve(ctx context.Context, credential string) (*entity.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrMissingCredential
	}
	claims, err := jwt.Parse(r.jwtCfg.Secret, r.jwtCfg.Issuer, credential)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredCredential, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	user, err := r.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if user == nil || !user.Role.Valid() {
		return nil, ErrUnknownSubject
	}
	return user, nil
}

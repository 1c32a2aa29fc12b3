package dto

import (
	"time"

	"github.com/jhoicas/costtrack-api/internal/domain/access"
)

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"` // segundos
	User      UserResponse `json:"user"`
}

// PermissionsResponse permisos del rol actual para que la UI habilite acciones.
type PermissionsResponse struct {
	Role        string              `json:"role"`
	Permissions []access.Permission `json:"permissions"`
	Resources   []access.Resource   `json:"resources"`
	Actions     []access.Action     `json:"actions"`
}

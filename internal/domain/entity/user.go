package entity

import (
	"time"

	"github.com/jhoicas/costtrack-api/internal/domain/access"
)

// User representa una identidad autenticable. El núcleo solo la consulta.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         access.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

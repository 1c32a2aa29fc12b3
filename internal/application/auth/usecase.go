package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
	"github.com/jhoicas/costtrack-api/pkg/jwt"
)

// MinPasswordLength longitud mínima de contraseña al crear usuarios.
const MinPasswordLength = 8

// AuthUseCase casos de uso de autenticación: login y alta de usuarios (seed).
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	val      *validation.Validator
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, val: validation.New()}
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Email desconocido y contraseña incorrecta devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, string(user.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		User:      *ToUserResponse(user),
	}, nil
}

// CreateUser crea una identidad con la contraseña hasheada (bcrypt). Usado por cmd/seeduser.
func (uc *AuthUseCase) CreateUser(ctx context.Context, email, password, name, role string) (*dto.UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r, err := access.ParseRole(role)
	if err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"role": "Valid role is required"}}
	}
	fields := map[string]string{}
	if !uc.val.Email(email) {
		fields["email"] = "Valid email format is required"
	}
	if len(password) < MinPasswordLength {
		fields["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.DuplicateError{Field: "email"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         r,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// Permissions devuelve los permisos concedidos al rol de la identidad.
func Permissions(user *entity.User) dto.PermissionsResponse {
	return dto.PermissionsResponse{
		Role:        string(user.Role),
		Permissions: access.Grants(user.Role),
		Resources:   append([]access.Resource(nil), access.Resources...),
		Actions:     append([]access.Action(nil), access.Actions...),
	}
}

// ToUserResponse mapea la entidad sin exponer el hash.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

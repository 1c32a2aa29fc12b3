package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/memstore"
	"github.com/jhoicas/costtrack-api/pkg/jwt"
)

var jwtCfg = auth.JWTConfig{Secret: "test-secret", ExpMinutes: 60, Issuer: "costtrack-api"}

func seed(t *testing.T, st *memstore.Store, email, role string) *dto.UserResponse {
	t.Helper()
	u, err := auth.NewAuthUseCase(st.Users(), jwtCfg).CreateUser(context.Background(), email, "s3cret-pass", "Ana", role)
	require.NoError(t, err)
	return u
}

func TestLogin_OK(t *testing.T) {
	st := memstore.New()
	u := seed(t, st, "ana@example.com", "manager")
	uc := auth.NewAuthUseCase(st.Users(), jwtCfg)

	res, err := uc.Login(context.Background(), dto.LoginRequest{Email: " ANA@example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Equal(t, "manager", res.User.Role)

	claims, err := jwt.Parse(jwtCfg.Secret, jwtCfg.Issuer, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestLogin_CredencialesIncorrectasSonIndistinguibles(t *testing.T) {
	st := memstore.New()
	seed(t, st, "ana@example.com", "viewer")
	uc := auth.NewAuthUseCase(st.Users(), jwtCfg)

	_, errPass := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "otra"})
	_, errMail := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@example.com", Password: "s3cret-pass"})
	_, errEmpty := uc.Login(context.Background(), dto.LoginRequest{})

	for _, err := range []error{errPass, errMail, errEmpty} {
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, domain.ErrUnauthorized.Error(), err.Error())
	}
}

func TestCreateUser_Validaciones(t *testing.T) {
	st := memstore.New()
	uc := auth.NewAuthUseCase(st.Users(), jwtCfg)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, "a@b.co", "s3cret-pass", "", "root")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateUser(ctx, "sin-arroba", "corta", "", "viewer")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")

	u, err := uc.CreateUser(ctx, "Ana@Example.com", "s3cret-pass", "", "viewer")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "ana@example.com", u.Name)

	_, err = uc.CreateUser(ctx, "ana@example.com", "s3cret-pass", "", "admin")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateUser_EmailConLaReglaDelValidador(t *testing.T) {
	uc := auth.NewAuthUseCase(memstore.New().Users(), jwtCfg)
	for _, email := range []string{"ana@", "@example.com", "ana@@example.com", "ana example@x.com"} {
		_, err := uc.CreateUser(context.Background(), email, "s3cret-pass", "Ana", "viewer")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, email)
		assert.Equal(t, "Valid email format is required", verr.Fields["email"], email)
	}
}

func TestResolve_CausasDistintas(t *testing.T) {
	st := memstore.New()
	u := seed(t, st, "ana@example.com", "sales_rep")
	r := auth.NewIdentityResolver(st.Users(), jwtCfg)
	ctx := context.Background()

	valid, err := jwt.Generate(jwtCfg.Secret, u.ID, "admin", jwtCfg.Issuer, 5)
	require.NoError(t, err)
	expired, err := jwt.GenerateAt(jwtCfg.Secret, u.ID, "sales_rep", jwtCfg.Issuer, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	forged, err := jwt.Generate("otro-secreto", u.ID, "sales_rep", jwtCfg.Issuer, 5)
	require.NoError(t, err)
	ghost, err := jwt.Generate(jwtCfg.Secret, "33333333-3333-3333-3333-333333333333", "admin", jwtCfg.Issuer, 5)
	require.NoError(t, err)

	got, err := r.Resolve(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, access.RoleSalesRep, got.Role, "el rol sale del store, no del token")

	cases := []struct {
		name   string
		token  string
		want   error
		reason string
	}{
		{"ausente", "  ", auth.ErrMissingCredential, "missing"},
		{"expirado", expired, auth.ErrExpiredCredential, "expired"},
		{"firma ajena", forged, auth.ErrInvalidCredential, "invalid"},
		{"malformado", "a.b.c", auth.ErrInvalidCredential, "invalid"},
		{"sujeto inexistente", ghost, auth.ErrUnknownSubject, "unknown_subject"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := r.Resolve(ctx, tc.token)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Equal(t, tc.reason, auth.FailureReason(err))
		})
	}
}

func TestResolve_FalloDelStoreNoEs401(t *testing.T) {
	st := memstore.New()
	u := seed(t, st, "ana@example.com", "viewer")
	r := auth.NewIdentityResolver(st.Users(), jwtCfg)
	token, err := jwt.Generate(jwtCfg.Secret, u.ID, "viewer", jwtCfg.Issuer, 5)
	require.NoError(t, err)

	boom := errors.New("pool agotado")
	st.FailOnce("users.get", boom)
	_, err = r.Resolve(context.Background(), token)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "error", auth.FailureReason(err))
}

func TestPermissions_PorRol(t *testing.T) {
	viewer := auth.Permissions(&entity.User{Role: access.RoleViewer})
	require.NotEmpty(t, viewer.Permissions)
	for _, p := range viewer.Permissions {
		assert.Equal(t, access.ActionRead, p.Action)
	}
	admin := auth.Permissions(&entity.User{Role: access.RoleAdmin})
	assert.Len(t, admin.Permissions, len(access.Resources)*len(access.Actions))
	assert.Equal(t, "admin", admin.Role)
	assert.Equal(t, access.Resources, admin.Resources)
}

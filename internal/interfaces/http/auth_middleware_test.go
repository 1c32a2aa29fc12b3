package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/costtrack-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testUserID = "00000000-0000-0000-0000-000000000001"

// stubResolver mapea token -> usuario; cualquier otro token es inválido.
type stubResolver struct {
	users map[string]*entity.User
	err   error
	got   []string
}

func (s *stubResolver) Resolve(_ context.Context, credential string) (*entity.User, error) {
	s.got = append(s.got, credential)
	if s.err != nil {
		return nil, s.err
	}
	if credential == "" {
		return nil, auth.ErrMissingCredential
	}
	if u, ok := s.users[credential]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidCredential
}

func rolesResolver() *stubResolver {
	users := map[string]*entity.User{}
	for _, r := range access.Roles {
		users["tok-"+string(r)] = &entity.User{ID: testUserID, Role: r}
	}
	return &stubResolver{users: users}
}

// buildTestApp construye una aplicación Fiber mínima con una ruta customers:create
// cuyo handler cuenta las invocaciones.
func buildTestApp(resolver apphttp.IdentityResolver, m *metrics.Metrics) (*fiber.App, *int) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	var observer apphttp.AuthObserver
	if m != nil {
		observer = m
	}
	ac := apphttp.NewAccessControl(resolver, observer)
	calls := 0
	app.Post("/protected", ac.Protect(access.ResourceCustomers, access.ActionCreate)(func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetUser(c).Role})
	}))
	app.Get("/me", ac.Authenticated()(func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c)})
	}))
	return app, &calls
}

func doRequest(t *testing.T, app *fiber.App, method, path, authHeader string) (*http.Response, dto.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env dto.Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Protect
// ──────────────────────────────────────────────────────────────────────────────

func TestProtect_RolConPermisoPasa(t *testing.T) {
	for _, role := range []access.Role{access.RoleAdmin, access.RoleSalesRep} {
		t.Run(string(role), func(t *testing.T) {
			app, calls := buildTestApp(rolesResolver(), nil)
			resp, _ := doRequest(t, app, http.MethodPost, "/protected", "Bearer tok-"+string(role))

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, 1, *calls, "el handler corre exactamente una vez")
		})
	}
}

func TestProtect_RolSinPermiso_Retorna403(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	for _, role := range []access.Role{access.RoleViewer, access.RoleManager} {
		t.Run(string(role), func(t *testing.T) {
			app, calls := buildTestApp(rolesResolver(), m)
			resp, env := doRequest(t, app, http.MethodPost, "/protected", "Bearer tok-"+string(role))

			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.False(t, env.Success)
			assert.Equal(t, apphttp.CodeForbidden, env.Code)
			assert.Zero(t, *calls, "el handler no debe ejecutarse")
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDenialsTotal.WithLabelValues("viewer", "customers", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDenialsTotal.WithLabelValues("manager", "customers", "create")))
}

func TestProtect_FallosDeAutenticacion_Retornan401Uniforme(t *testing.T) {
	cases := []struct {
		name   string
		header string
		reason string
	}{
		{"sin header", "", "missing"},
		{"bearer vacío", "Bearer ", "missing"},
		{"esquema distinto", "Basic dXNlcjpwYXNz", "invalid"},
		{"token desconocido", "Bearer token.invalido.aqui", "invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			app, calls := buildTestApp(rolesResolver(), m)
			resp, env := doRequest(t, app, http.MethodPost, "/protected", tc.header)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, apphttp.CodeUnauthorized, env.Code)
			assert.Equal(t, "Authentication required", env.Error, "el mensaje no revela la causa")
			assert.Zero(t, *calls)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues(tc.reason)))
		})
	}
}

func TestProtect_AutenticaAntesDeAutorizar(t *testing.T) {
	// Con credencial inválida nunca se llega a evaluar permisos: 401, no 403.
	m := metrics.New(prometheus.NewRegistry())
	app, _ := buildTestApp(rolesResolver(), m)
	resp, _ := doRequest(t, app, http.MethodPost, "/protected", "Bearer tok-nadie")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, testutil.CollectAndCount(m.AuthzDenialsTotal))
}

func TestProtect_StoreCaidoNoEs401(t *testing.T) {
	transient := &stubResolver{err: fmt.Errorf("resolve identity: %w", domain.ErrTransient)}
	app, calls := buildTestApp(transient, nil)
	resp, env := doRequest(t, app, http.MethodPost, "/protected", "Bearer tok-admin")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, apphttp.CodeUnavailable, env.Code)
	assert.Zero(t, *calls)

	broken := &stubResolver{err: errors.New("conexión rechazada por 10.0.0.5")}
	app, _ = buildTestApp(broken, nil)
	resp, env = doRequest(t, app, http.MethodPost, "/protected", "Bearer tok-admin")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, env.Error, "10.0.0.5", "el texto interno no sale en la respuesta")
}

func TestProtect_PasaElTokenSinPrefijo(t *testing.T) {
	r := rolesResolver()
	app, _ := buildTestApp(r, nil)
	doRequest(t, app, http.MethodPost, "/protected", "bearer   tok-admin  ")
	require.Len(t, r.got, 1)
	assert.Equal(t, "tok-admin", r.got[0])
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Authenticated
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthenticated_CualquierRolValido(t *testing.T) {
	app, calls := buildTestApp(rolesResolver(), nil)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-viewer")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, 1, *calls)

	resp, _ = doRequest(t, app, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Inalterable-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inalterable-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "inalterable-test"
	testExpMin    = 60

	unknownCompanyID = "00000000-0000-0000-0000-000000000009"
)

// ──────────────────────────────────────────────────────────────────────────────
// Permisos por rol sobre las rutas reales
// ──────────────────────────────────────────────────────────────────────────────

func TestRoles_MatrizDePermisos(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		method string
		path   string
		body   any
		want   int
	}{
		{"auditor lee asientos", pkgjwt.RoleAuditor, http.MethodGet, "/api/entries", nil, http.StatusOK},
		{"auditor no crea asientos", pkgjwt.RoleAuditor, http.MethodPost, "/api/entries", entryBody("2026-05-01", "1.00"), http.StatusForbidden},
		{"auditor no publica", pkgjwt.RoleAuditor, http.MethodPost, "/api/entries/1/post", nil, http.StatusForbidden},
		{"auditor consulta el reporte", pkgjwt.RoleAuditor, http.MethodGet, "/api/integrity/report", nil, http.StatusOK},
		{"auditor no desbloquea", pkgjwt.RoleAuditor, http.MethodPost, "/api/integrity/unblock", nil, http.StatusForbidden},
		{"contador crea asientos", pkgjwt.RoleAccount, http.MethodPost, "/api/entries", entryBody("2026-05-01", "1.00"), http.StatusCreated},
		{"contador lee asientos", pkgjwt.RoleAccount, http.MethodGet, "/api/entries", nil, http.StatusOK},
		{"contador no desbloquea", pkgjwt.RoleAccount, http.MethodPost, "/api/integrity/unblock", nil, http.StatusForbidden},
		{"contador no administra usuarios", pkgjwt.RoleAccount, http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"contador no lista empresas", pkgjwt.RoleAccount, http.MethodGet, "/api/companies", nil, http.StatusForbidden},
		{"admin crea asientos", pkgjwt.RoleAdmin, http.MethodPost, "/api/entries", entryBody("2026-05-01", "1.00"), http.StatusCreated},
		{"rol desconocido", "cajero", http.MethodGet, "/api/entries", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPI(t)
			resp := f.do(t, tc.method, tc.path, bearer(t, testCompanyID, tc.role), tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, dto.CodeForbidden, decode[dto.ErrorResponse](t, resp).Code)
			}
		})
	}
}

func TestAuthMiddleware_TokenRechazado(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, pkgjwt.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otra-clave", testUserID, testCompanyID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name string
		auth string
		code string
	}{
		{"sin cabecera", "", "MISSING_TOKEN"},
		{"esquema distinto", "Basic abc", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"firmado con otra clave", "Bearer " + foreign, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPI(t)
			resp := f.do(t, http.MethodGet, "/api/entries", tc.auth, nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}
}

func TestRequireRole_TokenSinRol(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/entries", bearer(t, testCompanyID, ""), nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestAuthMiddleware_ClaimsEnLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, testCompanyID, pkgjwt.RoleAuditor))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, pkgjwt.RoleAuditor, body["role"])
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireActiveCompany
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireActiveCompany_EnRutasDeAsientos(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/entries", bearer(t, suspendedCompanyID, pkgjwt.RoleAccount), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "COMPANY_SUSPENDED", decode[dto.ErrorResponse](t, resp).Code)

	// La suspensión pesa antes que el rol: ni el admin publica en una empresa suspendida.
	resp = f.do(t, http.MethodPost, "/api/entries", bearer(t, suspendedCompanyID, pkgjwt.RoleAdmin), entryBody("2026-05-01", "1.00"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "COMPANY_SUSPENDED", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/entries", bearer(t, unknownCompanyID, pkgjwt.RoleAccount), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, dto.CodeNotFound, decode[dto.ErrorResponse](t, resp).Code)
}

type stubCompanies struct {
	company *entity.Company
	err     error
}

func (s stubCompanies) GetByID(context.Context, string) (*entity.Company, error) {
	return s.company, s.err
}

func TestRequireActiveCompany_Respuestas(t *testing.T) {
	active := &entity.Company{ID: testCompanyID, Name: "Activa SAS", Status: entity.CompanyStatusActive}

	cases := []struct {
		name      string
		companyID string
		lookup    stubCompanies
		want      int
	}{
		{"empresa activa", testCompanyID, stubCompanies{company: active}, http.StatusOK},
		{"token sin empresa", "", stubCompanies{company: active}, http.StatusUnauthorized},
		{"consulta falla", testCompanyID, stubCompanies{err: errors.New("conexión cerrada")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/chain",
				func(c *fiber.Ctx) error {
					c.Locals(apphttp.LocalCompanyID, tc.companyID)
					return c.Next()
				},
				apphttp.RequireActiveCompany(tc.lookup),
				func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
			)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/chain", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

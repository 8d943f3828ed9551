package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inalterable-api/internal/application/auth"
	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/infrastructure/memory"
	"github.com/jhoicas/Inalterable-api/pkg/jwt"
)

const (
	companyID = "11111111-1111-1111-1111-111111111111"
	secret    = "secreto-de-prueba"
)

func newAuth(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(context.Background(), &entity.Company{
		ID: companyID, Name: "Acme SAS", NIT: "900123456", Status: entity.CompanyStatusActive, CreatedAt: time.Now(),
	}))
	return auth.NewAuthUseCase(store.Users(), store.Companies(), auth.JWTConfig{
		Secret: secret, ExpMinutes: 5, Issuer: "test", BcryptCost: bcrypt.MinCost,
	})
}

func TestRegisterYLogin(t *testing.T) {
	uc := newAuth(t)
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{
		CompanyID: companyID, Email: " Ana@Acme.co ", Password: "clave-segura", Role: jwt.RoleAccount,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.co", u.Email)
	assert.Equal(t, "ana@acme.co", u.Name)
	assert.Equal(t, jwt.RoleAccount, u.Role)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@acme.co", Password: "clave-segura"})
	require.NoError(t, err)
	claims, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, jwt.RoleAccount, claims.Role)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@acme.co", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegister_Validaciones(t *testing.T) {
	uc := newAuth(t)
	ctx := context.Background()
	base := dto.RegisterRequest{CompanyID: companyID, Email: "leo@acme.co", Password: "clave-segura"}

	u, err := uc.RegisterUser(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAuditor, u.Role, "sin rol queda como auditor")

	_, err = uc.RegisterUser(ctx, base)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	cases := map[string]dto.RegisterRequest{
		"email":    {CompanyID: companyID, Email: "sin-arroba", Password: "clave-segura"},
		"password":  {CompanyID: companyID, Email: "a@acme.co", Password: "corta"},
		"rol":      {CompanyID: companyID, Email: "b@acme.co", Password: "clave-segura", Role: "bodeguero"},
		"empresa":  {CompanyID: "no-es-uuid", Email: "c@acme.co", Password: "clave-segura"},
	}
	for name, in := range cases {
		_, err := uc.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{
		CompanyID: "99999999-9999-9999-9999-999999999999", Email: "d@acme.co", Password: "clave-segura",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureAdmin_Idempotente(t *testing.T) {
	uc := newAuth(t)
	ctx := context.Background()

	created, err := uc.EnsureAdmin(ctx, companyID, "admin@acme.co", "clave-admin")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, companyID, "admin@acme.co", "clave-admin")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := uc.ListByCompany(ctx, companyID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, jwt.RoleAdmin, list.Items[0].Role)
}

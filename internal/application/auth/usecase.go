package auth

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
	"github.com/jhoicas/Inalterable-api/pkg/jwt"
)

const minPasswordLen = 8

// Roles que se pueden asignar a un usuario.
var validRoles = []string{jwt.RoleAdmin, jwt.RoleAccount, jwt.RoleAuditor}

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
	// BcryptCost costo del hash; cero usa bcrypt.DefaultCost.
	BcryptCost int
}

// AuthUseCase casos de uso de autenticación: alta de usuarios y login.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, jwtCfg JWTConfig) *AuthUseCase {
	if jwtCfg.BcryptCost == 0 {
		jwtCfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, jwtCfg: jwtCfg}
}

// RegisterUser crea un usuario en una empresa existente. El rol por defecto es auditor (solo lectura).
// Devuelve domain.ErrDuplicate si el email ya está registrado.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.Wrap(domain.ErrInvalidInput, "email inválido")
	}
	if len(in.Password) < minPasswordLen {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "la contraseña debe tener al menos %d caracteres", minPasswordLen)
	}
	role := lo.Ternary(in.Role == "", jwt.RoleAuditor, in.Role)
	if !lo.Contains(validRoles, role) {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "rol %q", role)
	}
	if _, err := uuid.Parse(in.CompanyID); err != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, "company_id")
	}

	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.jwtCfg.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash de contraseña")
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    company.ID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         lo.Ternary(strings.TrimSpace(in.Name) == "", email, strings.TrimSpace(in.Name)),
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email y contraseña y firma un JWT con la empresa y el rol del usuario.
// Un email desconocido y una contraseña errada devuelven el mismo domain.ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, entity.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// ListByCompany lista los usuarios de una empresa.
func (uc *AuthUseCase) ListByCompany(ctx context.Context, companyID string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	list, err := uc.userRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{
		Items: lo.Map(list, func(u *entity.User, _ int) dto.UserResponse { return *toUserResponse(u) }),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// EnsureAdmin crea el admin inicial de una empresa si el email aún no existe. Se usa al arrancar.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, companyID, email, password string) (created bool, err error) {
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{
		CompanyID: companyID,
		Email:     email,
		Password:  password,
		Role:      jwt.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
	"github.com/jhoicas/Inalterable-api/pkg/nit"
)

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	repo     repository.CompanyRepository
	txRunner integrity.ChainTxRunner
}

// NewCompanyUseCase construye el caso de uso. txRunner se usa para leer el estado de la cadena.
func NewCompanyUseCase(repo repository.CompanyRepository, txRunner integrity.ChainTxRunner) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, txRunner: txRunner}
}

// Create crea una nueva empresa. Genera ID y estado inicial. El NIT se normaliza y, si trae dígito de
// verificación, se valida. Devuelve domain.ErrDuplicate si el NIT ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	taxID, err := nit.Normalize(in.NIT)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	existing, _ := uc.repo.GetByNIT(ctx, taxID)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "COP"
	}
	now := time.Now().UTC()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      name,
		NIT:       taxID,
		Email:     in.Email,
		Currency:  currency,
		Status:    entity.CompanyStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company, nil), nil
}

// GetByID obtiene una empresa por ID junto con el estado de su cadena.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidInput
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}

	var state entity.ChainState
	err = uc.txRunner.RunChainReadOnly(ctx, func(repo integrity.ChainRepository) error {
		s, err := repo.ChainState(ctx, id)
		state = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company, &state), nil
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CompanyListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c, nil))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func entityToCompanyResponse(c *entity.Company, state *entity.ChainState) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	out := &dto.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		NIT:       c.NIT,
		Email:     c.Email,
		Currency:  c.Currency,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if state != nil {
		out.Chain = &dto.ChainStateResponse{
			LastSequence:  state.LastSequence,
			Blocked:       state.Blocked(),
			BlockedAt:     state.BlockedAt,
			BlockedReason: state.BlockedReason,
		}
	}
	return out
}

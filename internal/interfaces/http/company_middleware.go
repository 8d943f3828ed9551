package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

// companyLookup es el contrato mínimo que necesita el middleware para verificar la empresa.
// Lo implementa cualquier repository.CompanyRepository.
type companyLookup interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}

// RequireActiveCompany verifica que la empresa del token exista y esté activa antes de tocar su
// cadena. Debe usarse DESPUÉS de AuthMiddleware (necesita LocalCompanyID).
//
// Comportamiento:
//   - 401 si el token no trae company_id.
//   - 404 si la empresa no existe.
//   - 403 si la empresa está suspendida.
//   - 503 si falla la consulta.
func RequireActiveCompany(companies companyLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    dto.CodeUnauthorized,
				Message: "company_id no encontrado en el token",
			})
		}

		company, err := companies.GetByID(c.UserContext(), companyID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "COMPANY_CHECK_FAILED",
				Message: "no se pudo verificar la empresa, intente más tarde",
			})
		}
		if company == nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Code:    dto.CodeNotFound,
				Message: "empresa del token no encontrada",
			})
		}
		if company.Status != entity.CompanyStatusActive {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "COMPANY_SUSPENDED",
				Message: "la empresa '" + company.Name + "' no está activa",
			})
		}

		return c.Next()
	}
}

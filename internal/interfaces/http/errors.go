package http

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// writeError traduce errores de dominio y de la cadena a respuestas HTTP estables.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, dto.CodeInternal, "error interno"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, dto.CodeBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnbalanced):
		status, code, msg = fiber.StatusUnprocessableEntity, dto.CodeUnbalanced, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, dto.CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, dto.CodeUnauthorized, "credenciales inválidas"
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, dto.CodeForbidden, err.Error()
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrNotDraft), errors.Is(err, domain.ErrChainNotBlocked):
		status, code, msg = fiber.StatusConflict, dto.CodeConflict, err.Error()
	case errors.Is(err, chain.ErrAlreadyFrozen):
		status, code, msg = fiber.StatusConflict, dto.CodeAlreadyFrozen, err.Error()
	case errors.Is(err, chain.ErrSequenceConflict), errors.Is(err, chain.ErrNonContiguous):
		c.Set(fiber.HeaderRetryAfter, "1")
		status, code, msg = fiber.StatusConflict, dto.CodeSequenceBusy, "la secuencia de la empresa está ocupada, reintente"
	case errors.Is(err, chain.ErrChainBroken):
		status, code, msg = fiber.StatusLocked, dto.CodeChainBroken, err.Error()
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

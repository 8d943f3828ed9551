package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inalterable-api/internal/application/accounting"
	"github.com/jhoicas/Inalterable-api/internal/application/dto"
)

// EntryHandler maneja los asientos contables de la empresa del token.
type EntryHandler struct {
	uc *accounting.EntryUseCase
}

// NewEntryHandler construye el handler inyectando el caso de uso.
func NewEntryHandler(uc *accounting.EntryUseCase) *EntryHandler {
	return &EntryHandler{uc: uc}
}

// Create POST /api/entries: crea un asiento en borrador.
func (h *EntryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID GET /api/entries/:id
func (h *EntryHandler) GetByID(c *fiber.Ctx) error {
	id, ok := entryID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List GET /api/entries?limit=&offset=
func (h *EntryHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Post POST /api/entries/:id/post: publica y sella el asiento en la cadena de la empresa.
//   - 409 ALREADY_FROZEN si ya estaba sellado.
//   - 409 SEQUENCE_CONFLICT (con Retry-After) si el candado de la empresa estaba ocupado.
//   - 423 CHAIN_BROKEN si falta el predecesor o la cadena está bloqueada.
func (h *EntryHandler) Post(c *fiber.Ctx) error {
	id, ok := entryID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	out, err := h.uc.Post(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func entryID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

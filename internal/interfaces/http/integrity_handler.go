package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
)

// HeaderReportDigest lleva el SHA-256 del XML canónico del reporte.
const HeaderReportDigest = "X-Report-Digest"

// IntegrityHandler expone la verificación de la cadena y sus exportaciones.
type IntegrityHandler struct {
	verifier  *integrity.VerifyUseCase
	exporter  *integrity.ExportUseCase
	binder    *integrity.Binder
	dateField string
}

// NewIntegrityHandler construye el handler. dateField es el campo de fecha por defecto del reporte.
func NewIntegrityHandler(verifier *integrity.VerifyUseCase, exporter *integrity.ExportUseCase, binder *integrity.Binder, dateField string) *IntegrityHandler {
	return &IntegrityHandler{verifier: verifier, exporter: exporter, binder: binder, dateField: dateField}
}

// Report GET /api/integrity/report?date_field=date&dry_run=false
func (h *IntegrityHandler) Report(c *fiber.Ctx) error {
	report, err := h.verifier.Verify(c.UserContext(), GetCompanyID(c), h.dateFieldOf(c), c.QueryBool("dry_run", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(integrity.ReportToResponse(report))
}

// ReportXML GET /api/integrity/report.xml: XML canónico con su huella en X-Report-Digest.
func (h *IntegrityHandler) ReportXML(c *fiber.Ctx) error {
	archived, err := h.exporter.ExportXML(c.UserContext(), GetCompanyID(c), h.dateFieldOf(c), c.QueryBool("dry_run", false))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, archived.Filename))
	c.Set(HeaderReportDigest, archived.Digest)
	return c.Send(archived.Document)
}

// ReportPDF GET /api/integrity/report.pdf: certificado de una página.
func (h *IntegrityHandler) ReportPDF(c *fiber.Ctx) error {
	exported, err := h.exporter.ExportPDF(c.UserContext(), GetCompanyID(c), h.dateFieldOf(c), c.QueryBool("dry_run", false))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, exported.Filename))
	return c.Send(exported.Document)
}

// Unblock POST /api/integrity/unblock (solo admin). Sin company_id en el cuerpo usa la del token.
func (h *IntegrityHandler) Unblock(c *fiber.Ctx) error {
	var in dto.UnblockChainRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	companyID := in.CompanyID
	if companyID == "" {
		companyID = GetCompanyID(c)
	}
	if err := h.binder.Unblock(c.UserContext(), companyID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *IntegrityHandler) dateFieldOf(c *fiber.Ctx) string {
	return c.Query("date_field", h.dateField)
}

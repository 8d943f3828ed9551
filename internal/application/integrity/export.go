package integrity

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
)

// ExportUseCase genera el reporte de integridad en formatos archivables (XML canónico y PDF).
type ExportUseCase struct {
	verifier    *VerifyUseCase
	companyRepo repository.CompanyRepository
	pdf         ReportPDFGenerator
	archiver    ReportArchiver
}

// NewExportUseCase construye el caso de uso inyectando todas sus dependencias.
func NewExportUseCase(
	verifier *VerifyUseCase,
	companyRepo repository.CompanyRepository,
	pdf ReportPDFGenerator,
	archiver ReportArchiver,
) *ExportUseCase {
	return &ExportUseCase{verifier: verifier, companyRepo: companyRepo, pdf: pdf, archiver: archiver}
}

// ArchivedReport es el documento exportado con el reporte que lo originó.
// Digest (SHA-256 del XML canónico) solo se llena en la exportación XML.
type ArchivedReport struct {
	Report   chain.Report
	Document []byte
	Digest   string
	Filename string
}

// ExportXML verifica y devuelve el reporte como XML canónico con su SHA-256.
func (uc *ExportUseCase) ExportXML(ctx context.Context, companyID, dateField string, dryRun bool) (*ArchivedReport, error) {
	report, company, err := uc.verifyWithCompany(ctx, companyID, dateField, dryRun)
	if err != nil {
		return nil, err
	}
	doc, digest, err := uc.archiver.Archive(report, company)
	if err != nil {
		return nil, fmt.Errorf("export: xml: %w", err)
	}
	return &ArchivedReport{
		Report:   report,
		Document: doc,
		Digest:   digest,
		Filename: reportFilename(report, "xml"),
	}, nil
}

// ExportPDF verifica y devuelve el certificado de integridad en PDF.
func (uc *ExportUseCase) ExportPDF(ctx context.Context, companyID, dateField string, dryRun bool) (*ArchivedReport, error) {
	report, company, err := uc.verifyWithCompany(ctx, companyID, dateField, dryRun)
	if err != nil {
		return nil, err
	}
	doc, err := uc.pdf.GenerateIntegrityPDF(ctx, report, company)
	if err != nil {
		return nil, fmt.Errorf("export: pdf: %w", err)
	}
	return &ArchivedReport{
		Report:   report,
		Document: doc,
		Filename: reportFilename(report, "pdf"),
	}, nil
}

func (uc *ExportUseCase) verifyWithCompany(ctx context.Context, companyID, dateField string, dryRun bool) (chain.Report, *entity.Company, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return chain.Report{}, nil, fmt.Errorf("export: obtener empresa: %w", err)
	}
	if company == nil {
		return chain.Report{}, nil, domain.ErrNotFound
	}
	report, err := uc.verifier.Verify(ctx, companyID, dateField, dryRun)
	if err != nil {
		return chain.Report{}, nil, err
	}
	return report, company, nil
}

func reportFilename(report chain.Report, ext string) string {
	return fmt.Sprintf("integridad_%s_%s.%s", report.CompanyID, report.CheckedAt.Format("20060102T150405Z"), ext)
}

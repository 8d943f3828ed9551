package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
)

// VerifyUseCase recorre la cadena de una empresa y produce el reporte de integridad.
// Nunca modifica registros.
type VerifyUseCase struct {
	registry *chain.Registry
	txRunner ChainTxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewVerifyUseCase construye el caso de uso.
func NewVerifyUseCase(registry *chain.Registry, txRunner ChainTxRunner, log *logger.Logger) *VerifyUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &VerifyUseCase{
		registry: registry,
		txRunner: txRunner,
		log:      log.Named("verifier"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj (tests y auditorías reproducibles).
func (uc *VerifyUseCase) WithClock(now func() time.Time) *VerifyUseCase {
	uc.now = now
	return uc
}

// Verify ejecuta la verificación sobre una instantánea de solo lectura.
// Con dryRun no lee nada y devuelve NOT_CHECKED. Los datos corruptos no son error: se reportan.
func (uc *VerifyUseCase) Verify(ctx context.Context, companyID, dateField string, dryRun bool) (chain.Report, error) {
	if companyID == "" {
		return chain.Report{}, domain.ErrInvalidInput
	}
	if dryRun {
		return chain.NotChecked(companyID, uc.now()), nil
	}

	var report chain.Report
	err := uc.txRunner.RunChainReadOnly(ctx, func(repo ChainRepository) error {
		records, err := repo.ListSealed(ctx, companyID)
		if err != nil {
			return fmt.Errorf("verify: listar registros: %w", err)
		}
		report = uc.registry.Verify(companyID, records, dateField, uc.now())
		return nil
	})
	if err != nil {
		return chain.Report{}, err
	}

	switch report.Status {
	case chain.StatusCorrupted:
		uc.log.Error().
			Str("company_id", companyID).
			Int64("seq", report.FirstBadSeq).
			Int64("record_id", report.FirstBadID).
			Str("record", report.FirstBadName).
			Msg("cadena CORRUPTED")
	default:
		uc.log.Info().
			Str("company_id", companyID).
			Str("status", string(report.Status)).
			Int("records", report.RecordCount).
			Msg("verificación de integridad")
	}
	return report, nil
}

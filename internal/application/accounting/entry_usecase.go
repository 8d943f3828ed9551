package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// EntryUseCase crea asientos en borrador y los publica sellándolos en la cadena de la empresa.
type EntryUseCase struct {
	txRunner    TxRunner
	entryRepo   repository.JournalEntryRepository
	companyRepo repository.CompanyRepository
	binder      *integrity.Binder
	log         *logger.Logger
	now         func() time.Time
}

// NewEntryUseCase construye el caso de uso.
func NewEntryUseCase(
	txRunner TxRunner,
	entryRepo repository.JournalEntryRepository,
	companyRepo repository.CompanyRepository,
	binder *integrity.Binder,
	log *logger.Logger,
) *EntryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &EntryUseCase{
		txRunner:    txRunner,
		entryRepo:   entryRepo,
		companyRepo: companyRepo,
		binder:      binder,
		log:         log.Named("accounting"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create valida y guarda un asiento en borrador. El asiento no entra a la cadena hasta Post.
func (uc *EntryUseCase) Create(ctx context.Context, companyID string, in dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	journal := strings.ToUpper(strings.TrimSpace(in.Journal))
	if companyID == "" || journal == "" || len(in.Lines) < 2 {
		return nil, domain.ErrInvalidInput
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q, se espera YYYY-MM-DD", domain.ErrInvalidInput, in.Date)
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("crear asiento: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}

	lines := make([]*entity.JournalLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		if strings.TrimSpace(l.AccountCode) == "" || !validAmounts(l.Debit, l.Credit) {
			return nil, fmt.Errorf("%w: línea %d", domain.ErrInvalidInput, i+1)
		}
		lines = append(lines, &entity.JournalLine{
			CompanyID:   companyID,
			Sequence:    int64(i+1) * 10,
			AccountCode: strings.TrimSpace(l.AccountCode),
			Label:       l.Label,
			Debit:       l.Debit.Round(2),
			Credit:      l.Credit.Round(2),
		})
	}

	now := uc.now()
	entry := &entity.JournalEntry{
		CompanyID: companyID,
		Journal:   journal,
		Date:      date,
		Ref:       in.Ref,
		PartnerID: in.PartnerID,
		State:     entity.EntryStateDraft,
		Lines:     lines,
		CreatedAt: now,
		UpdatedAt: now,
	}
	entry.AmountTotal = entry.TotalDebit()
	if !entry.IsBalanced() {
		return nil, domain.ErrUnbalanced
	}

	// Cabecera y líneas se guardan en la misma transacción.
	err = uc.txRunner.RunAccounting(ctx, func(entryRepo repository.JournalEntryRepository, _ integrity.ChainRepository) error {
		return entryRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return EntryToResponse(entry), nil
}

// Get devuelve un asiento de la empresa.
func (uc *EntryUseCase) Get(ctx context.Context, companyID string, id int64) (*dto.EntryResponse, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	if entry.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return EntryToResponse(entry), nil
}

// List lista asientos de la empresa con paginación.
func (uc *EntryUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.EntryListResponse, error) {
	page.DefaultPage()
	list, err := uc.entryRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := lo.Map(list, func(e *entity.JournalEntry, _ int) dto.EntryResponse { return *EntryToResponse(e) })
	return &dto.EntryListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Post publica el asiento: bloquea la fila, valida partida doble, cambia el estado y lo sella en la
// cadena en la misma transacción. Cualquier fallo revierte todo, incluida la secuencia.
//
// Retorna:
//   - domain.ErrNotFound / domain.ErrForbidden  si el asiento no existe o es de otra empresa.
//   - chain.ErrAlreadyFrozen                      si ya estaba sellado.
//   - chain.ErrSequenceConflict                   si el candado de la empresa no se obtuvo a tiempo (reintentable).
//   - chain.ErrChainBroken                        si falta el predecesor o la cadena está bloqueada.
func (uc *EntryUseCase) Post(ctx context.Context, companyID string, id int64) (*dto.EntryResponse, error) {
	var posted *entity.JournalEntry
	err := uc.txRunner.RunAccounting(ctx, func(entryRepo repository.JournalEntryRepository, chainRepo integrity.ChainRepository) error {
		entry, err := entryRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrNotFound
		}
		if entry.CompanyID != companyID {
			return domain.ErrForbidden
		}
		// Un asiento ya sellado lo rechaza el binder con AlreadyFrozen.
		if !chain.IsFrozen(entry) {
			if entry.State != entity.EntryStateDraft {
				return domain.ErrNotDraft
			}
			if !entry.IsBalanced() {
				return domain.ErrUnbalanced
			}
			now := uc.now()
			entry.State = entity.EntryStatePosted
			entry.PostedAt = &now
			entry.UpdatedAt = now
			if err := entryRepo.MarkPosted(ctx, entry); err != nil {
				return err
			}
		}
		if _, err := uc.binder.FreezeInTx(ctx, chainRepo, entry); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		uc.binder.HandleFailure(ctx, companyID, err)
		return nil, err
	}
	return EntryToResponse(posted), nil
}

func validAmounts(debit, credit decimal.Decimal) bool {
	if debit.IsNegative() || credit.IsNegative() {
		return false
	}
	// exactamente uno de los dos lados
	return debit.IsPositive() != credit.IsPositive()
}

// EntryToResponse convierte la entidad al DTO de salida.
func EntryToResponse(e *entity.JournalEntry) *dto.EntryResponse {
	if e == nil {
		return nil
	}
	return &dto.EntryResponse{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		Name:            e.Name,
		Journal:         e.Journal,
		Date:            e.Date.Format(dateLayout),
		Ref:             e.Ref,
		PartnerID:       e.PartnerID,
		AmountTotal:     e.AmountTotal,
		State:           e.State,
		SecureSequence:  e.SecureSequence,
		InalterableHash: e.InalterableHash,
		PostedAt:        e.PostedAt,
		CreatedAt:       e.CreatedAt,
		Lines: lo.Map(e.Lines, func(l *entity.JournalLine, _ int) dto.EntryLineResponse {
			return dto.EntryLineResponse{
				ID:          l.ID,
				Sequence:    l.Sequence,
				AccountCode: l.AccountCode,
				Label:       l.Label,
				Debit:       l.Debit,
				Credit:      l.Credit,
			}
		}),
	}
}

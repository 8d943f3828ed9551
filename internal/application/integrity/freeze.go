package integrity

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
)

// Binder congela registros en la cadena de su empresa: asigna la secuencia, encadena el hash
// con el predecesor y persiste ambos en la misma transacción.
type Binder struct {
	registry *chain.Registry
	txRunner ChainTxRunner
	log      *logger.Logger
}

// NewBinder construye el enlazador. El registro debe estar cerrado (Seal).
func NewBinder(registry *chain.Registry, txRunner ChainTxRunner, log *logger.Logger) *Binder {
	if log == nil {
		log = logger.Nop()
	}
	return &Binder{registry: registry, txRunner: txRunner, log: log.Named("binder")}
}

// Freeze congela rec en una transacción propia. Ante ChainBroken bloquea la cadena de la empresa.
func (b *Binder) Freeze(ctx context.Context, rec chain.HashableRecord) (chain.Seal, error) {
	var seal chain.Seal
	err := b.txRunner.RunChain(ctx, func(repo ChainRepository) error {
		s, err := b.FreezeInTx(ctx, repo, rec)
		if err != nil {
			return err
		}
		seal = s
		return nil
	})
	if err != nil {
		b.HandleFailure(ctx, rec.Company(), err)
		return chain.Seal{}, err
	}
	return seal, nil
}

// FreezeInTx congela rec usando el repositorio de la transacción del caller.
// Si retorna error el caller debe hacer rollback y luego llamar a HandleFailure.
func (b *Binder) FreezeInTx(ctx context.Context, repo ChainRepository, rec chain.HashableRecord) (chain.Seal, error) {
	if rec == nil {
		return chain.Seal{}, domain.ErrInvalidInput
	}
	companyID := rec.Company()
	if chain.IsFrozen(rec) {
		return chain.Seal{}, &chain.BinderError{Kind: chain.AlreadyFrozen, CompanyID: companyID, RecordID: rec.RecordID()}
	}

	state, err := repo.ChainState(ctx, companyID)
	if err != nil {
		return chain.Seal{}, fmt.Errorf("freeze: estado de la cadena: %w", err)
	}
	if state.Blocked() {
		return chain.Seal{}, &chain.BinderError{Kind: chain.ChainBroken, CompanyID: companyID, RecordID: rec.RecordID(), Blocked: true}
	}

	// Siempre se escribe con la versión vigente de la clase.
	version, err := b.registry.CurrentVersion(rec.ClassTag())
	if err != nil {
		return chain.Seal{}, err
	}

	// ── 1. Secuencia (toma el candado de la empresa hasta el commit) ────────────
	seq, err := repo.NextSequence(ctx, companyID)
	if err != nil {
		return chain.Seal{}, err
	}

	// ── 2. Hash del predecesor ───────────────────────────────────────────────
	prevHash := ""
	if seq > 1 {
		prev, ok, err := repo.GetBySequence(ctx, companyID, seq-1)
		if err != nil {
			return chain.Seal{}, fmt.Errorf("freeze: leer predecesor %d: %w", seq-1, err)
		}
		if !ok || prev.Seal.Hash == "" {
			return chain.Seal{}, &chain.BinderError{Kind: chain.ChainBroken, CompanyID: companyID, RecordID: rec.RecordID(), Sequence: seq}
		}
		prevHash = prev.Seal.Hash
	}

	// ── 3. Forma canónica + hash encadenado ──────────────────────────────────
	hash, err := b.registry.HashRecord(prevHash, rec, version)
	if err != nil {
		return chain.Seal{}, err
	}

	// ── 4. Persistir sello ───────────────────────────────────────────────────
	seal := chain.Seal{Sequence: seq, Hash: hash}
	if err := repo.PersistSeal(ctx, rec, seal); err != nil {
		return chain.Seal{}, err
	}

	b.log.Info().
		Str("company_id", companyID).
		Str("class", rec.ClassTag()).
		Int64("record_id", rec.RecordID()).
		Int64("seq", seq).
		Int("version", version).
		Msg("registro congelado en la cadena")
	return seal, nil
}

// HandleFailure registra el fallo de un freeze y, si fue un ChainBroken nuevo, bloquea la cadena
// de la empresa en una transacción aparte (la del freeze ya se revirtió).
func (b *Binder) HandleFailure(ctx context.Context, companyID string, err error) {
	if err == nil {
		return
	}
	var binderErr *chain.BinderError
	if !errors.As(err, &binderErr) || binderErr.Kind != chain.ChainBroken {
		b.log.Warn().Err(err).Str("company_id", companyID).Bool("retriable", chain.IsRetriable(err)).Msg("freeze fallido")
		return
	}
	if binderErr.Blocked {
		b.log.Warn().Str("company_id", companyID).Msg("freeze rechazado: cadena bloqueada")
		return
	}

	b.log.Error().Err(err).Str("company_id", companyID).Int64("seq", binderErr.Sequence).
		Msg("ChainBroken: se bloquea la publicación de registros de la empresa")

	bctx := context.WithoutCancel(ctx)
	blockErr := b.txRunner.RunChain(bctx, func(repo ChainRepository) error {
		return repo.BlockChain(bctx, companyID, err.Error())
	})
	if blockErr != nil {
		b.log.Error().Err(blockErr).Str("company_id", companyID).Msg("no se pudo bloquear la cadena")
	}
}

// Unblock libera una cadena bloqueada. Lo invoca un operador después de investigar la ruptura.
func (b *Binder) Unblock(ctx context.Context, companyID string) error {
	if companyID == "" {
		return domain.ErrInvalidInput
	}
	return b.txRunner.RunChain(ctx, func(repo ChainRepository) error {
		state, err := repo.ChainState(ctx, companyID)
		if err != nil {
			return err
		}
		if !state.Blocked() {
			return domain.ErrChainNotBlocked
		}
		if err := repo.UnblockChain(ctx, companyID); err != nil {
			return err
		}
		b.log.Warn().Str("company_id", companyID).Str("reason", state.BlockedReason).Msg("cadena desbloqueada por un operador")
		return nil
	})
}

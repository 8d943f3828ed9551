package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

var _ integrity.ChainRepository = (*ChainRepo)(nil)

// ChainRepo guarda la cadena de asientos: el contador por empresa en chain_sequences y el sello en
// las columnas secure_sequence_number / inalterable_hash de journal_entries.
type ChainRepo struct {
	q Querier
}

// NewChainRepository construye el adaptador. Debe recibir una tx: el candado del contador dura hasta el commit.
func NewChainRepository(q Querier) *ChainRepo {
	return &ChainRepo{q: q}
}

// NextSequence incrementa el contador de la empresa con un upsert. La fila queda bloqueada hasta el
// commit, así que las transacciones concurrentes de la misma empresa se serializan aquí.
func (r *ChainRepo) NextSequence(ctx context.Context, companyID string) (int64, error) {
	query := `
		INSERT INTO chain_sequences (company_id, last_value) VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = chain_sequences.last_value + 1
		RETURNING last_value`
	var seq int64
	if err := r.q.QueryRow(ctx, query, companyID).Scan(&seq); err != nil {
		if isLockConflict(err) {
			return 0, asSequenceConflict(err, companyID)
		}
		return 0, fmt.Errorf("next chain sequence: %w", err)
	}
	return seq, nil
}

// GetBySequence devuelve el asiento sellado con esa secuencia.
func (r *ChainRepo) GetBySequence(ctx context.Context, companyID string, seq int64) (chain.SealedRecord, bool, error) {
	query := `SELECT ` + entryColumns + `
		FROM journal_entries WHERE company_id = $1 AND secure_sequence_number = $2`
	rows, err := r.q.Query(ctx, query, companyID, seq)
	if err != nil {
		return chain.SealedRecord{}, false, fmt.Errorf("get entry by sequence: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if isNoRows(err) {
			return chain.SealedRecord{}, false, nil
		}
		return chain.SealedRecord{}, false, fmt.Errorf("get entry by sequence: %w", err)
	}
	if err := attachLines(ctx, r.q, []*entity.JournalEntry{e}); err != nil {
		return chain.SealedRecord{}, false, err
	}
	return sealed(e), true, nil
}

// PersistSeal escribe el sello solo si el asiento aún no lo tiene.
func (r *ChainRepo) PersistSeal(ctx context.Context, rec chain.HashableRecord, seal chain.Seal) error {
	entry, ok := rec.(*entity.JournalEntry)
	if !ok {
		return &chain.CanonicalizeError{Kind: chain.UnsupportedType, Class: rec.ClassTag(), Detail: "el almacenamiento solo sella asientos"}
	}
	query := `
		UPDATE journal_entries
		SET secure_sequence_number = $3, inalterable_hash = $4, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND secure_sequence_number IS NULL`
	cmd, err := r.q.Exec(ctx, query, entry.ID, entry.CompanyID, seal.Sequence, seal.Hash)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &chain.SequenceError{Kind: chain.NonContiguous, CompanyID: entry.CompanyID, Sequence: seal.Sequence, Err: err}
		case isLockConflict(err):
			return asSequenceConflict(err, entry.CompanyID)
		}
		return fmt.Errorf("persist seal: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &chain.BinderError{Kind: chain.AlreadyFrozen, CompanyID: entry.CompanyID, RecordID: entry.ID}
	}
	entry.SetSeal(seal)
	return nil
}

// ListSealed devuelve los asientos sellados de la empresa en orden de secuencia.
func (r *ChainRepo) ListSealed(ctx context.Context, companyID string) ([]chain.SealedRecord, error) {
	query := `SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND secure_sequence_number IS NOT NULL
		ORDER BY secure_sequence_number`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list sealed entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan sealed entry: %w", err)
	}
	if err := attachLines(ctx, r.q, entries); err != nil {
		return nil, err
	}
	out := make([]chain.SealedRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, sealed(e))
	}
	return out, nil
}

// ChainState lee el contador y el bloqueo. Una empresa sin fila tiene estado cero.
func (r *ChainRepo) ChainState(ctx context.Context, companyID string) (entity.ChainState, error) {
	state := entity.ChainState{CompanyID: companyID}
	query := `SELECT last_value, blocked_at, blocked_reason FROM chain_sequences WHERE company_id = $1`
	err := r.q.QueryRow(ctx, query, companyID).Scan(&state.LastSequence, &state.BlockedAt, &state.BlockedReason)
	if err != nil && !isNoRows(err) {
		return entity.ChainState{}, fmt.Errorf("get chain state: %w", err)
	}
	return state, nil
}

// BlockChain marca la cadena como rota; NextSequence sigue funcionando pero el binder rechaza.
func (r *ChainRepo) BlockChain(ctx context.Context, companyID, reason string) error {
	query := `
		INSERT INTO chain_sequences (company_id, last_value, blocked_at, blocked_reason)
		VALUES ($1, 0, now(), $2)
		ON CONFLICT (company_id) DO UPDATE SET blocked_at = now(), blocked_reason = EXCLUDED.blocked_reason`
	if _, err := r.q.Exec(ctx, query, companyID, reason); err != nil {
		return fmt.Errorf("block chain: %w", err)
	}
	return nil
}

// UnblockChain limpia el bloqueo.
func (r *ChainRepo) UnblockChain(ctx context.Context, companyID string) error {
	query := `UPDATE chain_sequences SET blocked_at = NULL, blocked_reason = '' WHERE company_id = $1`
	if _, err := r.q.Exec(ctx, query, companyID); err != nil {
		return fmt.Errorf("unblock chain: %w", err)
	}
	return nil
}

func sealed(e *entity.JournalEntry) chain.SealedRecord {
	s, _ := e.Seal()
	return chain.SealedRecord{Record: e, Seal: s}
}

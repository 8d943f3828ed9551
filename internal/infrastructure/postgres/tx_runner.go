package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inalterable-api/internal/application/accounting"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
)

// Ensure TxRunner implements integrity.ChainTxRunner and accounting.TxRunner.
var _ integrity.ChainTxRunner = (*TxRunner)(nil)
var _ accounting.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db          TxBeginner
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout acota la espera por el candado
// de secuencia de una empresa (SET LOCAL lock_timeout); cero deja el valor del servidor.
func NewTxRunner(db TxBeginner, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{db: db, lockTimeout: lockTimeout}
}

// RunChain inicia una transacción de lectura/escritura con el repositorio de la cadena.
func (r *TxRunner) RunChain(ctx context.Context, fn func(repo integrity.ChainRepository) error) error {
	return r.run(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewChainRepository(tx))
	})
}

// RunChainReadOnly abre una transacción REPEATABLE READ de solo lectura: toda la verificación
// ve la misma instantánea aunque otras transacciones sigan sellando.
func (r *TxRunner) RunChainReadOnly(ctx context.Context, fn func(repo integrity.ChainRepository) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.run(ctx, opts, func(tx pgx.Tx) error {
		return fn(NewChainRepository(tx))
	})
}

// RunAccounting inicia una transacción con repos de asientos y de la cadena (para publicar asientos).
func (r *TxRunner) RunAccounting(ctx context.Context, fn func(
	entryRepo repository.JournalEntryRepository,
	chainRepo integrity.ChainRepository,
) error) error {
	return r.run(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewJournalEntryRepository(tx), NewChainRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 && opts.AccessMode != pgx.ReadOnly {
		// SET no admite parámetros; el valor es un entero formateado por nosotros.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isLockConflict(err) {
			return asSequenceConflict(err, "")
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

const companyA = "0b6f4c1e-5d6a-4c1b-9f3e-2a7c1d8e9f00"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestChainRepo_NextSequence_Upsert(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chain_sequences (company_id, last_value) VALUES ($1, 1)")).
		WithArgs(companyA).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

	seq, err := NewChainRepository(mock).NextSequence(context.Background(), companyA)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChainRepo_NextSequence_LockTimeoutEsConflicto(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO chain_sequences").
		WithArgs(companyA).
		WillReturnError(&pgconn.PgError{Code: codeLockNotAvailable})

	_, err := NewChainRepository(mock).NextSequence(context.Background(), companyA)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrSequenceConflict)

	var seqErr *chain.SequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, companyA, seqErr.CompanyID)
}

func TestChainRepo_PersistSeal(t *testing.T) {
	entry := &entity.JournalEntry{ID: 42, CompanyID: companyA}
	seal := chain.Seal{Sequence: 3, Hash: "abc123"}

	t.Run("sella y actualiza el asiento", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE journal_entries")).
			WithArgs(int64(42), companyA, int64(3), "abc123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		e := entry.Clone()
		require.NoError(t, NewChainRepository(mock).PersistSeal(context.Background(), e, seal))
		got, ok := e.Seal()
		require.True(t, ok)
		assert.Equal(t, seal, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ya sellado", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE journal_entries").
			WithArgs(int64(42), companyA, int64(3), "abc123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewChainRepository(mock).PersistSeal(context.Background(), entry.Clone(), seal)
		assert.ErrorIs(t, err, chain.ErrAlreadyFrozen)
	})

	t.Run("secuencia duplicada", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE journal_entries").
			WithArgs(int64(42), companyA, int64(3), "abc123").
			WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

		err := NewChainRepository(mock).PersistSeal(context.Background(), entry.Clone(), seal)
		assert.ErrorIs(t, err, chain.ErrNonContiguous)
	})
}

func TestChainRepo_PersistSeal_ClaseNoSoportada(t *testing.T) {
	mock := newMock(t)
	line := &entity.JournalLine{ID: 1, CompanyID: companyA}

	err := NewChainRepository(mock).PersistSeal(context.Background(), line, chain.Seal{Sequence: 1, Hash: "x"})
	assert.ErrorIs(t, err, chain.ErrCanonicalize)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChainRepo_ChainState(t *testing.T) {
	t.Run("sin fila es estado cero", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT last_value, blocked_at, blocked_reason FROM chain_sequences").
			WithArgs(companyA).
			WillReturnError(pgx.ErrNoRows)

		state, err := NewChainRepository(mock).ChainState(context.Background(), companyA)
		require.NoError(t, err)
		assert.Equal(t, companyA, state.CompanyID)
		assert.Zero(t, state.LastSequence)
		assert.False(t, state.Blocked())
	})

	t.Run("bloqueada", func(t *testing.T) {
		blockedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		mock := newMock(t)
		mock.ExpectQuery("SELECT last_value, blocked_at, blocked_reason FROM chain_sequences").
			WithArgs(companyA).
			WillReturnRows(pgxmock.NewRows([]string{"last_value", "blocked_at", "blocked_reason"}).
				AddRow(int64(5), &blockedAt, "falta la secuencia 4"))

		state, err := NewChainRepository(mock).ChainState(context.Background(), companyA)
		require.NoError(t, err)
		assert.Equal(t, int64(5), state.LastSequence)
		assert.True(t, state.Blocked())
		assert.Equal(t, "falta la secuencia 4", state.BlockedReason)
	})
}

func TestChainRepo_BlockYUnblock(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chain_sequences (company_id, last_value, blocked_at, blocked_reason)")).
		WithArgs(companyA, "motivo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chain_sequences SET blocked_at = NULL")).
		WithArgs(companyA).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewChainRepository(mock)
	require.NoError(t, repo.BlockChain(context.Background(), companyA, "motivo"))
	require.NoError(t, repo.UnblockChain(context.Background(), companyA))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// Códigos SQLSTATE que la cadena trata como conflicto reintentable.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03" // lock_timeout
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014" // statement_timeout
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isLockConflict: espera de candado agotada, fallo de serialización, deadlock o contexto vencido.
func isLockConflict(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return false
}

// asSequenceConflict envuelve los conflictos de candado como SequenceError{Conflict} (reintentable).
func asSequenceConflict(err error, companyID string) error {
	if err == nil || !isLockConflict(err) {
		return err
	}
	var seqErr *chain.SequenceError
	if errors.As(err, &seqErr) {
		return err
	}
	return &chain.SequenceError{Kind: chain.Conflict, CompanyID: companyID, Err: err}
}

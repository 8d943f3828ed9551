package domain

import "errors"

// Errores de dominio del host (sin dependencias externas). Los errores de la cadena viven en domain/chain.
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrUnbalanced      = errors.New("el asiento no cuadra: débitos y créditos difieren")
	ErrNotDraft        = errors.New("el asiento ya no es borrador")
	ErrChainNotBlocked = errors.New("la cadena de la empresa no está bloqueada")
)

package chain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinelas por tipo de error; los errores tipados las exponen vía Is para usar errors.Is.
var (
	ErrCanonicalize      = errors.New("chain: no se pudo canonicalizar el registro")
	ErrUnknownVersion    = errors.New("chain: versión de hash desconocida")
	ErrSequenceConflict  = errors.New("chain: conflicto al asignar la secuencia")
	ErrNonContiguous     = errors.New("chain: secuencia no contigua")
	ErrAlreadyFrozen     = errors.New("chain: el registro ya está congelado")
	ErrChainBroken       = errors.New("chain: cadena rota")
	ErrRegistrySealed    = errors.New("chain: el registro de clases ya fue cerrado")
	ErrInvalidDefinition = errors.New("chain: definición de clase inválida")
)

// CanonicalizeKind clasifica los fallos del canonicalizador.
type CanonicalizeKind string

const (
	MissingField    CanonicalizeKind = "MissingField"
	UnsupportedType CanonicalizeKind = "UnsupportedType"
	Encoding        CanonicalizeKind = "Encoding"
)

// CanonicalizeError: un campo declarado falta, tiene un tipo que la versión no conoce o no es codificable.
type CanonicalizeError struct {
	Kind    CanonicalizeKind
	Class   string
	Field   string
	Version int
	Detail  string
}

func (e *CanonicalizeError) Error() string {
	msg := fmt.Sprintf("chain: canonicalizar %s v%d campo %q: %s", e.Class, e.Version, e.Field, e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *CanonicalizeError) Is(target error) bool { return target == ErrCanonicalize }

// HashError: se pidió una versión que este build no implementa. Indica un error de despliegue.
type HashError struct {
	Class   string
	Version int
}

func (e *HashError) Error() string {
	return fmt.Sprintf("chain: UnknownVersion %d para la clase %q", e.Version, e.Class)
}

func (e *HashError) Is(target error) bool { return target == ErrUnknownVersion }

// SequenceKind clasifica los fallos del secuenciador.
type SequenceKind string

const (
	Conflict      SequenceKind = "Conflict"
	NonContiguous SequenceKind = "NonContiguous"
)

// SequenceError es reintentable por el host en el borde de la transacción.
type SequenceError struct {
	Kind      SequenceKind
	CompanyID string
	Sequence  int64
	Err       error
}

func (e *SequenceError) Error() string {
	msg := fmt.Sprintf("chain: secuencia %s para la empresa %s", e.Kind, e.CompanyID)
	if e.Sequence > 0 {
		msg += fmt.Sprintf(" (n=%d)", e.Sequence)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SequenceError) Unwrap() error { return e.Err }

func (e *SequenceError) Is(target error) bool {
	switch e.Kind {
	case Conflict:
		return target == ErrSequenceConflict
	case NonContiguous:
		return target == ErrNonContiguous
	}
	return false
}

// BinderKind clasifica los fallos del enlazador.
type BinderKind string

const (
	AlreadyFrozen BinderKind = "AlreadyFrozen"
	ChainBroken   BinderKind = "ChainBroken"
)

// BinderError: AlreadyFrozen es error de programación; ChainBroken es una alarma de integridad.
// Blocked marca un ChainBroken previo que dejó la cadena bloqueada hasta que un operador la libere.
type BinderError struct {
	Kind      BinderKind
	CompanyID string
	RecordID  int64
	Sequence  int64
	Blocked   bool
}

func (e *BinderError) Error() string {
	switch {
	case e.Kind == ChainBroken && e.Blocked:
		return fmt.Sprintf("chain: ChainBroken en la empresa %s: la cadena está bloqueada", e.CompanyID)
	case e.Kind == ChainBroken:
		return fmt.Sprintf("chain: ChainBroken en la empresa %s: falta el predecesor de la secuencia %d", e.CompanyID, e.Sequence)
	default:
		return fmt.Sprintf("chain: %s registro %d de la empresa %s", e.Kind, e.RecordID, e.CompanyID)
	}
}

func (e *BinderError) Is(target error) bool {
	switch e.Kind {
	case AlreadyFrozen:
		return target == ErrAlreadyFrozen
	case ChainBroken:
		return target == ErrChainBroken
	}
	return false
}

// IsRetriable indica si el host puede reintentar la operación en una transacción nueva.
func IsRetriable(err error) bool {
	var seqErr *SequenceError
	return errors.As(err, &seqErr) && seqErr.Kind == Conflict
}

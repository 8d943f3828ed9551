package integrity

import (
	"context"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

// ChainRepository es el almacenamiento de la cadena visto desde una transacción.
// Todas las operaciones se ejecutan dentro de la transacción que las creó.
type ChainRepository interface {
	// NextSequence asigna la siguiente secuencia de la empresa (1, 2, 3...) y mantiene el candado
	// de la empresa hasta el fin de la transacción. Un rollback no consume el número.
	NextSequence(ctx context.Context, companyID string) (int64, error)
	// GetBySequence devuelve el registro sellado con esa secuencia; false si no existe.
	GetBySequence(ctx context.Context, companyID string, seq int64) (chain.SealedRecord, bool, error)
	// PersistSeal escribe secuencia y hash juntos. Si el registro ya tenía sello devuelve AlreadyFrozen
	// y si la secuencia ya está ocupada por otro registro devuelve SequenceError NonContiguous.
	PersistSeal(ctx context.Context, rec chain.HashableRecord, seal chain.Seal) error
	// ListSealed devuelve los registros sellados de la empresa en orden de secuencia ascendente.
	ListSealed(ctx context.Context, companyID string) ([]chain.SealedRecord, error)

	ChainState(ctx context.Context, companyID string) (entity.ChainState, error)
	BlockChain(ctx context.Context, companyID, reason string) error
	UnblockChain(ctx context.Context, companyID string) error
}

// ChainTxRunner ejecuta fn dentro de una transacción con un ChainRepository atado a ella.
// Si fn devuelve error se hace Rollback; si no, Commit.
type ChainTxRunner interface {
	RunChain(ctx context.Context, fn func(repo ChainRepository) error) error
	// RunChainReadOnly abre una transacción de solo lectura sobre una instantánea consistente.
	RunChainReadOnly(ctx context.Context, fn func(repo ChainRepository) error) error
}

// ReportPDFGenerator genera el certificado de integridad en PDF.
type ReportPDFGenerator interface {
	GenerateIntegrityPDF(ctx context.Context, report chain.Report, company *entity.Company) ([]byte, error)
}

// ReportArchiver produce el documento XML canónico del reporte y su huella SHA-256 en hexadecimal.
type ReportArchiver interface {
	Archive(report chain.Report, company *entity.Company) (doc []byte, digest string, err error)
}

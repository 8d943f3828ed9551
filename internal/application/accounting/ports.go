package accounting

import (
	"context"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye asientos y la cadena inalterable.
// Publicar un asiento y sellarlo ocurren en la misma transacción.
type TxRunner interface {
	RunAccounting(ctx context.Context, fn func(
		entryRepo repository.JournalEntryRepository,
		chainRepo integrity.ChainRepository,
	) error) error
}

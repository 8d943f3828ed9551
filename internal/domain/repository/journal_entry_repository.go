package repository

import (
	"context"

	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

// JournalEntryRepository define el puerto de persistencia para asientos y sus líneas.
// Los métodos devuelven (nil, nil) cuando el asiento no existe.
type JournalEntryRepository interface {
	// Create inserta la cabecera y las líneas; asigna los IDs generados.
	Create(ctx context.Context, entry *entity.JournalEntry) error
	GetByID(ctx context.Context, id int64) (*entity.JournalEntry, error)
	// GetForUpdate bloquea la fila del asiento hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.JournalEntry, error)
	// MarkPosted cambia el estado a publicado; el sello lo escribe la cadena.
	MarkPosted(ctx context.Context, entry *entity.JournalEntry) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.JournalEntry, error)
}

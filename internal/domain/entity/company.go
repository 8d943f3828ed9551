package entity

import "time"

// Estados de una empresa.
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// Company representa una organización/tenant. Cada empresa tiene su propia cadena inalterable.
type Company struct {
	ID        string
	Name      string
	NIT       string // identificación tributaria (con o sin dígito de verificación)
	Email     string
	Currency  string // ISO 4217, ej. COP
	Status    string // ver CompanyStatus*
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChainState es el estado de la cadena de una empresa tal como lo guarda el secuenciador.
type ChainState struct {
	CompanyID     string
	LastSequence  int64
	BlockedAt     *time.Time
	BlockedReason string
}

// Blocked indica que un ChainBroken detuvo la publicación de asientos hasta que un operador lo resuelva.
func (s ChainState) Blocked() bool { return s.BlockedAt != nil }

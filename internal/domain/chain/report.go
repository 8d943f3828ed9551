package chain

import "time"

// Status es el resultado de una verificación de integridad.
type Status string

const (
	StatusVerified   Status = "VERIFIED"
	StatusCorrupted  Status = "CORRUPTED"
	StatusNoRecord   Status = "NO_RECORD"
	StatusNotChecked Status = "NOT_CHECKED"
)

// Report es la huella archivable de una verificación. Solo se llenan los campos del estado.
type Report struct {
	Status    Status
	CompanyID string
	CheckedAt time.Time

	// VERIFIED
	FirstName string
	FirstDate string // fecha ISO o vacío
	FirstHash string
	LastName  string
	LastDate  string
	LastHash  string
	// RecordCount registros recorridos con éxito.
	RecordCount int
	// Versions cuántos registros coincidieron con cada versión.
	Versions map[int]int

	// CORRUPTED
	FirstBadName string
	FirstBadID   int64
	FirstBadSeq  int64
}

// OK indica una cadena íntegra.
func (r Report) OK() bool { return r.Status == StatusVerified }

package memory

import (
	"sync"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// Record es un registro genérico cuyos campos son un mapa. Sirve para clases sin entidad propia.
type Record struct {
	Class     string
	ID        int64
	CompanyID string
	Name      string

	mu     sync.RWMutex
	fields map[string]chain.Value
	seal   chain.Seal
}

var _ chain.HashableRecord = (*Record)(nil)

// NewRecord crea un registro sin sellar.
func NewRecord(class string, id int64, companyID, name string, fields map[string]chain.Value) *Record {
	copied := make(map[string]chain.Value, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Record{Class: class, ID: id, CompanyID: companyID, Name: name, fields: copied}
}

func (r *Record) ClassTag() string { return r.Class }
func (r *Record) RecordID() int64 { return r.ID }
func (r *Record) Company() string { return r.CompanyID }
func (r *Record) DisplayName() string { return r.Name }

func (r *Record) Field(name string) (chain.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.fields[name]
	return v, ok
}

func (r *Record) Seal() (chain.Seal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seal, !r.seal.IsZero()
}

// SetSeal lo invoca el Store al confirmar la transacción.
func (r *Record) SetSeal(s chain.Seal) {
	r.mu.Lock()
	r.seal = s
	r.mu.Unlock()
}

// Set reemplaza el valor de un campo. Sobre un registro sellado simula una manipulación directa.
func (r *Record) Set(name string, v chain.Value) {
	r.mu.Lock()
	r.fields[name] = v
	r.mu.Unlock()
}

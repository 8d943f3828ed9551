package chain

// HashableRecord es la capacidad que un registro del host implementa para participar en la cadena.
// Reemplaza el mixin del ORM: el núcleo solo lee campos por nombre y el sello actual.
type HashableRecord interface {
	ClassTag() string
	RecordID() int64
	Company() string
	DisplayName() string
	// Field devuelve el valor de un campo declarado; false si el host no lo conoce.
	Field(name string) (Value, bool)
	// Seal devuelve el sello si el registro ya fue congelado.
	Seal() (Seal, bool)
}

// Seal agrupa los dos campos a prueba de manipulación; se asignan juntos y nunca cambian.
type Seal struct {
	Sequence int64
	Hash     string
}

// IsZero indica que no hay sello.
func (s Seal) IsZero() bool { return s.Sequence == 0 && s.Hash == "" }

// SealedRecord es un registro congelado tal como lo devuelve el almacenamiento, en orden de secuencia.
type SealedRecord struct {
	Record HashableRecord
	Seal   Seal
}

// IsFrozen indica si el registro ya tiene secuencia y hash (is_frozen).
func IsFrozen(r HashableRecord) bool {
	if r == nil {
		return false
	}
	s, ok := r.Seal()
	return ok && !s.IsZero()
}

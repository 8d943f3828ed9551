// Package chain implementa la cadena inalterable de registros contables: forma canónica,
// hash encadenado SHA-256, registro versionado de clases y la verificación de integridad.
//
// El paquete no conoce la persistencia: el host entrega registros que implementan
// HashableRecord y los puertos de secuencia/sellado viven en la capa de aplicación.
package chain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind es el tipo declarado de un campo que participa en la forma canónica.
type Kind int

// Tipos de campo soportados por la versión 1.
const (
	KindBool Kind = iota + 1
	KindInt
	KindDecimal
	KindDate
	KindDateTime
	KindText
	KindRef
	KindRows
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindText:
		return "text"
	case KindRef:
		return "ref"
	case KindRows:
		return "rows"
	default:
		return "unknown"
	}
}

// FieldSpec declara un campo de la forma canónica.
// Precision solo aplica a KindDecimal; Child y ChildVersion solo a KindRows
// (tag y versión fija de la clase hija).
type FieldSpec struct {
	Name      string
	Kind      Kind
	Precision int32
	Child     string
	// ChildVersion queda fijada al declarar el campo: una versión nueva de la
	// clase hija no cambia lo que significa una versión ya publicada del padre.
	ChildVersion int
}

// Constructores de FieldSpec para declarar listas de campos como datos.
func BoolField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindBool} }
func IntField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindInt} }
func DateField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindDate} }
func DateTimeField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindDateTime} }
func TextField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindText} }
func RefField(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindRef} }

// DecimalField declara un monto con precisión fija (no depende de la configuración de moneda en vivo).
func DecimalField(name string, precision int32) FieldSpec {
	return FieldSpec{Name: name, Kind: KindDecimal, Precision: precision}
}

// RowsField declara líneas hijas canonicalizadas con la versión 1 de childTag.
func RowsField(name, childTag string) FieldSpec {
	return RowsFieldAt(name, childTag, 1)
}

// RowsFieldAt fija la versión de la clase hija con la que se canonicalizan las filas.
func RowsFieldAt(name, childTag string, childVersion int) FieldSpec {
	return FieldSpec{Name: name, Kind: KindRows, Child: childTag, ChildVersion: childVersion}
}

// Value es el valor escalar (o las filas hijas) que el host entrega para un campo.
// Null marca un valor ausente; su tratamiento depende del tipo (ver canonical.go).
type Value struct {
	Kind Kind
	Null bool

	b    bool
	i    int64
	d    decimal.Decimal
	t    time.Time
	s    string
	rows []HashableRecord
}

// Constructores de Value, uno por tipo declarado.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }
func Int(i int64) Value { return Value{Kind: KindInt, i: i} }
func Decimal(d decimal.Decimal) Value { return Value{Kind: KindDecimal, d: d} }
func Date(t time.Time) Value { return Value{Kind: KindDate, t: t} }
func DateTime(t time.Time) Value { return Value{Kind: KindDateTime, t: t} }
func Text(s string) Value { return Value{Kind: KindText, s: s} }
func Ref(id int64) Value { return Value{Kind: KindRef, i: id} }
func Rows(rows ...HashableRecord) Value { return Value{Kind: KindRows, rows: rows} }

// Null construye un valor ausente del tipo indicado.
func Null(k Kind) Value { return Value{Kind: k, Null: true} }

// OptionalDate devuelve Null(KindDate) cuando t es nil.
func OptionalDate(t *time.Time) Value {
	if t == nil {
		return Null(KindDate)
	}
	return Date(*t)
}

// OptionalRef devuelve Null(KindRef) cuando id es nil o cero.
func OptionalRef(id *int64) Value {
	if id == nil || *id == 0 {
		return Null(KindRef)
	}
	return Ref(*id)
}

// Time expone la fecha del valor (para la fecha de despliegue del reporte).
func (v Value) Time() (time.Time, bool) {
	if v.Null || (v.Kind != KindDate && v.Kind != KindDateTime) {
		return time.Time{}, false
	}
	return v.t, true
}

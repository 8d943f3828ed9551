package chain

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Separadores de la forma canónica. Ningún valor serializado puede contenerlos.
const (
	FieldSeparator  byte = 0x1F
	RecordSeparator byte = 0x1E

	separators = "\x1e\x1f"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Canonicalize produce la forma canónica del registro en la versión indicada:
// "<versión><tag>" seguido de "\x1F<valor>" por cada campo declarado, en orden.
func (r *Registry) Canonicalize(rec HashableRecord, version int) ([]byte, error) {
	if !r.Sealed() {
		return nil, errors.Wrap(ErrInvalidDefinition, "el registro de clases no está cerrado")
	}
	if rec == nil {
		return nil, errors.Wrap(ErrInvalidDefinition, "registro nil")
	}
	def, err := r.Definition(rec.ClassTag(), version)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(version))
	buf.WriteString(def.Tag)
	for _, f := range def.Fields {
		buf.WriteByte(FieldSeparator)
		if err := r.writeField(&buf, def, f, rec, version); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (r *Registry) writeField(buf *bytes.Buffer, def *ClassDefinition, f FieldSpec, rec HashableRecord, version int) error {
	v, ok := rec.Field(f.Name)
	if !ok {
		return &CanonicalizeError{Kind: MissingField, Class: def.Tag, Field: f.Name, Version: version}
	}
	if v.Kind != f.Kind {
		return &CanonicalizeError{
			Kind: UnsupportedType, Class: def.Tag, Field: f.Name, Version: version,
			Detail: "se esperaba " + f.Kind.String() + ", se recibió " + v.Kind.String(),
		}
	}
	fail := func(kind CanonicalizeKind, detail string) error {
		return &CanonicalizeError{Kind: kind, Class: def.Tag, Field: f.Name, Version: version, Detail: detail}
	}

	switch f.Kind {
	case KindBool:
		if v.Null {
			return fail(MissingField, "valor nulo")
		}
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		if v.Null {
			return fail(MissingField, "valor nulo")
		}
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindDecimal:
		if v.Null {
			return fail(MissingField, "valor nulo")
		}
		out, err := formatDecimal(v.d, f.Precision)
		if err != nil {
			return fail(Encoding, err.Error())
		}
		buf.WriteString(out)
	case KindDate:
		// Fecha calendario en su propia zona, sin pasar por UTC.
		if !v.Null {
			buf.WriteString(v.t.Format(dateLayout))
		}
	case KindDateTime:
		if !v.Null {
			buf.WriteString(v.t.UTC().Format(dateTimeLayout))
		}
	case KindText:
		if v.Null {
			return nil
		}
		s, err := normalizeText(v.s)
		if err != nil {
			return fail(Encoding, err.Error())
		}
		buf.WriteString(s)
	case KindRef:
		if v.Null {
			buf.WriteByte('0')
			return nil
		}
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindRows:
		return r.writeRows(buf, def, f, v, version)
	default:
		return fail(UnsupportedType, "tipo "+f.Kind.String())
	}
	return nil
}

// writeRows serializa "<n>" y por cada fila "\x1E" + campos unidos por "\x1F".
// El conteo distingue una lista vacía de una fila con todos los campos vacíos.
func (r *Registry) writeRows(buf *bytes.Buffer, parent *ClassDefinition, f FieldSpec, v Value, version int) error {
	if v.Null {
		buf.WriteByte('0')
		return nil
	}
	child, err := r.Definition(f.Child, f.ChildVersion)
	if err != nil {
		return err
	}

	type keyed struct {
		rec HashableRecord
		key Value
	}
	rows := make([]keyed, 0, len(v.rows))
	for _, row := range v.rows {
		if row == nil || row.ClassTag() != child.Tag {
			tag := "<nil>"
			if row != nil {
				tag = row.ClassTag()
			}
			return &CanonicalizeError{
				Kind: UnsupportedType, Class: parent.Tag, Field: f.Name, Version: version,
				Detail: "fila de clase " + tag + ", se esperaba " + child.Tag,
			}
		}
		key, ok := row.Field(child.RowKey)
		if !ok {
			return &CanonicalizeError{Kind: MissingField, Class: child.Tag, Field: child.RowKey, Version: child.Version}
		}
		rows = append(rows, keyed{rec: row, key: key})
	}
	slices.SortStableFunc(rows, func(a, b keyed) int { return compareValues(a.key, b.key) })

	buf.WriteString(strconv.Itoa(len(rows)))
	for _, row := range rows {
		buf.WriteByte(RecordSeparator)
		for i, cf := range child.Fields {
			if i > 0 {
				buf.WriteByte(FieldSeparator)
			}
			if err := r.writeField(buf, child, cf, row.rec, child.Version); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatDecimal: precisión fija, punto decimal, sin separador de miles; el cero negativo se normaliza.
// Un valor con más decimales que la precisión declarada es un error de codificación.
func formatDecimal(d decimal.Decimal, precision int32) (string, error) {
	if !d.Equal(d.Round(precision)) {
		return "", errors.Newf("%s excede la precisión de %d decimales", d.String(), precision)
	}
	if d.IsZero() {
		d = decimal.Zero
	}
	return d.StringFixed(precision), nil
}

func normalizeText(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.New("texto no es UTF-8 válido")
	}
	s = norm.NFC.String(s)
	if strings.ContainsAny(s, separators) {
		return "", errors.New("texto contiene un separador reservado")
	}
	return s, nil
}

// compareValues ordena las llaves de fila; los nulos van primero.
func compareValues(a, b Value) int {
	switch {
	case a.Null && b.Null:
		return 0
	case a.Null:
		return -1
	case b.Null:
		return 1
	}
	switch a.Kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindInt, KindRef:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	case KindDecimal:
		return a.d.Cmp(b.d)
	case KindDate, KindDateTime:
		return a.t.Compare(b.t)
	case KindText:
		return strings.Compare(norm.NFC.String(a.s), norm.NFC.String(b.s))
	}
	return 0
}

package chain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vector del escenario de dos registros:
//
//	h1 = SHA256("1" + "Entry" + "\x1F2024-01-01" + "\x1F100.00" + "\x1FOpening")
//	h2 = SHA256(h1 + "1" + "Entry" + "\x1F2024-01-02" + "\x1F-50.00" + "\x1FPayout")
//
// Si cambia el formato de la forma canónica, este test falla y las cadenas
// ya selladas dejarían de verificarse.
// ──────────────────────────────────────────────────────────────────────────────

const (
	vectorH1 = "186e7a12adc59e0249e768d97c6800cb47db228bf5c7fc2882c7b8ba7df8b3b4"
	vectorH2 = "c27bc692756bc3151dab3c45b239d996c93bd019d14d4751a93b910ac47b6de4"
)

func TestCanonicalize_VectorExacto(t *testing.T) {
	reg := newEntryRegistry(t)
	e1 := newEntry(1, "E1", "2024-01-01", "100", "Opening")
	e2 := newEntry(2, "E2", "2024-01-02", "-50", "Payout")

	c1, err := reg.Canonicalize(e1, 1)
	require.NoError(t, err)
	assert.Equal(t, "1Entry\x1f2024-01-01\x1f100.00\x1fOpening", string(c1))

	h1 := chain.Hash("", c1)
	assert.Equal(t, vectorH1, h1)
	assert.Len(t, h1, chain.HashHexLength)

	h2, err := reg.HashRecord(h1, e2, 1)
	require.NoError(t, err)
	assert.Equal(t, vectorH2, h2)
}

func TestCanonicalize_ReglasPorTipo(t *testing.T) {
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass("Scalars", []chain.FieldSpec{
		chain.BoolField("flag"),
		chain.IntField("count"),
		chain.DecimalField("amount", 3),
		chain.DateTimeField("at"),
		chain.DateField("due"),
		chain.TextField("label"),
		chain.RefField("partner_id"),
	}))
	require.NoError(t, reg.Seal())

	bogota := time.FixedZone("COT", -5*3600)
	cases := []struct {
		name   string
		fields map[string]chain.Value
		want   string
	}{
		{
			name: "valores completos",
			fields: map[string]chain.Value{
				"flag":       chain.Bool(true),
				"count":      chain.Int(-42),
				"amount":     chain.Decimal(decimal.RequireFromString("1234.5")),
				"at":         chain.DateTime(time.Date(2024, 3, 1, 20, 30, 0, 0, bogota)),
				"due":        chain.Date(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
				"label":      chain.Text("Factura"),
				"partner_id": chain.Ref(7),
			},
			want: "1Scalars\x1ftrue\x1f-42\x1f1234.500\x1f2024-03-02T01:30:00\x1f2024-03-31\x1fFactura\x1f7",
		},
		{
			name: "ausentes y cero negativo",
			fields: map[string]chain.Value{
				"flag":       chain.Bool(false),
				"count":      chain.Int(0),
				"amount":     chain.Decimal(decimal.RequireFromString("-0.000")),
				"at":         chain.Null(chain.KindDateTime),
				"due":        chain.OptionalDate(nil),
				"label":      chain.Null(chain.KindText),
				"partner_id": chain.OptionalRef(nil),
			},
			want: "1Scalars\x1ffalse\x1f0\x1f0.000\x1f\x1f\x1f\x1f0",
		},
		{
			name: "texto normalizado a NFC",
			fields: map[string]chain.Value{
				"flag":       chain.Bool(false),
				"count":      chain.Int(1),
				"amount":     chain.Decimal(decimal.NewFromInt(2)),
				"at":         chain.Null(chain.KindDateTime),
				"due":        chain.Null(chain.KindDate),
				"label":      chain.Text("Cafe\u0301  "),
				"partner_id": chain.Ref(0),
			},
			want: "1Scalars\x1ffalse\x1f1\x1f2.000\x1f\x1f\x1fCaf\u00e9  \x1f0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &testRecord{tag: "Scalars", id: 1, company: testCompany, fields: tc.fields}
			got, err := reg.Canonicalize(rec, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestCanonicalize_Errores(t *testing.T) {
	reg := newEntryRegistry(t)

	cases := []struct {
		name   string
		mutate func(r *testRecord)
		kind   chain.CanonicalizeKind
	}{
		{"campo ausente", func(r *testRecord) { delete(r.fields, "memo") }, chain.MissingField},
		{"monto nulo", func(r *testRecord) { r.fields["amount"] = chain.Null(chain.KindDecimal) }, chain.MissingField},
		{"tipo distinto", func(r *testRecord) { r.fields["amount"] = chain.Int(100) }, chain.UnsupportedType},
		{"separador en texto", func(r *testRecord) { r.fields["memo"] = chain.Text("a\x1fb") }, chain.Encoding},
		{"utf-8 inválido", func(r *testRecord) { r.fields["memo"] = chain.Text("\xff\xfe") }, chain.Encoding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newEntry(1, "E1", "2024-01-01", "100", "Opening")
			tc.mutate(rec)
			_, err := reg.Canonicalize(rec, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, chain.ErrCanonicalize)

			var cErr *chain.CanonicalizeError
			require.ErrorAs(t, err, &cErr)
			assert.Equal(t, tc.kind, cErr.Kind)
			assert.Equal(t, entryTag, cErr.Class)
		})
	}
}

func TestCanonicalize_VersionDesconocida(t *testing.T) {
	reg := newEntryRegistry(t)
	_, err := reg.Canonicalize(newEntry(1, "E1", "2024-01-01", "1", "x"), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrUnknownVersion)

	var hErr *chain.HashError
	require.ErrorAs(t, err, &hErr)
	assert.Equal(t, 2, hErr.Version)
}

func TestCanonicalize_RegistroAbierto(t *testing.T) {
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass(entryTag, entryFields()))
	_, err := reg.Canonicalize(newEntry(1, "E1", "2024-01-01", "1", "x"), 1)
	assert.ErrorIs(t, err, chain.ErrInvalidDefinition)
}

// ── Filas hijas ───────────────────────────────────────────────────────────────

func newMoveRegistry(t *testing.T) *chain.Registry {
	t.Helper()
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass("Move", []chain.FieldSpec{
		chain.TextField("name"),
		chain.RowsField("lines", "Line"),
	}))
	require.NoError(t, reg.RegisterClass("Line", []chain.FieldSpec{
		chain.IntField("sequence"),
		chain.TextField("label"),
	}, chain.WithRowKey("sequence")))
	require.NoError(t, reg.Seal())
	return reg
}

func newLine(seq int64, label string) *testRecord {
	return &testRecord{tag: "Line", id: seq, company: testCompany, fields: map[string]chain.Value{
		"sequence": chain.Int(seq),
		"label":    chain.Text(label),
	}}
}

func newMove(lines ...chain.HashableRecord) *testRecord {
	return &testRecord{tag: "Move", id: 1, company: testCompany, name: "M1", fields: map[string]chain.Value{
		"name":  chain.Text("M1"),
		"lines": chain.Rows(lines...),
	}}
}

func TestCanonicalize_FilasOrdenadasPorLlave(t *testing.T) {
	reg := newMoveRegistry(t)

	ordered, err := reg.Canonicalize(newMove(newLine(1, "a"), newLine(2, "b")), 1)
	require.NoError(t, err)
	shuffled, err := reg.Canonicalize(newMove(newLine(2, "b"), newLine(1, "a")), 1)
	require.NoError(t, err)

	assert.Equal(t, "1Move\x1fM1\x1f2\x1e1\x1fa\x1e2\x1fb", string(ordered))
	assert.Equal(t, ordered, shuffled, "el orden de inserción no debe afectar la forma canónica")
}

func TestCanonicalize_FilaDeOtraClase(t *testing.T) {
	reg := newMoveRegistry(t)
	bad := newEntry(9, "E9", "2024-01-01", "1", "x")
	_, err := reg.Canonicalize(newMove(bad), 1)

	var cErr *chain.CanonicalizeError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, chain.UnsupportedType, cErr.Kind)
}

// TestCanonicalize_Inyectividad cubre los pares que un encuadre ingenuo confundiría.
func TestCanonicalize_Inyectividad(t *testing.T) {
	reg := newMoveRegistry(t)

	empty, err := reg.Canonicalize(newMove(), 1)
	require.NoError(t, err)
	oneBlank, err := reg.Canonicalize(newMove(newLine(0, "")), 1)
	require.NoError(t, err)
	assert.NotEqual(t, empty, oneBlank, "sin filas y una fila vacía deben diferir")

	entries := newEntryRegistry(t)
	a := newEntry(1, "E", "2024-01-01", "1", "ab")
	b := newEntry(1, "E", "2024-01-01", "1", "a")
	ca, err := entries.Canonicalize(a, 1)
	require.NoError(t, err)
	cb, err := entries.Canonicalize(b, 1)
	require.NoError(t, err)
	assert.NotEqual(t, ca, cb)

	// Dos montos distintos nunca comparten forma: el exceso de precisión se rechaza.
	for _, amount := range []string{"100.001", "100.004"} {
		_, err := entries.Canonicalize(newEntry(1, "E", "2024-01-01", amount, "x"), 1)
		var cErr *chain.CanonicalizeError
		require.ErrorAs(t, err, &cErr, amount)
		assert.Equal(t, chain.Encoding, cErr.Kind)
		assert.Equal(t, "amount", cErr.Field)
	}
	cd, err := entries.Canonicalize(newEntry(1, "E", "2024-01-01", "1.00", "x"), 1)
	require.NoError(t, err)
	ce, err := entries.Canonicalize(newEntry(1, "E", "2024-01-01", "1.0", "x"), 1)
	require.NoError(t, err)
	assert.Equal(t, cd, ce, "los ceros a la derecha no cambian el valor")
}

func TestCanonicalize_FechaEnSuPropiaZona(t *testing.T) {
	reg := newEntryRegistry(t)
	rec := newEntry(1, "E1", "2024-01-01", "1", "x")
	rec.fields["date"] = chain.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("", 5*3600)))

	got, err := reg.Canonicalize(rec, 1)
	require.NoError(t, err)
	assert.Equal(t, "1Entry\x1f2024-01-01\x1f1.00\x1fx", string(got))
}

// ── Versiones fijadas de la clase hija ────────────────────────────────────────

func newHeadRegistry(t *testing.T, withLineV2 bool) *chain.Registry {
	t.Helper()
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass("Line", []chain.FieldSpec{
		chain.IntField("sequence"),
		chain.TextField("label"),
	}, chain.WithRowKey("sequence")))
	require.NoError(t, reg.RegisterClass("Head", []chain.FieldSpec{
		chain.TextField("name"),
	}))
	require.NoError(t, reg.UpgradeVersion("Head", 2, []chain.FieldSpec{
		chain.TextField("name"),
		chain.RowsField("lines", "Line"),
	}))
	if withLineV2 {
		require.NoError(t, reg.UpgradeVersion("Line", 2, []chain.FieldSpec{
			chain.IntField("sequence"),
			chain.TextField("label"),
			chain.TextField("account"),
		}, chain.WithRowKey("sequence")))
		require.NoError(t, reg.UpgradeVersion("Head", 3, []chain.FieldSpec{
			chain.TextField("name"),
			chain.RowsFieldAt("lines", "Line", 2),
		}))
	}
	require.NoError(t, reg.Seal())
	return reg
}

func newHead(lines ...chain.HashableRecord) *testRecord {
	return &testRecord{tag: "Head", id: 1, company: testCompany, name: "H1", fields: map[string]chain.Value{
		"name":  chain.Text("H1"),
		"lines": chain.Rows(lines...),
	}}
}

func TestCanonicalize_VersionHijaFijada(t *testing.T) {
	before := newHeadRegistry(t, false)
	after := newHeadRegistry(t, true)

	line := newLine(1, "a")
	line.fields["account"] = chain.Text("1105")
	head := newHead(line)

	old, err := before.Canonicalize(head, 2)
	require.NoError(t, err)
	again, err := after.Canonicalize(head, 2)
	require.NoError(t, err)
	assert.Equal(t, "2Head\x1fH1\x1f1\x1e1\x1fa", string(old))
	assert.Equal(t, old, again, "una versión nueva de la hija no cambia la versión publicada del padre")

	v3, err := after.Canonicalize(head, 3)
	require.NoError(t, err)
	assert.Equal(t, "3Head\x1fH1\x1f1\x1e1\x1fa\x1f1105", string(v3))
}

package chain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// testRecord es un registro mínimo del host: campos por nombre y sello opcional.
type testRecord struct {
	tag     string
	id      int64
	company string
	name    string
	fields  map[string]chain.Value
	seal    chain.Seal
}

func (r *testRecord) ClassTag() string { return r.tag }
func (r *testRecord) RecordID() int64 { return r.id }
func (r *testRecord) Company() string { return r.company }
func (r *testRecord) DisplayName() string { return r.name }
func (r *testRecord) Seal() (chain.Seal, bool) {
	return r.seal, !r.seal.IsZero()
}
func (r *testRecord) Field(name string) (chain.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

const (
	testCompany = "00000000-0000-0000-0000-0000000000c1"
	entryTag    = "Entry"
)

func entryFields() []chain.FieldSpec {
	return []chain.FieldSpec{
		chain.DateField("date"),
		chain.DecimalField("amount", 2),
		chain.TextField("memo"),
	}
}

// newEntryRegistry registra la clase Entry del escenario S1 y cierra el registro.
func newEntryRegistry(t *testing.T) *chain.Registry {
	t.Helper()
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass(entryTag, entryFields()))
	require.NoError(t, reg.Seal())
	return reg
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newEntry(id int64, name, date, amount, memo string) *testRecord {
	return &testRecord{
		tag:     entryTag,
		id:      id,
		company: testCompany,
		name:    name,
		fields: map[string]chain.Value{
			"date":   chain.Date(day(date)),
			"amount": chain.Decimal(decimal.RequireFromString(amount)),
			"memo":   chain.Text(memo),
		},
	}
}

// sealChain congela los registros en orden con la versión indicada por registro.
func sealChain(t *testing.T, reg *chain.Registry, recs []*testRecord, versions []int) []chain.SealedRecord {
	t.Helper()
	prev := ""
	out := make([]chain.SealedRecord, 0, len(recs))
	for i, rec := range recs {
		h, err := reg.HashRecord(prev, rec, versions[i])
		require.NoError(t, err)
		rec.seal = chain.Seal{Sequence: int64(i) + 1, Hash: h}
		out = append(out, chain.SealedRecord{Record: rec, Seal: rec.seal})
		prev = h
	}
	return out
}

func ones(n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

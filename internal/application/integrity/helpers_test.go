package integrity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/infrastructure/memory"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
)

const (
	companyC1 = "00000000-0000-0000-0000-0000000000c1"
	companyC2 = "00000000-0000-0000-0000-0000000000c2"
	entryTag  = "Entry"

	// Mismo vector que en domain/chain: la cadena sellada por el binder debe coincidir byte a byte.
	vectorH1 = "186e7a12adc59e0249e768d97c6800cb47db228bf5c7fc2882c7b8ba7df8b3b4"
	vectorH2 = "c27bc692756bc3151dab3c45b239d996c93bd019d14d4751a93b910ac47b6de4"
)

var checkedAt = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func entryFieldsV1() []chain.FieldSpec {
	return []chain.FieldSpec{
		chain.DateField("date"),
		chain.DecimalField("amount", 2),
		chain.TextField("memo"),
	}
}

func entryFieldsV2() []chain.FieldSpec {
	return append(entryFieldsV1(), chain.TextField("reference"))
}

// newRegistry registra Entry hasta la versión maxVersion y cierra el registro.
func newRegistry(t *testing.T, maxVersion int) *chain.Registry {
	t.Helper()
	reg := chain.NewRegistry()
	require.NoError(t, reg.RegisterClass(entryTag, entryFieldsV1()))
	if maxVersion >= 2 {
		require.NoError(t, reg.UpgradeVersion(entryTag, 2, entryFieldsV2()))
	}
	require.NoError(t, reg.Seal())
	return reg
}

func newEntry(company string, id int64, name, date, amount, memo string) *memory.Record {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return memory.NewRecord(entryTag, id, company, name, map[string]chain.Value{
		"date":   chain.Date(d),
		"amount": chain.Decimal(decimal.RequireFromString(amount)),
		"memo":   chain.Text(memo),
	})
}

type fixture struct {
	store    *memory.Store
	registry *chain.Registry
	binder   *integrity.Binder
	verifier *integrity.VerifyUseCase
}

func newFixture(t *testing.T, maxVersion int, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.NewStore(opts...)
	return newFixtureOn(t, store, maxVersion)
}

// newFixtureOn simula un arranque nuevo (otro registro) sobre el mismo almacenamiento.
func newFixtureOn(t *testing.T, store *memory.Store, maxVersion int) *fixture {
	t.Helper()
	reg := newRegistry(t, maxVersion)
	return &fixture{
		store:    store,
		registry: reg,
		binder:   integrity.NewBinder(reg, store, logger.Nop()),
		verifier: integrity.NewVerifyUseCase(reg, store, logger.Nop()).WithClock(func() time.Time { return checkedAt }),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

package postgres

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

// readMigrations devuelve el SQL de subida de cada versión embebida, en orden.
func readMigrations(t *testing.T) map[uint]string {
	t.Helper()
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	out := map[uint]string{}
	version, err := src.First()
	require.NoError(t, err)
	for {
		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "versión %d sin archivo up", version)
		raw, err := io.ReadAll(up)
		require.NoError(t, err)
		up.Close()
		out[version] = string(raw)

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "versión %d sin archivo down", version)
		down.Close()

		version, err = src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return out
		}
		require.NoError(t, err)
	}
}

func TestMigrations_VersionesContiguas(t *testing.T) {
	migrations := readMigrations(t)
	for v := uint(1); v <= uint(len(migrations)); v++ {
		assert.Contains(t, migrations, v)
	}
}

// El trigger de asientos sellados debe cubrir cada campo escalar que entra en el hash;
// las filas hijas quedan cubiertas por el trigger de journal_lines.
func TestMigrations_TriggerCubreCamposDelHash(t *testing.T) {
	migrations := readMigrations(t)
	latest := migrations[uint(len(migrations))]
	var trigger string
	for v := uint(len(migrations)); v >= 1; v-- {
		if strings.Contains(migrations[v], "FUNCTION journal_entries_seal_immutable()") {
			trigger = migrations[v]
			break
		}
	}
	require.NotEmpty(t, trigger)

	reg, err := entity.NewAccountingRegistry()
	require.NoError(t, err)
	current, err := reg.CurrentVersion(entity.ClassJournalEntry)
	require.NoError(t, err)
	def, err := reg.Definition(entity.ClassJournalEntry, current)
	require.NoError(t, err)

	for _, f := range def.Fields {
		if f.Kind == chain.KindRows {
			continue
		}
		assert.Contains(t, trigger, "NEW."+f.Name+" IS DISTINCT FROM OLD."+f.Name, "campo %q sin proteger", f.Name)
	}
	assert.Contains(t, trigger, "NEW.secure_sequence_number IS DISTINCT FROM")
	assert.Contains(t, trigger, "NEW.inalterable_hash IS DISTINCT FROM")
	assert.NotContains(t, trigger, "NEW.state IS DISTINCT FROM", "publicar escribe state después del sello")

	assert.Contains(t, latest, "BEFORE INSERT OR UPDATE OR DELETE ON journal_lines")
	assert.Contains(t, latest, "secure_sequence_number IS NOT NULL")
}

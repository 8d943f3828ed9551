package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
)

var _ repository.JournalEntryRepository = (*JournalEntryRepo)(nil)

const entryColumns = `id, company_id, name, journal, date, ref, partner_id, amount_total, state,
		secure_sequence_number, inalterable_hash, posted_at, created_at, updated_at`

const lineColumns = `id, entry_id, company_id, sequence, account_code, label, debit, credit`

// JournalEntryRepo implementación de JournalEntryRepository sobre PostgreSQL (usable con pool o tx).
type JournalEntryRepo struct {
	q Querier
}

// NewJournalEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJournalEntryRepository(q Querier) *JournalEntryRepo {
	return &JournalEntryRepo{q: q}
}

// Create reserva el ID, asigna el nombre y persiste cabecera y líneas.
// Con pool cada sentencia confirma por separado: usar dentro de una tx si se requiere atomicidad.
func (r *JournalEntryRepo) Create(ctx context.Context, entry *entity.JournalEntry) error {
	if err := r.q.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('journal_entries', 'id'))`).Scan(&entry.ID); err != nil {
		return fmt.Errorf("reservar id de asiento: %w", err)
	}
	entry.AssignName()

	query := `
		INSERT INTO journal_entries (id, company_id, name, journal, date, ref, partner_id, amount_total, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.CompanyID, entry.Name, entry.Journal, entry.Date, entry.Ref,
		entry.PartnerID, entry.AmountTotal, entry.State, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (entry_id, company_id, sequence, account_code, label, debit, credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	for _, l := range entry.Lines {
		l.EntryID = entry.ID
		l.CompanyID = entry.CompanyID
		if err := r.q.QueryRow(ctx, lineQuery,
			l.EntryID, l.CompanyID, l.Sequence, l.AccountCode, l.Label, l.Debit, l.Credit,
		).Scan(&l.ID); err != nil {
			return fmt.Errorf("insert journal line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un asiento con sus líneas. (nil, nil) si no existe.
func (r *JournalEntryRepo) GetByID(ctx context.Context, id int64) (*entity.JournalEntry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del asiento (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *JournalEntryRepo) GetForUpdate(ctx context.Context, id int64) (*entity.JournalEntry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1 FOR UPDATE`, id)
}

// MarkPosted publica un borrador. Si otra transacción ya lo publicó devuelve domain.ErrNotDraft.
func (r *JournalEntryRepo) MarkPosted(ctx context.Context, entry *entity.JournalEntry) error {
	query := `
		UPDATE journal_entries SET state = $2, posted_at = $3, updated_at = $4
		WHERE id = $1 AND state = 'draft'`
	cmd, err := r.q.Exec(ctx, query, entry.ID, entry.State, entry.PostedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("mark journal entry posted: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotDraft
	}
	return nil
}

// ListByCompany lista asientos (más recientes primero) con paginación.
func (r *JournalEntryRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.JournalEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM journal_entries WHERE company_id = $1
		ORDER BY date DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	if err := attachLines(ctx, r.q, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *JournalEntryRepo) getOne(ctx context.Context, query string, args ...any) (*entity.JournalEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	if err := attachLines(ctx, r.q, []*entity.JournalEntry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func scanEntry(row pgx.CollectableRow) (*entity.JournalEntry, error) {
	var e entity.JournalEntry
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.Name, &e.Journal, &e.Date, &e.Ref, &e.PartnerID, &e.AmountTotal, &e.State,
		&e.SecureSequence, &e.InalterableHash, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return &e, err
}

func scanLine(row pgx.CollectableRow) (*entity.JournalLine, error) {
	var l entity.JournalLine
	err := row.Scan(&l.ID, &l.EntryID, &l.CompanyID, &l.Sequence, &l.AccountCode, &l.Label, &l.Debit, &l.Credit)
	return &l, err
}

// attachLines carga las líneas de todos los asientos en una sola consulta.
func attachLines(ctx context.Context, q Querier, entries []*entity.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := lo.Map(entries, func(e *entity.JournalEntry, _ int) int64 { return e.ID })
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE entry_id = ANY($1) ORDER BY entry_id, sequence, id`, ids)
	if err != nil {
		return fmt.Errorf("list journal lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, scanLine)
	if err != nil {
		return fmt.Errorf("scan journal line: %w", err)
	}
	byEntry := lo.GroupBy(lines, func(l *entity.JournalLine) int64 { return l.EntryID })
	for _, e := range entries {
		e.Lines = byEntry[e.ID]
	}
	return nil
}

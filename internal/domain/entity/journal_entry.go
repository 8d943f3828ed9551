package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// Estados de un asiento contable.
const (
	EntryStateDraft  = "draft"
	EntryStatePosted = "posted"
)

// Tags de clase con los que los asientos participan en la cadena inalterable.
const (
	ClassJournalEntry = "account.move"
	ClassJournalLine  = "account.move.line"
)

// JournalEntry representa la cabecera de un asiento contable.
// SecureSequence e InalterableHash son nulos mientras el asiento es borrador y se asignan juntos al publicarlo.
type JournalEntry struct {
	ID              int64
	CompanyID       string
	Name            string // MISC/2024/0001
	Journal         string // código de diario: MISC, SALE, BANK...
	Date            time.Time
	Ref             string
	PartnerID       *int64
	AmountTotal     decimal.Decimal
	State           string // ver EntryState*
	Lines           []*JournalLine
	SecureSequence  *int64
	InalterableHash *string
	PostedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var _ chain.HashableRecord = (*JournalEntry)(nil)

func (e *JournalEntry) ClassTag() string { return ClassJournalEntry }
func (e *JournalEntry) RecordID() int64 { return e.ID }
func (e *JournalEntry) Company() string { return e.CompanyID }

// DisplayName devuelve el nombre del asiento o, si aún no tiene, un identificador legible.
func (e *JournalEntry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("%s#%d", ClassJournalEntry, e.ID)
}

// Field expone los campos que participan en el hash (ver RegisterAccountingClasses).
func (e *JournalEntry) Field(name string) (chain.Value, bool) {
	switch name {
	case "name":
		return chain.Text(e.Name), true
	case "date":
		return chain.Date(e.Date), true
	case "journal":
		return chain.Text(e.Journal), true
	case "ref":
		return chain.Text(e.Ref), true
	case "partner_id":
		return chain.OptionalRef(e.PartnerID), true
	case "amount_total":
		return chain.Decimal(e.AmountTotal), true
	case "line_ids":
		rows := make([]chain.HashableRecord, 0, len(e.Lines))
		for _, l := range e.Lines {
			rows = append(rows, l)
		}
		return chain.Rows(rows...), true
	}
	return chain.Value{}, false
}

// Seal devuelve la secuencia y el hash si el asiento ya fue publicado en la cadena.
func (e *JournalEntry) Seal() (chain.Seal, bool) {
	if e.SecureSequence == nil || e.InalterableHash == nil {
		return chain.Seal{}, false
	}
	return chain.Seal{Sequence: *e.SecureSequence, Hash: *e.InalterableHash}, true
}

// SetSeal asigna ambos campos a la vez; lo usan los repositorios tras persistir el sello.
func (e *JournalEntry) SetSeal(s chain.Seal) {
	seq, hash := s.Sequence, s.Hash
	e.SecureSequence = &seq
	e.InalterableHash = &hash
}

// TotalDebit suma el débito de las líneas.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit suma el crédito de las líneas.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced indica partida doble: débitos = créditos y al menos dos líneas.
func (e *JournalEntry) IsBalanced() bool {
	return len(e.Lines) >= 2 && e.TotalDebit().Equal(e.TotalCredit())
}

// AssignName asigna el nombre "DIARIO/AÑO/ID" si aún no tiene. Requiere el ID generado.
func (e *JournalEntry) AssignName() {
	if e.Name == "" && e.ID > 0 {
		e.Name = fmt.Sprintf("%s/%04d/%06d", e.Journal, e.Date.Year(), e.ID)
	}
}

// Clone copia el asiento y sus líneas (los punteros de sello también se copian).
func (e *JournalEntry) Clone() *JournalEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Lines = make([]*JournalLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	if e.SecureSequence != nil {
		seq := *e.SecureSequence
		c.SecureSequence = &seq
	}
	if e.InalterableHash != nil {
		h := *e.InalterableHash
		c.InalterableHash = &h
	}
	if e.PostedAt != nil {
		at := *e.PostedAt
		c.PostedAt = &at
	}
	return &c
}

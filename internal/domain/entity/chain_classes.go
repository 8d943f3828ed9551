package entity

import "github.com/jhoicas/Inalterable-api/internal/domain/chain"

// Campos de la versión 1. El orden es parte del formato: no reordenar, declarar una versión nueva.
var (
	journalLineFieldsV1 = []chain.FieldSpec{
		chain.IntField("sequence"),
		chain.TextField("account_code"),
		chain.TextField("label"),
		chain.DecimalField("debit", 2),
		chain.DecimalField("credit", 2),
	}
	journalEntryFieldsV1 = []chain.FieldSpec{
		chain.TextField("name"),
		chain.DateField("date"),
		chain.TextField("journal"),
		chain.TextField("ref"),
		chain.RefField("partner_id"),
		chain.DecimalField("amount_total", 2),
		chain.RowsField("line_ids", ClassJournalLine),
	}
)

// RegisterAccountingClasses declara los asientos y sus líneas en el registro de la cadena.
func RegisterAccountingClasses(reg *chain.Registry) error {
	if err := reg.RegisterClass(ClassJournalLine, journalLineFieldsV1, chain.WithRowKey("sequence")); err != nil {
		return err
	}
	return reg.RegisterClass(ClassJournalEntry, journalEntryFieldsV1)
}

// NewAccountingRegistry construye el registro de arranque ya cerrado.
func NewAccountingRegistry() (*chain.Registry, error) {
	reg := chain.NewRegistry()
	if err := RegisterAccountingClasses(reg); err != nil {
		return nil, err
	}
	if err := reg.Seal(); err != nil {
		return nil, err
	}
	return reg, nil
}

package entity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// JournalLine representa una línea (apunte) de un asiento contable.
type JournalLine struct {
	ID          int64
	EntryID     int64
	CompanyID   string
	Sequence    int64 // orden dentro del asiento; es la clave de orden en la forma canónica
	AccountCode string
	Label       string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

var _ chain.HashableRecord = (*JournalLine)(nil)

func (l *JournalLine) ClassTag() string { return ClassJournalLine }
func (l *JournalLine) RecordID() int64 { return l.ID }
func (l *JournalLine) Company() string { return l.CompanyID }
func (l *JournalLine) DisplayName() string {
	return fmt.Sprintf("%s %s", l.AccountCode, l.Label)
}

func (l *JournalLine) Field(name string) (chain.Value, bool) {
	switch name {
	case "sequence":
		return chain.Int(l.Sequence), true
	case "account_code":
		return chain.Text(l.AccountCode), true
	case "label":
		return chain.Text(l.Label), true
	case "debit":
		return chain.Decimal(l.Debit), true
	case "credit":
		return chain.Decimal(l.Credit), true
	}
	return chain.Value{}, false
}

// Seal: las líneas viajan dentro del asiento y no llevan sello propio.
func (l *JournalLine) Seal() (chain.Seal, bool) { return chain.Seal{}, false }

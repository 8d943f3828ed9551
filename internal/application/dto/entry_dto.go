package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEntryLineRequest línea de un asiento. Debit y Credit excluyentes; uno de los dos > 0.
type CreateEntryLineRequest struct {
	AccountCode string          `json:"account_code" validate:"required,max=20"`
	Label       string          `json:"label"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateEntryRequest entrada para crear un asiento en borrador.
type CreateEntryRequest struct {
	Journal   string                   `json:"journal" validate:"required,max=10"`
	Date      string                   `json:"date" validate:"required"` // YYYY-MM-DD
	Ref       string                   `json:"ref"`
	PartnerID *int64                   `json:"partner_id"`
	Lines     []CreateEntryLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// EntryLineResponse salida de una línea.
type EntryLineResponse struct {
	ID          int64           `json:"id"`
	Sequence    int64           `json:"sequence"`
	AccountCode string          `json:"account_code"`
	Label       string          `json:"label"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// EntryResponse salida de un asiento. SecureSequence e InalterableHash solo aparecen una vez publicado.
type EntryResponse struct {
	ID              int64               `json:"id"`
	CompanyID       string              `json:"company_id"`
	Name            string              `json:"name"`
	Journal         string              `json:"journal"`
	Date            string              `json:"date"`
	Ref             string              `json:"ref,omitempty"`
	PartnerID       *int64              `json:"partner_id,omitempty"`
	AmountTotal     decimal.Decimal     `json:"amount_total"`
	State           string              `json:"state"`
	SecureSequence  *int64              `json:"secure_sequence_number,omitempty"`
	InalterableHash *string             `json:"inalterable_hash,omitempty"`
	PostedAt        *time.Time          `json:"posted_at,omitempty"`
	Lines           []EntryLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
}

// EntryListResponse lista paginada de asientos.
type EntryListResponse struct {
	Items []EntryResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

package dto

import "time"

// IntegrityReportResponse es el reporte de integridad en JSON estable.
// Solo se llenan los campos del estado: VERIFIED (primer/último), CORRUPTED (primer registro malo).
type IntegrityReportResponse struct {
	Status      string         `json:"status"`
	CompanyID   string         `json:"company_id"`
	CheckedAt   time.Time      `json:"checked_at"`
	RecordCount int            `json:"record_count"`
	Versions    map[string]int `json:"versions,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	FirstDate string `json:"first_date,omitempty"`
	FirstHash string `json:"first_hash,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	LastDate  string `json:"last_date,omitempty"`
	LastHash  string `json:"last_hash,omitempty"`

	FirstBadName     string `json:"first_bad_name,omitempty"`
	FirstBadID       int64  `json:"first_bad_id,omitempty"`
	FirstBadSequence int64  `json:"first_bad_sequence,omitempty"`
}

// UnblockChainRequest entrada para liberar la cadena de una empresa (solo admin).
type UnblockChainRequest struct {
	CompanyID string `json:"company_id" validate:"omitempty,uuid"`
}

package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	NIT      string `json:"nit" validate:"required,min=1,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// CompanyResponse salida de una empresa, con el estado de su cadena inalterable.
type CompanyResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	NIT       string              `json:"nit"`
	Email     string              `json:"email"`
	Currency  string              `json:"currency"`
	Status    string              `json:"status"`
	Chain     *ChainStateResponse `json:"chain,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ChainStateResponse estado del secuenciador de una empresa.
type ChainStateResponse struct {
	LastSequence  int64      `json:"last_sequence"`
	Blocked       bool       `json:"blocked"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// Package priorauth tracks prior authorization requests sent to payers.
package priorauth

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusDenied    = "denied"
)

// Request maps to the prior_auth_request table.
type Request struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	RequestedBy   uuid.UUID  `db:"requested_by" json:"requested_by"`
	Payer         string     `db:"payer" json:"payer"`
	ServiceCode   string     `db:"service_code" json:"service_code"`
	Status        string     `db:"status" json:"status"`
	AuthNumber    *string    `db:"auth_number" json:"auth_number,omitempty"`
	DenialReason  *string    `db:"denial_reason" json:"denial_reason,omitempty"`
	DecidedBy     *uuid.UUID `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	Justification *string    `db:"justification" json:"justification,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Decided reports whether the payer has ruled on the request.
func (r *Request) Decided() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}

// Package triage records triage assignments for arriving patients. Acuity
// is captured as entered by the triage nurse; no classification logic
// lives here.
package triage

import (
	"time"

	"github.com/google/uuid"
)

// Acuity bounds follow the five-level ESI scale: 1 is most urgent.
const (
	AcuityMin = 1
	AcuityMax = 5
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusClosed     = "closed"
)

// Assignment maps to the triage_assignment table.
type Assignment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	NurseID        uuid.UUID  `db:"nurse_id" json:"nurse_id"`
	ChiefComplaint string     `db:"chief_complaint" json:"chief_complaint"`
	Acuity         int        `db:"acuity" json:"acuity"`
	Status         string     `db:"status" json:"status"`
	Note           *string    `db:"note" json:"note,omitempty"`
	ClosedAt       *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

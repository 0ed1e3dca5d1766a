// Package clinicaldoc manages encounter documentation. Notes start as
// drafts, are finalized by their author, and may afterwards only be
// amended, never edited in place.
package clinicaldoc

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft   = "draft"
	StatusFinal   = "final"
	StatusAmended = "amended"
)

// Note maps to the clinical_note table.
type Note struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	AuthorID    uuid.UUID  `db:"author_id" json:"author_id"`
	EncounterID *uuid.UUID `db:"encounter_id" json:"encounter_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	Status      string     `db:"status" json:"status"`
	FinalizedAt *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Amendment maps to the note_amendment table. Amendments are append-only
// addenda to a finalized note.
type Amendment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	NoteID    uuid.UUID `db:"note_id" json:"note_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Package scheduling covers appointment booking, the visit status
// lifecycle, and the walk-in waitlist queue.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Transitions are enforced by the service; see
// allowedTransitions.
const (
	StatusScheduled = "scheduled"
	StatusCheckedIn = "checked-in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

var allowedTransitions = map[string]map[string]bool{
	StatusScheduled: {StatusCheckedIn: true, StatusCancelled: true, StatusNoShow: true},
	StatusCheckedIn: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// CanTransition reports whether an appointment may move from one status
// to another.
func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	return ok && next[to]
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID   *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	Status       string     `db:"status" json:"status"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      time.Time  `db:"end_time" json:"end_time"`
	Location     *string    `db:"location" json:"location,omitempty"`
	Reason       *string    `db:"reason" json:"reason,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CheckInTime  *time.Time `db:"check_in_time" json:"check_in_time,omitempty"`
	Note         *string    `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two time ranges intersect. Back-to-back
// appointments (end == start) do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}

// Waitlist entry statuses.
const (
	WaitlistWaiting   = "waiting"
	WaitlistCalled    = "called"
	WaitlistCompleted = "completed"
	WaitlistCancelled = "cancelled"
)

// Waitlist maps to the waitlist table. Entries are ordered by priority
// then queue number within a department.
type Waitlist struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID    *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	Department    string     `db:"department" json:"department"`
	Priority      int        `db:"priority" json:"priority"`
	QueueNumber   int        `db:"queue_number" json:"queue_number"`
	Status        string     `db:"status" json:"status"`
	CheckInTime   time.Time  `db:"check_in_time" json:"check_in_time"`
	CalledTime    *time.Time `db:"called_time" json:"called_time,omitempty"`
	CompletedTime *time.Time `db:"completed_time" json:"completed_time,omitempty"`
	Note          *string    `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

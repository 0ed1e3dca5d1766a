package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("scheduling: not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}

type WaitlistRepository interface {
	Create(ctx context.Context, w *Waitlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Waitlist, error)
	Update(ctx context.Context, w *Waitlist) error
	ListByDepartment(ctx context.Context, department string, limit, offset int) ([]*Waitlist, int, error)
	NextQueueNumber(ctx context.Context, department string) (int, error)
}

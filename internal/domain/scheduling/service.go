package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderBusy      = errors.New("provider already booked for that time")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	appointments AppointmentRepository
	waitlist     WaitlistRepository
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, waitlist WaitlistRepository) *Service {
	return &Service{
		appointments: appointments,
		waitlist:     waitlist,
		now:          time.Now,
	}
}

// -- Appointment --

// Book validates the requested window, rejects double-booking for the
// provider, and creates the appointment in scheduled status.
func (s *Service) Book(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return nil, errors.New("start_time and end_time are required")
	}
	if !a.EndTime.After(a.StartTime) {
		return nil, errors.New("end_time must be after start_time")
	}
	if a.ProviderID != nil {
		existing, err := s.appointments.ListByProvider(ctx, *a.ProviderID, a.StartTime, a.EndTime)
		if err != nil {
			return nil, err
		}
		for _, other := range existing {
			if other.Overlaps(a.StartTime, a.EndTime) {
				return nil, ErrProviderBusy
			}
		}
	}
	a.Status = StatusScheduled
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, params, limit, offset)
}

// Reschedule moves a scheduled appointment to a new window, re-running
// the double-booking check.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, a.Status)
	}
	if !end.After(start) {
		return nil, errors.New("end_time must be after start_time")
	}
	if a.ProviderID != nil {
		existing, err := s.appointments.ListByProvider(ctx, *a.ProviderID, start, end)
		if err != nil {
			return nil, err
		}
		for _, other := range existing {
			if other.ID != a.ID && other.Overlaps(start, end) {
				return nil, ErrProviderBusy
			}
		}
	}
	a.StartTime = start
	a.EndTime = end
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCheckedIn, func(a *Appointment) {
		now := s.now()
		a.CheckInTime = &now
	})
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, nil)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, func(a *Appointment) {
		if reason = strings.TrimSpace(reason); reason != "" {
			a.CancelReason = &reason
		}
	})
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow, nil)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string, apply func(*Appointment)) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	if apply != nil {
		apply(a)
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// -- Waitlist --

// JoinWaitlist checks a walk-in patient into a department queue and
// assigns the next queue number for the day.
func (s *Service) JoinWaitlist(ctx context.Context, w *Waitlist) (*Waitlist, error) {
	if w.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	w.Department = strings.TrimSpace(w.Department)
	if w.Department == "" {
		return nil, errors.New("department is required")
	}
	number, err := s.waitlist.NextQueueNumber(ctx, w.Department)
	if err != nil {
		return nil, err
	}
	w.QueueNumber = number
	w.Status = WaitlistWaiting
	w.CheckInTime = s.now()
	if err := s.waitlist.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) CallNext(ctx context.Context, department string) (*Waitlist, error) {
	entries, _, err := s.waitlist.ListByDepartment(ctx, department, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Status != WaitlistWaiting {
		return nil, ErrNotFound
	}
	entry := entries[0]
	now := s.now()
	entry.Status = WaitlistCalled
	entry.CalledTime = &now
	if err := s.waitlist.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) CompleteWaitlistEntry(ctx context.Context, id uuid.UUID) (*Waitlist, error) {
	w, err := s.waitlist.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != WaitlistCalled && w.Status != WaitlistWaiting {
		return nil, fmt.Errorf("%w: entry is %s", ErrInvalidTransition, w.Status)
	}
	now := s.now()
	w.Status = WaitlistCompleted
	w.CompletedTime = &now
	if err := s.waitlist.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) CancelWaitlistEntry(ctx context.Context, id uuid.UUID) (*Waitlist, error) {
	w, err := s.waitlist.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == WaitlistCompleted {
		return nil, fmt.Errorf("%w: entry is completed", ErrInvalidTransition)
	}
	w.Status = WaitlistCancelled
	if err := s.waitlist.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) ListWaitlist(ctx context.Context, department string, limit, offset int) ([]*Waitlist, int, error) {
	return s.waitlist.ListByDepartment(ctx, department, limit, offset)
}

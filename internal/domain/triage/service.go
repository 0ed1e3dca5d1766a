package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusClosed:     true,
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Assign(ctx context.Context, a *Assignment) (*Assignment, error) {
	if a.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	if a.NurseID == uuid.Nil {
		return nil, errors.New("nurse_id is required")
	}
	a.ChiefComplaint = strings.TrimSpace(a.ChiefComplaint)
	if a.ChiefComplaint == "" {
		return nil, errors.New("chief complaint is required")
	}
	if a.Acuity < AcuityMin || a.Acuity > AcuityMax {
		return nil, fmt.Errorf("acuity must be between %d and %d", AcuityMin, AcuityMax)
	}
	a.Status = StatusOpen
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update adjusts the working fields of an open assignment. Closed
// assignments are immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, update *Assignment) (*Assignment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusClosed {
		return nil, errors.New("assignment is closed")
	}
	if update.Acuity != 0 {
		if update.Acuity < AcuityMin || update.Acuity > AcuityMax {
			return nil, fmt.Errorf("acuity must be between %d and %d", AcuityMin, AcuityMax)
		}
		current.Acuity = update.Acuity
	}
	if cc := strings.TrimSpace(update.ChiefComplaint); cc != "" {
		current.ChiefComplaint = cc
	}
	if update.NurseID != uuid.Nil {
		current.NurseID = update.NurseID
	}
	if update.Status != "" {
		if !validStatuses[update.Status] || update.Status == StatusClosed {
			return nil, fmt.Errorf("invalid status: %s", update.Status)
		}
		current.Status = update.Status
	}
	if update.Note != nil {
		current.Note = update.Note
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusClosed {
		return a, nil
	}
	now := s.now()
	a.Status = StatusClosed
	a.ClosedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.ListOpen(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

package priorauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadyDecided = errors.New("request has already been decided")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Submit(ctx context.Context, r *Request) (*Request, error) {
	if r.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	if r.RequestedBy == uuid.Nil {
		return nil, errors.New("requested_by is required")
	}
	r.Payer = strings.TrimSpace(r.Payer)
	if r.Payer == "" {
		return nil, errors.New("payer is required")
	}
	r.ServiceCode = strings.TrimSpace(r.ServiceCode)
	if r.ServiceCode == "" {
		return nil, errors.New("service_code is required")
	}
	r.Status = StatusSubmitted
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

// Approve records the payer's authorization number against a pending
// request. Decisions are final.
func (s *Service) Approve(ctx context.Context, id, decidedBy uuid.UUID, authNumber string) (*Request, error) {
	authNumber = strings.TrimSpace(authNumber)
	if authNumber == "" {
		return nil, errors.New("auth_number is required")
	}
	return s.decide(ctx, id, decidedBy, func(r *Request) {
		r.Status = StatusApproved
		r.AuthNumber = &authNumber
	})
}

func (s *Service) Deny(ctx context.Context, id, decidedBy uuid.UUID, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.New("denial_reason is required")
	}
	return s.decide(ctx, id, decidedBy, func(r *Request) {
		r.Status = StatusDenied
		r.DenialReason = &reason
	})
}

func (s *Service) decide(ctx context.Context, id, decidedBy uuid.UUID, apply func(*Request)) (*Request, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Decided() {
		return nil, ErrAlreadyDecided
	}
	now := s.now()
	apply(r)
	r.DecidedBy = &decidedBy
	r.DecidedAt = &now
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Request, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

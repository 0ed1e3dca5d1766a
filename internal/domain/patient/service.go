package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validSex = map[string]bool{
	"female":  true,
	"male":    true,
	"other":   true,
	"unknown": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, p *Patient) (*Patient, error) {
	p.MRN = strings.TrimSpace(p.MRN)
	p.LastName = strings.TrimSpace(p.LastName)
	p.FirstName = strings.TrimSpace(p.FirstName)
	if p.MRN == "" {
		return nil, errors.New("mrn is required")
	}
	if p.LastName == "" {
		return nil, errors.New("last name is required")
	}
	if p.Sex != nil && !validSex[*p.Sex] {
		return nil, fmt.Errorf("invalid sex: %s", *p.Sex)
	}
	if existing, err := s.repo.GetByMRN(ctx, p.MRN); err == nil && existing != nil {
		return nil, fmt.Errorf("mrn %s already registered", p.MRN)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p.Active = true
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, strings.TrimSpace(mrn))
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, update *Patient) (*Patient, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update.ID = current.ID
	update.MRN = current.MRN // MRN is immutable once assigned
	update.LastName = strings.TrimSpace(update.LastName)
	if update.LastName == "" {
		return nil, errors.New("last name is required")
	}
	if update.Sex != nil && !validSex[*update.Sex] {
		return nil, fmt.Errorf("invalid sex: %s", *update.Sex)
	}
	if err := s.repo.Update(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// Deactivate marks the record inactive rather than deleting it; the chart
// must stay addressable from appointments and audit history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = false
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

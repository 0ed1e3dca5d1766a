package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

const minPasswordLength = 12

var knownRoles = map[string]bool{
	"admin":      true,
	"physician":  true,
	"nurse":      true,
	"registrar":  true,
	"scheduler":  true,
	"billing":    true,
	"compliance": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckCredentials implements auth.CredentialChecker for the login
// endpoint. Unknown email and wrong password produce the same error so
// callers cannot probe for accounts.
func (s *Service) CheckCredentials(ctx context.Context, email, password string) (string, []string, error) {
	m, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, auth.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !m.Active {
		return "", nil, auth.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) != nil {
		return "", nil, auth.ErrInvalidCredentials
	}
	return m.ID.String(), m.Roles, nil
}

func (s *Service) Create(ctx context.Context, m *Member, password string) (*Member, error) {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if m.Email == "" || !strings.Contains(m.Email, "@") {
		return nil, errors.New("valid email is required")
	}
	m.FullName = strings.TrimSpace(m.FullName)
	if m.FullName == "" {
		return nil, errors.New("full name is required")
	}
	if len(m.Roles) == 0 {
		return nil, errors.New("at least one role is required")
	}
	for _, role := range m.Roles {
		if !knownRoles[role] {
			return nil, fmt.Errorf("unknown role: %s", role)
		}
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if existing, err := s.repo.GetByEmail(ctx, m.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %s already registered", m.Email)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = string(hash)
	m.Active = true
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = string(hash)
	return s.repo.Update(ctx, m)
}

func (s *Service) SetRoles(ctx context.Context, id uuid.UUID, roles []string) (*Member, error) {
	if len(roles) == 0 {
		return nil, errors.New("at least one role is required")
	}
	for _, role := range roles {
		if !knownRoles[role] {
			return nil, fmt.Errorf("unknown role: %s", role)
		}
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Roles = roles
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Deactivate disables login without deleting the account; historical
// audit rows keep pointing at a real user.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Active = false
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

package clinicaldoc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotDraft     = errors.New("note is no longer a draft")
	ErrNotFinalized = errors.New("note has not been finalized")
	ErrNotAuthor    = errors.New("only the author may modify a draft")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) CreateDraft(ctx context.Context, n *Note) (*Note, error) {
	if n.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	if n.AuthorID == uuid.Nil {
		return nil, errors.New("author_id is required")
	}
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return nil, errors.New("title is required")
	}
	n.Status = StatusDraft
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateDraft replaces the title and body of a draft. Only the original
// author may edit.
func (s *Service) UpdateDraft(ctx context.Context, id, editorID uuid.UUID, title, body string) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if n.AuthorID != editorID {
		return nil, ErrNotAuthor
	}
	if title = strings.TrimSpace(title); title != "" {
		n.Title = title
	}
	n.Body = body
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Finalize locks a draft. After this the body is immutable and changes
// go through Amend.
func (s *Service) Finalize(ctx context.Context, id, editorID uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if n.AuthorID != editorID {
		return nil, ErrNotAuthor
	}
	now := s.now()
	n.Status = StatusFinal
	n.FinalizedAt = &now
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Amend appends an addendum to a finalized note and marks the note
// amended. Any clinician may amend, not only the original author.
func (s *Service) Amend(ctx context.Context, noteID, authorID uuid.UUID, body string) (*Amendment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("amendment body is required")
	}
	n, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusDraft {
		return nil, ErrNotFinalized
	}
	a := &Amendment{NoteID: noteID, AuthorID: authorID, Body: body}
	if err := s.repo.AddAmendment(ctx, a); err != nil {
		return nil, err
	}
	if n.Status != StatusAmended {
		n.Status = StatusAmended
		if err := s.repo.Update(ctx, n); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// DiscardDraft deletes an unfinalized note. Finalized notes are part of
// the record and cannot be deleted.
func (s *Service) DiscardDraft(ctx context.Context, id, editorID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != StatusDraft {
		return ErrNotDraft
	}
	if n.AuthorID != editorID {
		return ErrNotAuthor
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAmendments(ctx context.Context, noteID uuid.UUID) ([]*Amendment, error) {
	return s.repo.ListAmendments(ctx, noteID)
}

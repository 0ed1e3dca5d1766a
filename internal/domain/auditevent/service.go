package auditevent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/middleware"
)

// Service persists audit events. Write failures are logged and swallowed:
// an audit outage must not take the request path down with it.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// RecordAccess implements middleware.AuditRecorder.
func (s *Service) RecordAccess(entry middleware.AuditEntry) error {
	e := &Event{
		Kind:       KindAccess,
		UserID:     entry.UserID,
		Roles:      entry.UserRoles,
		Action:     entry.Action,
		Resource:   entry.Resource,
		RecordID:   entry.RecordID,
		Path:       entry.Path,
		Method:     entry.Method,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		RequestID:  entry.RequestID,
		Status:     entry.StatusCode,
		Success:    entry.StatusCode < 400,
		OccurredAt: entry.Timestamp,
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.repo.Insert(context.Background(), e); err != nil {
		s.log.Error().Err(err).Str("path", e.Path).Msg("audit access write failed")
		return err
	}
	return nil
}

// RecordAuthEvent implements auth.AuditRecorder.
func (s *Service) RecordAuthEvent(ctx context.Context, ae auth.AuthEvent) {
	e := &Event{
		Kind:       KindAuth,
		UserID:     ae.UserID,
		Action:     ae.Type,
		Path:       ae.Path,
		IPAddress:  ae.IP,
		UserAgent:  ae.UserAgent,
		Success:    ae.Success,
		Detail:     ae.Detail,
		OccurredAt: s.now(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		s.log.Error().Err(err).Str("type", ae.Type).Msg("audit auth write failed")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

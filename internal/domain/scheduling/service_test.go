package scheduling

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockApptRepo struct {
	items map[uuid.UUID]*Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.items[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	m.items[a.ID] = a
	return nil
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockApptRepo) ListByProvider(_ context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.items {
		if a.ProviderID == nil || *a.ProviderID != providerID {
			continue
		}
		if a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		if a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApptRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		if status, ok := params["status"]; ok && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

type mockWaitlistRepo struct {
	items map[uuid.UUID]*Waitlist
}

func newMockWaitlistRepo() *mockWaitlistRepo {
	return &mockWaitlistRepo{items: make(map[uuid.UUID]*Waitlist)}
}

func (m *mockWaitlistRepo) Create(_ context.Context, w *Waitlist) error {
	w.ID = uuid.New()
	m.items[w.ID] = w
	return nil
}

func (m *mockWaitlistRepo) GetByID(_ context.Context, id uuid.UUID) (*Waitlist, error) {
	w, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

func (m *mockWaitlistRepo) Update(_ context.Context, w *Waitlist) error {
	m.items[w.ID] = w
	return nil
}

func (m *mockWaitlistRepo) ListByDepartment(_ context.Context, department string, limit, offset int) ([]*Waitlist, int, error) {
	var out []*Waitlist
	for _, w := range m.items {
		if w.Department == department && (w.Status == WaitlistWaiting || w.Status == WaitlistCalled) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].QueueNumber < out[j].QueueNumber
	})
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *mockWaitlistRepo) NextQueueNumber(_ context.Context, department string) (int, error) {
	max := 0
	for _, w := range m.items {
		if w.Department == department && w.QueueNumber > max {
			max = w.QueueNumber
		}
	}
	return max + 1, nil
}

func newTestService() (*Service, *mockApptRepo, *mockWaitlistRepo) {
	appts := newMockApptRepo()
	wl := newMockWaitlistRepo()
	svc := NewService(appts, wl)
	return svc, appts, wl
}

func mustBook(t *testing.T, svc *Service, provider *uuid.UUID, start, end time.Time) *Appointment {
	t.Helper()
	a, err := svc.Book(context.Background(), &Appointment{
		PatientID:  uuid.New(),
		ProviderID: provider,
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestBook(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(24 * time.Hour)
	a := mustBook(t, svc, nil, start, start.Add(30*time.Minute))
	if a.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", a.Status)
	}
	if a.ID == uuid.Nil {
		t.Error("expected assigned id")
	}
}

func TestBook_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now()

	if _, err := svc.Book(context.Background(), &Appointment{
		StartTime: start, EndTime: start.Add(time.Hour),
	}); err == nil {
		t.Error("expected error for missing patient")
	}
	if _, err := svc.Book(context.Background(), &Appointment{
		PatientID: uuid.New(), StartTime: start, EndTime: start,
	}); err == nil {
		t.Error("expected error for zero-length window")
	}
}

func TestBook_ProviderDoubleBooking(t *testing.T) {
	svc, _, _ := newTestService()
	provider := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	mustBook(t, svc, &provider, start, start.Add(time.Hour))

	_, err := svc.Book(context.Background(), &Appointment{
		PatientID:  uuid.New(),
		ProviderID: &provider,
		StartTime:  start.Add(30 * time.Minute),
		EndTime:    start.Add(90 * time.Minute),
	})
	if !errors.Is(err, ErrProviderBusy) {
		t.Fatalf("expected ErrProviderBusy, got %v", err)
	}

	// back-to-back is allowed
	if _, err := svc.Book(context.Background(), &Appointment{
		PatientID:  uuid.New(),
		ProviderID: &provider,
		StartTime:  start.Add(time.Hour),
		EndTime:    start.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}
}

func TestBook_CancelledSlotReusable(t *testing.T) {
	svc, _, _ := newTestService()
	provider := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	a := mustBook(t, svc, &provider, start, start.Add(time.Hour))

	if _, err := svc.Cancel(context.Background(), a.ID, "patient request"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Book(context.Background(), &Appointment{
		PatientID:  uuid.New(),
		ProviderID: &provider,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("cancelled slot should be bookable again: %v", err)
	}
}

func TestStatusLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(time.Hour)
	a := mustBook(t, svc, nil, start, start.Add(30*time.Minute))

	checked, err := svc.CheckIn(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if checked.Status != StatusCheckedIn || checked.CheckInTime == nil {
		t.Errorf("check-in not recorded: %+v", checked)
	}

	done, err := svc.Complete(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	// terminal states reject further transitions
	if _, err := svc.Cancel(context.Background(), a.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestComplete_RequiresCheckIn(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(time.Hour)
	a := mustBook(t, svc, nil, start, start.Add(30*time.Minute))

	if _, err := svc.Complete(context.Background(), a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_RecordsReason(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(time.Hour)
	a := mustBook(t, svc, nil, start, start.Add(30*time.Minute))

	out, err := svc.Cancel(context.Background(), a.ID, "  provider out sick ")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.CancelReason == nil || *out.CancelReason != "provider out sick" {
		t.Errorf("cancel reason not recorded: %v", out.CancelReason)
	}
}

func TestReschedule(t *testing.T) {
	svc, _, _ := newTestService()
	provider := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	a := mustBook(t, svc, &provider, start, start.Add(time.Hour))
	other := mustBook(t, svc, &provider, start.Add(2*time.Hour), start.Add(3*time.Hour))

	// moving onto another booking conflicts
	if _, err := svc.Reschedule(context.Background(), a.ID, other.StartTime, other.EndTime); !errors.Is(err, ErrProviderBusy) {
		t.Fatalf("expected ErrProviderBusy, got %v", err)
	}

	// moving to a free window works, and the appointment's own slot
	// does not conflict with itself
	moved, err := svc.Reschedule(context.Background(), a.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !moved.StartTime.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("start not moved: %v", moved.StartTime)
	}
}

func TestWaitlist_QueueNumbers(t *testing.T) {
	svc, _, _ := newTestService()
	first, err := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "triage"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	second, err := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "triage"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if first.QueueNumber != 1 || second.QueueNumber != 2 {
		t.Errorf("queue numbers: got %d, %d", first.QueueNumber, second.QueueNumber)
	}

	// a different department has its own sequence
	other, err := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "radiology"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if other.QueueNumber != 1 {
		t.Errorf("expected queue number 1 for new department, got %d", other.QueueNumber)
	}
}

func TestWaitlist_CallNext(t *testing.T) {
	svc, _, _ := newTestService()
	routine, _ := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "triage"})
	urgent, _ := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "triage", Priority: 5})

	called, err := svc.CallNext(context.Background(), "triage")
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called.ID != urgent.ID {
		t.Error("higher priority entry should be called first")
	}
	if called.Status != WaitlistCalled || called.CalledTime == nil {
		t.Errorf("called state not recorded: %+v", called)
	}

	if _, err := svc.CompleteWaitlistEntry(context.Background(), called.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	next, err := svc.CallNext(context.Background(), "triage")
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if next.ID != routine.ID {
		t.Error("remaining entry should be called next")
	}
}

func TestWaitlist_CallNextEmpty(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.CallNext(context.Background(), "triage"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWaitlist_CancelCompletedRejected(t *testing.T) {
	svc, _, _ := newTestService()
	w, _ := svc.JoinWaitlist(context.Background(), &Waitlist{PatientID: uuid.New(), Department: "triage"})
	if _, err := svc.CompleteWaitlistEntry(context.Background(), w.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.CancelWaitlistEntry(context.Background(), w.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

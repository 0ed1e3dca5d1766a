package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// -- Appointment --

type apptRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &apptRepoPG{pool: pool}
}

func (r *apptRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, provider_id, status, start_time, end_time,
	location, reason, cancel_reason, check_in_time, note, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.Status, &a.StartTime, &a.EndTime,
		&a.Location, &a.Reason, &a.CancelReason, &a.CheckInTime, &a.Note, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *apptRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, provider_id, status, start_time, end_time,
			location, reason, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.ProviderID, a.Status, a.StartTime, a.EndTime,
		a.Location, a.Reason, a.Note)
	return err
}

func (r *apptRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *apptRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET provider_id=$2, status=$3, start_time=$4, end_time=$5,
			location=$6, reason=$7, cancel_reason=$8, check_in_time=$9, note=$10,
			updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ProviderID, a.Status, a.StartTime, a.EndTime,
		a.Location, a.Reason, a.CancelReason, a.CheckInTime, a.Note)
	return err
}

func (r *apptRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment WHERE patient_id = $1
		ORDER BY start_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointments(rows)
	return items, total, err
}

func (r *apptRepoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE provider_id = $1 AND start_time < $3 AND end_time > $2
			AND status NOT IN ('cancelled', 'no-show')
		ORDER BY start_time`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *apptRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE 1=1`
	var args []interface{}
	idx := 1

	addClause := func(clause string, value interface{}) {
		query += fmt.Sprintf(clause, idx)
		countQuery += fmt.Sprintf(clause, idx)
		args = append(args, value)
		idx++
	}
	if p, ok := params["status"]; ok {
		addClause(` AND status = $%d`, p)
	}
	if p, ok := params["patient_id"]; ok {
		addClause(` AND patient_id = $%d`, p)
	}
	if p, ok := params["provider_id"]; ok {
		addClause(` AND provider_id = $%d`, p)
	}
	if p, ok := params["date"]; ok {
		addClause(` AND start_time::date = $%d`, p)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointments(rows)
	return items, total, err
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// -- Waitlist --

type waitlistRepoPG struct{ pool *pgxpool.Pool }

func NewWaitlistRepoPG(pool *pgxpool.Pool) WaitlistRepository {
	return &waitlistRepoPG{pool: pool}
}

func (r *waitlistRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const waitlistCols = `id, patient_id, provider_id, department, priority, queue_number,
	status, check_in_time, called_time, completed_time, note, created_at, updated_at`

func scanWaitlist(row pgx.Row) (*Waitlist, error) {
	var w Waitlist
	err := row.Scan(&w.ID, &w.PatientID, &w.ProviderID, &w.Department, &w.Priority,
		&w.QueueNumber, &w.Status, &w.CheckInTime, &w.CalledTime, &w.CompletedTime,
		&w.Note, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &w, err
}

func (r *waitlistRepoPG) Create(ctx context.Context, w *Waitlist) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO waitlist (id, patient_id, provider_id, department, priority,
			queue_number, status, check_in_time, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, w.PatientID, w.ProviderID, w.Department, w.Priority,
		w.QueueNumber, w.Status, w.CheckInTime, w.Note)
	return err
}

func (r *waitlistRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Waitlist, error) {
	return scanWaitlist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+waitlistCols+` FROM waitlist WHERE id = $1`, id))
}

func (r *waitlistRepoPG) Update(ctx context.Context, w *Waitlist) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE waitlist SET provider_id=$2, priority=$3, status=$4, called_time=$5,
			completed_time=$6, note=$7, updated_at=NOW()
		WHERE id = $1`,
		w.ID, w.ProviderID, w.Priority, w.Status, w.CalledTime, w.CompletedTime, w.Note)
	return err
}

func (r *waitlistRepoPG) ListByDepartment(ctx context.Context, department string, limit, offset int) ([]*Waitlist, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM waitlist WHERE department = $1 AND status IN ('waiting', 'called')`,
		department).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+waitlistCols+` FROM waitlist
		WHERE department = $1 AND status IN ('waiting', 'called')
		ORDER BY priority DESC, queue_number
		LIMIT $2 OFFSET $3`, department, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Waitlist
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, w)
	}
	return items, total, rows.Err()
}

func (r *waitlistRepoPG) NextQueueNumber(ctx context.Context, department string) (int, error) {
	var next int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) + 1 FROM waitlist
		WHERE department = $1 AND check_in_time::date = CURRENT_DATE`, department).Scan(&next)
	return next, err
}

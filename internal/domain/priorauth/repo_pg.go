package priorauth

import (
	"context"
	"errors"
	"fmt"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const requestCols = `id, patient_id, requested_by, payer, service_code, status,
	auth_number, denial_reason, decided_by, decided_at, justification,
	created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var pa Request
	err := row.Scan(&pa.ID, &pa.PatientID, &pa.RequestedBy, &pa.Payer, &pa.ServiceCode,
		&pa.Status, &pa.AuthNumber, &pa.DenialReason, &pa.DecidedBy, &pa.DecidedAt,
		&pa.Justification, &pa.CreatedAt, &pa.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &pa, err
}

func (r *repoPG) Create(ctx context.Context, pa *Request) error {
	pa.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prior_auth_request (id, patient_id, requested_by, payer, service_code,
			status, justification)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		pa.ID, pa.PatientID, pa.RequestedBy, pa.Payer, pa.ServiceCode,
		pa.Status, pa.Justification)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM prior_auth_request WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, pa *Request) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prior_auth_request SET status=$2, auth_number=$3, denial_reason=$4,
			decided_by=$5, decided_at=$6, justification=$7, updated_at=NOW()
		WHERE id = $1`,
		pa.ID, pa.Status, pa.AuthNumber, pa.DenialReason,
		pa.DecidedBy, pa.DecidedAt, pa.Justification)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Request, int, error) {
	query := `SELECT ` + requestCols + ` FROM prior_auth_request WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM prior_auth_request WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, key := range []string{"status", "patient_id", "payer"} {
		if v, ok := params[key]; ok {
			clause := fmt.Sprintf(` AND %s = $%d`, key, idx)
			query += clause
			countQuery += clause
			args = append(args, v)
			idx++
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Request
	for rows.Next() {
		pa, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, pa)
	}
	return items, total, rows.Err()
}

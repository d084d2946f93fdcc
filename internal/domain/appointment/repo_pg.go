package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, patient_id, doctor_id, visit_date, to_char(scheduled_time, 'HH24:MI'),
	consultation_type, status, queue_number, called_at, reason_for_visit, fee,
	created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.VisitDate, &a.ScheduledTime,
		&a.ConsultationType, &a.Status, &a.QueueNumber, &a.CalledAt, &a.ReasonForVisit,
		&a.Fee, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

// isUniqueViolation reports a 23505 from the queue-number index, which means
// a concurrent writer claimed the same number first.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, a *Appointment, confirm bool) error {
	a.ID = uuid.New()
	status := StatusPending
	if confirm {
		status = StatusConfirmed
	}

	// The queue number is computed inside the INSERT so assignment and
	// insertion are one atomic statement. A concurrent booking may win the
	// same number; the partial unique index rejects the loser, which retries.
	const insert = `
		INSERT INTO appointments (id, patient_id, doctor_id, visit_date, scheduled_time,
			consultation_type, status, queue_number, reason_for_visit, fee)
		VALUES ($1,$2,$3,$4,$5::time,$6,$7,
			CASE WHEN $7 = 'confirmed' THEN (
				SELECT COALESCE(MAX(queue_number), 0) + 1 FROM appointments
				WHERE doctor_id = $3 AND visit_date = $4
			) END,
			$8,$9)
		RETURNING queue_number, status, created_at, updated_at`

	for attempt := 0; attempt < 3; attempt++ {
		err := r.pool.QueryRow(ctx, insert,
			a.ID, a.PatientID, a.DoctorID, a.VisitDate, a.ScheduledTime,
			a.ConsultationType, status, a.ReasonForVisit, a.Fee).
			Scan(&a.QueueNumber, &a.Status, &a.CreatedAt, &a.UpdatedAt)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("assign queue number: too much contention")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Accept(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	const accept = `
		UPDATE appointments SET status = 'confirmed',
			queue_number = (
				SELECT COALESCE(MAX(queue_number), 0) + 1 FROM appointments a2
				WHERE a2.doctor_id = appointments.doctor_id
				  AND a2.visit_date = appointments.visit_date
			),
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + apptCols

	for attempt := 0; attempt < 3; attempt++ {
		a, err := scanAppt(r.pool.QueryRow(ctx, accept, id))
		if err == nil {
			return a, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, r.transitionFailure(ctx, id)
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("assign queue number: too much contention")
}

func (r *repoPG) Reject(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.pool.QueryRow(ctx, `
		UPDATE appointments SET status = 'rejected', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+apptCols, id))
	if errors.Is(err, ErrNotFound) {
		return nil, r.transitionFailure(ctx, id)
	}
	return a, err
}

func (r *repoPG) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.pool.QueryRow(ctx, `
		UPDATE appointments SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed', 'in_progress')
		RETURNING `+apptCols, id))
	if errors.Is(err, ErrNotFound) {
		return nil, r.transitionFailure(ctx, id)
	}
	return a, err
}

// transitionFailure distinguishes a missing row from a conditional update
// that matched nothing because the status moved on.
func (r *repoPG) transitionFailure(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleTransition
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	where := ` FROM appointments WHERE patient_id = $1`
	args := []interface{}{patientID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + where +
		fmt.Sprintf(` ORDER BY visit_date DESC, scheduled_time DESC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return r.list(ctx, query, args, total)
}

func (r *repoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, status string, limit, offset int) ([]*Appointment, int, error) {
	where := ` FROM appointments a WHERE a.doctor_id = $1 AND a.visit_date = $2`
	args := []interface{}{doctorID, date}
	if status != "" {
		where += ` AND a.status = $3`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT a.id, a.patient_id, a.doctor_id, u.full_name, a.visit_date,
			to_char(a.scheduled_time, 'HH24:MI'), a.consultation_type, a.status,
			a.queue_number, a.called_at, a.reason_for_visit, a.fee, a.created_at, a.updated_at
		FROM appointments a JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.visit_date = $2`
	if status != "" {
		query += ` AND a.status = $3`
	}
	query += fmt.Sprintf(` ORDER BY a.queue_number ASC NULLS LAST, a.scheduled_time ASC, a.id ASC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		var a Appointment
		err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.PatientName, &a.VisitDate,
			&a.ScheduledTime, &a.ConsultationType, &a.Status, &a.QueueNumber, &a.CalledAt,
			&a.ReasonForVisit, &a.Fee, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) list(ctx context.Context, query string, args []interface{}, total int) ([]*Appointment, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

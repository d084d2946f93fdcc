package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const entryCols = `id, patient_id, doctor_id, visit_date,
	to_char(scheduled_time, 'HH24:MI'), status, queue_number, called_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.DoctorID, &e.VisitDate,
		&e.ScheduledTime, &e.Status, &e.QueueNumber, &e.CalledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *repoPG) ListDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, u.full_name, a.doctor_id, a.visit_date,
			to_char(a.scheduled_time, 'HH24:MI'), a.status, a.queue_number, a.called_at
		FROM appointments a JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.visit_date = $2
		  AND a.status IN ('confirmed', 'in_progress', 'completed', 'cancelled')
		ORDER BY a.queue_number ASC NULLS LAST, a.scheduled_time ASC, a.id ASC`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.DoctorID, &e.VisitDate,
			&e.ScheduledTime, &e.Status, &e.QueueNumber, &e.CalledAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *repoPG) DateSummaries(ctx context.Context, doctorID uuid.UUID) ([]*DateSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT visit_date,
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM appointments
		WHERE doctor_id = $1
		GROUP BY visit_date
		HAVING COUNT(*) FILTER (WHERE status IN ('confirmed', 'in_progress', 'completed')) > 0
		ORDER BY visit_date`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*DateSummary
	for rows.Next() {
		var s DateSummary
		if err := rows.Scan(&s.Date, &s.Waiting, &s.InProgress, &s.Completed); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func (r *repoPG) CallNext(ctx context.Context, doctorID uuid.UUID, date time.Time, currentID uuid.UUID) (*CallResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result := &CallResult{}

	if currentID != uuid.Nil {
		// Conditional close-out: zero rows means the caller's view is stale.
		tag, err := tx.Exec(ctx, `
			UPDATE appointments SET status = 'completed', updated_at = NOW()
			WHERE id = $1 AND doctor_id = $2 AND visit_date = $3 AND status = 'in_progress'`,
			currentID, doctorID, date)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrStaleState
		}
		result.CompletedID = currentID
	} else {
		// Without a current id, an existing in-progress consultation means
		// the caller missed it.
		var inProgress uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT id FROM appointments
			WHERE doctor_id = $1 AND visit_date = $2 AND status = 'in_progress'`,
			doctorID, date).Scan(&inProgress)
		if err == nil {
			return nil, ErrStaleState
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	// Promote the first waiting entry. Two racing calls can both pass the
	// in-progress pre-check above; SKIP LOCKED then steers the second one
	// onto the next waiting row, and the partial unique index on
	// (doctor_id, visit_date) WHERE in_progress fails its UPDATE with a
	// 23505 once the first transaction commits. That loser is a stale-state
	// conflict, not a server fault.
	called, err := scanEntry(tx.QueryRow(ctx, `
		UPDATE appointments SET status = 'in_progress', called_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM appointments
			WHERE doctor_id = $1 AND visit_date = $2 AND status = 'confirmed'
			ORDER BY queue_number ASC NULLS LAST, scheduled_time ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+entryCols, doctorID, date))
	switch {
	case err == nil:
		result.Called = called
	case errors.Is(err, ErrNotFound):
		result.QueueCompleted = true
	default:
		return nil, staleOnUniqueViolation(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, staleOnUniqueViolation(err)
	}
	return result, nil
}

// staleOnUniqueViolation maps a unique-index violation to ErrStaleState so
// the loser of a concurrent promotion gets a conflict instead of a 500.
func staleOnUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrStaleState
	}
	return err
}

func (r *repoPG) Reset(ctx context.Context, doctorID uuid.UUID, date time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'confirmed', queue_number = NULL, called_at = NULL, updated_at = NOW()
		WHERE doctor_id = $1 AND visit_date = $2
		  AND status IN ('confirmed', 'in_progress', 'completed')`,
		doctorID, date)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) ActiveForPatient(ctx context.Context, patientID uuid.UUID, date time.Time) (*Entry, error) {
	return scanEntry(r.pool.QueryRow(ctx, `
		SELECT `+entryCols+` FROM appointments
		WHERE patient_id = $1 AND visit_date = $2
		  AND status IN ('confirmed', 'in_progress')
		ORDER BY created_at LIMIT 1`,
		patientID, date))
}

func (r *repoPG) EntryByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryCols+` FROM appointments WHERE id = $1`, id))
}

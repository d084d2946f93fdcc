package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `d.id, d.user_id, d.hospital_id, u.full_name, d.specialty, d.degrees, d.bio,
	d.consultation_fee, d.avg_consult_minutes, d.created_at, d.updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.HospitalID, &d.FullName, &d.Specialty, &d.Degrees,
		&d.Bio, &d.ConsultationFee, &d.AvgConsultMinutes, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, user_id, hospital_id, specialty, degrees, bio,
			consultation_fee, avg_consult_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.UserID, d.HospitalID, d.Specialty, d.Degrees, d.Bio,
		d.ConsultationFee, d.AvgConsultMinutes)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `
		SELECT `+doctorCols+` FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE d.id = $1`, id))
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `
		SELECT `+doctorCols+` FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1`, userID))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctors SET hospital_id=$2, specialty=$3, degrees=$4, bio=$5,
			consultation_fee=$6, avg_consult_minutes=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.HospitalID, d.Specialty, d.Degrees, d.Bio,
		d.ConsultationFee, d.AvgConsultMinutes)
	return err
}

func (r *doctorRepoPG) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error) {
	where := ` FROM doctors d JOIN users u ON u.id = d.user_id WHERE 1=1`
	var args []interface{}
	idx := 1

	if params.Specialty != "" {
		where += fmt.Sprintf(` AND d.specialty ILIKE $%d`, idx)
		args = append(args, "%"+params.Specialty+"%")
		idx++
	}
	if params.Name != "" {
		where += fmt.Sprintf(` AND u.full_name ILIKE $%d`, idx)
		args = append(args, "%"+params.Name+"%")
		idx++
	}
	if params.HospitalID != nil {
		where += fmt.Sprintf(` AND d.hospital_id = $%d`, idx)
		args = append(args, *params.HospitalID)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorCols + where +
		fmt.Sprintf(` ORDER BY u.full_name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// =========== Slot Repository ===========

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

const slotCols = `id, doctor_id, weekday, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	capacity, consultation_type, auto_confirm, created_at, updated_at`

func scanSlot(row pgx.Row) (*AvailabilitySlot, error) {
	var sl AvailabilitySlot
	err := row.Scan(&sl.ID, &sl.DoctorID, &sl.Weekday, &sl.StartTime, &sl.EndTime,
		&sl.Capacity, &sl.ConsultationType, &sl.AutoConfirm, &sl.CreatedAt, &sl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSlot
	}
	return &sl, err
}

func (r *slotRepoPG) Create(ctx context.Context, sl *AvailabilitySlot) error {
	sl.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_slots (id, doctor_id, weekday, start_time, end_time,
			capacity, consultation_type, auto_confirm)
		VALUES ($1,$2,$3,$4::time,$5::time,$6,$7,$8)`,
		sl.ID, sl.DoctorID, sl.Weekday, sl.StartTime, sl.EndTime,
		sl.Capacity, sl.ConsultationType, sl.AutoConfirm)
	return err
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `
		SELECT `+slotCols+` FROM availability_slots WHERE id = $1`, id))
}

func (r *slotRepoPG) Update(ctx context.Context, sl *AvailabilitySlot) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE availability_slots SET weekday=$2, start_time=$3::time, end_time=$4::time,
			capacity=$5, consultation_type=$6, auto_confirm=$7, updated_at=NOW()
		WHERE id = $1`,
		sl.ID, sl.Weekday, sl.StartTime, sl.EndTime, sl.Capacity, sl.ConsultationType, sl.AutoConfirm)
	return err
}

func (r *slotRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	return err
}

func (r *slotRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotCols+` FROM availability_slots
		WHERE doctor_id = $1 ORDER BY weekday, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AvailabilitySlot
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sl)
	}
	return items, rows.Err()
}

func (r *slotRepoPG) FindForBooking(ctx context.Context, doctorID uuid.UUID, weekday int, consultationType string) (*AvailabilitySlot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `
		SELECT `+slotCols+` FROM availability_slots
		WHERE doctor_id = $1 AND weekday = $2 AND consultation_type = $3
		ORDER BY start_time LIMIT 1`,
		doctorID, weekday, consultationType))
}

package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const hospitalCols = `id, name, address, phone, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *repoPG) CreateHospital(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospitals (id, name, address, phone)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.Address, h.Phone).
		Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *repoPG) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) UpdateHospital(ctx context.Context, h *Hospital) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospitals SET name = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Address, h.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+hospitalCols+` FROM hospitals ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Hospital
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &h)
	}
	return items, total, rows.Err()
}

const resourceCols = `id, hospital_id, name, total, available, created_at, updated_at`

func scanResource(row pgx.Row) (*Resource, error) {
	var res Resource
	err := row.Scan(&res.ID, &res.HospitalID, &res.Name, &res.Total,
		&res.Available, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repoPG) CreateResource(ctx context.Context, res *Resource) error {
	res.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospital_resources (id, hospital_id, name, total, available)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		res.ID, res.HospitalID, res.Name, res.Total, res.Available).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *repoPG) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return scanResource(r.pool.QueryRow(ctx,
		`SELECT `+resourceCols+` FROM hospital_resources WHERE id = $1`, id))
}

func (r *repoPG) ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resourceCols+` FROM hospital_resources WHERE hospital_id = $1 ORDER BY name`,
		hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Resource
	for rows.Next() {
		var res Resource
		err := rows.Scan(&res.ID, &res.HospitalID, &res.Name, &res.Total,
			&res.Available, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &res)
	}
	return items, rows.Err()
}

// AdjustAvailability is a single conditional UPDATE. Two admins releasing
// the last ICU bed at once cannot both succeed: the loser's WHERE clause no
// longer matches and it gets ErrUnavailable.
func (r *repoPG) AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (*Resource, error) {
	res, err := scanResource(r.pool.QueryRow(ctx, `
		UPDATE hospital_resources
		SET available = available + $2, updated_at = NOW()
		WHERE id = $1 AND available + $2 BETWEEN 0 AND total
		RETURNING `+resourceCols, id, delta))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.GetResource(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrUnavailable
	}
	return res, err
}

func (r *repoPG) SetResourceTotal(ctx context.Context, id uuid.UUID, total, available int) (*Resource, error) {
	return scanResource(r.pool.QueryRow(ctx, `
		UPDATE hospital_resources
		SET total = $2, available = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+resourceCols, id, total, available))
}

const staffCols = `id, hospital_id, full_name, role, shift, phone, created_at, updated_at`

func (r *repoPG) CreateStaff(ctx context.Context, s *StaffMember) error {
	s.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_members (id, hospital_id, full_name, role, shift, phone)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		s.ID, s.HospitalID, s.FullName, s.Role, s.Shift, s.Phone).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) UpdateStaff(ctx context.Context, s *StaffMember) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_members
		SET full_name = $2, role = $3, shift = $4, phone = $5, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.FullName, s.Role, s.Shift, s.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListStaff(ctx context.Context, hospitalID uuid.UUID) ([]*StaffMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+staffCols+` FROM staff_members WHERE hospital_id = $1 ORDER BY full_name`,
		hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*StaffMember
	for rows.Next() {
		var s StaffMember
		err := rows.Scan(&s.ID, &s.HospitalID, &s.FullName, &s.Role,
			&s.Shift, &s.Phone, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

const ambulanceCols = `id, hospital_id, vehicle_number, type, status,
	driver_name, driver_phone, created_at, updated_at`

func scanAmbulance(row pgx.Row) (*Ambulance, error) {
	var a Ambulance
	err := row.Scan(&a.ID, &a.HospitalID, &a.VehicleNumber, &a.Type, &a.Status,
		&a.DriverName, &a.DriverPhone, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) CreateAmbulance(ctx context.Context, a *Ambulance) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO ambulances (id, hospital_id, vehicle_number, type, status,
			driver_name, driver_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.HospitalID, a.VehicleNumber, a.Type, a.Status,
		a.DriverName, a.DriverPhone).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetAmbulance(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return scanAmbulance(r.pool.QueryRow(ctx,
		`SELECT `+ambulanceCols+` FROM ambulances WHERE id = $1`, id))
}

func (r *repoPG) UpdateAmbulance(ctx context.Context, a *Ambulance) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ambulances
		SET vehicle_number = $2, type = $3, status = $4,
			driver_name = $5, driver_phone = $6, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.VehicleNumber, a.Type, a.Status, a.DriverName, a.DriverPhone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListAmbulances(ctx context.Context, hospitalID uuid.UUID, status string) ([]*Ambulance, error) {
	query := `SELECT ` + ambulanceCols + ` FROM ambulances WHERE hospital_id = $1`
	args := []any{hospitalID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY vehicle_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Ambulance
	for rows.Next() {
		var a Ambulance
		err := rows.Scan(&a.ID, &a.HospitalID, &a.VehicleNumber, &a.Type, &a.Status,
			&a.DriverName, &a.DriverPhone, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

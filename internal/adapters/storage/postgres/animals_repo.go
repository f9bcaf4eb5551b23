package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"paws-and-places/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const reportColumns = `
	id, species, count,
	health_condition, address, map_url,
	photo_url, qr_code_url,
	uploader_name, uploader_email, uploader_contact,
	is_emergency,
	is_adopted, adopter_name, adopter_email, adopter_contact, adopted_at,
	created_at, deleted, deleted_at`

func (r *AnimalsRepo) Create(ctx context.Context, rep animals.Report) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (`+reportColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		rep.ID,
		rep.Species,
		rep.Count,
		rep.HealthCondition,
		rep.Address,
		rep.MapURL,
		rep.PhotoURL,
		rep.QRCodeURL,
		rep.Reporter.Name,
		rep.Reporter.Email,
		rep.Reporter.Phone,
		rep.IsEmergency,
		rep.IsAdopted,
		rep.Adopter.Name,
		rep.Adopter.Email,
		rep.Adopter.Phone,
		toNullTime(rep.AdoptedAt),
		rep.CreatedAt,
		rep.Deleted,
		toNullTime(rep.DeletedAt),
	)
	return err
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Report{}, animals.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM animals
		WHERE id = $1
	`, id)

	return scanReport(row)
}

func (r *AnimalsRepo) ListVisible(ctx context.Context) ([]animals.Report, error) {
	return r.list(ctx, `
		SELECT `+reportColumns+`
		FROM animals
		WHERE NOT deleted
		ORDER BY created_at DESC
	`)
}

func (r *AnimalsRepo) ListArchived(ctx context.Context) ([]animals.Report, error) {
	return r.list(ctx, `
		SELECT `+reportColumns+`
		FROM animals
		WHERE deleted
		ORDER BY deleted_at DESC
	`)
}

// UpdateAdoption escribe solo los campos de adopción (update parcial,
// un único write atómico). Last-write-wins: sin guard sobre el estado
// actual (ver DESIGN.md).
func (r *AnimalsRepo) UpdateAdoption(ctx context.Context, id string, u animals.AdoptionUpdate) (animals.Report, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE animals
		SET
			is_adopted = $2,
			adopter_name = $3,
			adopter_email = $4,
			adopter_contact = $5,
			adopted_at = $6
		WHERE id = $1
		RETURNING `+reportColumns+`
	`,
		id,
		u.IsAdopted,
		u.Adopter.Name,
		u.Adopter.Email,
		u.Adopter.Phone,
		toNullTime(u.AdoptedAt),
	)

	return scanReport(row)
}

func (r *AnimalsRepo) SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET deleted = $2, deleted_at = $3
		WHERE id = $1
	`, id, deleted, toNullTime(deletedAt))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) Purge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) list(ctx context.Context, query string) ([]animals.Report, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (animals.Report, error) {
	var rep animals.Report
	var adoptedAt, deletedAt sql.NullTime

	err := row.Scan(
		&rep.ID,
		&rep.Species,
		&rep.Count,
		&rep.HealthCondition,
		&rep.Address,
		&rep.MapURL,
		&rep.PhotoURL,
		&rep.QRCodeURL,
		&rep.Reporter.Name,
		&rep.Reporter.Email,
		&rep.Reporter.Phone,
		&rep.IsEmergency,
		&rep.IsAdopted,
		&rep.Adopter.Name,
		&rep.Adopter.Email,
		&rep.Adopter.Phone,
		&adoptedAt,
		&rep.CreatedAt,
		&rep.Deleted,
		&deletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return animals.Report{}, animals.ErrNotFound
		}
		return animals.Report{}, err
	}

	rep.AdoptedAt = fromNullTime(adoptedAt)
	rep.DeletedAt = fromNullTime(deletedAt)
	return rep, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

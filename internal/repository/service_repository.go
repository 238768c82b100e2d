package repository

import (
	"context"
	"database/sql"
	"time"

	"vehicle-reserve-backend/internal/model"
)

// ServiceRepo provides CRUD for the maintenance service catalog.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceColumns = "id, name, description, price, duration, is_active, created_at, updated_at"

func scanService(sc interface{ Scan(...any) error }) (model.Service, error) {
	var s model.Service
	err := sc.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Duration, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a catalog entry and reloads the generated fields.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO services (name, description, price, duration, is_active) VALUES (?,?,?,?,?)",
		s.Name, s.Description, s.Price, s.Duration, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = created
	return nil
}

// List returns every catalog entry, newest first.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+serviceColumns+" FROM services ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID fetches one entry. Returns sql.ErrNoRows when absent.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	return scanService(r.DB.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE id=? LIMIT 1", id))
}

// Update persists all mutable fields of s.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE services SET name=?, description=?, price=?, duration=?, is_active=?, updated_at=? WHERE id=?",
		s.Name, s.Description, s.Price, s.Duration, s.IsActive, time.Now().UTC(), s.ID)
	return err
}

// Delete removes an entry. Returns sql.ErrNoRows when no row matched.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ActiveIDs reports which of the given ids belong to an active
// catalog entry. Used to validate reservation service selections;
// disabled services fail the check the same way missing ones do.
func (r *ServiceRepo) ActiveIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	found := make(map[uint64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	query := "SELECT id FROM services WHERE is_active=? AND id IN (?" + repeat(",?", len(ids)-1) + ")"
	args := make([]any, len(ids)+1)
	args[0] = true
	for i, id := range ids {
		args[i+1] = id
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

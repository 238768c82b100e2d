package repository

import (
	"context"
	"database/sql"
	"time"

	"vehicle-reserve-backend/internal/model"
)

// UserRepo provides CRUD operations for the users table. Users are
// keyed both by internal id and by the external LINE subject id.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, line_id, name, picture_url, phone, license, role, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.LineID, &u.Name, &u.PictureURL, &u.Phone, &u.License, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and populates its generated ID and timestamps.
// A line_id collision maps to ErrDuplicate so the login path can
// handle two concurrent first logins by re-reading the winner's row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (line_id, name, picture_url, phone, license, role) VALUES (?,?,?,?,?,?)",
		u.LineID, u.Name, u.PictureURL, u.Phone, u.License, u.Role)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	created, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByLineID fetches a user by the external subject id. Returns
// sql.ErrNoRows when absent.
func (r *UserRepo) GetByLineID(ctx context.Context, lineID string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE line_id=? LIMIT 1", lineID))
}

// GetByID fetches a user by internal id. Returns sql.ErrNoRows when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Update persists the mutable profile fields of u. The caller is
// responsible for validation; a line_id collision with another row
// maps to ErrDuplicate.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET line_id=?, name=?, picture_url=?, phone=?, license=?, role=?, updated_at=? WHERE id=?",
		u.LineID, u.Name, u.PictureURL, u.Phone, u.License, u.Role, time.Now().UTC(), u.ID)
	if err != nil && isDuplicateErr(err) {
		return ErrDuplicate
	}
	return err
}

// Delete removes a user row. Returns sql.ErrNoRows when no row matched.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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

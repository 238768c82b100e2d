package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vehicle-reserve-backend/internal/model"
)

// ReservationRepo provides reservation persistence including the
// capacity-guarded insert and move. All capacity decisions happen
// inside single SQL statements so concurrent writers cannot interleave
// between the count and the write.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = "id, user_id, time_slot_id, date, license, user_memo, admin_memo, is_pickup, status, created_at, updated_at"

// activeCountSQL counts reservations that occupy capacity for one
// (time slot, date) pair. Every status except CANCELLED counts.
const activeCountSQL = "SELECT COUNT(*) FROM reservations r WHERE r.time_slot_id=? AND r.date=? AND r.status != 'CANCELLED'"

func scanReservation(sc interface{ Scan(...any) error }) (model.Reservation, error) {
	var m model.Reservation
	err := sc.Scan(&m.ID, &m.UserID, &m.TimeSlotID, &m.Date, &m.License, &m.UserMemo, &m.AdminMemo, &m.IsPickup, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a reservation only if the slot still has room on the
// requested date, in one conditional INSERT...SELECT. The derived
// (SELECT 1) table lets MySQL evaluate the count subquery against the
// same table being inserted into. Zero rows affected means the slot
// filled up, reported as ErrSlotFull. Service links are written in the
// same transaction.
func (r *ReservationRepo) Create(ctx context.Context, m *model.Reservation, serviceIDs []uint64, capacity int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, time_slot_id, date, license, user_memo, admin_memo, is_pickup, status)
		 SELECT ?,?,?,?,?,?,?,?
		 FROM (SELECT 1) AS t
		 WHERE (`+activeCountSQL+`) < ?`,
		m.UserID, m.TimeSlotID, m.Date, m.License, m.UserMemo, m.AdminMemo, m.IsPickup, m.Status,
		m.TimeSlotID, m.Date, capacity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotFull
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	for _, sid := range serviceIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO reservation_services (reservation_id, service_id) VALUES (?,?)", m.ID, sid); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	created, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = created
	return nil
}

// GetByID fetches one reservation row. Returns sql.ErrNoRows when absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(r.DB.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? LIMIT 1", id))
}

// Update rewrites the mutable fields of m. When the target slot or
// date differs from the stored values, the write is guarded by the
// same capacity condition as Create, counting only rows other than
// this reservation. RowsAffected==0 then means the destination slot
// is full. newCapacity is ignored when guard is false.
func (r *ReservationRepo) Update(ctx context.Context, m *model.Reservation, guard bool, newCapacity int) error {
	if !guard {
		_, err := r.DB.ExecContext(ctx,
			`UPDATE reservations SET time_slot_id=?, date=?, license=?, user_memo=?, admin_memo=?, is_pickup=?, status=?, updated_at=? WHERE id=?`,
			m.TimeSlotID, m.Date, m.License, m.UserMemo, m.AdminMemo, m.IsPickup, m.Status, time.Now().UTC(), m.ID)
		return err
	}

	// MySQL forbids selecting from the table being updated, so the
	// count runs inside a derived table.
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reservations SET time_slot_id=?, date=?, license=?, user_memo=?, admin_memo=?, is_pickup=?, status=?, updated_at=?
		 WHERE id=? AND (
			SELECT cnt FROM (
				SELECT COUNT(*) AS cnt FROM reservations r
				WHERE r.time_slot_id=? AND r.date=? AND r.status != 'CANCELLED' AND r.id != ?
			) AS occupied
		 ) < ?`,
		m.TimeSlotID, m.Date, m.License, m.UserMemo, m.AdminMemo, m.IsPickup, m.Status, time.Now().UTC(),
		m.ID, m.TimeSlotID, m.Date, m.ID, newCapacity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotFull
	}
	return nil
}

// UpdateStatus sets the status of one reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET status=?, updated_at=? WHERE id=?", status, time.Now().UTC(), id)
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

// ReplaceServices swaps the service links of a reservation.
func (r *ReservationRepo) ReplaceServices(ctx context.Context, reservationID uint64, serviceIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM reservation_services WHERE reservation_id=?", reservationID); err != nil {
		return err
	}
	for _, sid := range serviceIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO reservation_services (reservation_id, service_id) VALUES (?,?)", reservationID, sid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Purge permanently removes a reservation and its service links.
// Returns sql.ErrNoRows when the reservation does not exist.
func (r *ReservationRepo) Purge(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM reservation_services WHERE reservation_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
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
	return tx.Commit()
}

// CountActive returns how many non-cancelled reservations occupy one
// (time slot, date) pair. Used by the availability report.
func (r *ReservationRepo) CountActive(ctx context.Context, timeSlotID uint64, date string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, activeCountSQL, timeSlotID, date).Scan(&n)
	return n, err
}

// listServices loads the service rows for a set of reservation ids,
// keyed by reservation.
func (r *ReservationRepo) listServices(ctx context.Context, ids []uint64) (map[uint64][]model.Service, error) {
	out := make(map[uint64][]model.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT rs.reservation_id, ` + prefixed("s", serviceColumns) + `
		 FROM reservation_services rs
		 JOIN services s ON s.id = rs.service_id
		 WHERE rs.reservation_id IN (?` + repeat(",?", len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rid uint64
			s   model.Service
		)
		if err := rows.Scan(&rid, &s.ID, &s.Name, &s.Description, &s.Price, &s.Duration, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out[rid] = append(out[rid], s)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) listDetails(ctx context.Context, withUser bool, where string, args ...any) ([]model.ReservationDetail, error) {
	query := `SELECT ` + prefixed("rv", reservationColumns) + `, ` + prefixed("ts", slotColumns)
	if withUser {
		query += `, ` + prefixed("u", userColumns)
	}
	query += ` FROM reservations rv
		 JOIN time_slots ts ON ts.id = rv.time_slot_id`
	if withUser {
		query += ` JOIN users u ON u.id = rv.user_id`
	}
	query += where + ` ORDER BY ts.day_of_week ASC, ts.start_time ASC, rv.id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		dest := []any{
			&d.ID, &d.UserID, &d.TimeSlotID, &d.Date, &d.License, &d.UserMemo, &d.AdminMemo, &d.IsPickup, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.TimeSlot.ID, &d.TimeSlot.DayOfWeek, &d.TimeSlot.StartTime, &d.TimeSlot.Capacity, &d.TimeSlot.IsActive, &d.TimeSlot.CreatedAt, &d.TimeSlot.UpdatedAt,
		}
		if withUser {
			d.User = &model.User{}
			dest = append(dest,
				&d.User.ID, &d.User.LineID, &d.User.Name, &d.User.PictureURL, &d.User.Phone, &d.User.License, &d.User.Role, &d.User.CreatedAt, &d.User.UpdatedAt)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uint64, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	services, err := r.listServices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Services = services[out[i].ID]
		if out[i].Services == nil {
			out[i].Services = []model.Service{}
		}
	}
	return out, nil
}

// ListDetailsAll returns every reservation with slot, services and
// owning user, for admin listings.
func (r *ReservationRepo) ListDetailsAll(ctx context.Context) ([]model.ReservationDetail, error) {
	return r.listDetails(ctx, true, "")
}

// ListDetailsByUser returns one user's reservations with slot and
// services.
func (r *ReservationRepo) ListDetailsByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	return r.listDetails(ctx, false, " WHERE rv.user_id=?", userID)
}

// GetDetail returns one reservation with slot, services and user.
// Returns sql.ErrNoRows when absent.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	out, err := r.listDetails(ctx, true, " WHERE rv.id=?", id)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if len(out) == 0 {
		return model.ReservationDetail{}, sql.ErrNoRows
	}
	return out[0], nil
}

// SweepRow is the slice of a reservation the auto-complete sweep
// needs: the concrete date plus the slot start time.
type SweepRow struct {
	ID        uint64
	Date      string
	StartTime string
}

// ListSweepable returns PENDING and CONFIRMED reservations joined
// with their slot start time. The sweep decides in Go which of them
// lie in the past.
func (r *ReservationRepo) ListSweepable(ctx context.Context) ([]SweepRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT rv.id, rv.date, ts.start_time
		 FROM reservations rv
		 JOIN time_slots ts ON ts.id = rv.time_slot_id
		 WHERE rv.status IN ('PENDING','CONFIRMED')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SweepRow, 0)
	for rows.Next() {
		var s SweepRow
		if err := rows.Scan(&s.ID, &s.Date, &s.StartTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CompleteByIDs marks the given reservations COMPLETED and returns how
// many rows changed. Already completed or cancelled rows are left
// untouched so the sweep stays idempotent.
func (r *ReservationRepo) CompleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := "UPDATE reservations SET status='COMPLETED', updated_at=? WHERE status IN ('PENDING','CONFIRMED') AND id IN (?" + repeat(",?", len(ids)-1) + ")"
	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// prefixed qualifies each column in a comma-separated list with a
// table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

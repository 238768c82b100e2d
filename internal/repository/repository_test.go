package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/database"
	"vehicle-reserve-backend/internal/model"
)

// openTestDB returns a migrated sqlite database in a temp directory.
// A file-backed database with a busy timeout is used so concurrent
// writers in the capacity tests contend like they would in MySQL.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, "sqlite3"))
	return db
}

func seedUser(t *testing.T, db *sql.DB, lineID string) model.User {
	t.Helper()
	u := model.User{LineID: lineID, Name: "Tester", Phone: "0912345678", Role: model.RoleCustomer}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), &u))
	return u
}

func seedSlot(t *testing.T, db *sql.DB, day int, start string, capacity int) model.TimeSlot {
	t.Helper()
	s := model.TimeSlot{DayOfWeek: day, StartTime: start, Capacity: capacity, IsActive: true}
	require.NoError(t, NewTimeSlotRepo(db).Create(context.Background(), &s))
	return s
}

func seedService(t *testing.T, db *sql.DB, name string) model.Service {
	t.Helper()
	s := model.Service{Name: name, IsActive: true}
	require.NoError(t, NewServiceRepo(db).Create(context.Background(), &s))
	return s
}

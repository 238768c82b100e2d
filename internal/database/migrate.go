package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. The driver name
// selects the DDL dialect: "mysql" in production, "sqlite3" in tests.
// Reservation dates are stored as plain YYYY-MM-DD values so capacity
// queries compare them as exact strings on both engines.
func Migrate(db *sql.DB, driver string) error {
	var queries []string
	switch driver {
	case "mysql":
		queries = mysqlSchema
	case "sqlite3":
		queries = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		line_id VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(191) NOT NULL,
		picture_url VARCHAR(512) NOT NULL DEFAULT '',
		phone VARCHAR(16) NOT NULL,
		license VARCHAR(16) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_tokens_hash (token_hash),
		INDEX idx_refresh_tokens_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		description TEXT NULL,
		price BIGINT NULL,
		duration BIGINT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		day_of_week TINYINT NOT NULL,
		start_time CHAR(5) NOT NULL,
		capacity INT NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_time_slots_day_time (day_of_week, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		time_slot_id BIGINT UNSIGNED NOT NULL,
		date CHAR(10) NOT NULL,
		license VARCHAR(16) NOT NULL,
		user_memo TEXT NULL,
		admin_memo TEXT NULL,
		is_pickup BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_reservations_slot_date (time_slot_id, date),
		INDEX idx_reservations_user (user_id),
		INDEX idx_reservations_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_services (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT UNSIGNED NOT NULL,
		service_id BIGINT UNSIGNED NOT NULL,
		INDEX idx_reservation_services_res (reservation_id),
		INDEX idx_reservation_services_svc (service_id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		picture_url TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL,
		license TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token_hash TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NULL,
		price INTEGER NULL,
		duration INTEGER NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day_of_week INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (day_of_week, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		time_slot_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		license TEXT NOT NULL,
		user_memo TEXT NULL,
		admin_memo TEXT NULL,
		is_pickup BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_slot_date ON reservations(time_slot_id, date)`,
	`CREATE TABLE IF NOT EXISTS reservation_services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reservation_id INTEGER NOT NULL,
		service_id INTEGER NOT NULL
	)`,
}

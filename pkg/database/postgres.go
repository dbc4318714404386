package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/classroll/classroll-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema bootstraps the tables on first run, mirroring the legacy
// system's create-on-first-use behaviour.
func EnsureSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS students (
			roll_number   TEXT PRIMARY KEY,
			full_name     TEXT NOT NULL,
			class_name    TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'STUDENT',
			password_hash TEXT NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id           TEXT PRIMARY KEY,
			roll_number  TEXT NOT NULL REFERENCES students(roll_number),
			student_name TEXT NOT NULL,
			subject      TEXT NOT NULL,
			date         DATE NOT NULL,
			time_of_day  TEXT NOT NULL,
			marked_at    TIMESTAMPTZ NOT NULL,
			UNIQUE (roll_number, subject, date)
		)`,
		`CREATE TABLE IF NOT EXISTS report_jobs (
			id            TEXT PRIMARY KEY,
			format        TEXT NOT NULL,
			date_from     DATE,
			date_to       DATE,
			status        TEXT NOT NULL,
			progress      INT NOT NULL DEFAULT 0,
			result_url    TEXT,
			error_message TEXT,
			created_by    TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			finished_at   TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

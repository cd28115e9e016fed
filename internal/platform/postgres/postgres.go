package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// Open connects to PostgreSQL through the pgx database/sql driver and verifies the
// connection. Returns nil if dsn is empty (database not configured).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Schema creates the applicant and verification result tables.
const Schema = `
CREATE TABLE IF NOT EXISTS applicants (
	auth_id            TEXT PRIMARY KEY,
	first_name         TEXT NOT NULL DEFAULT '',
	middle_name        TEXT NOT NULL DEFAULT '',
	last_name          TEXT NOT NULL DEFAULT '',
	gender             TEXT NOT NULL DEFAULT '',
	date_of_birth      TEXT NOT NULL DEFAULT '',
	aadhar_number      TEXT NOT NULL DEFAULT '',
	aadhaar_doc        TEXT NOT NULL DEFAULT '',
	aadhaar_status     TEXT NOT NULL DEFAULT 'pending',
	aadhaar_ref_number TEXT NOT NULL DEFAULT '',
	verified_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS applicants_aadhar_number_idx ON applicants (aadhar_number);

CREATE TABLE IF NOT EXISTS verification_results (
	id_number        TEXT PRIMARY KEY,
	verification_id  UUID NOT NULL,
	applicant_id     TEXT NOT NULL DEFAULT '',
	extracted_name   TEXT NOT NULL DEFAULT '',
	extracted_gender TEXT NOT NULL DEFAULT '',
	extracted_dob    TEXT NOT NULL DEFAULT '',
	extracted_id     TEXT NOT NULL DEFAULT '',
	name_match       BOOLEAN NOT NULL,
	dob_match        BOOLEAN NOT NULL,
	gender_match     BOOLEAN NOT NULL,
	id_match         BOOLEAN NOT NULL,
	name_score       INTEGER NOT NULL DEFAULT 0,
	decision         TEXT NOT NULL,
	reasons          TEXT[] NOT NULL,
	rotation         INTEGER NOT NULL DEFAULT 0,
	ocr_confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
	ref_number       TEXT NOT NULL DEFAULT '',
	processed_at     TIMESTAMPTZ NOT NULL
);
`

// Migrate applies Schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docverify/internal/reference"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/tx"
)

const applicantColumns = `auth_id, first_name, middle_name, last_name, gender, date_of_birth,
	aadhar_number, aadhaar_doc, aadhaar_status, aadhaar_ref_number, verified_at`

// PostgresStore reads applicants from the applicants table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts an applicant. Verification bookkeeping is left untouched on update.
func (s *PostgresStore) Save(ctx context.Context, rec reference.Record) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applicants (auth_id, first_name, middle_name, last_name, gender,
			date_of_birth, aadhar_number, aadhaar_doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (auth_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			date_of_birth = EXCLUDED.date_of_birth,
			aadhar_number = EXCLUDED.aadhar_number,
			aadhaar_doc = EXCLUDED.aadhaar_doc`,
		rec.ApplicantID, rec.FirstName, rec.MiddleName, rec.LastName, rec.Gender,
		rec.DateOfBirth, rec.IDNumber, rec.DocumentPath,
	)
	if err != nil {
		return fmt.Errorf("save applicant: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]reference.Record, error) {
	return s.query(ctx, `SELECT `+applicantColumns+` FROM applicants ORDER BY auth_id`)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]reference.Record, error) {
	return s.query(ctx, `SELECT `+applicantColumns+` FROM applicants
		WHERE aadhaar_status <> $1 ORDER BY auth_id`, StatusVerified)
}

// FindByIDNumber matches on the encoded form, which is how the column is stored.
func (s *PostgresStore) FindByIDNumber(ctx context.Context, idNumber string) (*reference.Record, error) {
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, sentinel.ErrNotFound
	}
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT `+applicantColumns+` FROM applicants
		WHERE aadhar_number = $1 ORDER BY auth_id LIMIT 1`, reference.EncodeIDNumber(idNumber))
	a, err := scanApplicant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant by id number: %w", err)
	}
	return &a.Record, nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, applicantID, refNumber string, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE applicants
		SET aadhaar_status = $2, aadhaar_ref_number = $3, verified_at = $4
		WHERE auth_id = $1`,
		applicantID, StatusVerified, refNumber, at,
	)
	if err != nil {
		return fmt.Errorf("mark applicant verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark applicant verified: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, applicantID string) (*Applicant, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT `+applicantColumns+` FROM applicants WHERE auth_id = $1`, applicantID)
	a, err := scanApplicant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get applicant: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]reference.Record, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	defer rows.Close()

	var out []reference.Record
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out = append(out, a.Record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplicant(row scanner) (Applicant, error) {
	var (
		a          Applicant
		verifiedAt sql.NullTime
	)
	err := row.Scan(
		&a.ApplicantID, &a.FirstName, &a.MiddleName, &a.LastName, &a.Gender, &a.DateOfBirth,
		&a.IDNumber, &a.DocumentPath, &a.Status, &a.RefNumber, &verifiedAt,
	)
	if err != nil {
		return Applicant{}, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		a.VerifiedAt = &t
	}
	return a, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"docverify/internal/decision"
	"docverify/internal/orientation"
	"docverify/internal/verification/models"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/tx"
)

// PostgresStore persists outcomes in verification_results, upserting on id_number.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, o *models.Outcome) error {
	if o == nil || o.IDNumber == "" {
		return sentinel.ErrInvalidState
	}

	reasons := make([]string, len(o.Match.Reasons))
	for i, r := range o.Match.Reasons {
		reasons[i] = string(r)
	}

	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_results (
			id_number, verification_id, applicant_id,
			extracted_name, extracted_gender, extracted_dob, extracted_id,
			name_match, dob_match, gender_match, id_match, name_score,
			decision, reasons, rotation, ocr_confidence, ref_number, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id_number) DO UPDATE SET
			verification_id = EXCLUDED.verification_id,
			applicant_id = EXCLUDED.applicant_id,
			extracted_name = EXCLUDED.extracted_name,
			extracted_gender = EXCLUDED.extracted_gender,
			extracted_dob = EXCLUDED.extracted_dob,
			extracted_id = EXCLUDED.extracted_id,
			name_match = EXCLUDED.name_match,
			dob_match = EXCLUDED.dob_match,
			gender_match = EXCLUDED.gender_match,
			id_match = EXCLUDED.id_match,
			name_score = EXCLUDED.name_score,
			decision = EXCLUDED.decision,
			reasons = EXCLUDED.reasons,
			rotation = EXCLUDED.rotation,
			ocr_confidence = EXCLUDED.ocr_confidence,
			ref_number = EXCLUDED.ref_number,
			processed_at = EXCLUDED.processed_at`,
		o.IDNumber, o.ID, o.ApplicantID,
		o.Extracted.Name, o.Extracted.Gender, o.Extracted.DOB, o.Extracted.IDNumber,
		o.Match.NameMatch, o.Match.DOBMatch, o.Match.GenderMatch, o.Match.IDMatch, o.Match.NameScore,
		string(o.Match.Decision), pq.Array(reasons), int(o.Rotation), o.MeanConfidence, o.RefNumber, o.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification result: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIDNumber(ctx context.Context, idNumber string) (*models.Outcome, error) {
	var (
		o        models.Outcome
		reasons  []string
		rotation int
		dec      string
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id_number, verification_id, applicant_id,
			extracted_name, extracted_gender, extracted_dob, extracted_id,
			name_match, dob_match, gender_match, id_match, name_score,
			decision, reasons, rotation, ocr_confidence, ref_number, processed_at
		FROM verification_results WHERE id_number = $1`, idNumber,
	).Scan(
		&o.IDNumber, &o.ID, &o.ApplicantID,
		&o.Extracted.Name, &o.Extracted.Gender, &o.Extracted.DOB, &o.Extracted.IDNumber,
		&o.Match.NameMatch, &o.Match.DOBMatch, &o.Match.GenderMatch, &o.Match.IDMatch, &o.Match.NameScore,
		&dec, pq.Array(&reasons), &rotation, &o.MeanConfidence, &o.RefNumber, &o.ProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find verification result: %w", err)
	}

	o.Match.Decision = decision.Decision(dec)
	o.Rotation = orientation.Rotation(rotation)
	for _, r := range reasons {
		o.Match.Reasons = append(o.Match.Reasons, decision.Reason(r))
	}
	return &o, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count verification results: %w", err)
	}
	return n, nil
}

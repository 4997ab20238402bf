// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
)

const remedyVerificationColumns = `v.id, v.remedy_id, v.user_id, v.verification_type, v.evidence_text,
	v.evidence_url, v.confidence_level, v.is_positive, v.expertise_area,
	v.years_of_experience, v.location_context, v.additional_notes, v.is_verified,
	v.created_at, v.updated_at`

// VerificationStore handles community attestations on remedies.
type VerificationStore struct {
	db *sql.DB
}

// NewVerificationStore creates a new VerificationStore.
func NewVerificationStore(db *sql.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

// VerificationFilter narrows a remedy's verifications.
type VerificationFilter struct {
	RemedyID     uuid.UUID
	VerifiedOnly bool
	Type         models.RemedyVerificationType // empty for all kinds
}

func remedyVerificationDest(v *models.RemedyVerification) []any {
	return []any{
		&v.ID, &v.RemedyID, &v.UserID, &v.VerificationType, &v.EvidenceText,
		&v.EvidenceURL, &v.ConfidenceLevel, &v.IsPositive, &v.ExpertiseArea,
		&v.YearsOfExperience, &v.LocationContext, &v.AdditionalNotes, &v.IsVerified,
		&v.CreatedAt, &v.UpdatedAt,
	}
}

func listRemedyVerifications(ctx context.Context, db *sql.DB, f VerificationFilter) ([]models.RemedyVerification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+remedyVerificationColumns+`, `+authorColumns+`
		FROM remedy_verifications v
		LEFT JOIN profiles p ON p.id = v.user_id
		WHERE v.remedy_id = $1
		  AND (v.is_verified OR NOT $2)
		  AND ($3 = '' OR v.verification_type = $3)
		ORDER BY v.created_at DESC, v.id ASC`, f.RemedyID, f.VerifiedOnly, string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list remedy verifications: %w", err)
	}
	defer rows.Close()

	items := []models.RemedyVerification{}
	for rows.Next() {
		var v models.RemedyVerification
		var user nullAuthor
		if err := rows.Scan(append(remedyVerificationDest(&v), user.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan remedy verification: %w", err)
		}
		v.User = user.ref()
		items = append(items, v)
	}
	return items, rows.Err()
}

// List returns a remedy's verifications matching f, newest first.
func (s *VerificationStore) List(ctx context.Context, f VerificationFilter) ([]models.RemedyVerification, error) {
	return listRemedyVerifications(ctx, s.db, f)
}

// FindByID retrieves a verification. Returns nil if not found.
func (s *VerificationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.RemedyVerification, error) {
	var v models.RemedyVerification
	err := s.db.QueryRowContext(ctx,
		`SELECT `+remedyVerificationColumns+` FROM remedy_verifications v WHERE v.id = $1`, id,
	).Scan(remedyVerificationDest(&v)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find remedy verification by id: %w", err)
	}
	return &v, nil
}

// Exists reports whether the user already submitted this kind of
// verification for the remedy.
func (s *VerificationStore) Exists(ctx context.Context, userID, remedyID uuid.UUID, kind models.RemedyVerificationType) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM remedy_verifications
			WHERE user_id = $1 AND remedy_id = $2 AND verification_type = $3
		)`, userID, remedyID, kind,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check remedy verification exists: %w", err)
	}
	return exists, nil
}

// Create inserts an unverified verification and bumps the remedy's
// verification_count in the same transaction. A duplicate (user, remedy,
// kind) fails with ErrConflict.
func (s *VerificationStore) Create(ctx context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error) {
	confidence := v.ConfidenceLevel
	if confidence == 0 {
		confidence = models.DefaultConfidence
	}

	var out models.RemedyVerification
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO remedy_verifications AS v (remedy_id, user_id, verification_type, evidence_text,
			                                       evidence_url, confidence_level, is_positive,
			                                       expertise_area, years_of_experience,
			                                       location_context, additional_notes, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
			RETURNING `+remedyVerificationColumns,
			v.RemedyID, v.UserID, v.VerificationType, v.EvidenceText,
			v.EvidenceURL, confidence, v.IsPositive,
			v.ExpertiseArea, v.YearsOfExperience,
			v.LocationContext, v.AdditionalNotes,
		).Scan(remedyVerificationDest(&out)...)
		if err != nil {
			return wrap("insert remedy verification", err)
		}
		if _, err := tx.ExecContext(ctx, `SELECT increment_remedy_verification_count($1)`, v.RemedyID); err != nil {
			return fmt.Errorf("increment remedy verification count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create remedy verification: %w", err)
	}
	return &out, nil
}

// Update rewrites the editable fields and sends the verification back to
// moderation. The kind is fixed once submitted.
func (s *VerificationStore) Update(ctx context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error) {
	var out models.RemedyVerification
	err := s.db.QueryRowContext(ctx, `
		UPDATE remedy_verifications v SET
			evidence_text = $1, evidence_url = $2, confidence_level = $3, is_positive = $4,
			expertise_area = $5, years_of_experience = $6, location_context = $7,
			additional_notes = $8, is_verified = FALSE, updated_at = NOW()
		WHERE v.id = $9
		RETURNING `+remedyVerificationColumns,
		v.EvidenceText, v.EvidenceURL, v.ConfidenceLevel, v.IsPositive,
		v.ExpertiseArea, v.YearsOfExperience, v.LocationContext,
		v.AdditionalNotes, v.ID,
	).Scan(remedyVerificationDest(&out)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update remedy verification: %w", err)
	}
	return &out, nil
}

// Approve marks a verification verified and recomputes the remedy's trust
// level from its verified positive verifications. Trust never decreases.
// Returns nil if not found.
func (s *VerificationStore) Approve(ctx context.Context, id uuid.UUID) (*models.RemedyVerification, error) {
	var out models.RemedyVerification
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE remedy_verifications v SET is_verified = TRUE, updated_at = NOW()
			WHERE v.id = $1
			RETURNING `+remedyVerificationColumns, id,
		).Scan(remedyVerificationDest(&out)...)
		if err != nil {
			return err
		}

		var positive int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM remedy_verifications
			WHERE remedy_id = $1 AND is_verified AND is_positive`, out.RemedyID,
		).Scan(&positive)
		if err != nil {
			return fmt.Errorf("count verified remedy verifications: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE remedies SET trust_level = GREATEST(trust_level, $1), updated_at = NOW()
			WHERE id = $2`, models.TrustLevelFor(positive), out.RemedyID)
		if err != nil {
			return fmt.Errorf("raise remedy trust level: %w", err)
		}
		return nil
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("approve remedy verification: %w", err)
	}
	return &out, nil
}

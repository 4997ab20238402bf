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

const storyVerificationColumns = `v.id, v.story_id, v.user_id, v.verification_type, v.evidence_text,
	v.evidence_url, v.is_verified, v.created_at, v.updated_at`

// StoryVerificationStore handles informal attestations on stories.
type StoryVerificationStore struct {
	db *sql.DB
}

// NewStoryVerificationStore creates a new StoryVerificationStore.
func NewStoryVerificationStore(db *sql.DB) *StoryVerificationStore {
	return &StoryVerificationStore{db: db}
}

// StoryVerificationFilter narrows a story's verifications.
type StoryVerificationFilter struct {
	StoryID      uuid.UUID
	VerifiedOnly bool
	Type         models.StoryVerificationType
}

func storyVerificationDest(v *models.StoryVerification) []any {
	return []any{
		&v.ID, &v.StoryID, &v.UserID, &v.VerificationType, &v.EvidenceText,
		&v.EvidenceURL, &v.IsVerified, &v.CreatedAt, &v.UpdatedAt,
	}
}

func listStoryVerifications(ctx context.Context, db *sql.DB, f StoryVerificationFilter) ([]models.StoryVerification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+storyVerificationColumns+`, `+authorColumns+`
		FROM verifications v
		LEFT JOIN profiles p ON p.id = v.user_id
		WHERE v.story_id = $1
		  AND (v.is_verified OR NOT $2)
		  AND ($3 = '' OR v.verification_type = $3)
		ORDER BY v.created_at DESC, v.id ASC`, f.StoryID, f.VerifiedOnly, string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list story verifications: %w", err)
	}
	defer rows.Close()

	items := []models.StoryVerification{}
	for rows.Next() {
		var v models.StoryVerification
		var user nullAuthor
		if err := rows.Scan(append(storyVerificationDest(&v), user.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan story verification: %w", err)
		}
		v.User = user.ref()
		items = append(items, v)
	}
	return items, rows.Err()
}

// List returns a story's verifications matching f, newest first.
func (s *StoryVerificationStore) List(ctx context.Context, f StoryVerificationFilter) ([]models.StoryVerification, error) {
	return listStoryVerifications(ctx, s.db, f)
}

// FindByID retrieves a story verification. Returns nil if not found.
func (s *StoryVerificationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.StoryVerification, error) {
	var v models.StoryVerification
	err := s.db.QueryRowContext(ctx,
		`SELECT `+storyVerificationColumns+` FROM verifications v WHERE v.id = $1`, id,
	).Scan(storyVerificationDest(&v)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find story verification by id: %w", err)
	}
	return &v, nil
}

// Exists reports whether the user already submitted this kind of
// verification for the story.
func (s *StoryVerificationStore) Exists(ctx context.Context, userID, storyID uuid.UUID, kind models.StoryVerificationType) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM verifications
			WHERE user_id = $1 AND story_id = $2 AND verification_type = $3
		)`, userID, storyID, kind,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check story verification exists: %w", err)
	}
	return exists, nil
}

// Create inserts an unverified verification and bumps the story's
// verification_count in the same transaction.
func (s *StoryVerificationStore) Create(ctx context.Context, v *models.StoryVerification) (*models.StoryVerification, error) {
	var out models.StoryVerification
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO verifications AS v (story_id, user_id, verification_type, evidence_text,
			                                evidence_url, is_verified)
			VALUES ($1, $2, $3, $4, $5, FALSE)
			RETURNING `+storyVerificationColumns,
			v.StoryID, v.UserID, v.VerificationType, v.EvidenceText, v.EvidenceURL,
		).Scan(storyVerificationDest(&out)...)
		if err != nil {
			return wrap("insert story verification", err)
		}
		if _, err := tx.ExecContext(ctx, `SELECT increment_verification_count($1)`, v.StoryID); err != nil {
			return fmt.Errorf("increment story verification count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create story verification: %w", err)
	}
	return &out, nil
}

// Update rewrites the evidence and sends the verification back to
// moderation.
func (s *StoryVerificationStore) Update(ctx context.Context, v *models.StoryVerification) (*models.StoryVerification, error) {
	var out models.StoryVerification
	err := s.db.QueryRowContext(ctx, `
		UPDATE verifications v SET
			evidence_text = $1, evidence_url = $2, is_verified = FALSE, updated_at = NOW()
		WHERE v.id = $3
		RETURNING `+storyVerificationColumns,
		v.EvidenceText, v.EvidenceURL, v.ID,
	).Scan(storyVerificationDest(&out)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update story verification: %w", err)
	}
	return &out, nil
}

// Approve marks a verification verified and raises the story's trust level
// from its verified supportive verifications. need_more_info never counts.
// Returns nil if not found.
func (s *StoryVerificationStore) Approve(ctx context.Context, id uuid.UUID) (*models.StoryVerification, error) {
	var out models.StoryVerification
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE verifications v SET is_verified = TRUE, updated_at = NOW()
			WHERE v.id = $1
			RETURNING `+storyVerificationColumns, id,
		).Scan(storyVerificationDest(&out)...)
		if err != nil {
			return err
		}

		var supportive int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM verifications
			WHERE story_id = $1 AND is_verified AND verification_type <> $2`,
			out.StoryID, models.StoryNeedMoreInfo,
		).Scan(&supportive)
		if err != nil {
			return fmt.Errorf("count verified story verifications: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE stories SET trust_level = GREATEST(trust_level, $1), updated_at = NOW()
			WHERE id = $2`, models.TrustLevelFor(supportive), out.StoryID)
		if err != nil {
			return fmt.Errorf("raise story trust level: %w", err)
		}
		return nil
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("approve story verification: %w", err)
	}
	return &out, nil
}

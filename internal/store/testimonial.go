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

const testimonialColumns = `t.id, t.remedy_id, t.user_id, t.name, t.location, t.testimonial,
	t.rating, t.usage_duration, t.health_condition, t.results_experienced,
	t.would_recommend, t.is_verified, t.created_at, t.updated_at`

// TestimonialStore handles user testimonials on remedies.
type TestimonialStore struct {
	db *sql.DB
}

// NewTestimonialStore creates a new TestimonialStore.
func NewTestimonialStore(db *sql.DB) *TestimonialStore {
	return &TestimonialStore{db: db}
}

func testimonialDest(t *models.Testimonial) []any {
	return []any{
		&t.ID, &t.RemedyID, &t.UserID, &t.Name, &t.Location, &t.Testimonial,
		&t.Rating, &t.UsageDuration, &t.HealthCondition, &t.ResultsExperienced,
		&t.WouldRecommend, &t.IsVerified, &t.CreatedAt, &t.UpdatedAt,
	}
}

func listTestimonials(ctx context.Context, db *sql.DB, remedyID uuid.UUID, verifiedOnly bool) ([]models.Testimonial, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+testimonialColumns+`, `+authorColumns+`
		FROM remedy_testimonials t
		LEFT JOIN profiles p ON p.id = t.user_id
		WHERE t.remedy_id = $1 AND (t.is_verified OR NOT $2)
		ORDER BY t.created_at DESC, t.id ASC`, remedyID, verifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	items := []models.Testimonial{}
	for rows.Next() {
		var t models.Testimonial
		var user nullAuthor
		if err := rows.Scan(append(testimonialDest(&t), user.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		t.User = user.ref()
		items = append(items, t)
	}
	return items, rows.Err()
}

// List returns the testimonials of a remedy, newest first, with the
// author's public profile.
func (s *TestimonialStore) List(ctx context.Context, remedyID uuid.UUID, verifiedOnly bool) ([]models.Testimonial, error) {
	return listTestimonials(ctx, s.db, remedyID, verifiedOnly)
}

// FindByID retrieves a testimonial. Returns nil if not found.
func (s *TestimonialStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	var t models.Testimonial
	err := s.db.QueryRowContext(ctx,
		`SELECT `+testimonialColumns+` FROM remedy_testimonials t WHERE t.id = $1`, id,
	).Scan(testimonialDest(&t)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find testimonial by id: %w", err)
	}
	return &t, nil
}

// Exists reports whether the user already left a testimonial on the remedy.
func (s *TestimonialStore) Exists(ctx context.Context, userID, remedyID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM remedy_testimonials WHERE user_id = $1 AND remedy_id = $2)`,
		userID, remedyID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check testimonial exists: %w", err)
	}
	return exists, nil
}

// Create inserts an unverified testimonial. A second testimonial by the
// same user on the same remedy fails with ErrConflict.
func (s *TestimonialStore) Create(ctx context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	var out models.Testimonial
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO remedy_testimonials AS t (remedy_id, user_id, name, location, testimonial, rating,
		                                      usage_duration, health_condition, results_experienced,
		                                      would_recommend, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		RETURNING `+testimonialColumns,
		t.RemedyID, t.UserID, t.Name, t.Location, t.Testimonial, t.Rating,
		t.UsageDuration, t.HealthCondition, t.ResultsExperienced, t.WouldRecommend,
	).Scan(testimonialDest(&out)...)
	if err != nil {
		return nil, wrap("create testimonial", err)
	}
	return &out, nil
}

// Update rewrites the editable fields of a testimonial and sends it back
// to moderation.
func (s *TestimonialStore) Update(ctx context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	var out models.Testimonial
	err := s.db.QueryRowContext(ctx, `
		UPDATE remedy_testimonials t SET
			name = $1, location = $2, testimonial = $3, rating = $4,
			usage_duration = $5, health_condition = $6, results_experienced = $7,
			would_recommend = $8, is_verified = FALSE, updated_at = NOW()
		WHERE t.id = $9
		RETURNING `+testimonialColumns,
		t.Name, t.Location, t.Testimonial, t.Rating,
		t.UsageDuration, t.HealthCondition, t.ResultsExperienced,
		t.WouldRecommend, t.ID,
	).Scan(testimonialDest(&out)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update testimonial: %w", err)
	}
	return &out, nil
}

// Approve marks a testimonial verified. Returns nil if not found.
func (s *TestimonialStore) Approve(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	var out models.Testimonial
	err := s.db.QueryRowContext(ctx, `
		UPDATE remedy_testimonials t SET is_verified = TRUE, updated_at = NOW()
		WHERE t.id = $1
		RETURNING `+testimonialColumns, id,
	).Scan(testimonialDest(&out)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("approve testimonial: %w", err)
	}
	return &out, nil
}

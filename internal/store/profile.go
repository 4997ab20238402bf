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

const profileColumns = `id, username, full_name, avatar_url, bio, location,
	contribution_count, verification_count, trust_score, created_at, updated_at`

// ProfileStore handles the public profiles mirrored from the identity
// provider. Profile ids equal the provider's user ids.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func profileDest(p *models.Profile) []any {
	return []any{
		&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio, &p.Location,
		&p.ContributionCount, &p.VerificationCount, &p.TrustScore, &p.CreatedAt, &p.UpdatedAt,
	}
}

// FindByID retrieves a profile by user id. Returns nil if not found.
func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).
		Scan(profileDest(&p)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &p, nil
}

// EnsureExists inserts p unless a profile with the same id already exists
// and reports whether a row was created. Concurrent first sign-ins are
// safe: the loser of the race is a no-op.
func (s *ProfileStore) EnsureExists(ctx context.Context, p *models.Profile) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, full_name, avatar_url, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Username, p.FullName, p.AvatarURL, p.Location,
	)
	if err != nil {
		return false, fmt.Errorf("ensure profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure profile: %w", err)
	}
	return n == 1, nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
)

// LocationStore reads the gazetteer of places stories are tied to.
type LocationStore struct {
	db *sql.DB
}

// NewLocationStore returns a new LocationStore.
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// List returns locations by name, optionally only those of one type.
func (s *LocationStore) List(ctx context.Context, typ models.LocationType) ([]models.Location, error) {
	return s.query(ctx, `WHERE ($1 = '' OR l.type = $1) ORDER BY l.name`, string(typ))
}

// Search returns up to limit locations whose name contains q.
func (s *LocationStore) Search(ctx context.Context, q string, limit int) ([]models.Location, error) {
	return s.query(ctx, `WHERE l.name ILIKE $1 ORDER BY l.name LIMIT $2`, search.Contains(q), limit)
}

func (s *LocationStore) query(ctx context.Context, tail string, args ...any) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+locationColumns+` FROM locations l `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	items := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(locationDest(&l)...); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

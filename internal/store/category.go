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

// CategoryStore manages remedy categories and story categories.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns remedy categories by name. With includeCount each carries
// the number of published remedies in it.
func (s *CategoryStore) List(ctx context.Context, includeCount bool) ([]models.RemedyCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+remedyCategoryColumns+`,
		       COUNT(r.id) FILTER (WHERE r.status = 'published') AS remedy_count
		FROM remedy_categories rc
		LEFT JOIN remedies r ON r.category_id = rc.id
		GROUP BY rc.id
		ORDER BY rc.name`)
	if err != nil {
		return nil, fmt.Errorf("list remedy categories: %w", err)
	}
	defer rows.Close()

	items := []models.RemedyCategory{}
	for rows.Next() {
		var c models.RemedyCategory
		var count int
		if err := rows.Scan(append(remedyCategoryDest(&c), &count)...); err != nil {
			return nil, fmt.Errorf("scan remedy category: %w", err)
		}
		if includeCount {
			c.RemedyCount = &count
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Create inserts a remedy category. A duplicate name fails with
// ErrConflict.
func (s *CategoryStore) Create(ctx context.Context, c *models.RemedyCategory) (*models.RemedyCategory, error) {
	color := c.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}
	var out models.RemedyCategory
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO remedy_categories AS rc (name, icon, color, description)
		VALUES ($1, $2, $3, $4)
		RETURNING `+remedyCategoryColumns,
		c.Name, c.Icon, color, c.Description,
	).Scan(remedyCategoryDest(&out)...)
	if err != nil {
		return nil, wrap("create remedy category", err)
	}
	return &out, nil
}

// ListStoryCategories returns story categories by name.
func (s *CategoryStore) ListStoryCategories(ctx context.Context) ([]models.Category, error) {
	return s.storyCategories(ctx, `ORDER BY c.name`)
}

// SearchStoryCategories returns up to limit story categories whose name
// contains q.
func (s *CategoryStore) SearchStoryCategories(ctx context.Context, q string, limit int) ([]models.Category, error) {
	return s.storyCategories(ctx, `WHERE c.name ILIKE $1 ORDER BY c.name LIMIT $2`, search.Contains(q), limit)
}

func (s *CategoryStore) storyCategories(ctx context.Context, tail string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories c `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list story categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(categoryDest(&c)...); err != nil {
			return nil, fmt.Errorf("scan story category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

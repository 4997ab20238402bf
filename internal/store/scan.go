// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
)

// Column lists are qualified by the aliases used throughout the package:
// r remedies, rc remedy_categories, s stories, c categories, l locations,
// p profiles.
const (
	remedyColumns = `r.id, r.title, r.subtitle, r.description, r.summary, r.author_id,
		r.category_id, r.location_id, r.region, r.origin_story, r.preparation_time,
		r.cooking_time, r.servings, r.difficulty, r.safety_warnings, r.contraindications,
		r.trust_level, r.verification_count, r.view_count, r.is_featured, r.status,
		r.created_at, r.updated_at`

	remedyCategoryColumns = `rc.id, rc.name, rc.icon, rc.color, rc.description, rc.created_at`

	storyColumns = `s.id, s.title, s.content, s.summary, s.author_id, s.location_id,
		s.category_id, s.time_period, s.historical_figures, s.trust_level,
		s.verification_count, s.view_count, s.latitude, s.longitude, s.status,
		s.metadata, s.created_at, s.updated_at`

	categoryColumns = `c.id, c.name, c.icon, c.color, c.description, c.created_at`

	locationColumns = `l.id, l.name, l.type, l.latitude, l.longitude, l.parent_id, l.created_at`

	authorColumns = `p.id, p.username, p.full_name, p.avatar_url`
)

func remedyDest(r *models.Remedy) []any {
	return []any{
		&r.ID, &r.Title, &r.Subtitle, &r.Description, &r.Summary, &r.AuthorID,
		&r.CategoryID, &r.LocationID, &r.Region, &r.OriginStory, &r.PreparationTime,
		&r.CookingTime, &r.Servings, &r.Difficulty,
		textArray{&r.SafetyWarnings}, textArray{&r.Contraindications},
		&r.TrustLevel, &r.VerificationCount, &r.ViewCount, &r.IsFeatured, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	}
}

func remedyCategoryDest(c *models.RemedyCategory) []any {
	return []any{&c.ID, &c.Name, &c.Icon, &c.Color, &c.Description, &c.CreatedAt}
}

// storyRow carries the jsonb column through a byte slice.
type storyRow struct {
	models.Story
	metadata []byte
}

func (s *storyRow) dest() []any {
	return []any{
		&s.ID, &s.Title, &s.Content, &s.Summary, &s.AuthorID, &s.LocationID,
		&s.CategoryID, &s.TimePeriod, textArray{&s.HistoricalFigures}, &s.TrustLevel,
		&s.VerificationCount, &s.ViewCount, &s.Latitude, &s.Longitude, &s.Status,
		&s.metadata, &s.CreatedAt, &s.UpdatedAt,
	}
}

func (s *storyRow) story() models.Story {
	st := s.Story
	if len(s.metadata) > 0 {
		st.Metadata = append([]byte(nil), s.metadata...)
	}
	return st
}

func categoryDest(c *models.Category) []any {
	return []any{&c.ID, &c.Name, &c.Icon, &c.Color, &c.Description, &c.CreatedAt}
}

func locationDest(l *models.Location) []any {
	return []any{&l.ID, &l.Name, &l.Type, &l.Latitude, &l.Longitude, &l.ParentID, &l.CreatedAt}
}

// nullAuthor scans the columns of a LEFT JOINed profile.
type nullAuthor struct {
	id                            *uuid.UUID
	username, fullName, avatarURL *string
}

func (a *nullAuthor) dest() []any {
	return []any{&a.id, &a.username, &a.fullName, &a.avatarURL}
}

func (a *nullAuthor) ref() *models.AuthorRef {
	if a.id == nil {
		return nil
	}
	return &models.AuthorRef{ID: *a.id, Username: a.username, FullName: a.fullName, AvatarURL: a.avatarURL}
}

// nullLocation scans the columns of a LEFT JOINed location.
type nullLocation struct {
	id        *uuid.UUID
	name      *string
	typ       *string
	lat, lng  *float64
	parentID  *uuid.UUID
	createdAt *time.Time
}

func (l *nullLocation) dest() []any {
	return []any{&l.id, &l.name, &l.typ, &l.lat, &l.lng, &l.parentID, &l.createdAt}
}

func (l *nullLocation) location() *models.Location {
	if l.id == nil {
		return nil
	}
	loc := &models.Location{ID: *l.id, Latitude: l.lat, Longitude: l.lng, ParentID: l.parentID}
	if l.name != nil {
		loc.Name = *l.name
	}
	if l.typ != nil {
		loc.Type = models.LocationType(*l.typ)
	}
	if l.createdAt != nil {
		loc.CreatedAt = *l.createdAt
	}
	return loc
}

// assignments accumulates the SET list of a partial update.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) set(col string, v any) {
	a.args = append(a.args, v)
	a.cols = append(a.cols, fmt.Sprintf("%s = $%d", col, len(a.args)))
}

func (a *assignments) empty() bool { return len(a.cols) == 0 }

// clause renders the SET list followed by updated_at and returns the
// placeholder for the row id, which the caller appends last.
func (a *assignments) clause(id uuid.UUID) (string, string, []any) {
	args := append(a.args, id)
	cols := append(a.cols, "updated_at = NOW()")
	return strings.Join(cols, ", "), fmt.Sprintf("$%d", len(args)), args
}

// primaryImages returns the primary image URL, falling back to the lowest
// order_index, for each parent id. table and fk are package constants.
func primaryImages(ctx context.Context, db *sql.DB, table, fk string, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT ON (`+fk+`) `+fk+`, image_url
		FROM `+table+`
		WHERE `+fk+` = ANY($1::uuid[])
		ORDER BY `+fk+`, is_primary DESC, order_index ASC`, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("list primary images: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("scan primary image: %w", err)
		}
		out[id] = url
	}
	return out, rows.Err()
}

// listImages returns every image of one parent in display order.
func listImages(ctx context.Context, db *sql.DB, table, fk string, parentID uuid.UUID) ([]models.Image, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, `+fk+`, image_url, caption, is_primary, order_index
		FROM `+table+`
		WHERE `+fk+` = $1
		ORDER BY order_index ASC, id ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.ParentID, &img.ImageURL, &img.Caption, &img.IsPrimary, &img.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// insertImages writes images with order_index starting at 1.
func insertImages(ctx context.Context, tx *sql.Tx, table, fk string, parentID uuid.UUID, images []models.Image) error {
	for i, img := range images {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+table+` (`+fk+`, image_url, caption, is_primary, order_index)
			VALUES ($1, $2, $3, $4, $5)`,
			parentID, img.ImageURL, img.Caption, img.IsPrimary, i+1,
		)
		if err != nil {
			return fmt.Errorf("insert image %d: %w", i+1, err)
		}
	}
	return nil
}

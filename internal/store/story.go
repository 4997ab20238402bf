// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
)

const storyFrom = `
		FROM stories s
		JOIN categories c ON c.id = s.category_id
		LEFT JOIN locations l ON l.id = s.location_id`

// StoryStore handles historical stories, their images and sources.
type StoryStore struct {
	db *sql.DB
}

// NewStoryStore creates a new StoryStore with the given database connection.
func NewStoryStore(db *sql.DB) *StoryStore {
	return &StoryStore{db: db}
}

// NewStory is a story together with the children written alongside it.
type NewStory struct {
	Story   models.Story
	Images  []models.Image
	Sources []models.StorySource
}

// StoryPatch lists the columns an author may change.
type StoryPatch struct {
	Title             *string
	Content           *string
	Summary           *string
	CategoryID        *uuid.UUID
	LocationID        *uuid.UUID
	TimePeriod        *string
	HistoricalFigures *[]string
	Latitude          *float64
	Longitude         *float64
	Status            *models.Status
}

// List returns one page of published stories matching c and the total
// number of matches.
func (s *StoryStore) List(ctx context.Context, c search.Criteria) ([]models.StorySummary, int, error) {
	st, err := search.Stories.Build(c)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+storyFrom+` WHERE `+st.Where, st.Args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count stories: %w", err)
	}

	window, args := st.Window(c)
	items, err := s.summaries(ctx, `
		WHERE `+st.Where+`
		ORDER BY `+st.OrderBy+`
		`+window, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stories: %w", err)
	}
	return items, total, nil
}

// Search returns up to limit published stories whose title, content or
// summary contains q, best matches first.
func (s *StoryStore) Search(ctx context.Context, q string, limit int) ([]models.StorySummary, error) {
	st, err := search.Stories.Build(search.Criteria{Query: q, Sort: search.SortRelevance, Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	window, args := st.Window(search.Criteria{Page: 1, Limit: limit})
	items, err := s.summaries(ctx, `
		WHERE `+st.Where+`
		ORDER BY `+st.OrderBy+`
		`+window, args...)
	if err != nil {
		return nil, fmt.Errorf("search stories: %w", err)
	}
	return items, nil
}

// summaries runs the shared summary SELECT with the given tail and attaches
// primary images.
func (s *StoryStore) summaries(ctx context.Context, tail string, args ...any) ([]models.StorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+storyColumns+`, `+categoryColumns+`, `+locationColumns+`, `+authorColumns+
		storyFrom+`
		LEFT JOIN profiles p ON p.id = s.author_id`+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.StorySummary{}
	for rows.Next() {
		var row storyRow
		var cat models.Category
		var loc nullLocation
		var author nullAuthor
		dest := append(row.dest(), categoryDest(&cat)...)
		dest = append(dest, loc.dest()...)
		if err := rows.Scan(append(dest, author.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		items = append(items, models.StorySummary{
			Story:    row.story(),
			Category: &cat,
			Location: loc.location(),
			Author:   author.ref(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	images, err := primaryImages(ctx, s.db, "story_images", "story_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if url, ok := images[items[i].ID]; ok {
			items[i].PrimaryImage = &url
		}
	}
	return items, nil
}

// FindByID retrieves a story of any status. Returns nil if not found.
func (s *StoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var row storyRow
	err := s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories s WHERE s.id = $1`, id).
		Scan(row.dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find story by id: %w", err)
	}
	st := row.story()
	return &st, nil
}

// Detail retrieves a story of any status with images, sources and verified
// verifications. Returns nil if not found.
func (s *StoryStore) Detail(ctx context.Context, id uuid.UUID) (*models.StoryDetail, error) {
	var row storyRow
	var cat models.Category
	var loc nullLocation
	var author nullAuthor

	dest := append(row.dest(), categoryDest(&cat)...)
	dest = append(dest, loc.dest()...)
	dest = append(dest, author.dest()...)
	err := s.db.QueryRowContext(ctx, `
		SELECT `+storyColumns+`, `+categoryColumns+`, `+locationColumns+`, `+authorColumns+
		storyFrom+`
		LEFT JOIN profiles p ON p.id = s.author_id
		WHERE s.id = $1`, id).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find story detail: %w", err)
	}

	d := &models.StoryDetail{
		Story:    row.story(),
		Category: &cat,
		Location: loc.location(),
		Author:   author.ref(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Images, err = listImages(gctx, s.db, "story_images", "story_id", id)
		return err
	})
	g.Go(func() (err error) {
		d.Sources, err = s.sources(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Verifications, err = listStoryVerifications(gctx, s.db, StoryVerificationFilter{StoryID: id, VerifiedOnly: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Finalize()
	return d, nil
}

func (s *StoryStore) sources(ctx context.Context, id uuid.UUID) ([]models.StorySource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, story_id, source_type, source_title, source_author, source_url,
		       source_description, created_at
		FROM story_sources WHERE story_id = $1
		ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list story sources: %w", err)
	}
	defer rows.Close()

	items := []models.StorySource{}
	for rows.Next() {
		var src models.StorySource
		if err := rows.Scan(
			&src.ID, &src.StoryID, &src.SourceType, &src.SourceTitle, &src.SourceAuthor,
			&src.SourceURL, &src.SourceDescription, &src.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan story source: %w", err)
		}
		items = append(items, src)
	}
	return items, rows.Err()
}

// Create inserts a story with its images and sources in one transaction.
func (s *StoryStore) Create(ctx context.Context, in *NewStory) (*models.Story, error) {
	st := in.Story
	if st.Status == "" {
		st.Status = models.StatusPublished
	}
	metadata := st.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}

	var row storyRow
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO stories AS s (title, content, summary, author_id, location_id, category_id,
			                          time_period, historical_figures, latitude, longitude,
			                          status, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)
			RETURNING `+storyColumns,
			st.Title, st.Content, st.Summary, st.AuthorID, st.LocationID, st.CategoryID,
			st.TimePeriod, nonNil(st.HistoricalFigures), st.Latitude, st.Longitude,
			st.Status, string(metadata),
		).Scan(row.dest()...)
		if err != nil {
			return wrap("insert story", err)
		}

		if err := insertImages(ctx, tx, "story_images", "story_id", row.ID, in.Images); err != nil {
			return err
		}
		for i, src := range in.Sources {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO story_sources (story_id, source_type, source_title, source_author,
				                           source_url, source_description)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				row.ID, src.SourceType, src.SourceTitle, src.SourceAuthor,
				src.SourceURL, src.SourceDescription,
			)
			if err != nil {
				return fmt.Errorf("insert story source %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	created := row.story()
	return &created, nil
}

// Update applies p to a story and returns the updated row, or nil if the
// story does not exist.
func (s *StoryStore) Update(ctx context.Context, id uuid.UUID, p StoryPatch) (*models.Story, error) {
	var a assignments
	if p.Title != nil {
		a.set("title", *p.Title)
	}
	if p.Content != nil {
		a.set("content", *p.Content)
	}
	if p.Summary != nil {
		a.set("summary", *p.Summary)
	}
	if p.CategoryID != nil {
		a.set("category_id", *p.CategoryID)
	}
	if p.LocationID != nil {
		a.set("location_id", *p.LocationID)
	}
	if p.TimePeriod != nil {
		a.set("time_period", *p.TimePeriod)
	}
	if p.HistoricalFigures != nil {
		a.set("historical_figures", nonNil(*p.HistoricalFigures))
	}
	if p.Latitude != nil {
		a.set("latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		a.set("longitude", *p.Longitude)
	}
	if p.Status != nil {
		a.set("status", *p.Status)
	}

	set, idArg, args := a.clause(id)
	var row storyRow
	err := s.db.QueryRowContext(ctx, `
		UPDATE stories s SET `+set+`
		WHERE s.id = `+idArg+`
		RETURNING `+storyColumns, args...).Scan(row.dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("update story", err)
	}
	st := row.story()
	return &st, nil
}

// Archive hides a story from public reads.
func (s *StoryStore) Archive(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stories SET status = 'archived', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive story: %w", err)
	}
	return nil
}

// IncrementViewCount adds one view atomically.
func (s *StoryStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `SELECT increment_view_count($1)`, id); err != nil {
		return fmt.Errorf("increment story view count: %w", err)
	}
	return nil
}

// MapMarkers returns every published story with coordinates, optionally
// restricted to one category.
func (s *StoryStore) MapMarkers(ctx context.Context, categoryID *uuid.UUID) ([]models.MapMarker, error) {
	var filter any
	if categoryID != nil {
		filter = categoryID.String()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, summary, category_id, category_name, trust_level,
		       verification_count, view_count, latitude, longitude, location_name, created_at
		FROM get_stories_with_coordinates_simple()
		WHERE $1::uuid IS NULL OR category_id = $1::uuid`, filter)
	if err != nil {
		return nil, fmt.Errorf("list map markers: %w", err)
	}
	defer rows.Close()

	markers := []models.MapMarker{}
	for rows.Next() {
		var m models.MapMarker
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Summary, &m.CategoryID, &m.CategoryName, &m.TrustLevel,
			&m.VerificationCount, &m.ViewCount, &m.Latitude, &m.Longitude, &m.LocationName, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan map marker: %w", err)
		}
		m.TrustLabel = m.TrustLevel.Label()
		m.TrustColor = m.TrustLevel.Color()
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

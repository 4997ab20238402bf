// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
)

const remedyFrom = `
		FROM remedies r
		JOIN remedy_categories rc ON rc.id = r.category_id`

// listPreview is how many main ingredients and benefits a list item carries.
const listPreview = 3

// RemedyStore handles remedies and their child collections.
type RemedyStore struct {
	db *sql.DB
}

// NewRemedyStore creates a new RemedyStore with the given database connection.
func NewRemedyStore(db *sql.DB) *RemedyStore {
	return &RemedyStore{db: db}
}

// NewRemedy is a remedy together with the children written alongside it.
type NewRemedy struct {
	Remedy      models.Remedy
	Ingredients []models.RemedyIngredient
	Steps       []models.RemedyStep
	Benefits    []models.RemedyBenefit
	Images      []models.Image
}

// RemedyPatch lists the columns an author may change. Nil fields are left
// untouched.
type RemedyPatch struct {
	Title             *string
	Subtitle          *string
	Description       *string
	Summary           *string
	CategoryID        *uuid.UUID
	LocationID        *uuid.UUID
	Region            *string
	OriginStory       *string
	PreparationTime   *int
	CookingTime       *int
	Servings          *int
	Difficulty        *models.Difficulty
	SafetyWarnings    *[]string
	Contraindications *[]string
	Status            *models.Status
}

// List returns one page of published remedies matching c, hydrated with
// their list preview, and the total number of matches.
func (s *RemedyStore) List(ctx context.Context, c search.Criteria) ([]models.RemedySummary, int, error) {
	st, err := search.Remedies.Build(c)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, st)
	if err != nil {
		return nil, 0, err
	}

	window, args := st.Window(c)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+remedyColumns+`, `+remedyCategoryColumns+`, `+authorColumns+
		remedyFrom+`
		LEFT JOIN profiles p ON p.id = r.author_id
		WHERE `+st.Where+`
		ORDER BY `+st.OrderBy+`
		`+window, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list remedies: %w", err)
	}
	defer rows.Close()

	items := []models.RemedySummary{}
	for rows.Next() {
		var item models.RemedySummary
		var cat models.RemedyCategory
		var author nullAuthor
		dest := append(remedyDest(&item.Remedy), remedyCategoryDest(&cat)...)
		if err := rows.Scan(append(dest, author.dest()...)...); err != nil {
			return nil, 0, fmt.Errorf("scan remedy: %w", err)
		}
		item.Category = &cat
		item.Author = author.ref()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list remedies: %w", err)
	}

	if err := s.hydrate(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search returns published remedies matching c ranked as c.Sort asks, with
// the relevance score of each hit and the total number of matches.
func (s *RemedyStore) Search(ctx context.Context, c search.Criteria) ([]models.RemedySearchResult, int, error) {
	st, err := search.Remedies.Build(c)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, st)
	if err != nil {
		return nil, 0, err
	}

	window, args := st.Window(c)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+remedyColumns+`, `+remedyCategoryColumns+`, `+st.Score+
		remedyFrom+`
		WHERE `+st.Where+`
		ORDER BY `+st.OrderBy+`
		`+window, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search remedies: %w", err)
	}
	defer rows.Close()

	results := []models.RemedySearchResult{}
	for rows.Next() {
		var res models.RemedySearchResult
		var cat models.RemedyCategory
		dest := append(remedyDest(&res.Remedy), remedyCategoryDest(&cat)...)
		if err := rows.Scan(append(dest, &res.RelevanceScore)...); err != nil {
			return nil, 0, fmt.Errorf("scan remedy search result: %w", err)
		}
		res.Category = &cat
		res.Snippet = res.Title
		if res.Subtitle != nil && *res.Subtitle != "" {
			res.Snippet = *res.Subtitle
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search remedies: %w", err)
	}
	if len(results) == 0 {
		return results, total, nil
	}

	ids := make([]uuid.UUID, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}

	g, gctx := errgroup.WithContext(ctx)
	var images map[uuid.UUID]string
	var ingredients map[uuid.UUID][]models.IngredientRef
	g.Go(func() (err error) {
		images, err = primaryImages(gctx, s.db, "remedy_images", "remedy_id", ids)
		return err
	})
	g.Go(func() (err error) {
		ingredients, err = s.mainIngredients(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	for i := range results {
		r := &results[i]
		if url, ok := images[r.ID]; ok {
			r.PrimaryImage = &url
		}
		r.MainIngredients = []string{}
		for _, ing := range ingredients[r.ID] {
			r.MainIngredients = append(r.MainIngredients, ing.Name)
		}
	}
	return results, total, nil
}

func (s *RemedyStore) count(ctx context.Context, st *search.Statement) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+remedyFrom+` WHERE `+st.Where, st.Args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count remedies: %w", err)
	}
	return total, nil
}

// hydrate fills the list preview of every item with one query per
// collection rather than one per item.
func (s *RemedyStore) hydrate(ctx context.Context, items []models.RemedySummary) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var (
		images      map[uuid.UUID]string
		ingredients map[uuid.UUID][]models.IngredientRef
		benefits    map[uuid.UUID][]models.BenefitRef
		ratings     map[uuid.UUID]rating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		images, err = primaryImages(gctx, s.db, "remedy_images", "remedy_id", ids)
		return err
	})
	g.Go(func() (err error) {
		ingredients, err = s.mainIngredients(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		benefits, err = s.topBenefits(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		ratings, err = s.ratings(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range items {
		it := &items[i]
		if url, ok := images[it.ID]; ok {
			it.PrimaryImage = &url
		}
		it.MainIngredients = ingredients[it.ID]
		if it.MainIngredients == nil {
			it.MainIngredients = []models.IngredientRef{}
		}
		it.Benefits = benefits[it.ID]
		if it.Benefits == nil {
			it.Benefits = []models.BenefitRef{}
		}
		it.AvgRating = ratings[it.ID].avg
		it.TestimonialCount = ratings[it.ID].count
	}
	return nil
}

func (s *RemedyStore) mainIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.IngredientRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remedy_id, name, amount FROM (
			SELECT remedy_id, name, amount, order_index,
			       row_number() OVER (PARTITION BY remedy_id ORDER BY order_index) AS rn
			FROM remedy_ingredients
			WHERE remedy_id = ANY($1::uuid[]) AND is_main_ingredient
		) ranked
		WHERE rn <= $2
		ORDER BY remedy_id, order_index`, idStrings(ids), listPreview)
	if err != nil {
		return nil, fmt.Errorf("list main ingredients: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]models.IngredientRef{}
	for rows.Next() {
		var id uuid.UUID
		var ref models.IngredientRef
		if err := rows.Scan(&id, &ref.Name, &ref.Amount); err != nil {
			return nil, fmt.Errorf("scan main ingredient: %w", err)
		}
		out[id] = append(out[id], ref)
	}
	return out, rows.Err()
}

func (s *RemedyStore) topBenefits(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.BenefitRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remedy_id, benefit, category FROM (
			SELECT remedy_id, benefit, category, order_index,
			       row_number() OVER (PARTITION BY remedy_id ORDER BY order_index) AS rn
			FROM remedy_benefits
			WHERE remedy_id = ANY($1::uuid[])
		) ranked
		WHERE rn <= $2
		ORDER BY remedy_id, order_index`, idStrings(ids), listPreview)
	if err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]models.BenefitRef{}
	for rows.Next() {
		var id uuid.UUID
		var ref models.BenefitRef
		if err := rows.Scan(&id, &ref.Benefit, &ref.Category); err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		out[id] = append(out[id], ref)
	}
	return out, rows.Err()
}

type rating struct {
	avg   float64
	count int
}

// ratings averages verified testimonials per remedy.
func (s *RemedyStore) ratings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remedy_id, AVG(rating)::float8, COUNT(*)
		FROM remedy_testimonials
		WHERE remedy_id = ANY($1::uuid[]) AND is_verified
		GROUP BY remedy_id`, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]rating{}
	for rows.Next() {
		var id uuid.UUID
		var r rating
		if err := rows.Scan(&id, &r.avg, &r.count); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.avg = models.RoundRating(r.avg)
		out[id] = r
	}
	return out, rows.Err()
}

// Rating returns the average of verified testimonials, rounded to one
// decimal, and how many there are.
func (s *RemedyStore) Rating(ctx context.Context, remedyID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT avg_rating::float8, testimonial_count FROM calculate_remedy_rating($1)`, remedyID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("calculate remedy rating: %w", err)
	}
	return avg, count, nil
}

// FindByID retrieves a remedy of any status. Returns nil if not found.
func (s *RemedyStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Remedy, error) {
	var r models.Remedy
	err := s.db.QueryRowContext(ctx, `SELECT `+remedyColumns+` FROM remedies r WHERE r.id = $1`, id).
		Scan(remedyDest(&r)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find remedy by id: %w", err)
	}
	return &r, nil
}

// Detail retrieves a remedy of any status with every child collection,
// verified testimonials and verified verifications. Returns nil if not
// found. The child reads run concurrently.
func (s *RemedyStore) Detail(ctx context.Context, id uuid.UUID) (*models.RemedyDetail, error) {
	var d models.RemedyDetail
	var cat models.RemedyCategory
	var author nullAuthor
	var loc nullLocation

	dest := append(remedyDest(&d.Remedy), remedyCategoryDest(&cat)...)
	dest = append(dest, author.dest()...)
	dest = append(dest, loc.dest()...)
	err := s.db.QueryRowContext(ctx, `
		SELECT `+remedyColumns+`, `+remedyCategoryColumns+`, `+authorColumns+`, `+locationColumns+
		remedyFrom+`
		LEFT JOIN profiles p ON p.id = r.author_id
		LEFT JOIN locations l ON l.id = r.location_id
		WHERE r.id = $1`, id).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find remedy detail: %w", err)
	}
	d.Category = &cat
	d.Author = author.ref()
	d.Location = loc.location()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Ingredients, err = s.ingredients(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Steps, err = s.steps(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Benefits, err = s.benefits(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Images, err = listImages(gctx, s.db, "remedy_images", "remedy_id", id)
		return err
	})
	g.Go(func() (err error) {
		d.Testimonials, err = listTestimonials(gctx, s.db, id, true)
		return err
	})
	g.Go(func() (err error) {
		d.Verifications, err = listRemedyVerifications(gctx, s.db, VerificationFilter{RemedyID: id, VerifiedOnly: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Finalize()
	return &d, nil
}

func (s *RemedyStore) ingredients(ctx context.Context, id uuid.UUID) ([]models.RemedyIngredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, remedy_id, name, amount, notes, is_main_ingredient, order_index
		FROM remedy_ingredients WHERE remedy_id = $1
		ORDER BY order_index ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	items := []models.RemedyIngredient{}
	for rows.Next() {
		var i models.RemedyIngredient
		if err := rows.Scan(&i.ID, &i.RemedyID, &i.Name, &i.Amount, &i.Notes, &i.IsMainIngredient, &i.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (s *RemedyStore) steps(ctx context.Context, id uuid.UUID) ([]models.RemedyStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, remedy_id, step_number, title, description, tips, estimated_time
		FROM remedy_steps WHERE remedy_id = $1
		ORDER BY step_number ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	items := []models.RemedyStep{}
	for rows.Next() {
		var st models.RemedyStep
		if err := rows.Scan(&st.ID, &st.RemedyID, &st.StepNumber, &st.Title, &st.Description, &st.Tips, &st.EstimatedTime); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		items = append(items, st)
	}
	return items, rows.Err()
}

func (s *RemedyStore) benefits(ctx context.Context, id uuid.UUID) ([]models.RemedyBenefit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, remedy_id, benefit, description, category, order_index
		FROM remedy_benefits WHERE remedy_id = $1
		ORDER BY order_index ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	defer rows.Close()

	items := []models.RemedyBenefit{}
	for rows.Next() {
		var b models.RemedyBenefit
		if err := rows.Scan(&b.ID, &b.RemedyID, &b.Benefit, &b.Description, &b.Category, &b.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// Create inserts a remedy and all of its children in one transaction.
// Child collections are numbered from 1 in the order given.
func (s *RemedyStore) Create(ctx context.Context, in *NewRemedy) (*models.Remedy, error) {
	r := in.Remedy
	if r.Difficulty == "" {
		r.Difficulty = models.DefaultDifficulty
	}
	if r.Status == "" {
		r.Status = models.StatusPublished
	}

	var created models.Remedy
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO remedies AS r (title, subtitle, description, summary, author_id,
			                           category_id, location_id, region, origin_story,
			                           preparation_time, cooking_time, servings, difficulty,
			                           safety_warnings, contraindications, is_featured, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING `+remedyColumns,
			r.Title, r.Subtitle, r.Description, r.Summary, r.AuthorID,
			r.CategoryID, r.LocationID, r.Region, r.OriginStory,
			r.PreparationTime, r.CookingTime, r.Servings, r.Difficulty,
			nonNil(r.SafetyWarnings), nonNil(r.Contraindications), r.IsFeatured, r.Status,
		).Scan(remedyDest(&created)...)
		if err != nil {
			return wrap("insert remedy", err)
		}

		for i, ing := range in.Ingredients {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO remedy_ingredients (remedy_id, name, amount, notes, is_main_ingredient, order_index)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				created.ID, ing.Name, ing.Amount, ing.Notes, ing.IsMainIngredient, i+1,
			)
			if err != nil {
				return fmt.Errorf("insert ingredient %d: %w", i+1, err)
			}
		}
		for i, st := range in.Steps {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO remedy_steps (remedy_id, step_number, title, description, tips, estimated_time)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				created.ID, i+1, st.Title, st.Description, st.Tips, st.EstimatedTime,
			)
			if err != nil {
				return fmt.Errorf("insert step %d: %w", i+1, err)
			}
		}
		for i, b := range in.Benefits {
			category := b.Category
			if category == "" {
				category = models.DefaultBenefitCategory
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO remedy_benefits (remedy_id, benefit, description, category, order_index)
				VALUES ($1, $2, $3, $4, $5)`,
				created.ID, b.Benefit, b.Description, category, i+1,
			)
			if err != nil {
				return fmt.Errorf("insert benefit %d: %w", i+1, err)
			}
		}
		return insertImages(ctx, tx, "remedy_images", "remedy_id", created.ID, in.Images)
	})
	if err != nil {
		return nil, fmt.Errorf("create remedy: %w", err)
	}
	return &created, nil
}

// Update applies p to a remedy and returns the updated row, or nil if the
// remedy does not exist.
func (s *RemedyStore) Update(ctx context.Context, id uuid.UUID, p RemedyPatch) (*models.Remedy, error) {
	var a assignments
	if p.Title != nil {
		a.set("title", *p.Title)
	}
	if p.Subtitle != nil {
		a.set("subtitle", *p.Subtitle)
	}
	if p.Description != nil {
		a.set("description", *p.Description)
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
	if p.Region != nil {
		a.set("region", *p.Region)
	}
	if p.OriginStory != nil {
		a.set("origin_story", *p.OriginStory)
	}
	if p.PreparationTime != nil {
		a.set("preparation_time", *p.PreparationTime)
	}
	if p.CookingTime != nil {
		a.set("cooking_time", *p.CookingTime)
	}
	if p.Servings != nil {
		a.set("servings", *p.Servings)
	}
	if p.Difficulty != nil {
		a.set("difficulty", *p.Difficulty)
	}
	if p.SafetyWarnings != nil {
		a.set("safety_warnings", nonNil(*p.SafetyWarnings))
	}
	if p.Contraindications != nil {
		a.set("contraindications", nonNil(*p.Contraindications))
	}
	if p.Status != nil {
		a.set("status", *p.Status)
	}

	set, idArg, args := a.clause(id)
	var r models.Remedy
	err := s.db.QueryRowContext(ctx, `
		UPDATE remedies r SET `+set+`
		WHERE r.id = `+idArg+`
		RETURNING `+remedyColumns, args...).Scan(remedyDest(&r)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("update remedy", err)
	}
	return &r, nil
}

// Archive hides a remedy from public reads. Children are left in place.
func (s *RemedyStore) Archive(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE remedies SET status = 'archived', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive remedy: %w", err)
	}
	return nil
}

// IncrementViewCount adds one view atomically.
func (s *RemedyStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `SELECT increment_remedy_view_count($1)`, id); err != nil {
		return fmt.Errorf("increment remedy view count: %w", err)
	}
	return nil
}

// Regions counts published remedies per non-empty region.
func (s *RemedyStore) Regions(ctx context.Context) ([]models.Region, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, COUNT(*)
		FROM remedies
		WHERE status = 'published' AND region IS NOT NULL AND region <> ''
		GROUP BY region
		ORDER BY COUNT(*) DESC, region ASC`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	regions := []models.Region{}
	for rows.Next() {
		var r models.Region
		if err := rows.Scan(&r.Region, &r.RemedyCount); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"unseenindonesia/internal/cache"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
	"unseenindonesia/internal/store"
	"unseenindonesia/internal/viewcount"
)

type ingredientRequest struct {
	Name             string  `json:"name"`
	Amount           *string `json:"amount"`
	Notes            *string `json:"notes"`
	IsMainIngredient bool    `json:"is_main_ingredient"`
}

type stepRequest struct {
	Title         *string `json:"title"`
	Description   string  `json:"description"`
	Tips          *string `json:"tips"`
	EstimatedTime *int    `json:"estimated_time"`
}

type benefitRequest struct {
	Benefit     string  `json:"benefit"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
}

type imageRequest struct {
	ImageURL  string  `json:"image_url"`
	Caption   *string `json:"caption"`
	IsPrimary bool    `json:"is_primary"`
}

// remedyRequest is the body of POST /remedies.
type remedyRequest struct {
	Title             string              `json:"title"`
	Subtitle          *string             `json:"subtitle"`
	Description       string              `json:"description"`
	Summary           *string             `json:"summary"`
	CategoryID        string              `json:"category_id"`
	LocationID        *string             `json:"location_id"`
	Region            *string             `json:"region"`
	OriginStory       *string             `json:"origin_story"`
	PreparationTime   *int                `json:"preparation_time"`
	CookingTime       *int                `json:"cooking_time"`
	Servings          *int                `json:"servings"`
	Difficulty        models.Difficulty   `json:"difficulty"`
	SafetyWarnings    []string            `json:"safety_warnings"`
	Contraindications []string            `json:"contraindications"`
	Status            models.Status       `json:"status"`
	Ingredients       []ingredientRequest `json:"ingredients"`
	Steps             []stepRequest       `json:"steps"`
	Benefits          []benefitRequest    `json:"benefits"`
	Images            []imageRequest      `json:"images"`
}

// remedyPatchRequest is the body of PUT /remedies/{id}. Absent fields keep
// their stored value.
type remedyPatchRequest struct {
	Title             *string            `json:"title"`
	Subtitle          *string            `json:"subtitle"`
	Description       *string            `json:"description"`
	Summary           *string            `json:"summary"`
	CategoryID        *string            `json:"category_id"`
	LocationID        *string            `json:"location_id"`
	Region            *string            `json:"region"`
	OriginStory       *string            `json:"origin_story"`
	PreparationTime   *int               `json:"preparation_time"`
	CookingTime       *int               `json:"cooking_time"`
	Servings          *int               `json:"servings"`
	Difficulty        *models.Difficulty `json:"difficulty"`
	SafetyWarnings    *[]string          `json:"safety_warnings"`
	Contraindications *[]string          `json:"contraindications"`
	Status            *models.Status     `json:"status"`
}

type remedyListResponse struct {
	search.Page[models.RemedySummary]
	SearchQuery string `json:"search_query,omitempty"`
}

// parseRef parses a referenced entity id supplied in a request body.
func parseRef(field, raw string) (uuid.UUID, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, field + " is required"
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "Invalid " + field
	}
	return id, ""
}

// parseOptionalRef parses an optional referenced id; blank means none.
func parseOptionalRef(field string, raw *string) (*uuid.UUID, string) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, ""
	}
	id, msg := parseRef(field, *raw)
	if msg != "" {
		return nil, msg
	}
	return &id, ""
}

// ListRemedies handles GET /remedies.
func (a *API) ListRemedies(w http.ResponseWriter, r *http.Request) {
	c, err := search.ParseQuery(r.URL.Query(), search.Defaults{Limit: 12, Sort: search.SortNewest})
	if err != nil {
		fail(w, err, "parse remedy filters")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	items, total, err := a.Remedies.List(ctx, c)
	if err != nil {
		fail(w, err, "list remedies")
		return
	}
	writeJSON(w, http.StatusOK, remedyListResponse{
		Page:        search.NewPage(items, total, c),
		SearchQuery: c.Query,
	})
}

// GetRemedy handles GET /remedies/{id}. Unpublished remedies are visible
// to their author only.
func (a *API) GetRemedy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	d, err := a.Remedies.Detail(ctx, id)
	if err != nil {
		fail(w, err, "load remedy", "remedy_id", id)
		return
	}
	if d == nil {
		notFound(w, "Remedy")
		return
	}
	if !d.IsPublished() {
		u := middleware.UserFromCtx(r.Context())
		if u == nil || !d.IsAuthoredBy(u.ID) {
			notFound(w, "Remedy")
			return
		}
	} else {
		a.recordView(viewcount.Remedy, id)
	}

	writeJSON(w, http.StatusOK, map[string]any{"remedy": d})
}

// CreateRemedy handles POST /remedies.
func (a *API) CreateRemedy(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req remedyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, msg := req.toNewRemedy(u.ID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	created, err := a.Remedies.Create(ctx, in)
	if err != nil {
		fail(w, err, "create remedy", "user_id", u.ID)
		return
	}
	a.invalidateRemedyAggregates(ctx)
	writeJSON(w, http.StatusCreated, map[string]any{"remedy": created})
}

func (req *remedyRequest) toNewRemedy(author uuid.UUID) (*store.NewRemedy, string) {
	if msg := firstError(
		requireText("title", req.Title, maxTitleLen),
		requireText("description", req.Description, maxBodyLen),
		optionalText("subtitle", req.Subtitle, maxSubtitleLen),
		optionalText("summary", req.Summary, maxSummaryLen),
		optionalText("region", req.Region, maxShortFieldLen),
		optionalText("origin_story", req.OriginStory, maxBodyLen),
		optionalRange("preparation_time", req.PreparationTime, 0, maxMinutes),
		optionalRange("cooking_time", req.CookingTime, 0, maxMinutes),
		optionalRange("servings", req.Servings, 1, maxServings),
		validateList("safety_warnings", req.SafetyWarnings),
		validateList("contraindications", req.Contraindications),
		validateRemedyChildren(req),
	); msg != "" {
		return nil, msg
	}
	categoryID, msg := parseRef("category_id", req.CategoryID)
	if msg != "" {
		return nil, msg
	}
	locationID, msg := parseOptionalRef("location_id", req.LocationID)
	if msg != "" {
		return nil, msg
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DefaultDifficulty
	}
	if !difficulty.Valid() {
		return nil, "difficulty must be Mudah, Sedang or Sulit"
	}
	status := req.Status
	if status == "" {
		status = models.StatusPublished
	}
	if msg := validateAuthorStatus(&status); msg != "" {
		return nil, msg
	}

	in := &store.NewRemedy{Remedy: models.Remedy{
		Title:             strings.TrimSpace(req.Title),
		Subtitle:          optString(req.Subtitle),
		Description:       strings.TrimSpace(req.Description),
		Summary:           optString(req.Summary),
		AuthorID:          &author,
		CategoryID:        categoryID,
		LocationID:        locationID,
		Region:            optString(req.Region),
		OriginStory:       optString(req.OriginStory),
		PreparationTime:   req.PreparationTime,
		CookingTime:       req.CookingTime,
		Servings:          req.Servings,
		Difficulty:        difficulty,
		SafetyWarnings:    req.SafetyWarnings,
		Contraindications: req.Contraindications,
		Status:            status,
	}}
	for _, ing := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, models.RemedyIngredient{
			Name:             strings.TrimSpace(ing.Name),
			Amount:           optString(ing.Amount),
			Notes:            optString(ing.Notes),
			IsMainIngredient: ing.IsMainIngredient,
		})
	}
	for _, st := range req.Steps {
		in.Steps = append(in.Steps, models.RemedyStep{
			Title:         optString(st.Title),
			Description:   strings.TrimSpace(st.Description),
			Tips:          optString(st.Tips),
			EstimatedTime: st.EstimatedTime,
		})
	}
	for _, b := range req.Benefits {
		in.Benefits = append(in.Benefits, models.RemedyBenefit{
			Benefit:     strings.TrimSpace(b.Benefit),
			Description: optString(b.Description),
			Category:    strings.TrimSpace(b.Category),
		})
	}
	in.Images = toImages(req.Images)
	return in, ""
}

func toImages(reqs []imageRequest) []models.Image {
	var images []models.Image
	for _, img := range reqs {
		images = append(images, models.Image{
			ImageURL:  strings.TrimSpace(img.ImageURL),
			Caption:   optString(img.Caption),
			IsPrimary: img.IsPrimary,
		})
	}
	return images
}

// UpdateRemedy handles PUT /remedies/{id}. Only the author may edit.
func (a *API) UpdateRemedy(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req remedyPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, msg := req.toPatch()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if !a.ownRemedy(ctx, w, id, u.ID) {
		return
	}
	updated, err := a.Remedies.Update(ctx, id, patch)
	if err != nil {
		fail(w, err, "update remedy", "remedy_id", id)
		return
	}
	if updated == nil {
		notFound(w, "Remedy")
		return
	}
	a.invalidateRemedyAggregates(ctx)
	writeJSON(w, http.StatusOK, map[string]any{"remedy": updated})
}

func (req *remedyPatchRequest) toPatch() (store.RemedyPatch, string) {
	p := store.RemedyPatch{
		Subtitle:          req.Subtitle,
		Summary:           req.Summary,
		Region:            req.Region,
		OriginStory:       req.OriginStory,
		PreparationTime:   req.PreparationTime,
		CookingTime:       req.CookingTime,
		Servings:          req.Servings,
		Difficulty:        req.Difficulty,
		SafetyWarnings:    req.SafetyWarnings,
		Contraindications: req.Contraindications,
		Status:            req.Status,
	}
	if req.Title != nil {
		if msg := requireText("title", *req.Title, maxTitleLen); msg != "" {
			return p, msg
		}
		title := strings.TrimSpace(*req.Title)
		p.Title = &title
	}
	if req.Description != nil {
		if msg := requireText("description", *req.Description, maxBodyLen); msg != "" {
			return p, msg
		}
		desc := strings.TrimSpace(*req.Description)
		p.Description = &desc
	}
	if req.CategoryID != nil {
		id, msg := parseRef("category_id", *req.CategoryID)
		if msg != "" {
			return p, msg
		}
		p.CategoryID = &id
	}
	if req.LocationID != nil {
		id, msg := parseRef("location_id", *req.LocationID)
		if msg != "" {
			return p, msg
		}
		p.LocationID = &id
	}
	if req.Difficulty != nil && !req.Difficulty.Valid() {
		return p, "difficulty must be Mudah, Sedang or Sulit"
	}
	var warnings, contra []string
	if req.SafetyWarnings != nil {
		warnings = *req.SafetyWarnings
	}
	if req.Contraindications != nil {
		contra = *req.Contraindications
	}
	return p, firstError(
		optionalText("subtitle", req.Subtitle, maxSubtitleLen),
		optionalText("summary", req.Summary, maxSummaryLen),
		optionalText("region", req.Region, maxShortFieldLen),
		optionalText("origin_story", req.OriginStory, maxBodyLen),
		optionalRange("preparation_time", req.PreparationTime, 0, maxMinutes),
		optionalRange("cooking_time", req.CookingTime, 0, maxMinutes),
		optionalRange("servings", req.Servings, 1, maxServings),
		validateList("safety_warnings", warnings),
		validateList("contraindications", contra),
		validateAuthorStatus(req.Status),
	)
}

// DeleteRemedy handles DELETE /remedies/{id} by archiving the remedy.
func (a *API) DeleteRemedy(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if !a.ownRemedy(ctx, w, id, u.ID) {
		return
	}
	if err := a.Remedies.Archive(ctx, id); err != nil {
		fail(w, err, "archive remedy", "remedy_id", id)
		return
	}
	a.invalidateRemedyAggregates(ctx)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Remedy deleted successfully"})
}

// ownRemedy answers 404 or 403 unless the remedy exists and userID wrote it.
func (a *API) ownRemedy(ctx context.Context, w http.ResponseWriter, id, userID uuid.UUID) bool {
	rem, err := a.Remedies.FindByID(ctx, id)
	if err != nil {
		fail(w, err, "load remedy", "remedy_id", id)
		return false
	}
	if rem == nil {
		notFound(w, "Remedy")
		return false
	}
	if !rem.IsAuthoredBy(userID) {
		forbidden(w)
		return false
	}
	return true
}

// RemedyRegions handles GET /remedies/regions.
func (a *API) RemedyRegions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.dbCtx(r)
	defer cancel()

	var regions []models.Region
	if !a.cacheGet(ctx, cache.RegionsKey, &regions) {
		var err error
		regions, err = a.Remedies.Regions(ctx)
		if err != nil {
			fail(w, err, "list regions")
			return
		}
		if regions == nil {
			regions = []models.Region{}
		}
		a.cacheSet(ctx, cache.RegionsKey, regions)
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

// invalidateRemedyAggregates drops cached values derived from remedy rows.
func (a *API) invalidateRemedyAggregates(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	a.Cache.Invalidate(ctx, cache.RegionsKey)
	a.Cache.InvalidatePrefix(ctx, cache.RemedyCategoriesGroup)
}

// SearchRemedies handles GET /remedies/search, a relevance-ranked text
// search.
func (a *API) SearchRemedies(w http.ResponseWriter, r *http.Request) {
	c, err := search.ParseQuery(r.URL.Query(), search.Defaults{
		Limit:        20,
		Sort:         search.SortRelevance,
		RequireQuery: true,
	})
	if err != nil {
		fail(w, err, "parse remedy search")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	results, _, err := a.Remedies.Search(ctx, c)
	if err != nil {
		fail(w, err, "search remedies", "query", c.Query)
		return
	}
	if results == nil {
		results = []models.RemedySearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":         results,
		"query":           c.Query,
		"total_results":   len(results),
		"filters_applied": c.Applied(),
	})
}

// AdvancedSearchRemedies handles POST /remedies/search with a structured
// filter body.
func (a *API) AdvancedSearchRemedies(w http.ResponseWriter, r *http.Request) {
	var body search.Advanced
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := body.Criteria(search.Defaults{Limit: 20, Sort: search.SortRelevance})
	if err != nil {
		fail(w, err, "parse advanced search")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	results, total, err := a.Remedies.Search(ctx, c)
	if err != nil {
		fail(w, err, "advanced search remedies", "query", c.Query)
		return
	}
	page := search.NewPage(results, total, c)
	writeJSON(w, http.StatusOK, map[string]any{
		"results":         page.Items,
		"query":           c.Query,
		"total_results":   len(page.Items),
		"total_count":     page.TotalCount,
		"page":            page.Page,
		"per_page":        page.PerPage,
		"has_next_page":   page.HasNextPage,
		"filters_applied": c.Applied(),
	})
}

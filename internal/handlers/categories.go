// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"unseenindonesia/internal/cache"
	"unseenindonesia/internal/geo"
	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
)

// Result caps for lookup endpoints.
const (
	locationSearchLimit = 20
	globalSearchLimit   = 5
)

type categoryRequest struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	Description *string `json:"description"`
}

// ListRemedyCategories handles GET /remedies/categories.
func (a *API) ListRemedyCategories(w http.ResponseWriter, r *http.Request) {
	includeCount, ok := queryBool(w, r, "include_count", false)
	if !ok {
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	key := cache.RemedyCategoriesKey(includeCount)
	var categories []models.RemedyCategory
	if !a.cacheGet(ctx, key, &categories) {
		var err error
		categories, err = a.Categories.List(ctx, includeCount)
		if err != nil {
			fail(w, err, "list remedy categories")
			return
		}
		if categories == nil {
			categories = []models.RemedyCategory{}
		}
		a.cacheSet(ctx, key, categories)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// CreateRemedyCategory handles POST /remedies/categories.
func (a *API) CreateRemedyCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateCategory(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	created, err := a.Categories.Create(ctx, &models.RemedyCategory{
		Name:        strings.TrimSpace(req.Name),
		Icon:        strings.TrimSpace(req.Icon),
		Color:       req.Color,
		Description: optString(req.Description),
	})
	if err != nil {
		fail(w, err, "create remedy category", "name", req.Name)
		return
	}
	if a.Cache != nil {
		a.Cache.InvalidatePrefix(ctx, cache.RemedyCategoriesGroup)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": created})
}

// validateCategory checks a new category and fills in the default color.
func validateCategory(req *categoryRequest) string {
	if msg := firstError(
		requireText("name", req.Name, maxCategoryName),
		requireText("icon", req.Icon, maxShortFieldLen),
		optionalText("description", req.Description, maxSummaryLen),
	); msg != "" {
		return msg
	}
	req.Color = strings.TrimSpace(req.Color)
	if req.Color == "" {
		req.Color = models.DefaultCategoryColor
	}
	if !hexColor.MatchString(req.Color) {
		return "color must be a hex color like #10B981"
	}
	return ""
}

// ListStoryCategories handles GET /categories.
func (a *API) ListStoryCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.dbCtx(r)
	defer cancel()

	var categories []models.Category
	if !a.cacheGet(ctx, cache.StoryCategoriesKey, &categories) {
		var err error
		categories, err = a.Categories.ListStoryCategories(ctx)
		if err != nil {
			fail(w, err, "list story categories")
			return
		}
		if categories == nil {
			categories = []models.Category{}
		}
		a.cacheSet(ctx, cache.StoryCategoriesKey, categories)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// ListLocations handles GET /locations. With q it searches by name,
// otherwise it lists locations of the optional type.
func (a *API) ListLocations(w http.ResponseWriter, r *http.Request) {
	typ := models.LocationType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown location type")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" && utf8.RuneCountInString(q) < search.MinQueryLength {
		writeError(w, http.StatusBadRequest, "Search query must be at least 2 characters long")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	var (
		locations []models.Location
		err       error
	)
	if q != "" {
		locations, err = a.Locations.Search(ctx, q, locationSearchLimit)
	} else {
		locations, err = a.Locations.List(ctx, typ)
	}
	if err != nil {
		fail(w, err, "list locations")
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

// GlobalSearch handles GET /search, a quick lookup across stories,
// locations and story categories.
func (a *API) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < search.MinQueryLength {
		writeError(w, http.StatusBadRequest, "Search query must be at least 2 characters long")
		return
	}
	if utf8.RuneCountInString(q) > search.MaxQueryLength {
		writeError(w, http.StatusBadRequest, "Search query is too long")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	var (
		stories    []models.StorySummary
		locations  []models.Location
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stories, err = a.Stories.Search(gctx, q, globalSearchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = a.Locations.Search(gctx, q, globalSearchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = a.Categories.SearchStoryCategories(gctx, q, globalSearchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		fail(w, err, "global search", "query", q)
		return
	}

	if stories == nil {
		stories = []models.StorySummary{}
	}
	if locations == nil {
		locations = []models.Location{}
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":      q,
		"stories":    stories,
		"locations":  locations,
		"categories": categories,
	})
}

// MapConfig handles GET /map/config.
func (a *API) MapConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  a.Map.Token,
		"style":  a.Map.Style,
		"center": geo.IndonesiaCenter,
		"bounds": geo.IndonesiaBounds,
	})
}

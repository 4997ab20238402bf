// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package search turns request parameters into validated filter criteria
// and compiles them into parameterized SQL for the stores. Text matching
// is case-insensitive substring presence; relevance is a weighted count of
// the fields a query hits.
package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
)

// Sort names an ordering of results.
type Sort string

const (
	SortNewest            Sort = "newest"
	SortOldest            Sort = "oldest"
	SortTrustLevel        Sort = "trust_level"
	SortVerificationCount Sort = "verification_count"
	SortPopularity        Sort = "popularity"
	SortMostViewed        Sort = "most_viewed"
	SortMostVerified      Sort = "most_verified"
	SortAlphabetical      Sort = "alphabetical"
	SortRelevance         Sort = "relevance"
)

func (s Sort) valid() bool {
	switch s {
	case SortNewest, SortOldest, SortTrustLevel, SortVerificationCount, SortPopularity,
		SortMostViewed, SortMostVerified, SortAlphabetical, SortRelevance:
		return true
	}
	return false
}

// Bounds on paging and query input.
const (
	MinQueryLength = 2
	MaxQueryLength = 200
	MaxLimit       = 100
	MaxPage        = 10_000
	maxListValues  = 20
)

// ValidationError reports a malformed filter value. Its message is safe to
// show to API clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Defaults configures parsing for one endpoint.
type Defaults struct {
	Limit        int
	Sort         Sort
	RequireQuery bool
}

// Criteria is a validated set of filters, an ordering and a page window.
type Criteria struct {
	Query              string
	CategoryIDs        []uuid.UUID
	Regions            []string
	Difficulties       []models.Difficulty
	TrustLevelMin      *int
	PreparationTimeMax *int
	Featured           *bool
	TimePeriods        []string
	Ingredients        []string
	Benefits           []string
	Sort               Sort
	Page               int
	Limit              int
}

// Offset returns the number of rows skipped before the current page.
func (c Criteria) Offset() int {
	return (c.Page - 1) * c.Limit
}

// HasQuery reports whether a text query is present.
func (c Criteria) HasQuery() bool {
	return c.Query != ""
}

// Applied describes the active filters for echoing back to clients.
func (c Criteria) Applied() map[string]any {
	applied := map[string]any{}
	if len(c.CategoryIDs) > 0 {
		applied["categories"] = c.CategoryIDs
	}
	if len(c.Regions) > 0 {
		applied["regions"] = c.Regions
	}
	if len(c.Difficulties) > 0 {
		applied["difficulties"] = c.Difficulties
	}
	if c.TrustLevelMin != nil {
		applied["trust_level_min"] = *c.TrustLevelMin
	}
	if c.PreparationTimeMax != nil {
		applied["preparation_time_max"] = *c.PreparationTimeMax
	}
	if c.Featured != nil {
		applied["featured"] = *c.Featured
	}
	if len(c.TimePeriods) > 0 {
		applied["time_periods"] = c.TimePeriods
	}
	if len(c.Ingredients) > 0 {
		applied["ingredients"] = c.Ingredients
	}
	if len(c.Benefits) > 0 {
		applied["benefits"] = c.Benefits
	}
	applied["sort"] = c.Sort
	return applied
}

// ParseQuery reads list/search parameters from a URL query. Singular and
// plural parameter names are both accepted and list values may repeat or
// be comma-separated. Malformed values fail instead of being coerced.
func ParseQuery(q url.Values, d Defaults) (Criteria, error) {
	c := Criteria{}

	c.Query = firstNonEmpty(q, "q", "search", "query")

	for _, raw := range listParam(q, "category_id", "categories") {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Criteria{}, invalid("category_id", "Invalid category id %q", raw)
		}
		c.CategoryIDs = append(c.CategoryIDs, id)
	}
	c.Regions = listParam(q, "region", "regions")
	for _, raw := range listParam(q, "difficulty", "difficulties") {
		c.Difficulties = append(c.Difficulties, models.Difficulty(raw))
	}
	c.TimePeriods = listParam(q, "time_period", "time_periods")
	c.Ingredients = listParam(q, "ingredient", "ingredients")
	c.Benefits = listParam(q, "benefit", "benefits")

	var err error
	if c.TrustLevelMin, err = intParam(q, "trust_level_min"); err != nil {
		return Criteria{}, err
	}
	if c.PreparationTimeMax, err = intParam(q, "preparation_time_max"); err != nil {
		return Criteria{}, err
	}
	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Criteria{}, invalid("featured", "featured must be true or false")
		}
		c.Featured = &b
	}

	c.Sort = Sort(firstNonEmpty(q, "sort", "sort_by"))

	page, err := intParam(q, "page")
	if err != nil {
		return Criteria{}, err
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		return Criteria{}, err
	}

	if err := c.normalize(page, limit, d); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Advanced is the JSON body of a structured multi-filter search.
type Advanced struct {
	Query              string   `json:"query"`
	Categories         []string `json:"categories"`
	Regions            []string `json:"regions"`
	Difficulties       []string `json:"difficulties"`
	Ingredients        []string `json:"ingredients"`
	Benefits           []string `json:"benefits"`
	TrustLevelMin      *int     `json:"trust_level_min"`
	PreparationTimeMax *int     `json:"preparation_time_max"`
	SortBy             string   `json:"sort_by"`
	Page               *int     `json:"page"`
	Limit              *int     `json:"limit"`
}

// Criteria validates the body and converts it.
func (a Advanced) Criteria(d Defaults) (Criteria, error) {
	c := Criteria{
		Query:              a.Query,
		Regions:            cleanList(a.Regions),
		Ingredients:        cleanList(a.Ingredients),
		Benefits:           cleanList(a.Benefits),
		TrustLevelMin:      a.TrustLevelMin,
		PreparationTimeMax: a.PreparationTimeMax,
		Sort:               Sort(strings.TrimSpace(a.SortBy)),
	}
	for _, raw := range cleanList(a.Categories) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Criteria{}, invalid("categories", "Invalid category id %q", raw)
		}
		c.CategoryIDs = append(c.CategoryIDs, id)
	}
	for _, raw := range cleanList(a.Difficulties) {
		c.Difficulties = append(c.Difficulties, models.Difficulty(raw))
	}
	if err := c.normalize(a.Page, a.Limit, d); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// normalize applies defaults and enforces every bound.
func (c *Criteria) normalize(page, limit *int, d Defaults) error {
	c.Query = strings.TrimSpace(c.Query)
	if c.Query == "" && d.RequireQuery {
		return invalid("q", "Search query must be at least %d characters long", MinQueryLength)
	}
	if c.Query != "" {
		n := utf8.RuneCountInString(c.Query)
		if n < MinQueryLength {
			return invalid("q", "Search query must be at least %d characters long", MinQueryLength)
		}
		if n > MaxQueryLength {
			return invalid("q", "Search query is too long (max %d characters)", MaxQueryLength)
		}
	}

	c.Page = 1
	if page != nil {
		if *page < 1 || *page > MaxPage {
			return invalid("page", "page must be between 1 and %d", MaxPage)
		}
		c.Page = *page
	}

	c.Limit = d.Limit
	if c.Limit == 0 {
		c.Limit = 12
	}
	if limit != nil {
		if *limit < 1 || *limit > MaxLimit {
			return invalid("limit", "limit must be between 1 and %d", MaxLimit)
		}
		c.Limit = *limit
	}

	if c.Sort == "" {
		c.Sort = d.Sort
		if c.Sort == "" {
			c.Sort = SortNewest
		}
	}
	if !c.Sort.valid() {
		return invalid("sort", "Unknown sort %q", c.Sort)
	}

	for _, diff := range c.Difficulties {
		if !diff.Valid() {
			return invalid("difficulty", "Unknown difficulty %q (expected Mudah, Sedang or Sulit)", diff)
		}
	}
	if c.TrustLevelMin != nil {
		if !models.TrustLevel(*c.TrustLevelMin).Valid() {
			return invalid("trust_level_min", "trust_level_min must be between 0 and %d", models.MaxTrustLevel)
		}
	}
	if c.PreparationTimeMax != nil && *c.PreparationTimeMax < 0 {
		return invalid("preparation_time_max", "preparation_time_max must not be negative")
	}

	lists := map[string]int{
		"categories":   len(c.CategoryIDs),
		"regions":      len(c.Regions),
		"difficulties": len(c.Difficulties),
		"time_periods": len(c.TimePeriods),
		"ingredients":  len(c.Ingredients),
		"benefits":     len(c.Benefits),
	}
	for field, n := range lists {
		if n > maxListValues {
			return invalid(field, "Too many %s (max %d)", field, maxListValues)
		}
	}
	return nil
}

func firstNonEmpty(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// listParam gathers every value of the given keys, splitting on commas.
func listParam(q url.Values, keys ...string) []string {
	var raw []string
	for _, k := range keys {
		for _, v := range q[k] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}
	return cleanList(raw)
}

// cleanList trims values and drops blanks and duplicates, keeping order.
func cleanList(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func intParam(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, invalid(key, "%s must be a whole number", key)
	}
	return &n, nil
}

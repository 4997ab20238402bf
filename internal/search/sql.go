// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package search

import (
	"fmt"
	"strings"
)

// Schema maps criteria onto the columns of one content table. Column
// expressions are qualified by the caller's FROM clause; an empty
// expression marks the filter as unsupported for that table.
type Schema struct {
	Name  string // used in error messages
	Alias string

	// TextMatch, when set, is a predicate template with one %s for the raw
	// query placeholder. Otherwise TextColumns are matched with ILIKE.
	TextMatch   string
	TextColumns []string

	// Relevance inputs.
	TitleColumn    string
	SubtitleColumn string
	RegionColumn   string
	CategoryName   string

	CategoryColumn   string
	RegionFilter     string
	DifficultyColumn string
	PrepTimeColumn   string
	FeaturedColumn   string
	TimePeriodColumn string

	// Child-table predicates with one %s for a text[] of ILIKE patterns.
	IngredientMatch string
	BenefitMatch    string
}

// Statement is the compiled form of a Criteria.
type Statement struct {
	Where   string // boolean expression, never empty
	OrderBy string
	Score   string // relevance expression, "0" without a query
	Args    []any
}

// Window returns the LIMIT/OFFSET clause for c's page together with the
// statement's arguments extended by the two window values.
func (s *Statement) Window(c Criteria) (string, []any) {
	n := len(s.Args)
	args := make([]any, 0, n+2)
	args = append(args, s.Args...)
	args = append(args, c.Limit, c.Offset())
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n+1, n+2), args
}

type builder struct {
	args  []any
	conds []string
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) where(format string, args ...any) {
	b.conds = append(b.conds, fmt.Sprintf(format, args...))
}

// EscapeLike escapes the ILIKE wildcards in s using the default backslash
// escape character.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Contains returns an ILIKE pattern matching s anywhere in a value.
func Contains(s string) string {
	return "%" + EscapeLike(s) + "%"
}

func containsAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Contains(v)
	}
	return out
}

// Build compiles c against the schema. Only published rows are ever
// eligible. Every ordering ends with the primary key so that pages never
// overlap.
func (s Schema) Build(c Criteria) (*Statement, error) {
	if err := s.supports(c); err != nil {
		return nil, err
	}

	b := &builder{}
	col := func(name string) string { return s.Alias + "." + name }

	b.where("%s = 'published'", col("status"))

	score := "0"
	if c.HasQuery() {
		// The score only references placeholders the WHERE clause already
		// uses, so count queries can share Args without the score.
		var pattern string
		if s.TextMatch != "" {
			q := b.arg(c.Query)
			b.where(s.TextMatch, q)
			pattern = "('%' || escape_like(" + q + ") || '%')"
		} else {
			pattern = b.arg(Contains(c.Query))
			ors := make([]string, len(s.TextColumns))
			for i, tc := range s.TextColumns {
				ors[i] = fmt.Sprintf("COALESCE(%s, '') ILIKE %s", tc, pattern)
			}
			b.where("(%s)", strings.Join(ors, " OR "))
		}
		score = s.score(pattern)
	}

	if len(c.CategoryIDs) > 0 {
		ids := make([]string, len(c.CategoryIDs))
		for i, id := range c.CategoryIDs {
			ids[i] = id.String()
		}
		b.where("%s = ANY(%s::uuid[])", s.CategoryColumn, b.arg(ids))
	}
	if len(c.Regions) > 0 {
		lowered := make([]string, len(c.Regions))
		for i, r := range c.Regions {
			lowered[i] = strings.ToLower(r)
		}
		b.where("lower(%s) = ANY(%s::text[])", s.RegionFilter, b.arg(lowered))
	}
	if len(c.Difficulties) > 0 {
		ds := make([]string, len(c.Difficulties))
		for i, d := range c.Difficulties {
			ds[i] = string(d)
		}
		b.where("%s = ANY(%s::text[])", s.DifficultyColumn, b.arg(ds))
	}
	if c.TrustLevelMin != nil {
		b.where("%s >= %s", col("trust_level"), b.arg(*c.TrustLevelMin))
	}
	if c.PreparationTimeMax != nil {
		b.where("%s <= %s", s.PrepTimeColumn, b.arg(*c.PreparationTimeMax))
	}
	if c.Featured != nil {
		b.where("%s = %s", s.FeaturedColumn, b.arg(*c.Featured))
	}
	if len(c.TimePeriods) > 0 {
		b.where("%s ILIKE ANY(%s::text[])", s.TimePeriodColumn, b.arg(containsAll(c.TimePeriods)))
	}
	if len(c.Ingredients) > 0 {
		b.where(s.IngredientMatch, b.arg(containsAll(c.Ingredients)))
	}
	if len(c.Benefits) > 0 {
		b.where(s.BenefitMatch, b.arg(containsAll(c.Benefits)))
	}

	return &Statement{
		Where:   strings.Join(b.conds, " AND "),
		OrderBy: s.orderBy(c.Sort, score),
		Score:   score,
		Args:    b.args,
	}, nil
}

// score sums +3 title, +2 subtitle, +1 region, +2 category name.
func (s Schema) score(pattern string) string {
	weights := []struct {
		expr   string
		weight int
	}{
		{s.TitleColumn, 3},
		{s.SubtitleColumn, 2},
		{s.RegionColumn, 1},
		{s.CategoryName, 2},
	}
	var terms []string
	for _, w := range weights {
		if w.expr == "" {
			continue
		}
		terms = append(terms, fmt.Sprintf("CASE WHEN COALESCE(%s, '') ILIKE %s THEN %d ELSE 0 END", w.expr, pattern, w.weight))
	}
	if len(terms) == 0 {
		return "0"
	}
	return "(" + strings.Join(terms, " + ") + ")"
}

func (s Schema) orderBy(sort Sort, score string) string {
	col := func(name string) string { return s.Alias + "." + name }
	var keys []string
	switch sort {
	case SortOldest:
		keys = []string{col("created_at") + " ASC"}
	case SortTrustLevel:
		keys = []string{col("trust_level") + " DESC"}
	case SortVerificationCount, SortMostVerified:
		keys = []string{col("verification_count") + " DESC"}
	case SortPopularity:
		keys = []string{col("view_count") + " DESC", col("verification_count") + " DESC"}
	case SortMostViewed:
		keys = []string{col("view_count") + " DESC"}
	case SortAlphabetical:
		keys = []string{"lower(" + s.TitleColumn + ") ASC"}
	case SortRelevance:
		if score != "0" {
			keys = append(keys, score+" DESC")
		}
		keys = append(keys, col("trust_level")+" DESC", col("created_at")+" DESC")
	default:
		keys = []string{col("created_at") + " DESC", col("verification_count") + " DESC"}
	}
	keys = append(keys, col("id")+" ASC")
	return strings.Join(keys, ", ")
}

func (s Schema) supports(c Criteria) error {
	unsupported := func(field string) error {
		return invalid(field, "Filter %s is not supported for %s", field, s.Name)
	}
	switch {
	case len(c.CategoryIDs) > 0 && s.CategoryColumn == "":
		return unsupported("category_id")
	case len(c.Regions) > 0 && s.RegionFilter == "":
		return unsupported("region")
	case len(c.Difficulties) > 0 && s.DifficultyColumn == "":
		return unsupported("difficulty")
	case c.PreparationTimeMax != nil && s.PrepTimeColumn == "":
		return unsupported("preparation_time_max")
	case c.Featured != nil && s.FeaturedColumn == "":
		return unsupported("featured")
	case len(c.TimePeriods) > 0 && s.TimePeriodColumn == "":
		return unsupported("time_period")
	case len(c.Ingredients) > 0 && s.IngredientMatch == "":
		return unsupported("ingredients")
	case len(c.Benefits) > 0 && s.BenefitMatch == "":
		return unsupported("benefits")
	}
	return nil
}

// Remedies is the schema for "FROM remedies r JOIN remedy_categories rc".
var Remedies = Schema{
	Name:             "remedies",
	Alias:            "r",
	TextMatch:        "r.id IN (SELECT id FROM search_remedies(%s))",
	TitleColumn:      "r.title",
	SubtitleColumn:   "r.subtitle",
	RegionColumn:     "r.region",
	CategoryName:     "rc.name",
	CategoryColumn:   "r.category_id",
	RegionFilter:     "r.region",
	DifficultyColumn: "r.difficulty",
	PrepTimeColumn:   "r.preparation_time",
	FeaturedColumn:   "r.is_featured",
	IngredientMatch:  "EXISTS (SELECT 1 FROM remedy_ingredients ri WHERE ri.remedy_id = r.id AND ri.name ILIKE ANY(%s::text[]))",
	BenefitMatch:     "EXISTS (SELECT 1 FROM remedy_benefits rb WHERE rb.remedy_id = r.id AND rb.benefit ILIKE ANY(%s::text[]))",
}

// Stories is the schema for "FROM stories s JOIN categories c LEFT JOIN locations l".
var Stories = Schema{
	Name:             "stories",
	Alias:            "s",
	TextColumns:      []string{"s.title", "s.content", "s.summary"},
	TitleColumn:      "s.title",
	SubtitleColumn:   "s.summary",
	RegionColumn:     "l.name",
	CategoryName:     "c.name",
	CategoryColumn:   "s.category_id",
	TimePeriodColumn: "s.time_period",
}

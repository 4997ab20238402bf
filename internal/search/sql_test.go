package search

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unseenindonesia/internal/models"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `a\_b`, EscapeLike("a_b"))
	assert.Equal(t, `c:\\x`, EscapeLike(`c:\x`))
	assert.Equal(t, `%jahe\%%`, Contains("jahe%"))
}

func TestBuild_PublishedOnly(t *testing.T) {
	st, err := Remedies.Build(Criteria{Sort: SortNewest, Page: 1, Limit: 12})
	require.NoError(t, err)

	assert.Equal(t, "r.status = 'published'", st.Where)
	assert.Equal(t, "r.created_at DESC, r.verification_count DESC, r.id ASC", st.OrderBy)
	assert.Equal(t, "0", st.Score)
	assert.Empty(t, st.Args)
}

func TestBuild_CategoryAndTrustSort(t *testing.T) {
	cat := uuid.New()
	st, err := Remedies.Build(Criteria{CategoryIDs: []uuid.UUID{cat}, Sort: SortTrustLevel, Page: 1, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, "r.status = 'published' AND r.category_id = ANY($1::uuid[])", st.Where)
	assert.Equal(t, "r.trust_level DESC, r.id ASC", st.OrderBy)
	assert.Equal(t, []any{[]string{cat.String()}}, st.Args)

	window, args := st.Window(Criteria{Page: 1, Limit: 2})
	assert.Equal(t, "LIMIT $2 OFFSET $3", window)
	assert.Equal(t, []any{[]string{cat.String()}, 2, 0}, args)
	assert.Len(t, st.Args, 1, "Window must not mutate the statement")
}

func TestBuild_RemedyTextQueryUsesSearchFunction(t *testing.T) {
	st, err := Remedies.Build(Criteria{Query: "jahe_merah", Sort: SortRelevance, Page: 1, Limit: 20})
	require.NoError(t, err)

	assert.Contains(t, st.Where, "r.id IN (SELECT id FROM search_remedies($1))")
	assert.Equal(t, []any{"jahe_merah"}, st.Args)
	assert.Contains(t, st.Score, "ILIKE ('%' || escape_like($1) || '%')")

	for _, part := range []string{"r.title", "r.subtitle", "r.region", "rc.name", "THEN 3", "THEN 2", "THEN 1"} {
		assert.Contains(t, st.Score, part)
	}
	assert.True(t, strings.HasPrefix(st.OrderBy, st.Score+" DESC, r.trust_level DESC, r.created_at DESC"))
	assert.True(t, strings.HasSuffix(st.OrderBy, "r.id ASC"))
}

func TestBuild_StoryTextQueryMatchesColumns(t *testing.T) {
	st, err := Stories.Build(Criteria{Query: "Majapahit", Sort: SortNewest, Page: 1, Limit: 12})
	require.NoError(t, err)

	assert.Contains(t, st.Where, "COALESCE(s.title, '') ILIKE $1 OR COALESCE(s.content, '') ILIKE $1 OR COALESCE(s.summary, '') ILIKE $1")
	assert.Equal(t, []any{"%Majapahit%"}, st.Args)
}

func TestBuild_ChildFiltersRunBeforePagination(t *testing.T) {
	st, err := Remedies.Build(Criteria{
		Ingredients: []string{"jahe"},
		Benefits:    []string{"batuk"},
		Sort:        SortNewest, Page: 2, Limit: 12,
	})
	require.NoError(t, err)

	assert.Contains(t, st.Where, "EXISTS (SELECT 1 FROM remedy_ingredients ri WHERE ri.remedy_id = r.id AND ri.name ILIKE ANY($1::text[]))")
	assert.Contains(t, st.Where, "EXISTS (SELECT 1 FROM remedy_benefits rb WHERE rb.remedy_id = r.id AND rb.benefit ILIKE ANY($2::text[]))")
	assert.Equal(t, []any{[]string{"%jahe%"}, []string{"%batuk%"}}, st.Args)
}

func TestBuild_StructuredFilters(t *testing.T) {
	trust, prep := 2, 30
	featured := true
	st, err := Remedies.Build(Criteria{
		Regions:            []string{"Jawa Tengah"},
		Difficulties:       []models.Difficulty{models.DifficultyEasy},
		TrustLevelMin:      &trust,
		PreparationTimeMax: &prep,
		Featured:           &featured,
		Sort:               SortAlphabetical, Page: 1, Limit: 12,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"r.status = 'published' AND lower(r.region) = ANY($1::text[]) AND r.difficulty = ANY($2::text[]) "+
			"AND r.trust_level >= $3 AND r.preparation_time <= $4 AND r.is_featured = $5",
		st.Where)
	assert.Equal(t, []any{[]string{"jawa tengah"}, []string{"Mudah"}, 2, 30, true}, st.Args)
	assert.Equal(t, "lower(r.title) ASC, r.id ASC", st.OrderBy)
}

func TestBuild_SortOrders(t *testing.T) {
	tests := []struct {
		sort Sort
		want string
	}{
		{SortOldest, "r.created_at ASC, r.id ASC"},
		{SortVerificationCount, "r.verification_count DESC, r.id ASC"},
		{SortMostVerified, "r.verification_count DESC, r.id ASC"},
		{SortPopularity, "r.view_count DESC, r.verification_count DESC, r.id ASC"},
		{SortMostViewed, "r.view_count DESC, r.id ASC"},
		{SortRelevance, "r.trust_level DESC, r.created_at DESC, r.id ASC"},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			st, err := Remedies.Build(Criteria{Sort: tt.sort, Page: 1, Limit: 12})
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.OrderBy)
		})
	}
}

func TestBuild_UnsupportedStoryFilters(t *testing.T) {
	prep := 10
	tests := []struct {
		name string
		c    Criteria
	}{
		{"difficulty", Criteria{Difficulties: []models.Difficulty{models.DifficultyEasy}}},
		{"region", Criteria{Regions: []string{"Bali"}}},
		{"prep time", Criteria{PreparationTimeMax: &prep}},
		{"ingredients", Criteria{Ingredients: []string{"jahe"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Stories.Build(tt.c)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, "stories")
		})
	}

	_, err := Remedies.Build(Criteria{TimePeriods: []string{"Majapahit"}})
	assert.Error(t, err, "time period is a story-only filter")
}

func TestBuild_StoryTimePeriod(t *testing.T) {
	st, err := Stories.Build(Criteria{TimePeriods: []string{"abad ke-14"}, Sort: SortMostViewed, Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Contains(t, st.Where, "s.time_period ILIKE ANY($1::text[])")
	assert.Equal(t, "s.view_count DESC, s.id ASC", st.OrderBy)
}

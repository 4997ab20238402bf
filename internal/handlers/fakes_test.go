// fakes_test.go provides in-memory repositories and request helpers for the
// handler tests, so they run without PostgreSQL or Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
	"unseenindonesia/internal/store"
	"unseenindonesia/internal/viewcount"
)

var errBoom = errors.New("boom")

// ---------- remedies ----------

type fakeRemedies struct {
	items    map[uuid.UUID]*models.Remedy
	// ratings are computed from the fixture's testimonials
	testimonials *fakeTestimonials
	ratingErr    error
	created  []*store.NewRemedy
	patches  []store.RemedyPatch
	archived []uuid.UUID
	calls    int
	err      error
}

func newFakeRemedies() *fakeRemedies {
	return &fakeRemedies{items: map[uuid.UUID]*models.Remedy{}}
}

func (f *fakeRemedies) add(r models.Remedy) *models.Remedy {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = models.StatusPublished
	}
	f.items[r.ID] = &r
	return &r
}

// published returns published remedies ordered like the store would for
// the sorts the tests use.
func (f *fakeRemedies) published(c search.Criteria) []models.Remedy {
	var out []models.Remedy
	for _, r := range f.items {
		if r.IsPublished() {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		switch c.Sort {
		case search.SortTrustLevel:
			if out[i].TrustLevel != out[j].TrustLevel {
				return out[i].TrustLevel > out[j].TrustLevel
			}
		case search.SortAlphabetical:
			return out[i].Title < out[j].Title
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func window[T any](all []T, c search.Criteria) []T {
	start := min(c.Offset(), len(all))
	end := min(start+c.Limit, len(all))
	return all[start:end]
}

func (f *fakeRemedies) List(_ context.Context, c search.Criteria) ([]models.RemedySummary, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	all := f.published(c)
	var items []models.RemedySummary
	for _, r := range window(all, c) {
		items = append(items, models.RemedySummary{Remedy: r})
	}
	return items, len(all), nil
}

func (f *fakeRemedies) Search(_ context.Context, c search.Criteria) ([]models.RemedySearchResult, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	var hits []models.Remedy
	for _, r := range f.published(c) {
		if strings.Contains(strings.ToLower(r.Title), strings.ToLower(c.Query)) {
			hits = append(hits, r)
		}
	}
	var out []models.RemedySearchResult
	for _, r := range window(hits, c) {
		out = append(out, models.RemedySearchResult{Remedy: r, RelevanceScore: 10, Snippet: r.Title})
	}
	return out, len(hits), nil
}

func (f *fakeRemedies) FindByID(_ context.Context, id uuid.UUID) (*models.Remedy, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRemedies) Detail(ctx context.Context, id uuid.UUID) (*models.RemedyDetail, error) {
	r, err := f.FindByID(ctx, id)
	if r == nil || err != nil {
		return nil, err
	}
	d := &models.RemedyDetail{Remedy: *r}
	d.Finalize()
	return d, nil
}

func (f *fakeRemedies) Rating(ctx context.Context, id uuid.UUID) (float64, int, error) {
	if f.ratingErr != nil {
		return 0, 0, f.ratingErr
	}
	if f.testimonials == nil {
		return 0, 0, nil
	}
	verified, _ := f.testimonials.List(ctx, id, true)
	return models.AverageRating(verified), len(verified), nil
}

func (f *fakeRemedies) Create(_ context.Context, in *store.NewRemedy) (*models.Remedy, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return f.add(in.Remedy), nil
}

func (f *fakeRemedies) Update(_ context.Context, id uuid.UUID, p store.RemedyPatch) (*models.Remedy, error) {
	f.calls++
	r, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	f.patches = append(f.patches, p)
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRemedies) Archive(_ context.Context, id uuid.UUID) error {
	f.archived = append(f.archived, id)
	if r, ok := f.items[id]; ok {
		r.Status = models.StatusArchived
	}
	return nil
}

func (f *fakeRemedies) Regions(context.Context) ([]models.Region, error) {
	f.calls++
	return []models.Region{{Region: "Jawa Tengah", RemedyCount: 2}}, nil
}

// ---------- stories ----------

type fakeStories struct {
	items   map[uuid.UUID]*models.Story
	created []*store.NewStory
	markers []models.MapMarker
	calls   int
}

func newFakeStories() *fakeStories {
	return &fakeStories{items: map[uuid.UUID]*models.Story{}}
}

func (f *fakeStories) add(s models.Story) *models.Story {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = models.StatusPublished
	}
	f.items[s.ID] = &s
	return &s
}

func (f *fakeStories) List(_ context.Context, c search.Criteria) ([]models.StorySummary, int, error) {
	f.calls++
	if _, err := search.Stories.Build(c); err != nil {
		return nil, 0, err
	}
	var out []models.StorySummary
	for _, s := range f.items {
		if s.IsPublished() {
			out = append(out, models.StorySummary{Story: *s})
		}
	}
	return window(out, c), len(out), nil
}

func (f *fakeStories) Search(_ context.Context, q string, limit int) ([]models.StorySummary, error) {
	f.calls++
	var out []models.StorySummary
	for _, s := range f.items {
		if s.IsPublished() && strings.Contains(strings.ToLower(s.Title), strings.ToLower(q)) && len(out) < limit {
			out = append(out, models.StorySummary{Story: *s})
		}
	}
	return out, nil
}

func (f *fakeStories) FindByID(_ context.Context, id uuid.UUID) (*models.Story, error) {
	f.calls++
	s, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStories) Detail(ctx context.Context, id uuid.UUID) (*models.StoryDetail, error) {
	s, _ := f.FindByID(ctx, id)
	if s == nil {
		return nil, nil
	}
	d := &models.StoryDetail{Story: *s}
	d.Finalize()
	return d, nil
}

func (f *fakeStories) Create(_ context.Context, in *store.NewStory) (*models.Story, error) {
	f.calls++
	f.created = append(f.created, in)
	return f.add(in.Story), nil
}

func (f *fakeStories) Update(_ context.Context, id uuid.UUID, p store.StoryPatch) (*models.Story, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Latitude != nil {
		s.Latitude, s.Longitude = p.Latitude, p.Longitude
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStories) Archive(_ context.Context, id uuid.UUID) error {
	if s, ok := f.items[id]; ok {
		s.Status = models.StatusArchived
	}
	return nil
}

func (f *fakeStories) MapMarkers(_ context.Context, categoryID *uuid.UUID) ([]models.MapMarker, error) {
	var out []models.MapMarker
	for _, m := range f.markers {
		if categoryID == nil || m.CategoryID == *categoryID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ---------- feedback ----------

type fakeTestimonials struct {
	items map[uuid.UUID]*models.Testimonial
}

func newFakeTestimonials() *fakeTestimonials {
	return &fakeTestimonials{items: map[uuid.UUID]*models.Testimonial{}}
}

func (f *fakeTestimonials) List(_ context.Context, remedyID uuid.UUID, verifiedOnly bool) ([]models.Testimonial, error) {
	var out []models.Testimonial
	for _, t := range f.items {
		if t.RemedyID == remedyID && (!verifiedOnly || t.IsVerified) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTestimonials) FindByID(_ context.Context, id uuid.UUID) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTestimonials) Exists(_ context.Context, userID, remedyID uuid.UUID) (bool, error) {
	for _, t := range f.items {
		if t.UserID == userID && t.RemedyID == remedyID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTestimonials) Create(_ context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	cp := *t
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	f.items[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeTestimonials) Update(_ context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	if _, ok := f.items[t.ID]; !ok {
		return nil, nil
	}
	cp := *t
	cp.IsVerified = false
	f.items[t.ID] = &cp
	return &cp, nil
}

func (f *fakeTestimonials) Approve(_ context.Context, id uuid.UUID) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	t.IsVerified = true
	cp := *t
	return &cp, nil
}

type fakeRemedyVerifications struct {
	items   map[uuid.UUID]*models.RemedyVerification
	filters []store.VerificationFilter
}

func newFakeRemedyVerifications() *fakeRemedyVerifications {
	return &fakeRemedyVerifications{items: map[uuid.UUID]*models.RemedyVerification{}}
}

func (f *fakeRemedyVerifications) List(_ context.Context, flt store.VerificationFilter) ([]models.RemedyVerification, error) {
	f.filters = append(f.filters, flt)
	var out []models.RemedyVerification
	for _, v := range f.items {
		if v.RemedyID == flt.RemedyID && (!flt.VerifiedOnly || v.IsVerified) &&
			(flt.Type == "" || v.VerificationType == flt.Type) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeRemedyVerifications) FindByID(_ context.Context, id uuid.UUID) (*models.RemedyVerification, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeRemedyVerifications) Exists(_ context.Context, userID, remedyID uuid.UUID, kind models.RemedyVerificationType) (bool, error) {
	for _, v := range f.items {
		if v.UserID == userID && v.RemedyID == remedyID && v.VerificationType == kind {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRemedyVerifications) Create(_ context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error) {
	cp := *v
	cp.ID = uuid.New()
	f.items[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeRemedyVerifications) Update(_ context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error) {
	cp := *v
	cp.IsVerified = false
	f.items[v.ID] = &cp
	return &cp, nil
}

func (f *fakeRemedyVerifications) Approve(_ context.Context, id uuid.UUID) (*models.RemedyVerification, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	v.IsVerified = true
	cp := *v
	return &cp, nil
}

type fakeStoryVerifications struct {
	items map[uuid.UUID]*models.StoryVerification
}

func newFakeStoryVerifications() *fakeStoryVerifications {
	return &fakeStoryVerifications{items: map[uuid.UUID]*models.StoryVerification{}}
}

func (f *fakeStoryVerifications) List(_ context.Context, flt store.StoryVerificationFilter) ([]models.StoryVerification, error) {
	var out []models.StoryVerification
	for _, v := range f.items {
		if v.StoryID == flt.StoryID && (!flt.VerifiedOnly || v.IsVerified) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeStoryVerifications) FindByID(_ context.Context, id uuid.UUID) (*models.StoryVerification, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStoryVerifications) Exists(_ context.Context, userID, storyID uuid.UUID, kind models.StoryVerificationType) (bool, error) {
	for _, v := range f.items {
		if v.UserID == userID && v.StoryID == storyID && v.VerificationType == kind {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStoryVerifications) Create(_ context.Context, v *models.StoryVerification) (*models.StoryVerification, error) {
	cp := *v
	cp.ID = uuid.New()
	f.items[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeStoryVerifications) Update(_ context.Context, v *models.StoryVerification) (*models.StoryVerification, error) {
	cp := *v
	cp.IsVerified = false
	f.items[v.ID] = &cp
	return &cp, nil
}

func (f *fakeStoryVerifications) Approve(_ context.Context, id uuid.UUID) (*models.StoryVerification, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	v.IsVerified = true
	cp := *v
	return &cp, nil
}

// ---------- lookups ----------

type fakeCategories struct {
	remedy  []models.RemedyCategory
	story   []models.Category
	listed  int
	created []*models.RemedyCategory
	err     error
}

func (f *fakeCategories) List(_ context.Context, includeCount bool) ([]models.RemedyCategory, error) {
	f.listed++
	return f.remedy, nil
}

func (f *fakeCategories) Create(_ context.Context, c *models.RemedyCategory) (*models.RemedyCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, c)
	cp := *c
	cp.ID = uuid.New()
	return &cp, nil
}

func (f *fakeCategories) ListStoryCategories(context.Context) ([]models.Category, error) {
	f.listed++
	return f.story, nil
}

func (f *fakeCategories) SearchStoryCategories(_ context.Context, q string, limit int) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.story {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLocations struct {
	items    []models.Location
	searched []string
	err      error
}

func (f *fakeLocations) List(_ context.Context, typ models.LocationType) ([]models.Location, error) {
	var out []models.Location
	for _, l := range f.items {
		if typ == "" || l.Type == typ {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocations) Search(_ context.Context, q string, limit int) ([]models.Location, error) {
	f.searched = append(f.searched, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Location
	for _, l := range f.items {
		if strings.Contains(strings.ToLower(l.Name), strings.ToLower(q)) {
			out = append(out, l)
		}
	}
	return out, nil
}

// ---------- ambient ----------

type memResponses struct {
	data        map[string][]byte
	invalidated []string
}

func newMemResponses() *memResponses { return &memResponses{data: map[string][]byte{}} }

func (m *memResponses) Get(_ context.Context, key string, v any) bool {
	b, ok := m.data[key]
	return ok && json.Unmarshal(b, v) == nil
}

func (m *memResponses) Set(_ context.Context, key string, v any) {
	b, _ := json.Marshal(v)
	m.data[key] = b
}

func (m *memResponses) Invalidate(_ context.Context, key string) {
	m.invalidated = append(m.invalidated, key)
	delete(m.data, key)
}

func (m *memResponses) InvalidatePrefix(_ context.Context, prefix string) {
	m.invalidated = append(m.invalidated, prefix+"*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
}

type recordedView struct {
	kind viewcount.Kind
	id   uuid.UUID
}

type fakeViews struct{ views []recordedView }

func (f *fakeViews) Record(kind viewcount.Kind, id uuid.UUID) error {
	f.views = append(f.views, recordedView{kind, id})
	return nil
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) NewKey(folder, ext string) string { return folder + "/2026/10/test" + ext }

func (f *fakeUploader) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.key, f.contentType = key, contentType
	f.body, _ = io.ReadAll(body)
	return nil
}

func (f *fakeUploader) FileURL(key string) string { return "https://cdn.example/" + key }

// ---------- harness ----------

type fixture struct {
	api                 *API
	remedies            *fakeRemedies
	stories             *fakeStories
	testimonials        *fakeTestimonials
	remedyVerifications *fakeRemedyVerifications
	storyVerifications  *fakeStoryVerifications
	categories          *fakeCategories
	locations           *fakeLocations
	cache               *memResponses
	views               *fakeViews
	uploads             *fakeUploader
}

func newFixture() *fixture {
	f := &fixture{
		remedies:            newFakeRemedies(),
		stories:             newFakeStories(),
		testimonials:        newFakeTestimonials(),
		remedyVerifications: newFakeRemedyVerifications(),
		storyVerifications:  newFakeStoryVerifications(),
		categories:          &fakeCategories{},
		locations:           &fakeLocations{},
		cache:               newMemResponses(),
		views:               &fakeViews{},
		uploads:             &fakeUploader{},
	}
	f.remedies.testimonials = f.testimonials
	f.api = NewAPI(Deps{
		Remedies:            f.remedies,
		Stories:             f.stories,
		Testimonials:        f.testimonials,
		RemedyVerifications: f.remedyVerifications,
		StoryVerifications:  f.storyVerifications,
		Categories:          f.categories,
		Locations:           f.locations,
		Cache:               f.cache,
		Views:               f.views,
		Uploads:             f.uploads,
		Map:                 MapConfig{Token: "pk.test", Style: "mapbox://styles/test"},
	})
	return f
}

func testUser() *identity.User {
	return &identity.User{ID: uuid.New(), Email: "wayan@example.com", Role: models.RoleMember}
}

// request builds a request with an optional JSON body, chi URL params
// given as key/value pairs, and an optional signed-in user.
func request(method, target string, body any, u *identity.User, params ...string) *http.Request {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if u != nil {
		ctx = middleware.ContextWithUser(ctx, u)
	}
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// decode unmarshals a JSON response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, want int, contains string) {
	t.Helper()
	expectStatus(t, rec, want)
	body := decode(t, rec)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, contains) {
		t.Errorf("error: got %q, want it to contain %q", msg, contains)
	}
}

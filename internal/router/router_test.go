// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"unseenindonesia/internal/handlers"
	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
)

type tokenResolver map[string]models.Role

func (t tokenResolver) Resolve(_ context.Context, token string) (*identity.User, error) {
	role, ok := t[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &identity.User{ID: uuid.New(), Email: token + "@example.com", Role: role}, nil
}

// noTestimonials is an empty moderation queue.
type noTestimonials struct{}

func (noTestimonials) List(context.Context, uuid.UUID, bool) ([]models.Testimonial, error) {
	return nil, nil
}
func (noTestimonials) FindByID(context.Context, uuid.UUID) (*models.Testimonial, error) {
	return nil, nil
}
func (noTestimonials) Exists(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }
func (noTestimonials) Create(_ context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	return t, nil
}
func (noTestimonials) Update(_ context.Context, t *models.Testimonial) (*models.Testimonial, error) {
	return t, nil
}
func (noTestimonials) Approve(context.Context, uuid.UUID) (*models.Testimonial, error) {
	return nil, nil
}

func newTestRouter(limiter *middleware.RateLimiter) http.Handler {
	api := handlers.NewAPI(handlers.Deps{
		Testimonials: noTestimonials{},
		Map:          handlers.MapConfig{Token: "pk.test"},
	})
	auth := handlers.NewAuth(nil, nil, "http://localhost:3000/auth/callback", false)
	resolver := tokenResolver{"member": models.RoleMember, "moderator": models.RoleModerator}
	return New(resolver, limiter, api, auth)
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestWritesRequireSession(t *testing.T) {
	h := newTestRouter(nil)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/remedies"},
		{http.MethodPut, "/remedies/" + uuid.NewString()},
		{http.MethodDelete, "/remedies/" + uuid.NewString()},
		{http.MethodPost, "/remedies/categories"},
		{http.MethodPost, "/remedies/" + uuid.NewString() + "/testimonials"},
		{http.MethodPut, "/remedies/" + uuid.NewString() + "/verifications"},
		{http.MethodPost, "/stories"},
		{http.MethodDelete, "/stories/" + uuid.NewString()},
		{http.MethodPost, "/stories/" + uuid.NewString() + "/verifications"},
		{http.MethodPost, "/uploads"},
		{http.MethodPost, "/moderation/testimonials/" + uuid.NewString() + "/approve"},
	}
	for _, rt := range routes {
		for _, token := range []string{"", "forged"} {
			rec := do(h, rt.method, rt.path, token)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s (token %q): got %d, want 401", rt.method, rt.path, token, rec.Code)
			}
		}
	}
}

func TestModerationRequiresRole(t *testing.T) {
	h := newTestRouter(nil)
	path := "/moderation/testimonials/" + uuid.NewString() + "/approve"

	if rec := do(h, http.MethodPost, path, "member"); rec.Code != http.StatusForbidden {
		t.Errorf("member: got %d, want 403", rec.Code)
	}
	rec := do(h, http.MethodPost, path, "moderator")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Testimonial not found") {
		t.Errorf("moderator: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLiteralRoutesBeatIDs(t *testing.T) {
	h := newTestRouter(nil)

	// Reaches the search handler, which rejects the one-letter query
	// without touching a store.
	rec := do(h, http.MethodGet, "/remedies/search?q=a", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "at least 2 characters") {
		t.Errorf("/remedies/search: got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/remedies/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid id") {
		t.Errorf("/remedies/{id}: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPublicLookups(t *testing.T) {
	h := newTestRouter(nil)

	rec := do(h, http.MethodGet, "/map/config", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pk.test") {
		t.Errorf("/map/config: got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	rec = do(h, http.MethodGet, "/search?q=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("/search: got %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/auth/session", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("/auth/session: got %d", rec.Code)
	}
}

func TestUnknownRoutesAnswerJSON(t *testing.T) {
	h := newTestRouter(nil)

	rec := do(h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("not found: got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(h, http.MethodPatch, "/health", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("method not allowed: got %d", rec.Code)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := newTestRouter(limiter)

	for i := 0; i < 2; i++ {
		if rec := do(h, http.MethodPost, "/remedies", ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("write %d: got %d", i, rec.Code)
		}
	}
	if rec := do(h, http.MethodPost, "/remedies", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third write: got %d, want 429", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/map/config", ""); rec.Code != http.StatusOK {
		t.Errorf("reads must not be limited: got %d", rec.Code)
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the UnseenIndonesia JSON
// API. Handlers are grouped by concern (content API, auth) and receive
// their dependencies through the handler struct as interfaces, so tests
// can substitute in-memory fakes.
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
	"unseenindonesia/internal/store"
	"unseenindonesia/internal/viewcount"
)

// RemedyRepo persists remedies.
type RemedyRepo interface {
	List(ctx context.Context, c search.Criteria) ([]models.RemedySummary, int, error)
	Search(ctx context.Context, c search.Criteria) ([]models.RemedySearchResult, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Remedy, error)
	Detail(ctx context.Context, id uuid.UUID) (*models.RemedyDetail, error)
	Create(ctx context.Context, in *store.NewRemedy) (*models.Remedy, error)
	Update(ctx context.Context, id uuid.UUID, p store.RemedyPatch) (*models.Remedy, error)
	Archive(ctx context.Context, id uuid.UUID) error
	Regions(ctx context.Context) ([]models.Region, error)
	Rating(ctx context.Context, id uuid.UUID) (avg float64, count int, err error)
}

// StoryRepo persists stories.
type StoryRepo interface {
	List(ctx context.Context, c search.Criteria) ([]models.StorySummary, int, error)
	Search(ctx context.Context, q string, limit int) ([]models.StorySummary, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	Detail(ctx context.Context, id uuid.UUID) (*models.StoryDetail, error)
	Create(ctx context.Context, in *store.NewStory) (*models.Story, error)
	Update(ctx context.Context, id uuid.UUID, p store.StoryPatch) (*models.Story, error)
	Archive(ctx context.Context, id uuid.UUID) error
	MapMarkers(ctx context.Context, categoryID *uuid.UUID) ([]models.MapMarker, error)
}

// TestimonialRepo persists remedy testimonials.
type TestimonialRepo interface {
	List(ctx context.Context, remedyID uuid.UUID, verifiedOnly bool) ([]models.Testimonial, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Testimonial, error)
	Exists(ctx context.Context, userID, remedyID uuid.UUID) (bool, error)
	Create(ctx context.Context, t *models.Testimonial) (*models.Testimonial, error)
	Update(ctx context.Context, t *models.Testimonial) (*models.Testimonial, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Testimonial, error)
}

// RemedyVerificationRepo persists remedy verifications.
type RemedyVerificationRepo interface {
	List(ctx context.Context, f store.VerificationFilter) ([]models.RemedyVerification, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RemedyVerification, error)
	Exists(ctx context.Context, userID, remedyID uuid.UUID, kind models.RemedyVerificationType) (bool, error)
	Create(ctx context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error)
	Update(ctx context.Context, v *models.RemedyVerification) (*models.RemedyVerification, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.RemedyVerification, error)
}

// StoryVerificationRepo persists story verifications.
type StoryVerificationRepo interface {
	List(ctx context.Context, f store.StoryVerificationFilter) ([]models.StoryVerification, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.StoryVerification, error)
	Exists(ctx context.Context, userID, storyID uuid.UUID, kind models.StoryVerificationType) (bool, error)
	Create(ctx context.Context, v *models.StoryVerification) (*models.StoryVerification, error)
	Update(ctx context.Context, v *models.StoryVerification) (*models.StoryVerification, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.StoryVerification, error)
}

// CategoryRepo persists remedy and story categories.
type CategoryRepo interface {
	List(ctx context.Context, includeCount bool) ([]models.RemedyCategory, error)
	Create(ctx context.Context, c *models.RemedyCategory) (*models.RemedyCategory, error)
	ListStoryCategories(ctx context.Context) ([]models.Category, error)
	SearchStoryCategories(ctx context.Context, q string, limit int) ([]models.Category, error)
}

// LocationRepo reads locations.
type LocationRepo interface {
	List(ctx context.Context, typ models.LocationType) ([]models.Location, error)
	Search(ctx context.Context, q string, limit int) ([]models.Location, error)
}

// ResponseCache caches rarely changing responses. Implementations treat
// their own failures as misses.
type ResponseCache interface {
	Get(ctx context.Context, key string, v any) bool
	Set(ctx context.Context, key string, v any)
	Invalidate(ctx context.Context, key string)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// ViewRecorder counts a detail view in the background.
type ViewRecorder interface {
	Record(kind viewcount.Kind, id uuid.UUID) error
}

// Uploader stores images in object storage.
type Uploader interface {
	NewKey(folder, ext string) string
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// MapConfig is handed to map clients as-is.
type MapConfig struct {
	Token string
	Style string
}

// Deps bundles the API's collaborators. Cache, Views and Uploads may be
// nil: responses are then uncached, views uncounted and uploads answer 503.
type Deps struct {
	Remedies            RemedyRepo
	Stories             StoryRepo
	Testimonials        TestimonialRepo
	RemedyVerifications RemedyVerificationRepo
	StoryVerifications  StoryVerificationRepo
	Categories          CategoryRepo
	Locations           LocationRepo
	Cache               ResponseCache
	Views               ViewRecorder
	Uploads             Uploader
	Map                 MapConfig
	QueryTimeout        time.Duration
}

// API groups the content endpoints.
type API struct {
	Deps
}

// NewAPI creates the content API.
func NewAPI(d Deps) *API {
	if d.QueryTimeout <= 0 {
		d.QueryTimeout = 10 * time.Second
	}
	return &API{Deps: d}
}

// dbCtx bounds the persistence work of one request.
func (a *API) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.QueryTimeout)
}

func (a *API) cacheGet(ctx context.Context, key string, v any) bool {
	return a.Cache != nil && a.Cache.Get(ctx, key, v)
}

func (a *API) cacheSet(ctx context.Context, key string, v any) {
	if a.Cache != nil {
		a.Cache.Set(ctx, key, v)
	}
}

func (a *API) recordView(kind viewcount.Kind, id uuid.UUID) {
	if a.Views == nil {
		return
	}
	if err := a.Views.Record(kind, id); err != nil {
		slog.Debug("view not recorded", "kind", kind, "id", id, "error", err)
	}
}

// fail answers err. Errors caused by the request itself get a 400;
// anything else is logged and answered with a generic 500.
func fail(w http.ResponseWriter, err error, msg string, attrs ...any) {
	var verr *search.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusBadRequest, "A record with these values already exists")
		return
	case errors.Is(err, store.ErrUnknownReference):
		writeError(w, http.StatusBadRequest, "Referenced category or location does not exist")
		return
	}
	slog.Error(msg, append(attrs, "error", err)...)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

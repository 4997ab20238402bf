// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"unseenindonesia/internal/geo"
	"unseenindonesia/internal/markdown"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
	"unseenindonesia/internal/search"
	"unseenindonesia/internal/store"
	"unseenindonesia/internal/viewcount"
)

// maxGroupKm caps the proximity radius clients may ask for.
const maxGroupKm = 1000

type sourceRequest struct {
	SourceType        string  `json:"source_type"`
	SourceTitle       *string `json:"source_title"`
	SourceAuthor      *string `json:"source_author"`
	SourceURL         *string `json:"source_url"`
	SourceDescription *string `json:"source_description"`
}

type storyRequest struct {
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	Summary           *string         `json:"summary"`
	CategoryID        string          `json:"category_id"`
	LocationID        *string         `json:"location_id"`
	TimePeriod        *string         `json:"time_period"`
	HistoricalFigures []string        `json:"historical_figures"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	Status            models.Status   `json:"status"`
	Metadata          json.RawMessage `json:"metadata"`
	Images            []imageRequest  `json:"images"`
	Sources           []sourceRequest `json:"sources"`
}

type storyPatchRequest struct {
	Title             *string        `json:"title"`
	Content           *string        `json:"content"`
	Summary           *string        `json:"summary"`
	CategoryID        *string        `json:"category_id"`
	LocationID        *string        `json:"location_id"`
	TimePeriod        *string        `json:"time_period"`
	HistoricalFigures *[]string      `json:"historical_figures"`
	Latitude          *float64       `json:"latitude"`
	Longitude         *float64       `json:"longitude"`
	Status            *models.Status `json:"status"`
}

type storyListResponse struct {
	search.Page[models.StorySummary]
	SearchQuery string `json:"search_query,omitempty"`
}

// markerGroup is a set of map markers close enough to share a pin.
type markerGroup struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	StoryIDs  []uuid.UUID `json:"story_ids"`
	Count     int         `json:"count"`
}

// ListStories handles GET /stories.
func (a *API) ListStories(w http.ResponseWriter, r *http.Request) {
	c, err := search.ParseQuery(r.URL.Query(), search.Defaults{Limit: 12, Sort: search.SortNewest})
	if err != nil {
		fail(w, err, "parse story filters")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	items, total, err := a.Stories.List(ctx, c)
	if err != nil {
		fail(w, err, "list stories")
		return
	}
	writeJSON(w, http.StatusOK, storyListResponse{
		Page:        search.NewPage(items, total, c),
		SearchQuery: c.Query,
	})
}

// GetStory handles GET /stories/{id}. The Markdown body is rendered to
// HTML alongside the raw content.
func (a *API) GetStory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	d, err := a.Stories.Detail(ctx, id)
	if err != nil {
		fail(w, err, "load story", "story_id", id)
		return
	}
	if d == nil {
		notFound(w, "Story")
		return
	}
	if !d.IsPublished() {
		u := middleware.UserFromCtx(r.Context())
		if u == nil || !d.IsAuthoredBy(u.ID) {
			notFound(w, "Story")
			return
		}
	} else {
		a.recordView(viewcount.Story, id)
	}

	html, err := markdown.ToHTML(d.Content)
	if err != nil {
		slog.Warn("render story content failed", "story_id", id, "error", err)
	}
	d.ContentHTML = html

	writeJSON(w, http.StatusOK, map[string]any{"story": d})
}

// CreateStory handles POST /stories.
func (a *API) CreateStory(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req storyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, msg := req.toNewStory(u.ID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	created, err := a.Stories.Create(ctx, in)
	if err != nil {
		fail(w, err, "create story", "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"story": created})
}

func (req *storyRequest) toNewStory(author uuid.UUID) (*store.NewStory, string) {
	if msg := firstError(
		requireText("title", req.Title, maxTitleLen),
		requireText("content", req.Content, maxBodyLen),
		optionalText("summary", req.Summary, maxSummaryLen),
		optionalText("time_period", req.TimePeriod, maxShortFieldLen),
		validateList("historical_figures", req.HistoricalFigures),
		validateCoordinates(req.Latitude, req.Longitude),
		validateMetadata(req.Metadata),
		validateImages(req.Images),
		validateSources(req.Sources),
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
	status := req.Status
	if status == "" {
		status = models.StatusPublished
	}
	if msg := validateAuthorStatus(&status); msg != "" {
		return nil, msg
	}

	metadata := req.Metadata
	if string(metadata) == "null" {
		metadata = nil
	}
	in := &store.NewStory{
		Story: models.Story{
			Title:             strings.TrimSpace(req.Title),
			Content:           req.Content,
			Summary:           storySummary(req.Summary, req.Content),
			AuthorID:          &author,
			LocationID:        locationID,
			CategoryID:        categoryID,
			TimePeriod:        optString(req.TimePeriod),
			HistoricalFigures: req.HistoricalFigures,
			Latitude:          req.Latitude,
			Longitude:         req.Longitude,
			Status:            status,
			Metadata:          metadata,
		},
		Images: toImages(req.Images),
	}
	for _, s := range req.Sources {
		in.Sources = append(in.Sources, models.StorySource{
			SourceType:        models.SourceType(s.SourceType),
			SourceTitle:       optString(s.SourceTitle),
			SourceAuthor:      optString(s.SourceAuthor),
			SourceURL:         optString(s.SourceURL),
			SourceDescription: optString(s.SourceDescription),
		})
	}
	return in, ""
}

// storySummary keeps the author's summary, or derives one from the
// opening of the content so list cards always have text.
func storySummary(summary *string, content string) *string {
	if s := optString(summary); s != nil {
		return s
	}
	if ex := markdown.Excerpt(content, excerptLen); ex != "" {
		return &ex
	}
	return nil
}

// UpdateStory handles PUT /stories/{id}. Only the author may edit.
func (a *API) UpdateStory(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req storyPatchRequest
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

	if !a.ownStory(ctx, w, id, u.ID) {
		return
	}
	updated, err := a.Stories.Update(ctx, id, patch)
	if err != nil {
		fail(w, err, "update story", "story_id", id)
		return
	}
	if updated == nil {
		notFound(w, "Story")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"story": updated})
}

func (req *storyPatchRequest) toPatch() (store.StoryPatch, string) {
	p := store.StoryPatch{
		Summary:           req.Summary,
		TimePeriod:        req.TimePeriod,
		HistoricalFigures: req.HistoricalFigures,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Status:            req.Status,
	}
	if req.Title != nil {
		if msg := requireText("title", *req.Title, maxTitleLen); msg != "" {
			return p, msg
		}
		title := strings.TrimSpace(*req.Title)
		p.Title = &title
	}
	if req.Content != nil {
		if msg := requireText("content", *req.Content, maxBodyLen); msg != "" {
			return p, msg
		}
		p.Content = req.Content
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
	var figures []string
	if req.HistoricalFigures != nil {
		figures = *req.HistoricalFigures
	}
	return p, firstError(
		optionalText("summary", req.Summary, maxSummaryLen),
		optionalText("time_period", req.TimePeriod, maxShortFieldLen),
		validateList("historical_figures", figures),
		validateCoordinates(req.Latitude, req.Longitude),
		validateAuthorStatus(req.Status),
	)
}

// DeleteStory handles DELETE /stories/{id} by archiving the story.
func (a *API) DeleteStory(w http.ResponseWriter, r *http.Request) {
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

	if !a.ownStory(ctx, w, id, u.ID) {
		return
	}
	if err := a.Stories.Archive(ctx, id); err != nil {
		fail(w, err, "archive story", "story_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Story deleted successfully"})
}

// ownStory answers 404 or 403 unless the story exists and userID wrote it.
func (a *API) ownStory(ctx context.Context, w http.ResponseWriter, id, userID uuid.UUID) bool {
	s, err := a.Stories.FindByID(ctx, id)
	if err != nil {
		fail(w, err, "load story", "story_id", id)
		return false
	}
	if s == nil {
		notFound(w, "Story")
		return false
	}
	if !s.IsAuthoredBy(userID) {
		forbidden(w)
		return false
	}
	return true
}

// StoryMap handles GET /stories/map, the marker feed for the map view.
// Markers closer than group_km share a group.
func (a *API) StoryMap(w http.ResponseWriter, r *http.Request) {
	var categoryID *uuid.UUID
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid category_id")
			return
		}
		categoryID = &id
	}
	groupKm := geo.DefaultGroupKm
	if raw := r.URL.Query().Get("group_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > maxGroupKm {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("group_km must be a number between 0 and %d", maxGroupKm))
			return
		}
		groupKm = v
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	markers, err := a.Stories.MapMarkers(ctx, categoryID)
	if err != nil {
		fail(w, err, "list map markers")
		return
	}
	if markers == nil {
		markers = []models.MapMarker{}
	}

	points := make([]geo.Point, len(markers))
	for i, m := range markers {
		points[i] = geo.Point{Lat: m.Latitude, Lng: m.Longitude}
	}
	var bounds *geo.Box
	if box, ok := geo.Bounds(points); ok {
		bounds = &box
	}
	groups := []markerGroup{}
	for _, idx := range geo.Group(points, groupKm) {
		g := markerGroup{
			Latitude:  points[idx[0]].Lat,
			Longitude: points[idx[0]].Lng,
			Count:     len(idx),
		}
		for _, i := range idx {
			g.StoryIDs = append(g.StoryIDs, markers[i].ID)
		}
		groups = append(groups, g)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stories": markers,
		"bounds":  bounds,
		"groups":  groups,
	})
}

type storyVerificationRequest struct {
	VerificationType models.StoryVerificationType `json:"verification_type"`
	EvidenceText     string                       `json:"evidence_text"`
	EvidenceURL      *string                      `json:"evidence_url"`
}

func (req *storyVerificationRequest) validate() string {
	if !req.VerificationType.Valid() {
		return "Unknown verification_type"
	}
	text := strings.TrimSpace(req.EvidenceText)
	if utf8.RuneCountInString(text) < models.MinEvidenceLength {
		return fmt.Sprintf("evidence_text must be at least %d characters", models.MinEvidenceLength)
	}
	return firstError(
		optionalText("evidence_text", &text, maxFeedbackLen),
		validateHTTPURL("evidence_url", req.EvidenceURL),
	)
}

func (req *storyVerificationRequest) apply(v *models.StoryVerification) {
	v.VerificationType = req.VerificationType
	v.EvidenceText = strings.TrimSpace(req.EvidenceText)
	v.EvidenceURL = optString(req.EvidenceURL)
}

// publishedStory answers 404 unless the story exists and is published.
func (a *API) publishedStory(ctx context.Context, w http.ResponseWriter, id uuid.UUID) bool {
	s, err := a.Stories.FindByID(ctx, id)
	if err != nil {
		fail(w, err, "load story", "story_id", id)
		return false
	}
	if s == nil || !s.IsPublished() {
		notFound(w, "Story")
		return false
	}
	return true
}

// ListStoryVerifications handles GET /stories/{id}/verifications.
func (a *API) ListStoryVerifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	verifiedOnly, ok := queryBool(w, r, "verified_only", true)
	if !ok {
		return
	}
	kind := models.StoryVerificationType(r.URL.Query().Get("type"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown verification type")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if !a.publishedStory(ctx, w, id) {
		return
	}
	list, err := a.StoryVerifications.List(ctx, store.StoryVerificationFilter{
		StoryID:      id,
		VerifiedOnly: verifiedOnly,
		Type:         kind,
	})
	if err != nil {
		fail(w, err, "list story verifications", "story_id", id)
		return
	}
	if list == nil {
		list = []models.StoryVerification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verifications": list,
		"summary":       models.SummarizeStoryVerifications(list),
	})
}

// CreateStoryVerification handles POST /stories/{id}/verifications.
func (a *API) CreateStoryVerification(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req storyVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if !a.publishedStory(ctx, w, id) {
		return
	}
	exists, err := a.StoryVerifications.Exists(ctx, u.ID, id, req.VerificationType)
	if err != nil {
		fail(w, err, "check story verification", "story_id", id)
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "You have already submitted this type of verification for this story")
		return
	}

	v := &models.StoryVerification{StoryID: id, UserID: u.ID}
	req.apply(v)
	created, err := a.StoryVerifications.Create(ctx, v)
	if err != nil {
		fail(w, err, "create story verification", "story_id", id, "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"verification": created,
		"message":      "Verification submitted. " + pendingReview,
	})
}

// UpdateStoryVerification handles
// PUT /stories/{id}/verifications?verification_id=.
func (a *API) UpdateStoryVerification(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	storyID, ok := pathID(w, r)
	if !ok {
		return
	}
	vid, ok := queryID(w, r, "verification_id")
	if !ok {
		return
	}

	var req storyVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	v, err := a.StoryVerifications.FindByID(ctx, vid)
	if err != nil {
		fail(w, err, "load story verification", "verification_id", vid)
		return
	}
	if v == nil || v.StoryID != storyID {
		notFound(w, "Verification")
		return
	}
	if v.UserID != u.ID {
		forbidden(w)
		return
	}

	req.apply(v)
	updated, err := a.StoryVerifications.Update(ctx, v)
	if err != nil {
		fail(w, err, "update story verification", "verification_id", vid)
		return
	}
	if updated == nil {
		notFound(w, "Verification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verification": updated,
		"message":      "Verification updated. " + pendingReview,
	})
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
	"unseenindonesia/internal/store"
)

const pendingReview = "It will be visible once a moderator has reviewed it."

type testimonialRequest struct {
	Name               *string `json:"name"`
	Location           *string `json:"location"`
	Testimonial        string  `json:"testimonial"`
	Rating             int     `json:"rating"`
	UsageDuration      *string `json:"usage_duration"`
	HealthCondition    *string `json:"health_condition"`
	ResultsExperienced *string `json:"results_experienced"`
	WouldRecommend     *bool   `json:"would_recommend"`
}

func (req *testimonialRequest) validate() string {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return firstError(
		requireText("testimonial", req.Testimonial, maxFeedbackLen),
		optionalText("name", req.Name, maxShortFieldLen),
		optionalText("location", req.Location, maxShortFieldLen),
		optionalText("usage_duration", req.UsageDuration, maxShortFieldLen),
		optionalText("health_condition", req.HealthCondition, maxShortFieldLen),
		optionalText("results_experienced", req.ResultsExperienced, maxFeedbackLen),
	)
}

// apply copies the request onto t. Would-recommend defaults to true.
func (req *testimonialRequest) apply(t *models.Testimonial) {
	t.Name = optString(req.Name)
	t.Location = optString(req.Location)
	t.Testimonial = strings.TrimSpace(req.Testimonial)
	t.Rating = req.Rating
	t.UsageDuration = optString(req.UsageDuration)
	t.HealthCondition = optString(req.HealthCondition)
	t.ResultsExperienced = optString(req.ResultsExperienced)
	t.WouldRecommend = req.WouldRecommend == nil || *req.WouldRecommend
}

// publishedRemedy loads a remedy that feedback may be attached to. It
// answers 404 itself when the remedy is missing or not published.
func (a *API) publishedRemedy(ctx context.Context, w http.ResponseWriter, id uuid.UUID) (*models.Remedy, bool) {
	rem, err := a.Remedies.FindByID(ctx, id)
	if err != nil {
		fail(w, err, "load remedy", "remedy_id", id)
		return nil, false
	}
	if rem == nil || !rem.IsPublished() {
		notFound(w, "Remedy")
		return nil, false
	}
	return rem, true
}

// ListTestimonials handles GET /remedies/{id}/testimonials. Only approved
// testimonials are listed unless verified_only=false. The rating always
// covers approved testimonials, whatever the listing shows.
func (a *API) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	verifiedOnly, ok := queryBool(w, r, "verified_only", true)
	if !ok {
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if _, ok := a.publishedRemedy(ctx, w, id); !ok {
		return
	}
	list, err := a.Testimonials.List(ctx, id, verifiedOnly)
	if err != nil {
		fail(w, err, "list testimonials", "remedy_id", id)
		return
	}
	if list == nil {
		list = []models.Testimonial{}
	}
	avg, count, err := a.Remedies.Rating(ctx, id)
	if err != nil {
		fail(w, err, "rate remedy", "remedy_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"testimonials":      list,
		"avg_rating":        avg,
		"testimonial_count": count,
	})
}

// CreateTestimonial handles POST /remedies/{id}/testimonials. A user may
// leave one testimonial per remedy.
func (a *API) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req testimonialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if _, ok := a.publishedRemedy(ctx, w, id); !ok {
		return
	}
	exists, err := a.Testimonials.Exists(ctx, u.ID, id)
	if err != nil {
		fail(w, err, "check testimonial", "remedy_id", id)
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "You have already submitted a testimonial for this remedy")
		return
	}

	t := &models.Testimonial{RemedyID: id, UserID: u.ID}
	req.apply(t)
	created, err := a.Testimonials.Create(ctx, t)
	if err != nil {
		fail(w, err, "create testimonial", "remedy_id", id, "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"testimonial": created,
		"message":     "Testimonial submitted. " + pendingReview,
	})
}

// UpdateTestimonial handles PUT /remedies/{id}/testimonials?testimonial_id=.
// Edits send the testimonial back for review.
func (a *API) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	remedyID, ok := pathID(w, r)
	if !ok {
		return
	}
	tid, ok := queryID(w, r, "testimonial_id")
	if !ok {
		return
	}

	var req testimonialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	t, err := a.Testimonials.FindByID(ctx, tid)
	if err != nil {
		fail(w, err, "load testimonial", "testimonial_id", tid)
		return
	}
	if t == nil || t.RemedyID != remedyID {
		notFound(w, "Testimonial")
		return
	}
	if t.UserID != u.ID {
		forbidden(w)
		return
	}

	req.apply(t)
	updated, err := a.Testimonials.Update(ctx, t)
	if err != nil {
		fail(w, err, "update testimonial", "testimonial_id", tid)
		return
	}
	if updated == nil {
		notFound(w, "Testimonial")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"testimonial": updated,
		"message":     "Testimonial updated. " + pendingReview,
	})
}

type remedyVerificationRequest struct {
	VerificationType  models.RemedyVerificationType `json:"verification_type"`
	EvidenceText      string                        `json:"evidence_text"`
	EvidenceURL       *string                       `json:"evidence_url"`
	ConfidenceLevel   *int                          `json:"confidence_level"`
	IsPositive        *bool                         `json:"is_positive"`
	ExpertiseArea     *string                       `json:"expertise_area"`
	YearsOfExperience *int                          `json:"years_of_experience"`
	LocationContext   *string                       `json:"location_context"`
	AdditionalNotes   *string                       `json:"additional_notes"`
}

func (req *remedyVerificationRequest) validate() string {
	if !req.VerificationType.Valid() {
		return "Unknown verification_type"
	}
	return firstError(
		requireText("evidence_text", req.EvidenceText, maxFeedbackLen),
		validateHTTPURL("evidence_url", req.EvidenceURL),
		optionalRange("confidence_level", req.ConfidenceLevel, models.MinConfidence, models.MaxConfidence),
		optionalRange("years_of_experience", req.YearsOfExperience, 0, maxYearsPracticed),
		optionalText("expertise_area", req.ExpertiseArea, maxShortFieldLen),
		optionalText("location_context", req.LocationContext, maxShortFieldLen),
		optionalText("additional_notes", req.AdditionalNotes, maxFeedbackLen),
	)
}

// apply copies the request onto v, defaulting confidence to 3 and the
// verdict to positive.
func (req *remedyVerificationRequest) apply(v *models.RemedyVerification) {
	v.VerificationType = req.VerificationType
	v.EvidenceText = strings.TrimSpace(req.EvidenceText)
	v.EvidenceURL = optString(req.EvidenceURL)
	v.ConfidenceLevel = models.DefaultConfidence
	if req.ConfidenceLevel != nil {
		v.ConfidenceLevel = *req.ConfidenceLevel
	}
	v.IsPositive = req.IsPositive == nil || *req.IsPositive
	v.ExpertiseArea = optString(req.ExpertiseArea)
	v.YearsOfExperience = req.YearsOfExperience
	v.LocationContext = optString(req.LocationContext)
	v.AdditionalNotes = optString(req.AdditionalNotes)
}

// ListRemedyVerifications handles GET /remedies/{id}/verifications.
func (a *API) ListRemedyVerifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	verifiedOnly, ok := queryBool(w, r, "verified_only", true)
	if !ok {
		return
	}
	kind := models.RemedyVerificationType(r.URL.Query().Get("type"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown verification type")
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if _, ok := a.publishedRemedy(ctx, w, id); !ok {
		return
	}
	list, err := a.RemedyVerifications.List(ctx, store.VerificationFilter{
		RemedyID:     id,
		VerifiedOnly: verifiedOnly,
		Type:         kind,
	})
	if err != nil {
		fail(w, err, "list remedy verifications", "remedy_id", id)
		return
	}
	if list == nil {
		list = []models.RemedyVerification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verifications": list,
		"summary":       models.SummarizeRemedyVerifications(list),
	})
}

// CreateRemedyVerification handles POST /remedies/{id}/verifications. A
// user may submit each verification kind once per remedy.
func (a *API) CreateRemedyVerification(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req remedyVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	if _, ok := a.publishedRemedy(ctx, w, id); !ok {
		return
	}
	exists, err := a.RemedyVerifications.Exists(ctx, u.ID, id, req.VerificationType)
	if err != nil {
		fail(w, err, "check remedy verification", "remedy_id", id)
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "You have already submitted this type of verification for this remedy")
		return
	}

	v := &models.RemedyVerification{RemedyID: id, UserID: u.ID}
	req.apply(v)
	created, err := a.RemedyVerifications.Create(ctx, v)
	if err != nil {
		fail(w, err, "create remedy verification", "remedy_id", id, "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"verification": created,
		"message":      "Verification submitted. " + pendingReview,
	})
}

// UpdateRemedyVerification handles
// PUT /remedies/{id}/verifications?verification_id=.
func (a *API) UpdateRemedyVerification(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	remedyID, ok := pathID(w, r)
	if !ok {
		return
	}
	vid, ok := queryID(w, r, "verification_id")
	if !ok {
		return
	}

	var req remedyVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := a.dbCtx(r)
	defer cancel()

	v, err := a.RemedyVerifications.FindByID(ctx, vid)
	if err != nil {
		fail(w, err, "load remedy verification", "verification_id", vid)
		return
	}
	if v == nil || v.RemedyID != remedyID {
		notFound(w, "Verification")
		return
	}
	if v.UserID != u.ID {
		forbidden(w)
		return
	}

	req.apply(v)
	updated, err := a.RemedyVerifications.Update(ctx, v)
	if err != nil {
		fail(w, err, "update remedy verification", "verification_id", vid)
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

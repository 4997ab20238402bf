// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"unseenindonesia/internal/middleware"
)

// approve runs one approval and answers with the approved record under key.
// Role checks happen in the router.
func approve[T any](ctx context.Context, w http.ResponseWriter, r *http.Request, key, what string,
	fn func(ctx context.Context, id uuid.UUID) (*T, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	approved, err := fn(ctx, id)
	if err != nil {
		fail(w, err, "approve "+key, "id", id)
		return
	}
	if approved == nil {
		notFound(w, what)
		return
	}
	if u := middleware.UserFromCtx(r.Context()); u != nil {
		slog.Info("feedback approved", "kind", key, "id", id, "moderator_id", u.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{key: approved})
}

// ApproveTestimonial handles POST /moderation/testimonials/{id}/approve.
func (a *API) ApproveTestimonial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.dbCtx(r)
	defer cancel()
	approve(ctx, w, r, "testimonial", "Testimonial", a.Testimonials.Approve)
}

// ApproveRemedyVerification handles
// POST /moderation/remedy-verifications/{id}/approve. Approval may raise the
// remedy's trust level.
func (a *API) ApproveRemedyVerification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.dbCtx(r)
	defer cancel()
	approve(ctx, w, r, "verification", "Verification", a.RemedyVerifications.Approve)
}

// ApproveStoryVerification handles
// POST /moderation/story-verifications/{id}/approve.
func (a *API) ApproveStoryVerification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.dbCtx(r)
	defer cancel()
	approve(ctx, w, r, "verification", "Verification", a.StoryVerifications.Approve)
}

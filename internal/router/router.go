// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// UnseenIndonesia API. Reads are public, writes need a session and
// moderation needs a moderator or admin role.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"unseenindonesia/internal/handlers"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(resolver middleware.Resolver, limiter *middleware.RateLimiter, api *handlers.API, auth *handlers.Auth) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Authenticate(resolver))
	if limiter != nil {
		r.Use(limiter.Writes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"Not found"}`)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`)
	})

	r.Get("/health", healthHandler)

	r.Route("/remedies", func(r chi.Router) {
		r.Get("/", api.ListRemedies)
		// Literal segments are registered before {id}.
		r.Get("/regions", api.RemedyRegions)
		r.Get("/categories", api.ListRemedyCategories)
		r.Get("/search", api.SearchRemedies)
		r.Post("/search", api.AdvancedSearchRemedies)

		r.Get("/{id}", api.GetRemedy)
		r.Get("/{id}/testimonials", api.ListTestimonials)
		r.Get("/{id}/verifications", api.ListRemedyVerifications)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", api.CreateRemedy)
			r.Post("/categories", api.CreateRemedyCategory)
			r.Put("/{id}", api.UpdateRemedy)
			r.Delete("/{id}", api.DeleteRemedy)
			r.Post("/{id}/testimonials", api.CreateTestimonial)
			r.Put("/{id}/testimonials", api.UpdateTestimonial)
			r.Post("/{id}/verifications", api.CreateRemedyVerification)
			r.Put("/{id}/verifications", api.UpdateRemedyVerification)
		})
	})

	r.Route("/stories", func(r chi.Router) {
		r.Get("/", api.ListStories)
		r.Get("/map", api.StoryMap)
		r.Get("/{id}", api.GetStory)
		r.Get("/{id}/verifications", api.ListStoryVerifications)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", api.CreateStory)
			r.Put("/{id}", api.UpdateStory)
			r.Delete("/{id}", api.DeleteStory)
			r.Post("/{id}/verifications", api.CreateStoryVerification)
			r.Put("/{id}/verifications", api.UpdateStoryVerification)
		})
	})

	r.Get("/categories", api.ListStoryCategories)
	r.Get("/locations", api.ListLocations)
	r.Get("/search", api.GlobalSearch)
	r.Get("/map/config", api.MapConfig)

	r.With(middleware.RequireAuth).Post("/uploads", api.Upload)

	r.Route("/moderation", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRole(models.RoleModerator, models.RoleAdmin))
		r.Post("/testimonials/{id}/approve", api.ApproveTestimonial)
		r.Post("/remedy-verifications/{id}/approve", api.ApproveRemedyVerification)
		r.Post("/story-verifications/{id}/approve", api.ApproveStoryVerification)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/session", auth.Session)
		r.Post("/refresh", auth.Refresh)
		r.Post("/signout", auth.SignOut)
		r.Get("/authorize/{provider}", auth.Authorize)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `{"status":"ok"}`)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

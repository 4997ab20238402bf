// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/models"
)

// Sessions is the part of the identity context the auth endpoints drive.
type Sessions interface {
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	AuthorizeURL(provider, redirectTo string) (string, error)
}

// ProfileRepo reads user profiles.
type ProfileRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Auth groups the session endpoints. Sign-in itself happens at the managed
// auth service; these handlers expose, refresh and end the session.
type Auth struct {
	sessions     Sessions
	profiles     ProfileRepo
	callbackURL  string
	secureCookie bool
}

// NewAuth creates the auth handler group. callbackURL is where the auth
// service sends the browser after an OAuth sign-in.
func NewAuth(sessions Sessions, profiles ProfileRepo, callbackURL string, secureCookie bool) *Auth {
	return &Auth{
		sessions:     sessions,
		profiles:     profiles,
		callbackURL:  callbackURL,
		secureCookie: secureCookie,
	}
}

// Session handles GET /auth/session and returns the caller with their
// profile.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := a.profiles.FindByID(r.Context(), u.ID)
	if err != nil {
		fail(w, err, "load profile", "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "profile": profile})
}

// Refresh handles POST /auth/refresh.
func (a *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	s, err := a.sessions.Refresh(r.Context(), body.RefreshToken)
	if errors.Is(err, identity.ErrInvalidToken) {
		writeError(w, http.StatusUnauthorized, "Session expired, please sign in again")
		return
	}
	if err != nil {
		fail(w, err, "refresh session")
		return
	}

	a.setTokenCookie(w, s.AccessToken, s.ExpiresIn)
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

// SignOut handles POST /auth/signout. Signing out without a session is a
// no-op.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromCtx(r.Context())
	if token == "" {
		token = middleware.AccessToken(r)
	}
	if token != "" {
		if err := a.sessions.SignOut(r.Context(), token); err != nil {
			fail(w, err, "sign out")
			return
		}
	}
	a.setTokenCookie(w, "", -1)
	if u := middleware.UserFromCtx(r.Context()); u != nil {
		slog.Info("user signed out", "user_id", u.ID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// Authorize handles GET /auth/authorize/{provider} by redirecting to the
// OAuth provider's consent screen.
func (a *Auth) Authorize(w http.ResponseWriter, r *http.Request) {
	target, err := a.sessions.AuthorizeURL(chi.URLParam(r, "provider"), a.callbackURL)
	if errors.Is(err, identity.ErrUnsupportedProvider) {
		writeError(w, http.StatusBadRequest, "Unsupported sign-in provider")
		return
	}
	if err != nil {
		fail(w, err, "build authorize url")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// setTokenCookie stores the access token for browser clients. A negative
// maxAge deletes the cookie.
func (a *Auth) setTokenCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

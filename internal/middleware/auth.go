// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "access_token"
)

// AccessTokenCookie is the cookie the web client stores its access token in.
const AccessTokenCookie = "sb-access-token"

// Resolver turns an access token into the user behind it.
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) (*identity.User, error)
}

// AccessToken reads the bearer token from the Authorization header, falling
// back to the access token cookie.
func AccessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate resolves the request's access token, if any, and stores the
// user in the request context. It never rejects a request: an absent,
// invalid or unverifiable token leaves the request anonymous, and
// RequireAuth decides whether that is acceptable.
func Authenticate(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := res.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, identity.ErrInvalidToken) {
					slog.Warn("resolve identity failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithUser(r.Context(), u)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth answers 401 when no user was resolved.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 for anonymous requests and 403 for users whose
// role is not one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromCtx(r.Context())
			if u == nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !slices.Contains(roles, u.Role) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUser returns a copy of ctx carrying u.
func ContextWithUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx returns the authenticated user, or nil for anonymous requests.
func UserFromCtx(ctx context.Context) *identity.User {
	u, _ := ctx.Value(userKey).(*identity.User)
	return u
}

// TokenFromCtx returns the access token the user was resolved from.
func TokenFromCtx(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

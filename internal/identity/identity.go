// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package identity resolves the current user from the managed auth
// service. Authentication itself (passwords, OAuth, token issuance) lives
// in that service; this package validates bearer tokens, caches the
// result, and notifies observers when a session starts or ends.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
)

var (
	// ErrInvalidToken is returned when the auth service rejects a token.
	ErrInvalidToken = errors.New("identity: invalid or expired token")

	// ErrUnsupportedProvider is returned for OAuth providers that are not
	// enabled.
	ErrUnsupportedProvider = errors.New("identity: unsupported provider")
)

// Providers lists the OAuth providers users may sign in with.
var Providers = []string{"google", "facebook"}

// Metadata is the free-form profile data the auth service keeps per user.
// OAuth providers disagree on field names, hence the pairs.
type Metadata struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Picture   string `json:"picture,omitempty"`
	Location  string `json:"location,omitempty"`
}

// DisplayName prefers full_name over name.
func (m Metadata) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Name
}

// Avatar prefers avatar_url over picture.
func (m Metadata) Avatar() string {
	if m.AvatarURL != "" {
		return m.AvatarURL
	}
	return m.Picture
}

// User is an authenticated principal.
type User struct {
	ID       uuid.UUID   `json:"id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Metadata Metadata    `json:"user_metadata"`
}

// CanModerate reports whether the user may approve community feedback.
func (u *User) CanModerate() bool {
	return u != nil && u.Role.CanModerate()
}

// Username derives a handle from the local part of the email address.
func (u *User) Username() string {
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// Session is a token pair issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Provider is the managed auth service as seen by this server.
type Provider interface {
	// User validates an access token and returns its owner.
	User(ctx context.Context, accessToken string) (*User, error)
	// Refresh exchanges a refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// SignOut revokes the session behind an access token.
	SignOut(ctx context.Context, accessToken string) error
	// AuthorizeURL returns where to send a browser to sign in with an
	// OAuth provider.
	AuthorizeURL(provider, redirectTo string) (string, error)
}

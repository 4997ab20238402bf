// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"unseenindonesia/internal/models"
)

// maxAuthResponse caps how much of an auth service reply is read.
const maxAuthResponse = 1 << 20

// Client implements Provider against the auth service REST API
// (/auth/v1/*).
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewClient creates a client for the auth service at baseURL.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// apiUser is the user object as the auth service returns it. The
// application role lives in app_metadata, which only the service can write.
type apiUser struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	UserMetadata Metadata `json:"user_metadata"`
}

func (u apiUser) toUser() User {
	role := models.Role(u.AppMetadata.Role)
	if role != models.RoleModerator && role != models.RoleAdmin {
		role = models.RoleMember
	}
	return User{ID: u.ID, Email: u.Email, Role: role, Metadata: u.UserMetadata}
}

type apiSession struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	User         apiUser `json:"user"`
}

// User validates accessToken.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	var u apiUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	user := u.toUser()
	return &user, nil
}

// Refresh exchanges refreshToken for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var s apiSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &s); err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		User:         s.User.toUser(),
	}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// AuthorizeURL builds the OAuth entry point for provider.
func (c *Client) AuthorizeURL(provider, redirectTo string) (string, error) {
	if !slices.Contains(Providers, provider) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

// do performs one API call. out may be nil when the response has no body.
// 400, 401 and 403 answers map to ErrInvalidToken.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("auth marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponse+1))
	if err != nil {
		return fmt.Errorf("auth read body: %w", err)
	}
	if len(respBody) > maxAuthResponse {
		return fmt.Errorf("auth response exceeds %d bytes", maxAuthResponse)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return ErrInvalidToken
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("auth API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("auth unmarshal: %w", err)
	}
	return nil
}

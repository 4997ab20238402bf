package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unseenindonesia/internal/models"
)

func TestClientUser(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":            id,
			"email":         "budi@example.com",
			"app_metadata":  map[string]any{"role": "moderator"},
			"user_metadata": map[string]any{"name": "Budi", "picture": "https://img.example/b.png"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon")

	u, err := c.User(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, models.RoleModerator, u.Role)
	assert.Equal(t, "Budi", u.Metadata.DisplayName())
	assert.Equal(t, "https://img.example/b.png", u.Metadata.Avatar())
	assert.True(t, u.CanModerate())

	_, err = c.User(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClientUnknownRoleIsMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"`+uuid.NewString()+`","email":"a@b.c","app_metadata":{"role":"superuser"}}`)
	}))
	defer srv.Close()

	u, err := NewClient(srv.URL, "anon").User(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, u.Role)
	assert.False(t, u.CanModerate())
}

func TestClientRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "r1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"access_token":"a2","refresh_token":"r2","token_type":"bearer","expires_in":3600,
			"user":{"id":"`+uuid.NewString()+`","email":"x@y.z"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	s, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", s.AccessToken)
	assert.Equal(t, "r2", s.RefreshToken)
	assert.Equal(t, 3600, s.ExpiresIn)

	_, err = c.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClientSignOutAndServerErrors(t *testing.T) {
	status := http.StatusNoContent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	assert.NoError(t, c.SignOut(context.Background(), "tok"))

	status = http.StatusBadGateway
	err := c.SignOut(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "502")
}

func TestClientAuthorizeURL(t *testing.T) {
	c := NewClient("https://auth.example", "anon")

	raw, err := c.AuthorizeURL("google", "http://localhost:3000/auth/callback")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	assert.Equal(t, "google", u.Query().Get("provider"))
	assert.Equal(t, "http://localhost:3000/auth/callback", u.Query().Get("redirect_to"))

	_, err = c.AuthorizeURL("myspace", "x")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestClientRejectsOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"`+uuid.NewString()+`","email":"a@b.c","user_metadata":{"bio":"`)
		io.WriteString(w, strings.Repeat("x", maxAuthResponse))
		io.WriteString(w, `"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "anon").User(context.Background(), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

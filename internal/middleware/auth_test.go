package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/models"
)

// stubResolver maps tokens to users; unknown tokens are invalid.
type stubResolver struct {
	users map[string]*identity.User
	err   error
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*identity.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return u, nil
}

func newTestUser(role models.Role) *identity.User {
	return &identity.User{ID: uuid.New(), Email: "tester@unseen.local", Role: role}
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

// ---------- AccessToken ----------

func TestAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc.def", "", "abc.def"},
		{"case-insensitive scheme", "bearer abc", "", "abc"},
		{"header wins over cookie", "Bearer h", "c", "h"},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"non-bearer scheme", "Basic dXNlcjpwYXNz", "c", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if got := AccessToken(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------- Authenticate ----------

func TestAuthenticate(t *testing.T) {
	member := newTestUser(models.RoleMember)
	res := &stubResolver{users: map[string]*identity.User{"good": member}}

	var gotUser *identity.User
	var gotToken string
	handler := Authenticate(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromCtx(r.Context())
		gotToken = TokenFromCtx(r.Context())
	}))

	t.Run("valid token stores user and token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if gotUser == nil || gotUser.ID != member.ID {
			t.Fatalf("user: got %+v, want %+v", gotUser, member)
		}
		if gotToken != "good" {
			t.Errorf("token: got %q", gotToken)
		}
	})

	t.Run("invalid token stays anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if gotUser != nil {
			t.Errorf("expected anonymous request, got %+v", gotUser)
		}
		if rr.Code != http.StatusOK {
			t.Errorf("Authenticate must not reject, got %d", rr.Code)
		}
	})

	t.Run("no token skips the resolver", func(t *testing.T) {
		before := res.calls
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if res.calls != before {
			t.Error("resolver should not be called without a token")
		}
		if gotUser != nil {
			t.Error("expected anonymous request")
		}
	})

	t.Run("provider failure stays anonymous", func(t *testing.T) {
		failing := Authenticate(&stubResolver{err: errors.New("auth service down")})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserFromCtx(r.Context())
			}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "x"})
		failing.ServeHTTP(httptest.NewRecorder(), req)
		if gotUser != nil {
			t.Error("expected anonymous request")
		}
	})
}

// ---------- RequireAuth ----------

func TestRequireAuth(t *testing.T) {
	t.Run("returns 401 JSON when anonymous", func(t *testing.T) {
		inner, called := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/remedies", nil))

		if *called {
			t.Error("next handler should NOT have been called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"error":"Authentication required"`) {
			t.Errorf("body: got %q", rr.Body.String())
		}
	})

	t.Run("passes through when a user is present", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodPost, "/remedies", nil)
		req = req.WithContext(ContextWithUser(req.Context(), newTestUser(models.RoleMember)))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if !*called {
			t.Error("next handler should have been called")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})

	t.Run("wrong type in context counts as anonymous", func(t *testing.T) {
		inner, _ := okHandler()
		req := httptest.NewRequest(http.MethodPost, "/remedies", nil)
		req = req.WithContext(context.WithValue(req.Context(), userKey, "not-a-user"))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})
}

// ---------- RequireRole ----------

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		user           *identity.User
		wantCode       int
		wantNextCalled bool
	}{
		{"anonymous gets 401", nil, http.StatusUnauthorized, false},
		{"member gets 403", newTestUser(models.RoleMember), http.StatusForbidden, false},
		{"empty role gets 403", newTestUser(""), http.StatusForbidden, false},
		{"moderator passes", newTestUser(models.RoleModerator), http.StatusOK, true},
		{"admin passes", newTestUser(models.RoleAdmin), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, called := okHandler()
			handler := RequireRole(models.RoleModerator, models.RoleAdmin)(inner)

			req := httptest.NewRequest(http.MethodPost, "/moderation/testimonials/x/approve", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if *called != tt.wantNextCalled {
				t.Errorf("next handler called: got %v, want %v", *called, tt.wantNextCalled)
			}
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

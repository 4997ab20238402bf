package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/models"
)

// fakeClock is advanced by hand so window tests never sleep.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("ip:10.0.0.1"); !ok {
			t.Fatalf("write %d should be allowed", i+1)
		}
	}

	clock.advance(20 * time.Second)
	ok, wait := rl.allow("ip:10.0.0.1")
	if ok {
		t.Fatal("fourth write in the window should be refused")
	}
	if wait != 40*time.Second {
		t.Errorf("wait: got %v, want 40s", wait)
	}

	if ok, _ := rl.allow("ip:10.0.0.2"); !ok {
		t.Error("other contributors have their own window")
	}

	clock.advance(40 * time.Second)
	if ok, _ := rl.allow("ip:10.0.0.1"); !ok {
		t.Error("a new window should open after the period")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute)

	rl.allow("ip:old")
	clock.advance(45 * time.Second)
	rl.allow("ip:fresh")
	clock.advance(20 * time.Second)

	rl.sweep()

	rl.mu.Lock()
	_, oldKept := rl.windows["ip:old"]
	_, freshKept := rl.windows["ip:fresh"]
	rl.mu.Unlock()

	if oldKept {
		t.Error("finished window should be swept")
	}
	if !freshKept {
		t.Error("open window should survive the sweep")
	}
}

func TestWritesLimitsOnlyStateChanges(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	handler := rl.Writes(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/remedies", nil)
		req.RemoteAddr = "10.1.1.1:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 5; i++ {
		if rr := send(http.MethodGet); rr.Code != http.StatusOK {
			t.Fatalf("GET %d: got %d, reads must not be limited", i, rr.Code)
		}
	}
	if rr := send(http.MethodPost); rr.Code != http.StatusOK {
		t.Fatalf("first POST: got %d", rr.Code)
	}

	rr := send(http.MethodPut)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write: got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After: got %q, want 60", got)
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("body should be the JSON error envelope, got %q", rr.Body.String())
	}
}

func TestWritesCountsSignedInUsersByAccount(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	handler := rl.Writes(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	// Two contributors behind the same campus NAT.
	post := func(u *identity.User) int {
		req := httptest.NewRequest(http.MethodPost, "/stories", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req = req.WithContext(ContextWithUser(req.Context(), u))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}
	ayu := &identity.User{ID: uuid.New(), Role: models.RoleMember}
	budi := &identity.User{ID: uuid.New(), Role: models.RoleMember}

	if code := post(ayu); code != http.StatusCreated {
		t.Fatalf("ayu: got %d", code)
	}
	if code := post(budi); code != http.StatusCreated {
		t.Errorf("budi shares the IP but not the window: got %d", code)
	}
	if code := post(ayu); code != http.StatusTooManyRequests {
		t.Errorf("ayu again: got %d, want 429", code)
	}
}

func TestRetrySeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{time.Minute, 60},
	}
	for _, tt := range tests {
		if got := retrySeconds(tt.in); got != tt.want {
			t.Errorf("retrySeconds(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded chain keeps the origin", "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"real ip header", "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"remote addr", "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr without port", "", "", "192.168.1.1", "192.168.1.1"},
		{"ipv6", "", "", "[2001:db8::1]:443", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

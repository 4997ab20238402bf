// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// EventKind classifies a session change.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
	TokenRefreshed
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case TokenRefreshed:
		return "token_refreshed"
	}
	return "unknown"
}

// Event describes a session change. User is nil for a sign-out whose
// owner was not cached.
type Event struct {
	Kind EventKind
	User *User
	At   time.Time
}

// Listener observes session changes. Listeners run synchronously on the
// goroutine that caused the change, before the call returns.
type Listener func(ctx context.Context, e Event)

// Cache stores resolved users keyed by access token.
type Cache interface {
	Get(ctx context.Context, token string, v any) (bool, error)
	Set(ctx context.Context, token string, v any) error
	Delete(ctx context.Context, token string) error
}

// Context is the explicit session/identity object shared by the request
// handlers. It has no global state; create one per process with New.
type Context struct {
	provider Provider
	cache    Cache

	mu        sync.RWMutex
	listeners map[int]Listener
	watchers  map[int]chan Event
	nextID    int
}

// New creates a Context. cache may be nil, in which case every Resolve
// asks the provider.
func New(provider Provider, cache Cache) *Context {
	return &Context{
		provider:  provider,
		cache:     cache,
		listeners: map[int]Listener{},
		watchers:  map[int]chan Event{},
	}
}

// OnChange registers l and returns a function that removes it.
func (c *Context) OnChange(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Watch returns a channel that receives every event until ctx is done,
// after which it is closed. Events are dropped when the buffer is full.
func (c *Context) Watch(ctx context.Context, buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (c *Context) publish(ctx context.Context, kind EventKind, u *User) {
	e := Event{Kind: kind, User: u, At: time.Now()}

	c.mu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	for _, ch := range c.watchers {
		select {
		case ch <- e:
		default:
			slog.Warn("identity watcher full, event dropped", "event", kind.String())
		}
	}
	c.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, e)
	}
}

// Resolve returns the user behind accessToken. A cached identity is
// returned without contacting the provider; otherwise the provider
// validates the token, the result is cached, and SignedIn is published.
func (c *Context) Resolve(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	if c.cache != nil {
		var u User
		ok, err := c.cache.Get(ctx, accessToken, &u)
		if err != nil {
			slog.Warn("identity cache get error", "error", err)
		}
		if ok {
			return &u, nil
		}
	}

	u, err := c.provider.User(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, accessToken, u); err != nil {
			slog.Warn("identity cache set error", "error", err)
		}
	}
	c.publish(ctx, SignedIn, u)
	return u, nil
}

// Refresh exchanges a refresh token, caches the new access token and
// publishes TokenRefreshed.
func (c *Context) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	s, err := c.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, s.AccessToken, &s.User); err != nil {
			slog.Warn("identity cache set error", "error", err)
		}
	}
	c.publish(ctx, TokenRefreshed, &s.User)
	return s, nil
}

// SignOut revokes the session, forgets the cached identity and publishes
// SignedOut. A token the provider already considers invalid still counts
// as signed out.
func (c *Context) SignOut(ctx context.Context, accessToken string) error {
	var owner *User
	if c.cache != nil {
		var u User
		if ok, _ := c.cache.Get(ctx, accessToken, &u); ok {
			owner = &u
		}
		if err := c.cache.Delete(ctx, accessToken); err != nil {
			slog.Warn("identity cache delete error", "error", err)
		}
	}

	if err := c.provider.SignOut(ctx, accessToken); err != nil && !errors.Is(err, ErrInvalidToken) {
		return err
	}
	c.publish(ctx, SignedOut, owner)
	return nil
}

// AuthorizeURL delegates to the provider.
func (c *Context) AuthorizeURL(provider, redirectTo string) (string, error) {
	return c.provider.AuthorizeURL(provider, redirectTo)
}

// LogEvents writes each session change to the debug log until events is
// closed. It is meant to drain a Watch channel on its own goroutine.
func LogEvents(events <-chan Event) {
	for e := range events {
		attrs := []any{"event", e.Kind.String(), "at", e.At}
		if e.User != nil {
			attrs = append(attrs, "user_id", e.User.ID, "role", e.User.Role)
		}
		slog.Debug("session changed", attrs...)
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package viewcount increments view counters in the background so a detail
// read never waits on, or fails because of, its counter update. Delivery is
// at-most-once: when the queue is full the view is dropped and logged.
package viewcount

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names the counted entity.
type Kind string

const (
	Story  Kind = "story"
	Remedy Kind = "remedy"
)

// DefaultTimeout bounds a single increment.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("viewcount: closed")

// Incrementer performs the atomic +1 for one entity.
type Incrementer interface {
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type view struct {
	kind Kind
	id   uuid.UUID
}

// Counter is a bounded queue drained by a fixed set of workers.
type Counter struct {
	targets map[Kind]Incrementer
	timeout time.Duration
	queue   chan view
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts workers goroutines draining a queue of the given size.
func New(targets map[Kind]Incrementer, workers, queue int, timeout time.Duration) *Counter {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Counter{
		targets: targets,
		timeout: timeout,
		queue:   make(chan view, queue),
	}
	c.wg.Add(workers)
	for range workers {
		go c.work()
	}
	return c
}

// Record enqueues one view. It never blocks.
func (c *Counter) Record(kind Kind, id uuid.UUID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.queue <- view{kind: kind, id: id}:
	default:
		slog.Warn("view count queue full, view dropped", "kind", kind, "id", id)
	}
	return nil
}

func (c *Counter) work() {
	defer c.wg.Done()
	for v := range c.queue {
		c.apply(v)
	}
}

func (c *Counter) apply(v view) {
	target, ok := c.targets[v.kind]
	if !ok {
		slog.Warn("view count for unknown kind", "kind", v.kind, "id", v.id)
		return
	}
	// Detached from the request: the response is usually gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := target.IncrementViewCount(ctx, v.id); err != nil {
		slog.Warn("view count increment failed", "kind", v.kind, "id", v.id, "error", err)
	}
}

// Close stops accepting views and waits for queued ones to finish or for ctx
// to expire.
func (c *Counter) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

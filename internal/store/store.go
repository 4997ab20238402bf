// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store is the persistence gateway. Each store wraps a *sql.DB
// backed by the pgx driver and speaks plain parameterized SQL. Lookups by
// id return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrConflict is returned when an insert violates a uniqueness rule, such
// as a second testimonial by the same user on the same remedy.
var ErrConflict = errors.New("store: conflict")

// ErrUnknownReference is returned when a write names a category, location
// or parent row that does not exist.
var ErrUnknownReference = errors.New("store: unknown reference")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// wrap annotates err with op, translating unique and foreign key
// violations to ErrConflict and ErrUnknownReference.
func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w", op, ErrUnknownReference)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// pgtype.Map caches scan plans internally and is not safe for concurrent
// use, so array scans share one map under a lock.
var (
	typeMapMu sync.Mutex
	typeMap   = pgtype.NewMap()
)

// textArray scans a text[] column into dst.
type textArray struct{ dst *[]string }

func (a textArray) Scan(src any) error {
	typeMapMu.Lock()
	defer typeMapMu.Unlock()
	if err := typeMap.SQLScanner(a.dst).Scan(src); err != nil {
		return err
	}
	if *a.dst == nil {
		*a.dst = []string{}
	}
	return nil
}

// nonNil keeps empty arrays from being written as NULL.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// idStrings renders ids for an ANY($n::uuid[]) parameter.
func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

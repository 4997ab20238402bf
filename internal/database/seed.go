// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type seedCategory struct {
	name, icon, color, description string
}

var storyCategories = []seedCategory{
	{"Legenda", "📜", "#8B5CF6", "Cerita rakyat dan legenda turun-temurun"},
	{"Sejarah Lokal", "🏛️", "#F59E0B", "Peristiwa bersejarah di tingkat daerah"},
	{"Tempat Angker", "🌑", "#6B7280", "Kisah tempat-tempat misterius"},
	{"Tradisi", "🎎", "#EF4444", "Adat istiadat dan upacara tradisional"},
	{"Tokoh", "👤", "#3B82F6", "Tokoh lokal yang terlupakan"},
}

var remedyCategories = []seedCategory{
	{"Jamu", "🌿", "#10B981", "Minuman herbal tradisional"},
	{"Pijat & Urut", "💆", "#F97316", "Teknik pijat tradisional"},
	{"Ramuan Luar", "🍃", "#84CC16", "Ramuan untuk pemakaian luar"},
	{"Makanan Sehat", "🍲", "#EAB308", "Masakan berkhasiat"},
}

type seedLocation struct {
	name, kind string
	lat, lng   float64
}

var seedLocations = []seedLocation{
	{"Indonesia", "country", -2.5489, 118.0149},
	{"DI Yogyakarta", "province", -7.7956, 110.3695},
	{"Jawa Tengah", "province", -7.1510, 110.1403},
	{"Bali", "province", -8.3405, 115.0920},
	{"Sumatera Barat", "province", -0.7399, 100.8000},
	{"Candi Borobudur", "landmark", -7.6079, 110.2038},
}

// Seed populates an empty database with the category and location
// vocabulary needed for development. It is a no-op once categories exist.
func Seed(db *sql.DB) error {
	ctx := context.Background()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range storyCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, icon, color, description) VALUES ($1, $2, $3, $4)`,
			c.name, c.icon, c.color, c.description,
		); err != nil {
			return fmt.Errorf("seed story category %q: %w", c.name, err)
		}
	}

	for _, c := range remedyCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO remedy_categories (name, icon, color, description) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name) DO NOTHING`,
			c.name, c.icon, c.color, c.description,
		); err != nil {
			return fmt.Errorf("seed remedy category %q: %w", c.name, err)
		}
	}

	for _, l := range seedLocations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (name, type, latitude, longitude) VALUES ($1, $2, $3, $4)`,
			l.name, l.kind, l.lat, l.lng,
		); err != nil {
			return fmt.Errorf("seed location %q: %w", l.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"story_categories", len(storyCategories),
		"remedy_categories", len(remedyCategories),
		"locations", len(seedLocations),
	)
	return nil
}
